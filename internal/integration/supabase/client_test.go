package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{URL: server.URL + "/", PublishableKey: "anon", ServiceKey: "service"})
}

func TestSignUpReturnsSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var body struct {
			Email string            `json:"email"`
			Data  map[string]string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body.Email)
		assert.Equal(t, "alice", body.Data["username"])

		_, _ = io.WriteString(w, `{"access_token":"tok","refresh_token":"ref","user":{"id":"u-1","email":"alice@example.com"}}`)
	})

	user, session, err := client.SignUp(context.Background(), "alice@example.com", "secret1", "alice")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "tok", session.AccessToken)
	assert.Equal(t, "u-1", user.ID)
}

func TestSignUpPendingConfirmation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"u-2","email":"bob@example.com"}`)
	})

	user, session, err := client.SignUp(context.Background(), "bob@example.com", "secret1", "bob")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, "u-2", user.ID)
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	})

	_, _, err := client.SignUp(context.Background(), "bob@example.com", "12345", "bob")
	var passwordErr PasswordError
	assert.ErrorAs(t, err, &passwordErr)
}

func TestSignInMapsBadCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
	})

	_, err := client.SignIn(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"msg":"invalid JWT"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"u-1","email":"alice@example.com","user_metadata":{"username":"alice"}}`)
	})

	user, err := client.GetUser(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username())

	_, err = client.GetUser(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdatePasswordAndSignOut(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.UpdatePassword(context.Background(), "tok", "newsecret"))
	require.NoError(t, client.SignOut(context.Background(), "tok"))
	assert.Equal(t, []string{"PUT /auth/v1/user", "POST /auth/v1/logout"}, calls)
}

func TestUploadReturnsPublicURL(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"Key":"avatars/u-1-1.png"}`)
	})

	url, err := client.Upload(context.Background(), "avatars", "u-1-1.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/avatars/u-1-1.png", gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png"), gotBody)
	assert.Equal(t, client.baseURL+"/storage/v1/object/public/avatars/u-1-1.png", url)
}

func TestUploadSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"The resource already exists"}`)
	})

	_, err := client.Upload(context.Background(), "avatars", "x.png", "image/png", []byte("png"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "The resource already exists", apiErr.Message)
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.GetUser(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = client.Upload(context.Background(), "b", "p", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}
