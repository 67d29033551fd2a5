package common

import (
	"errors"
	"net/http"
	"strings"

	"booknook-go/internal/integration/supabase"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type authUserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type authResponse struct {
	User    authUserResponse `json:"user"`
	Session *sessionResponse `json:"session"`
}

type authMeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

var authRules = []Rule{
	{Match: As[supabase.PasswordError](), Status: http.StatusBadRequest, Code: "invalid_password"},
	{Match: Is(supabase.ErrInvalidCredentials), Status: http.StatusUnauthorized, Code: "invalid_credentials"},
	{Match: Is(supabase.ErrUnauthorized), Status: http.StatusUnauthorized, Code: "invalid_token"},
	{Match: isClientRejection, Status: http.StatusBadRequest, Code: "auth_rejected"},
}

func isClientRejection(err error) bool {
	var apiErr *supabase.APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

func toSession(session *supabase.Session) *sessionResponse {
	if session == nil {
		return nil
	}
	return &sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
	}
}

func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email, password and username are required")
		return
	}

	user, session, err := h.Auth.SignUp(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		Fail(w, h.log, "auth.signup: sign up failed", err, authRules, "email", req.Email)
		return
	}

	if err := h.Users.UpsertProfile(r.Context(), user.ID, user.Email, req.Username); err != nil {
		h.log.InternalError("auth.signup: create profile failed", err, "user_id", user.ID)
	}

	writeJSON(w, http.StatusCreated, authResponse{
		User:    authUserResponse{ID: user.ID, Email: user.Email, Username: req.Username},
		Session: toSession(session),
	})
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	session, err := h.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		Fail(w, h.log, "auth.signin: sign in failed", err, authRules, "email", req.Email)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User: authUserResponse{
			ID:       session.User.ID,
			Email:    session.User.Email,
			Username: session.User.Username(),
		},
		Session: toSession(session),
	})
}

func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(w, r)
	if !ok {
		return
	}

	if user.AccessToken != "" {
		if err := h.Auth.SignOut(r.Context(), user.AccessToken); err != nil {
			Fail(w, h.log, "auth.signout: sign out failed", err, authRules, "user_id", user.ID)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := CurrentUser(w, r)
	if !ok {
		return
	}
	if err := supabase.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_password", err.Error())
		return
	}

	if err := h.Auth.UpdatePassword(r.Context(), user.AccessToken, req.Password); err != nil {
		Fail(w, h.log, "auth.password: update password failed", err, authRules, "user_id", user.ID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, authMeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	})
}
