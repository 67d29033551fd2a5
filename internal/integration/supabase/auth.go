package supabase

import (
	"context"
	"errors"
	"net/http"
)

const minPasswordLength = 6

// User is the identity returned by Supabase Auth.
type User struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

// Username reads the username chosen at sign-up, if any.
func (u User) Username() string {
	if u.UserMetadata == nil {
		return ""
	}
	value, _ := u.UserMetadata["username"].(string)
	return value
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// PasswordError rejects a password before it reaches Supabase.
type PasswordError struct {
	Message string
}

func (e PasswordError) Error() string {
	return e.Message
}

func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return PasswordError{Message: "password must be at least 6 characters"}
	}
	return nil
}

// SignUp registers the account. Session is nil when e-mail confirmation is pending.
func (c *Client) SignUp(ctx context.Context, email, password, username string) (*User, *Session, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"username": username},
	}

	var payload struct {
		Session
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", c.publishableKey, "", body, &payload); err != nil {
		return nil, nil, err
	}

	if payload.AccessToken == "" {
		user := User{ID: payload.ID, Email: payload.Email}
		if payload.User.ID != "" {
			user = payload.User
		}
		return &user, nil, nil
	}
	session := payload.Session
	return &session.User, &session, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.publishableKey, "", body, &session)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &session, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return unauthorizedAs(c.do(ctx, http.MethodPost, "/auth/v1/logout", c.publishableKey, accessToken, nil, nil))
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", c.publishableKey, accessToken, nil, &user); err != nil {
		return nil, unauthorizedAs(err)
	}
	if user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	body := map[string]string{"password": password}
	return unauthorizedAs(c.do(ctx, http.MethodPut, "/auth/v1/user", c.publishableKey, accessToken, body, nil))
}

func unauthorizedAs(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return ErrUnauthorized
	}
	return err
}
