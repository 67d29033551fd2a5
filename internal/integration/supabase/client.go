// Package supabase talks to the hosted Supabase Auth and Storage REST APIs.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotConfigured      = errors.New("supabase is not configured")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUnauthorized       = errors.New("invalid or expired session")
)

// APIError is a non-2xx response that has no more specific mapping.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.Status, e.Message)
}

type Config struct {
	URL            string
	PublishableKey string
	ServiceKey     string
	Timeout        time.Duration
}

type Client struct {
	baseURL        string
	publishableKey string
	serviceKey     string
	http           *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		publishableKey: cfg.PublishableKey,
		serviceKey:     cfg.ServiceKey,
		http:           &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c.baseURL != "" && c.publishableKey != ""
}

func (c *Client) do(ctx context.Context, method, path, apiKey, bearer string, body interface{}, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type errorResponse struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload errorResponse
	_ = json.Unmarshal(raw, &payload)
	message := firstNonEmpty(payload.ErrorDescription, payload.Message, payload.Msg, payload.Error)
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
