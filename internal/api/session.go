package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TokenHeader carries the anti-forgery token on every mutating request.
const TokenHeader = "X-CSRFToken"

// AuthStatus reports who the backend thinks we are.
type AuthStatus struct {
	AdminPasswordSet bool            `json:"admin_password_set"`
	LoggedIn         bool            `json:"logged_in"`
	ManuallyLoggedIn bool            `json:"manually_logged_in"`
	Role             string          `json:"role"`
	Permissions      map[string]bool `json:"permissions"`
}

// CSRFToken fetches a fresh anti-forgery token. Read-only, so it never
// routes through the auth gate.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	var payload struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := c.get(ctx, "/api/auth/csrf-token", &payload); err != nil {
		return "", fmt.Errorf("token fetch failed: %w", err)
	}
	if payload.CSRFToken == "" {
		return "", fmt.Errorf("backend returned an empty anti-forgery token")
	}
	return payload.CSRFToken, nil
}

// Auth fetches the current authentication status.
func (c *Client) Auth(ctx context.Context) (AuthStatus, error) {
	var status AuthStatus
	if err := c.get(ctx, "/api/auth/status", &status); err != nil {
		return AuthStatus{}, fmt.Errorf("auth status fetch failed: %w", err)
	}
	return status, nil
}

// Login authenticates the session. It is called by the auth gate itself, so
// it sends directly rather than through the gate; a 401 here means bad
// credentials, not a request to park and replay.
func (c *Client) Login(ctx context.Context, username, password, token string) error {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}
	return c.postDirect(ctx, "/api/auth/login", payload, token, nil)
}

// Logout drops the backend session. Sent directly for the same reason as
// Login: a logged-out session must not trigger the login prompt.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.postDirect(ctx, "/api/auth/logout", nil, token, nil)
}

// SetPassword updates a user's password and permissions. Admin-only, so it
// goes through the gate like any other mutating call.
func (c *Client) SetPassword(ctx context.Context, username, password string, permissions map[string]bool) error {
	payload := struct {
		Password    string          `json:"password,omitempty"`
		Permissions map[string]bool `json:"permissions"`
	}{Password: password, Permissions: permissions}
	if payload.Permissions == nil {
		payload.Permissions = map[string]bool{}
	}
	return c.mutate(ctx, "set-password", http.MethodPut, "/api/users/"+username, payload, nil)
}

// postDirect sends a mutating request without the gate, attaching the given
// anti-forgery token directly.
func (c *Client) postDirect(ctx context.Context, path string, payload interface{}, token string, target interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return DecodeResponse(resp, target)
}
