// Package api is the HTTP client for the ContentReaper backend. It owns the
// REST surface only; retry, reconciliation and optimistic state live above it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests.
	DefaultTimeout = 10 * time.Second
	// MaxResponseSize is the maximum response body size (4MB). Snapshots
	// carry the full history log, so the cap is generous.
	MaxResponseSize = 4 * 1024 * 1024
)

// ErrAuthRequired marks a 401/403-class response. The auth gate intercepts
// this error; it must never surface as a generic failure.
var ErrAuthRequired = errors.New("authentication required")

// Error is the backend's JSON error contract: a human-readable message
// under a distinguishing status code.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return e.Message
}

// Request is a mutating call descriptor. Bodies are held as bytes so the
// auth gate can park a request and replay it after login.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
	// Kind names the user action for logging and supersede decisions.
	Kind string
}

// Doer executes mutating requests on the client's behalf. The auth gate
// implements this to attach the anti-forgery token and run the login-replay
// protocol; the zero value of Client sends requests directly.
type Doer interface {
	Do(ctx context.Context, req Request) (*http.Response, error)
}

// Client is an HTTP client for the ContentReaper REST API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	doer Doer
}

// NewClient creates a new backend API client with the default timeout.
// The client carries a cookie jar: the backend session is cookie-based and
// the login flow depends on it.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
	}
}

// UseDoer routes all mutating requests through d. Called once during engine
// wiring to install the auth gate.
func (c *Client) UseDoer(d Doer) {
	c.doer = d
}

// Message is the backend's generic success payload.
type Message struct {
	Message string `json:"message"`
}

// get performs a GET request and decodes the JSON response leniently.
// Unknown fields are ignored so the backend can evolve without breaking
// the console.
func (c *Client) get(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return DecodeResponse(resp, target)
}

// mutate performs a mutating request through the installed Doer and decodes
// the JSON response.
func (c *Client) mutate(ctx context.Context, kind, method, path string, payload, target interface{}) error {
	var body []byte
	contentType := ""
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		contentType = "application/json"
	}

	req := Request{
		Method:      method,
		URL:         c.BaseURL + path,
		Body:        body,
		ContentType: contentType,
		Kind:        kind,
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return DecodeResponse(resp, target)
}

func (c *Client) doRequest(ctx context.Context, req Request) (*http.Response, error) {
	if c.doer != nil {
		return c.doer.Do(ctx, req)
	}
	httpReq, err := BuildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// BuildHTTPRequest converts a Request descriptor into an *http.Request.
// Safe to call repeatedly for the same descriptor; replay depends on that.
func BuildHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	var reader io.Reader
	if req.Body != nil {
		reader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	return httpReq, nil
}

// DecodeResponse reads a backend response: 2xx bodies decode into target
// (leniently), 401/403 map to ErrAuthRequired, and everything else becomes
// an *Error carrying the server's message field.
func DecodeResponse(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrAuthRequired, errorMessage(body, resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

// errorMessage extracts the backend's error field, falling back to a
// status-code description.
func errorMessage(body []byte, statusCode int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}
