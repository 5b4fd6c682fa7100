// Package auth guards mutating backend calls: it attaches the anti-forgery
// token, intercepts authentication-required responses, runs the credential
// prompt flow and replays the parked request exactly once after login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/logger"
)

const component = "AuthGate"

// DefaultMaxLoginAttempts bounds the prompt loop for one parked request.
const DefaultMaxLoginAttempts = 3

var (
	// ErrLoginCancelled is returned when the user dismisses the prompt.
	ErrLoginCancelled = errors.New("login cancelled")
	// ErrLoginFailed is returned after repeated credential failures.
	ErrLoginFailed = errors.New("login failed")
	// ErrSuperseded is returned when a newer auth-required event replaced
	// this request in the retry slot; replaying it would act on an action
	// the user no longer intends.
	ErrSuperseded = errors.New("request superseded by a newer action")
)

// Credentials are what the prompt flow collects.
type Credentials struct {
	Username string
	Password string
}

// CredentialPrompter obtains credentials from the user. It blocks until the
// user answers or dismisses the prompt; ok=false means dismissed.
type CredentialPrompter interface {
	Prompt(ctx context.Context, action string) (creds Credentials, ok bool, err error)
}

// Backend is the slice of the API client the gate needs for its own calls.
type Backend interface {
	CSRFToken(ctx context.Context) (string, error)
	Login(ctx context.Context, username, password, token string) error
	Logout(ctx context.Context, token string) error
}

// Gate implements api.Doer. One Gate exists per engine; all mutating
// requests flow through it.
type Gate struct {
	httpClient  *http.Client
	backend     Backend
	prompter    CredentialPrompter
	maxAttempts int

	mu         sync.Mutex
	token      string
	loginEpoch int
	retrySeq   int // identifies the request currently holding the retry slot

	// promptMu serializes the recover flow so concurrent auth failures
	// cannot run two prompts at once.
	promptMu sync.Mutex
}

// NewGate creates the auth gate. httpClient must be the API client's own
// HTTP client so the session cookie is shared.
func NewGate(httpClient *http.Client, backend Backend, prompter CredentialPrompter) *Gate {
	return &Gate{
		httpClient:  httpClient,
		backend:     backend,
		prompter:    prompter,
		maxAttempts: DefaultMaxLoginAttempts,
	}
}

// SetPrompter replaces the credential prompter. Wiring-time only: the TUI
// installs its modal prompter here before any request flows through the gate.
func (g *Gate) SetPrompter(p CredentialPrompter) {
	g.promptMu.Lock()
	g.prompter = p
	g.promptMu.Unlock()
}

// Do sends a mutating request with the anti-forgery token attached. On an
// authentication-required response it parks the request, prompts for
// credentials, and replays exactly once after a successful login.
func (g *Gate) Do(ctx context.Context, req api.Request) (*http.Response, error) {
	resp, err := g.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if !authRequired(resp) {
		return resp, nil
	}

	// The session is gone; so is the token tied to it.
	drain(resp)
	g.invalidate()

	return g.recover(ctx, req)
}

// Token returns the current anti-forgery token, fetching one if absent.
func (g *Gate) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	token := g.token
	g.mu.Unlock()
	if token != "" {
		return token, nil
	}

	fresh, err := g.backend.CSRFToken(ctx)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.token = fresh
	g.mu.Unlock()
	return fresh, nil
}

// Logout drops the backend session and local token.
func (g *Gate) Logout(ctx context.Context) error {
	token, err := g.Token(ctx)
	if err != nil {
		return err
	}
	if err := g.backend.Logout(ctx, token); err != nil {
		return err
	}
	g.invalidate()
	return nil
}

func (g *Gate) send(ctx context.Context, req api.Request) (*http.Response, error) {
	token, err := g.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("token fetch failed: %w", err)
	}

	httpReq, err := api.BuildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(api.TokenHeader, token)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// recover runs the park-prompt-login-replay protocol for one request.
func (g *Gate) recover(ctx context.Context, req api.Request) (*http.Response, error) {
	// Take the retry slot. Replace semantics: a later auth failure bumps
	// the sequence and the earlier holder gives up without replaying.
	g.mu.Lock()
	g.retrySeq++
	mySeq := g.retrySeq
	myEpoch := g.loginEpoch
	g.mu.Unlock()

	logger.Infof(component, "authentication required for %s, parking request", req.Kind)

	g.promptMu.Lock()
	defer g.promptMu.Unlock()

	// Someone else may have completed a login while we waited for the
	// prompt lock. If so, try the replay before bothering the user again.
	g.mu.Lock()
	loggedInMeanwhile := g.loginEpoch != myEpoch
	superseded := g.retrySeq != mySeq
	g.mu.Unlock()
	if superseded {
		return nil, ErrSuperseded
	}
	if loggedInMeanwhile {
		resp, err := g.send(ctx, req)
		if err != nil {
			return nil, err
		}
		if !authRequired(resp) {
			return resp, nil
		}
		drain(resp)
		g.invalidate()
	}

	if err := g.promptAndLogin(ctx, req.Kind); err != nil {
		g.releaseSlot(mySeq)
		return nil, err
	}

	g.mu.Lock()
	superseded = g.retrySeq != mySeq
	g.mu.Unlock()
	if superseded {
		return nil, ErrSuperseded
	}

	// Replay exactly once. Whatever comes back is the final answer; a
	// second authentication failure surfaces to the caller as terminal.
	logger.Infof(component, "login succeeded, replaying %s", req.Kind)
	return g.send(ctx, req)
}

// promptAndLogin collects credentials and logs in, retrying on bad
// credentials up to the attempt limit.
func (g *Gate) promptAndLogin(ctx context.Context, action string) error {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		creds, ok, err := g.prompter.Prompt(ctx, action)
		if err != nil {
			return fmt.Errorf("credential prompt failed: %w", err)
		}
		if !ok {
			logger.Infof(component, "login prompt dismissed, discarding parked %s", action)
			return ErrLoginCancelled
		}

		token, err := g.backend.CSRFToken(ctx)
		if err != nil {
			return fmt.Errorf("token fetch failed: %w", err)
		}

		err = g.backend.Login(ctx, creds.Username, creds.Password, token)
		if err == nil {
			g.completeLogin(ctx)
			return nil
		}
		if !errors.Is(err, api.ErrAuthRequired) {
			return err
		}
		logger.Warnf(component, "login attempt %d/%d rejected", attempt, g.maxAttempts)
	}
	return ErrLoginFailed
}

// completeLogin bumps the login epoch and refreshes the token, which the
// server rotates with the session.
func (g *Gate) completeLogin(ctx context.Context) {
	fresh, err := g.backend.CSRFToken(ctx)
	if err != nil {
		logger.Warnf(component, "token refresh after login failed: %v", err)
		fresh = ""
	}

	g.mu.Lock()
	g.loginEpoch++
	g.token = fresh
	g.mu.Unlock()
}

func (g *Gate) invalidate() {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()
}

// releaseSlot clears the retry slot if this request still holds it.
func (g *Gate) releaseSlot(seq int) {
	g.mu.Lock()
	if g.retrySeq == seq {
		g.retrySeq++
	}
	g.mu.Unlock()
}

func authRequired(resp *http.Response) bool {
	return resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
