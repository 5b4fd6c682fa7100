package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
)

// fakeBackend scripts the gate's own backend calls.
type fakeBackend struct {
	tokenCalls int32
	loginCalls int32
	loginErr   error
	onLogin    func()
}

func (f *fakeBackend) CSRFToken(ctx context.Context) (string, error) {
	n := atomic.AddInt32(&f.tokenCalls, 1)
	return fmt.Sprintf("tok-%d", n), nil
}

func (f *fakeBackend) Login(ctx context.Context, username, password, token string) error {
	atomic.AddInt32(&f.loginCalls, 1)
	if f.loginErr != nil {
		return f.loginErr
	}
	if f.onLogin != nil {
		f.onLogin()
	}
	return nil
}

func (f *fakeBackend) Logout(ctx context.Context, token string) error { return nil }

// scriptedPrompter returns canned answers in order.
type scriptedPrompter struct {
	answers []promptAnswer
	calls   int
}

type promptAnswer struct {
	creds Credentials
	ok    bool
}

func (p *scriptedPrompter) Prompt(ctx context.Context, action string) (Credentials, bool, error) {
	if p.calls >= len(p.answers) {
		return Credentials{}, false, nil
	}
	a := p.answers[p.calls]
	p.calls++
	return a.creds, a.ok, nil
}

func protectedServer(t *testing.T, authed *atomic.Bool, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get(api.TokenHeader) == "" {
			t.Error("mutating request reached the server without a token header")
		}
		if !authed.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Authentication required. Please log in."}`))
			return
		}
		w.Write([]byte(`{"message": "ok"}`))
	}))
}

// TestGate_PassThrough tests that an authenticated request flows through
// untouched, with the lazily-fetched token attached.
func TestGate_PassThrough(t *testing.T) {
	var authed atomic.Bool
	authed.Store(true)
	var hits int32
	server := protectedServer(t, &authed, &hits)
	defer server.Close()

	backend := &fakeBackend{}
	gate := NewGate(server.Client(), backend, &scriptedPrompter{})

	resp, err := gate.Do(context.Background(), api.Request{Method: http.MethodPost, URL: server.URL + "/queue/clear", Kind: "queue-clear"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if hits != 1 {
		t.Errorf("expected exactly one request, got %d", hits)
	}
	if backend.tokenCalls != 1 {
		t.Errorf("expected one lazy token fetch, got %d", backend.tokenCalls)
	}
}

// TestGate_ReplayOnce tests the core protocol: auth-required, prompt, login,
// and exactly one replay.
func TestGate_ReplayOnce(t *testing.T) {
	var authed atomic.Bool
	var hits int32
	server := protectedServer(t, &authed, &hits)
	defer server.Close()

	backend := &fakeBackend{onLogin: func() { authed.Store(true) }}
	prompter := &scriptedPrompter{answers: []promptAnswer{
		{creds: Credentials{Username: "admin", Password: "secret"}, ok: true},
	}}
	gate := NewGate(server.Client(), backend, prompter)

	resp, err := gate.Do(context.Background(), api.Request{Method: http.MethodPost, URL: server.URL + "/queue/pause", Kind: "queue-pause"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected replay to succeed, got %d", resp.StatusCode)
	}
	if hits != 2 {
		t.Errorf("expected original + one replay = 2 requests, got %d", hits)
	}
	if prompter.calls != 1 {
		t.Errorf("expected one prompt, got %d", prompter.calls)
	}
	if backend.loginCalls != 1 {
		t.Errorf("expected one login, got %d", backend.loginCalls)
	}
}

// TestGate_CancelDiscards tests that dismissing the prompt surfaces a
// terminal error and never replays.
func TestGate_CancelDiscards(t *testing.T) {
	var authed atomic.Bool
	var hits int32
	server := protectedServer(t, &authed, &hits)
	defer server.Close()

	gate := NewGate(server.Client(), &fakeBackend{}, &scriptedPrompter{answers: []promptAnswer{{ok: false}}})

	_, err := gate.Do(context.Background(), api.Request{Method: http.MethodPost, URL: server.URL + "/stop", Kind: "stop"})
	if !errors.Is(err, ErrLoginCancelled) {
		t.Fatalf("expected ErrLoginCancelled, got %v", err)
	}
	if hits != 1 {
		t.Errorf("expected no replay after cancel, got %d requests", hits)
	}
}

// TestGate_RepeatedFailure tests the bounded prompt loop.
func TestGate_RepeatedFailure(t *testing.T) {
	var authed atomic.Bool
	var hits int32
	server := protectedServer(t, &authed, &hits)
	defer server.Close()

	backend := &fakeBackend{loginErr: api.ErrAuthRequired}
	prompter := &scriptedPrompter{answers: []promptAnswer{
		{creds: Credentials{Username: "admin", Password: "bad1"}, ok: true},
		{creds: Credentials{Username: "admin", Password: "bad2"}, ok: true},
		{creds: Credentials{Username: "admin", Password: "bad3"}, ok: true},
		{creds: Credentials{Username: "admin", Password: "bad4"}, ok: true},
	}}
	gate := NewGate(server.Client(), backend, prompter)

	_, err := gate.Do(context.Background(), api.Request{Method: http.MethodPost, URL: server.URL + "/queue/clear", Kind: "queue-clear"})
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
	if prompter.calls != DefaultMaxLoginAttempts {
		t.Errorf("expected %d prompts, got %d", DefaultMaxLoginAttempts, prompter.calls)
	}
	if hits != 1 {
		t.Errorf("expected no replay after failed logins, got %d requests", hits)
	}
}

// TestGate_ReplayStillUnauthorized tests that a replay which fails again is
// handed back terminally instead of looping.
func TestGate_ReplayStillUnauthorized(t *testing.T) {
	var authed atomic.Bool // stays false: login "succeeds" but server keeps rejecting
	var hits int32
	server := protectedServer(t, &authed, &hits)
	defer server.Close()

	backend := &fakeBackend{}
	prompter := &scriptedPrompter{answers: []promptAnswer{
		{creds: Credentials{Username: "admin", Password: "secret"}, ok: true},
	}}
	gate := NewGate(server.Client(), backend, prompter)

	resp, err := gate.Do(context.Background(), api.Request{Method: http.MethodPost, URL: server.URL + "/queue/clear", Kind: "queue-clear"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected the 401 to surface, got %d", resp.StatusCode)
	}
	if hits != 2 {
		t.Errorf("expected exactly one replay, got %d requests", hits)
	}
	if prompter.calls != 1 {
		t.Errorf("expected exactly one prompt, got %d", prompter.calls)
	}
}

// TestGate_TokenRotation tests that a successful login refreshes the cached
// token.
func TestGate_TokenRotation(t *testing.T) {
	var authed atomic.Bool
	var hits int32
	server := protectedServer(t, &authed, &hits)
	defer server.Close()

	backend := &fakeBackend{onLogin: func() { authed.Store(true) }}
	prompter := &scriptedPrompter{answers: []promptAnswer{
		{creds: Credentials{Username: "admin", Password: "secret"}, ok: true},
	}}
	gate := NewGate(server.Client(), backend, prompter)

	resp, err := gate.Do(context.Background(), api.Request{Method: http.MethodPost, URL: server.URL + "/queue/clear", Kind: "queue-clear"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	// Fetches: initial lazy token, login's own token, post-login refresh.
	if backend.tokenCalls != 3 {
		t.Errorf("expected 3 token fetches, got %d", backend.tokenCalls)
	}

	token, err := gate.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-3" {
		t.Errorf("expected rotated token tok-3, got %q", token)
	}
}
