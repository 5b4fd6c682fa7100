package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
)

const wsStreamPath = "/ws"

const (
	wsReadDeadline  = 60 * time.Second
	wsPingInterval  = 30 * time.Second
	wsWriteDeadline = 10 * time.Second
)

// WSChannel consumes state_update envelopes over a websocket. Same contract
// as the SSE channel: whole snapshots, reconnect on any error.
type WSChannel struct {
	baseURL        string
	reconnectDelay time.Duration
	staleThreshold int
	emitter        *notify.Emitter
}

// NewWSChannel creates a websocket channel against the backend base URL.
func NewWSChannel(baseURL string, reconnectDelay time.Duration, staleThreshold int, emitter *notify.Emitter) *WSChannel {
	return &WSChannel{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		reconnectDelay: reconnectDelay,
		staleThreshold: staleThreshold,
		emitter:        emitter,
	}
}

// Subscribe starts the stream loop.
func (w *WSChannel) Subscribe(onSnapshot func(model.Snapshot)) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	go w.run(ctx, onSnapshot)
	return newSubscription(cancel)
}

func (w *WSChannel) run(ctx context.Context, onSnapshot func(model.Snapshot)) {
	h := newHealth(w.emitter, w.staleThreshold)

	endpoint, err := streamURL(w.baseURL)
	if err != nil {
		// A bad base URL never heals; report once and give up.
		logger.Errorf(component, "invalid websocket endpoint: %v", err)
		if w.emitter != nil {
			w.emitter.Error(fmt.Sprintf("Invalid backend URL for live updates: %v", err))
		}
		return
	}

	for {
		err := w.stream(ctx, endpoint, h, onSnapshot)
		if ctx.Err() != nil {
			return
		}
		h.failure(err)
		if !sleep(ctx, w.reconnectDelay) {
			return
		}
	}
}

// envelope is the wire shape of one websocket message.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (w *WSChannel) stream(ctx context.Context, endpoint string, h *health, onSnapshot func(model.Snapshot)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the subscription is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})
	go pingLoop(conn, done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read failed: %w", err)
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Warnf(component, "discarding malformed websocket message: %v", err)
			continue
		}
		if env.Event != "state_update" {
			continue
		}

		var snap model.Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			logger.Warnf(component, "discarding malformed state_update payload: %v", err)
			continue
		}
		h.recovered()
		onSnapshot(snap)
	}
}

func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// streamURL rewrites an http(s) base URL into the ws(s) stream endpoint.
func streamURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + wsStreamPath
	return u.String(), nil
}
