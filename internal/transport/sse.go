package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
)

const sseStreamPath = "/api/stream"

// maxEventSize bounds a single SSE event line. Snapshots carry the whole
// queue and history, so the cap matches the REST response cap.
const maxEventSize = 4 * 1024 * 1024

// SSEChannel consumes the backend's text/event-stream state feed. Each
// state_update event carries a complete snapshot. The channel reconnects on
// any stream error and keeps the same staleness contract as the poller.
type SSEChannel struct {
	baseURL        string
	client         *http.Client
	reconnectDelay time.Duration
	staleThreshold int
	emitter        *notify.Emitter
}

// NewSSEChannel creates a streaming channel. The given HTTP client's cookie
// jar is reused so the stream shares the REST session; its timeout is not,
// because a healthy stream outlives any per-request deadline.
func NewSSEChannel(baseURL string, client *http.Client, reconnectDelay time.Duration, staleThreshold int, emitter *notify.Emitter) *SSEChannel {
	streaming := &http.Client{}
	if client != nil {
		streaming.Jar = client.Jar
		streaming.Transport = client.Transport
	}
	return &SSEChannel{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		client:         streaming,
		reconnectDelay: reconnectDelay,
		staleThreshold: staleThreshold,
		emitter:        emitter,
	}
}

// Subscribe starts the stream loop.
func (s *SSEChannel) Subscribe(onSnapshot func(model.Snapshot)) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	go s.run(ctx, onSnapshot)
	return newSubscription(cancel)
}

func (s *SSEChannel) run(ctx context.Context, onSnapshot func(model.Snapshot)) {
	h := newHealth(s.emitter, s.staleThreshold)
	for {
		err := s.stream(ctx, h, onSnapshot)
		if ctx.Err() != nil {
			return
		}
		h.failure(err)
		if !sleep(ctx, s.reconnectDelay) {
			return
		}
	}
}

// stream opens one connection and delivers events until it breaks.
func (s *SSEChannel) stream(ctx context.Context, h *health, onSnapshot func(model.Snapshot)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+sseStreamPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("stream connect failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream connect failed with status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	event := ""
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			s.dispatch(event, data.String(), h, onSnapshot)
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// Comment lines (":keepalive") fall through untouched.
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}

func (s *SSEChannel) dispatch(event, data string, h *health, onSnapshot func(model.Snapshot)) {
	if data == "" {
		return
	}
	if event != "" && event != "state_update" {
		return
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		logger.Warnf(component, "discarding malformed stream event: %v", err)
		return
	}
	h.recovered()
	onSnapshot(snap)
}
