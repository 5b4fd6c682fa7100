// Package transport delivers backend state snapshots to the engine. Three
// interchangeable channels exist: a poller, an SSE stream and a websocket
// stream. All of them push whole snapshots; the reconciler downstream turns
// those into minimal patches, so a channel never needs to diff anything.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/KaliDrag0n/ContentReaper/internal/config"
	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
)

const component = "Transport"

// StaleNoticeKey identifies the sticky notice raised while the channel is
// failing. Recovery resolves the same key.
const StaleNoticeKey = "transport-stale"

// Channel is a source of backend state snapshots.
type Channel interface {
	// Subscribe starts delivery and invokes onSnapshot for every snapshot
	// received. Delivery happens from a single goroutine per subscription.
	Subscribe(onSnapshot func(model.Snapshot)) Subscription
}

// Subscription controls one active subscription.
type Subscription interface {
	// Cancel stops delivery. Idempotent.
	Cancel()
}

// Fetcher produces one snapshot on demand. *api.Client satisfies this.
type Fetcher interface {
	State(ctx context.Context) (model.Snapshot, error)
}

// NewChannel selects a channel implementation from the configured transport.
func NewChannel(cfg *config.Config, fetcher Fetcher, httpClient *http.Client, emitter *notify.Emitter) Channel {
	switch cfg.Transport {
	case config.TransportSSE:
		return NewSSEChannel(cfg.BaseURL, httpClient, cfg.PollInterval, cfg.StaleThreshold, emitter)
	case config.TransportWS:
		return NewWSChannel(cfg.BaseURL, cfg.PollInterval, cfg.StaleThreshold, emitter)
	default:
		return NewPoller(fetcher, cfg.PollInterval, cfg.StaleThreshold, emitter)
	}
}

type subscription struct {
	once   sync.Once
	cancel context.CancelFunc
}

func newSubscription(cancel context.CancelFunc) *subscription {
	return &subscription{cancel: cancel}
}

func (s *subscription) Cancel() {
	s.once.Do(s.cancel)
}

// health tracks consecutive delivery failures for one subscription and
// escalates to a sticky notice once the threshold is crossed. A transient
// failure stays a log line; the user only hears about sustained trouble.
type health struct {
	emitter   *notify.Emitter
	threshold int
	failures  int
}

func newHealth(emitter *notify.Emitter, threshold int) *health {
	if threshold < 1 {
		threshold = config.DefaultStaleThreshold
	}
	return &health{emitter: emitter, threshold: threshold}
}

func (h *health) failure(err error) {
	h.failures++
	logger.Warnf(component, "snapshot delivery failed (%d consecutive): %v", h.failures, err)
	if h.failures == h.threshold && h.emitter != nil {
		h.emitter.StickyWarning(StaleNoticeKey, "Connection to the backend is failing; the view may be stale.")
	}
}

func (h *health) recovered() {
	if h.failures >= h.threshold && h.emitter != nil {
		h.emitter.Resolve(StaleNoticeKey)
	}
	h.failures = 0
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
