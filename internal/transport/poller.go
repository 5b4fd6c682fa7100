package transport

import (
	"context"
	"time"

	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
)

// Poller fetches the full state on a fixed cadence. It is the default
// channel: one fetch in flight at a time, and a failed fetch never stops the
// loop, it just skips the delivery and tries again after the interval.
type Poller struct {
	fetcher        Fetcher
	interval       time.Duration
	staleThreshold int
	emitter        *notify.Emitter
}

// NewPoller creates a polling channel over the given fetcher.
func NewPoller(fetcher Fetcher, interval time.Duration, staleThreshold int, emitter *notify.Emitter) *Poller {
	return &Poller{
		fetcher:        fetcher,
		interval:       interval,
		staleThreshold: staleThreshold,
		emitter:        emitter,
	}
}

// Subscribe starts the poll loop.
func (p *Poller) Subscribe(onSnapshot func(model.Snapshot)) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	go p.run(ctx, onSnapshot)
	return newSubscription(cancel)
}

func (p *Poller) run(ctx context.Context, onSnapshot func(model.Snapshot)) {
	h := newHealth(p.emitter, p.staleThreshold)
	for {
		snap, err := p.fetcher.State(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.failure(err)
		} else {
			h.recovered()
			onSnapshot(snap)
		}
		if !sleep(ctx, p.interval) {
			return
		}
	}
}
