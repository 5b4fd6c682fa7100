// Package engine wires the console together: the REST client behind the
// auth gate, the snapshot channel, the local state store, the reconciler and
// the mutation manager. A single event loop goroutine owns all store writes,
// so the store never needs readers to coordinate with the transport.
package engine

import (
	"sync"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/auth"
	"github.com/KaliDrag0n/ContentReaper/internal/config"
	"github.com/KaliDrag0n/ContentReaper/internal/livelog"
	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/mutate"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
	"github.com/KaliDrag0n/ContentReaper/internal/reconcile"
	"github.com/KaliDrag0n/ContentReaper/internal/store"
	"github.com/KaliDrag0n/ContentReaper/internal/transport"
)

const component = "Engine"

// Update is one render-worthy change: the full view after the change plus
// the minimal patch that produced it. Views are complete, so a consumer that
// misses an update loses nothing but the patch granularity.
type Update struct {
	View  model.Snapshot
	Patch reconcile.Patch
}

// Engine owns the console's moving parts and their lifecycle.
type Engine struct {
	Client    *api.Client
	Gate      *auth.Gate
	Mutations *mutate.Manager
	Emitter   *notify.Emitter
	Logs      *livelog.Viewer

	store   *store.Store
	channel transport.Channel

	events  chan event
	updates chan Update

	sub       transport.Subscription
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	loopDone  chan struct{}

	lastView model.Snapshot
}

type event struct {
	// snap is the authoritative snapshot to apply, nil for a local
	// prediction change that only needs a re-render.
	snap *model.Snapshot
}

// New builds a fully wired engine from configuration. Nothing talks to the
// backend until Start.
func New(cfg *config.Config) *Engine {
	client := api.NewClient(cfg.BaseURL)
	prompter := auth.NewTerminalPrompter(cfg.Username)
	gate := auth.NewGate(client.HTTPClient, client, prompter)
	client.UseDoer(gate)

	emitter := notify.NewEmitter()
	st := store.New()
	channel := transport.NewChannel(cfg, client, client.HTTPClient, emitter)

	e := &Engine{
		Client:   client,
		Gate:     gate,
		Emitter:  emitter,
		Logs:     livelog.NewViewer(cfg.BaseURL, client.HTTPClient, client),
		store:    st,
		channel:  channel,
		events:   make(chan event, 16),
		updates:  make(chan Update, 16),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	e.Mutations = mutate.NewManager(st, client, emitter)
	e.Mutations.OnChange = e.notifyLocalChange
	return e
}

// Start launches the event loop and subscribes to the snapshot channel.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		go e.loop()
		e.sub = e.channel.Subscribe(e.acceptSnapshot)
		logger.Infof(component, "engine started")
	})
}

// Updates is the render feed for the UI. Closed by Close.
func (e *Engine) Updates() <-chan Update {
	return e.updates
}

// View returns the current merged view outside the update feed. Safe from
// any goroutine.
func (e *Engine) View() model.Snapshot {
	return e.store.View()
}

// Close cancels the channel subscription and stops the event loop. Pending
// mutation calls finish on their own goroutines; their results after Close
// only touch the store, which outlives the loop.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.sub != nil {
			e.sub.Cancel()
		}
		close(e.done)
		<-e.loopDone
		close(e.updates)
		logger.Infof(component, "engine stopped")
	})
}

func (e *Engine) acceptSnapshot(snap model.Snapshot) {
	select {
	case e.events <- event{snap: &snap}:
	case <-e.done:
	}
}

func (e *Engine) notifyLocalChange() {
	select {
	case e.events <- event{}:
	case <-e.done:
	default:
		// A queued event already guarantees a re-render.
	}
}

// loop is the only writer of the store's base state and the only producer
// on the updates channel.
func (e *Engine) loop() {
	defer close(e.loopDone)
	first := true
	for {
		select {
		case <-e.done:
			return
		case ev := <-e.events:
			if ev.snap != nil {
				e.store.Apply(*ev.snap)
			}
			next := e.store.View()
			patch := reconcile.Diff(e.lastView, next)
			if patch.Empty() && !first {
				continue
			}
			first = false
			e.lastView = next
			e.publish(Update{View: next, Patch: patch})
		}
	}
}

// publish never blocks the loop: when the consumer lags, the oldest queued
// update is dropped. Every update carries the full view, so dropping one
// only coarsens the patch stream.
func (e *Engine) publish(u Update) {
	select {
	case e.updates <- u:
		return
	default:
	}
	select {
	case <-e.updates:
	default:
	}
	select {
	case e.updates <- u:
	default:
	}
}
