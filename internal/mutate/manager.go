// Package mutate turns user actions into backend requests with optimistic
// local effect: destructive and reordering actions update the mirror
// immediately, then reconcile or revert when the request settles.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/auth"
	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
	"github.com/KaliDrag0n/ContentReaper/internal/store"
)

const component = "Mutate"

// Backend is the slice of the API client the manager drives.
type Backend interface {
	DeleteQueueItem(ctx context.Context, id int64) error
	ClearQueue(ctx context.Context) error
	ReorderQueue(ctx context.Context, order []int64) error
	PauseQueue(ctx context.Context) error
	ResumeQueue(ctx context.Context) error
	Stop(ctx context.Context, save bool) (string, error)
	Enqueue(ctx context.Context, req api.EnqueueRequest) (string, error)
	ContinueJob(ctx context.Context, logID int64) (string, error)
	DeleteHistoryEntry(ctx context.Context, logID int64) error
	ClearHistory(ctx context.Context) error
	AddScythe(ctx context.Context, s model.Scythe) (string, error)
	AddScytheFromHistory(ctx context.Context, logID int64) (string, error)
	UpdateScythe(ctx context.Context, s model.Scythe) error
	DeleteScythe(ctx context.Context, id int64) error
	ReapScythe(ctx context.Context, id int64) (string, error)
}

// Manager applies predictions to the store and settles them against request
// outcomes. On failure it reverts precisely the one prediction involved,
// leaving unrelated predictions alone.
type Manager struct {
	store   *store.Store
	backend Backend
	emitter *notify.Emitter

	// OnChange is invoked whenever the renderable view changed outside a
	// snapshot pass (optimistic apply, revert). The engine points this at
	// its render trigger.
	OnChange func()

	// launch runs a settled-in-background request. Tests replace it with
	// an inline call for determinism.
	launch func(func())
}

// NewManager creates a mutation manager writing through to backend.
func NewManager(st *store.Store, backend Backend, emitter *notify.Emitter) *Manager {
	return &Manager{
		store:   st,
		backend: backend,
		emitter: emitter,
		launch:  func(fn func()) { go fn() },
	}
}

// DeleteQueueItem optimistically removes a queued job.
func (m *Manager) DeleteQueueItem(ctx context.Context, id int64) {
	m.optimistic(ctx, store.PendingMutation{
		Kind: "queue-delete",
		Apply: func(s model.Snapshot) model.Snapshot {
			if i := s.QueueIndex(id); i >= 0 {
				s.Queue = append(s.Queue[:i], s.Queue[i+1:]...)
			}
			return s
		},
		Reflected: func(s model.Snapshot) bool { return s.QueueIndex(id) < 0 },
	}, func(ctx context.Context) error {
		return m.backend.DeleteQueueItem(ctx, id)
	})
}

// ClearQueue optimistically empties the queue.
func (m *Manager) ClearQueue(ctx context.Context) {
	m.optimistic(ctx, store.PendingMutation{
		Kind: "queue-clear",
		Apply: func(s model.Snapshot) model.Snapshot {
			s.Queue = nil
			return s
		},
		Reflected: func(s model.Snapshot) bool { return len(s.Queue) == 0 },
	}, m.backend.ClearQueue)
}

// ReorderQueue optimistically applies a new queue order. Ids missing from
// the order keep their relative position after the ordered ones, matching
// the backend's own reorder semantics.
func (m *Manager) ReorderQueue(ctx context.Context, order []int64) {
	ordered := append([]int64(nil), order...)
	m.optimistic(ctx, store.PendingMutation{
		Kind: "queue-reorder",
		Apply: func(s model.Snapshot) model.Snapshot {
			s.Queue = reorder(s.Queue, ordered)
			return s
		},
		Reflected: func(s model.Snapshot) bool { return orderReflected(s.Queue, ordered) },
	}, func(ctx context.Context) error {
		return m.backend.ReorderQueue(ctx, ordered)
	})
}

// SetPaused optimistically flips the pause flag.
func (m *Manager) SetPaused(ctx context.Context, paused bool) {
	call := m.backend.PauseQueue
	if !paused {
		call = m.backend.ResumeQueue
	}
	m.optimistic(ctx, store.PendingMutation{
		Kind: "queue-pause",
		Apply: func(s model.Snapshot) model.Snapshot {
			s.IsPaused = paused
			return s
		},
		Reflected: func(s model.Snapshot) bool { return s.IsPaused == paused },
	}, call)
}

// DeleteHistoryEntry optimistically removes a history entry.
func (m *Manager) DeleteHistoryEntry(ctx context.Context, logID int64) {
	m.optimistic(ctx, store.PendingMutation{
		Kind: "history-delete",
		Apply: func(s model.Snapshot) model.Snapshot {
			if i := s.HistoryIndex(logID); i >= 0 {
				s.History = append(s.History[:i], s.History[i+1:]...)
			}
			return s
		},
		Reflected: func(s model.Snapshot) bool { return s.HistoryIndex(logID) < 0 },
	}, func(ctx context.Context) error {
		return m.backend.DeleteHistoryEntry(ctx, logID)
	})
}

// ClearHistory optimistically empties the history log.
func (m *Manager) ClearHistory(ctx context.Context) {
	m.optimistic(ctx, store.PendingMutation{
		Kind: "history-clear",
		Apply: func(s model.Snapshot) model.Snapshot {
			s.History = nil
			return s
		},
		Reflected: func(s model.Snapshot) bool { return len(s.History) == 0 },
	}, m.backend.ClearHistory)
}

// Enqueue submits new jobs. No prediction: the server assigns ids, so the
// next snapshot is the first authoritative sight of them.
func (m *Manager) Enqueue(ctx context.Context, req api.EnqueueRequest) {
	m.plainWithMessage(ctx, "enqueue", func(ctx context.Context) (string, error) {
		return m.backend.Enqueue(ctx, req)
	})
}

// Continue re-queues a finished history entry.
func (m *Manager) Continue(ctx context.Context, logID int64) {
	m.plainWithMessage(ctx, "continue", func(ctx context.Context) (string, error) {
		return m.backend.ContinueJob(ctx, logID)
	})
}

// Stop interrupts the active download, keeping files when save is set.
func (m *Manager) Stop(ctx context.Context, save bool) {
	m.plainWithMessage(ctx, "stop", func(ctx context.Context) (string, error) {
		return m.backend.Stop(ctx, save)
	})
}

// AddScythe saves a new scythe.
func (m *Manager) AddScythe(ctx context.Context, s model.Scythe) {
	m.plainWithMessage(ctx, "scythe-add", func(ctx context.Context) (string, error) {
		return m.backend.AddScythe(ctx, s)
	})
}

// AddScytheFromHistory saves a scythe from a history entry's template.
func (m *Manager) AddScytheFromHistory(ctx context.Context, logID int64) {
	m.plainWithMessage(ctx, "scythe-add", func(ctx context.Context) (string, error) {
		return m.backend.AddScytheFromHistory(ctx, logID)
	})
}

// UpdateScythe replaces a scythe's content.
func (m *Manager) UpdateScythe(ctx context.Context, s model.Scythe) {
	m.plain(ctx, "scythe-update", func(ctx context.Context) error {
		return m.backend.UpdateScythe(ctx, s)
	})
}

// DeleteScythe removes a saved scythe.
func (m *Manager) DeleteScythe(ctx context.Context, id int64) {
	m.plain(ctx, "scythe-delete", func(ctx context.Context) error {
		return m.backend.DeleteScythe(ctx, id)
	})
}

// ReapScythe queues a scythe's template right now.
func (m *Manager) ReapScythe(ctx context.Context, id int64) {
	m.plainWithMessage(ctx, "scythe-reap", func(ctx context.Context) (string, error) {
		return m.backend.ReapScythe(ctx, id)
	})
}

// optimistic applies the prediction, re-renders, then settles the request in
// the background. Failure reverts exactly this prediction and surfaces the
// error.
func (m *Manager) optimistic(ctx context.Context, p store.PendingMutation, call func(context.Context) error) {
	p.ID = uuid.NewString()
	p.IssuedAt = time.Now()
	m.store.Mutate(p)
	m.changed()

	m.launch(func() {
		if err := call(ctx); err != nil {
			m.store.Revert(p.ID)
			m.surface(p.Kind, err)
			m.changed()
			return
		}
		logger.Debugf(component, "%s confirmed by backend", p.Kind)
	})
}

// plain fires a guarded request without a prediction.
func (m *Manager) plain(ctx context.Context, kind string, call func(context.Context) error) {
	m.launch(func() {
		if err := call(ctx); err != nil {
			m.surface(kind, err)
		}
	})
}

// plainWithMessage fires a guarded request and toasts the backend's
// confirmation message.
func (m *Manager) plainWithMessage(ctx context.Context, kind string, call func(context.Context) (string, error)) {
	m.launch(func() {
		msg, err := call(ctx)
		if err != nil {
			m.surface(kind, err)
			return
		}
		if msg != "" {
			m.emitter.Success(msg)
		}
	})
}

// surface maps a request failure to the right notice class.
func (m *Manager) surface(kind string, err error) {
	switch {
	case errors.Is(err, auth.ErrLoginCancelled):
		m.emitter.Warning(fmt.Sprintf("%s cancelled: login required", kind))
	case errors.Is(err, auth.ErrSuperseded):
		logger.Infof(component, "%s dropped: superseded by a newer action", kind)
	default:
		m.emitter.Error(err.Error())
	}
}

func (m *Manager) changed() {
	if m.OnChange != nil {
		m.OnChange()
	}
}

// reorder applies the backend's reorder semantics: listed ids first in list
// order, unlisted ids after in their existing order.
func reorder(queue []model.Job, order []int64) []model.Job {
	byID := make(map[int64]model.Job, len(queue))
	for _, j := range queue {
		byID[j.ID] = j
	}

	out := make([]model.Job, 0, len(queue))
	listed := make(map[int64]bool, len(order))
	for _, id := range order {
		if j, ok := byID[id]; ok {
			out = append(out, j)
		}
		listed[id] = true
	}
	for _, j := range queue {
		if !listed[j.ID] {
			out = append(out, j)
		}
	}
	return out
}

// orderReflected reports whether the queue's ids already follow the
// requested order for every id still present.
func orderReflected(queue []model.Job, order []int64) bool {
	pos := make(map[int64]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	last := -1
	for _, j := range queue {
		p, listed := pos[j.ID]
		if !listed {
			continue
		}
		if p < last {
			return false
		}
		last = p
	}
	return true
}
