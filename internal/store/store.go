// Package store holds the in-memory mirror of backend state: the last
// confirmed snapshot plus any optimistic predictions overlaid on top. It is
// the single source of truth for rendering.
package store

import (
	"sync"
	"time"

	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

const component = "Store"

// PendingMutation is a locally-predicted state change awaiting server
// confirmation. Apply overlays the predicted effect on a cloned snapshot;
// Reflected reports whether an authoritative snapshot already shows the
// effect, at which point the prediction is dropped silently.
type PendingMutation struct {
	ID        string
	Kind      string
	IssuedAt  time.Time
	Apply     func(model.Snapshot) model.Snapshot
	Reflected func(model.Snapshot) bool
}

// Store is the local state mirror. Only the reconciler (Apply) and the
// mutation manager (Mutate/Revert) write to it.
type Store struct {
	mu      sync.Mutex
	base    model.Snapshot
	pending []PendingMutation
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Apply replaces the confirmed base state with an authoritative snapshot.
// Predictions the snapshot already reflects are discarded; the rest stay
// overlaid in issuance order. A history entry whose status would regress
// from a terminal value keeps its old status.
func (s *Store) Apply(snap model.Snapshot) {
	snap = snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.guardHistoryStatuses(&snap)
	s.base = snap

	if len(s.pending) == 0 {
		return
	}
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.Reflected != nil && p.Reflected(snap) {
			logger.Debugf(component, "prediction %s (%s) confirmed by snapshot", p.ID, p.Kind)
			continue
		}
		kept = append(kept, p)
	}
	s.pending = kept
}

// guardHistoryStatuses enforces terminal-status monotonicity against the
// previous base. The backend should never regress a status; if a snapshot
// does, the old terminal value wins.
func (s *Store) guardHistoryStatuses(snap *model.Snapshot) {
	for i := range snap.History {
		idx := s.base.HistoryIndex(snap.History[i].LogID)
		if idx < 0 {
			continue
		}
		old := s.base.History[idx].Status
		if !old.CanTransition(snap.History[i].Status) {
			logger.Warnf(component, "ignoring status regression %s -> %s for log %d",
				old, snap.History[i].Status, snap.History[i].LogID)
			snap.History[i].Status = old
		}
	}
}

// Mutate overlays a prediction. Later mutations stack on earlier ones; none
// is dropped because an earlier one is still outstanding.
func (s *Store) Mutate(p PendingMutation) {
	if p.IssuedAt.IsZero() {
		p.IssuedAt = time.Now()
	}
	s.mu.Lock()
	s.pending = append(s.pending, p)
	s.mu.Unlock()
}

// Revert removes exactly one prediction by id, restoring the view to what
// the confirmed base (plus unrelated predictions) says. Returns false if the
// prediction was already confirmed and dropped.
func (s *Store) Revert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// View returns the renderable state: the confirmed base with all unconfirmed
// predictions applied in issuance order. The result shares no structure with
// the store.
func (s *Store) View() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.base.Clone()
	for _, p := range s.pending {
		if p.Apply != nil {
			view = p.Apply(view)
		}
	}
	return view
}

// PendingCount returns the number of unconfirmed predictions.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
