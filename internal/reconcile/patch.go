// Package reconcile computes keyed structural differences between two
// snapshot-derived views. The resulting patch touches only changed entities,
// so consumers can update their rendered state without rebuilding anything
// whose identity and fields are unchanged.
package reconcile

import "github.com/KaliDrag0n/ContentReaper/internal/model"

// CurrentOpKind describes what happened to the active download.
type CurrentOpKind int

const (
	// CurrentSet replaces the active download because its identity changed
	// (including appearing from nil).
	CurrentSet CurrentOpKind = iota
	// CurrentUpdate updates scalar progress fields in place; identity is
	// unchanged.
	CurrentUpdate
	// CurrentClear removes the active download.
	CurrentClear
)

// CurrentOp is a change to the active download slot.
type CurrentOp struct {
	Kind CurrentOpKind
	Job  *model.Job
}

// QueueOpKind describes a structural queue change.
type QueueOpKind int

const (
	QueueInsert QueueOpKind = iota
	QueueRemove
	QueueMove
	QueueUpdate
)

// QueueOp is a change to one queue entry, keyed by the job's identity.
// Index is the position in the new queue for inserts and moves.
type QueueOp struct {
	Kind  QueueOpKind
	Key   string
	Index int
	Job   model.Job
}

// HistoryOpKind describes a history log change.
type HistoryOpKind int

const (
	HistoryInsert HistoryOpKind = iota
	HistoryUpdate
	HistoryRemove
)

// HistoryOp is a change to one history entry, keyed by log id. Inserts carry
// the position in the new list; new entries land at the newest-first
// boundary. Updates are in place and never recreate the entry.
type HistoryOp struct {
	Kind  HistoryOpKind
	LogID int64
	Index int
	Entry model.HistoryEntry
}

// ScytheOpKind describes a scythe list change.
type ScytheOpKind int

const (
	ScytheInsert ScytheOpKind = iota
	ScytheUpdate
	ScytheRemove
)

// ScytheOp is a change to one scythe, keyed by id. Scythes are compared by
// full content; any difference is an in-place update, never an identity
// replacement.
type ScytheOp struct {
	Kind   ScytheOpKind
	ID     int64
	Index  int
	Scythe model.Scythe
}

// Patch is the minimal change set between two views. An empty patch means
// the views are identical.
type Patch struct {
	Current []CurrentOp
	Queue   []QueueOp
	History []HistoryOp
	Scythes []ScytheOp
	Paused  *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Current) == 0 && len(p.Queue) == 0 && len(p.History) == 0 &&
		len(p.Scythes) == 0 && p.Paused == nil
}
