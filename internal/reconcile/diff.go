package reconcile

import (
	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

const component = "Reconcile"

// Diff computes the minimal keyed change set moving prev to next. Applying
// the patch to prev yields next; diffing identical views yields an empty
// patch.
func Diff(prev, next model.Snapshot) Patch {
	patch := Patch{
		Current: diffCurrent(prev.Current, next.Current),
		Queue:   diffQueue(prev.Queue, next.Queue),
		History: diffHistory(prev.History, next.History),
		Scythes: diffScythes(prev.Scythes, next.Scythes),
	}
	if prev.IsPaused != next.IsPaused {
		paused := next.IsPaused
		patch.Paused = &paused
	}
	return patch
}

// diffCurrent changes identity only when the stable key differs; with the
// same key, only scalar fields update in place.
func diffCurrent(prev, next *model.Job) []CurrentOp {
	switch {
	case prev == nil && next == nil:
		return nil
	case next == nil:
		return []CurrentOp{{Kind: CurrentClear}}
	case prev == nil || prev.Key() != next.Key():
		job := *next
		return []CurrentOp{{Kind: CurrentSet, Job: &job}}
	case !prev.SameScalars(*next):
		job := *next
		return []CurrentOp{{Kind: CurrentUpdate, Job: &job}}
	}
	return nil
}

// diffQueue computes removals, insertions, moves and in-place updates keyed
// by job identity. Elements whose position among the surviving entries is
// unchanged produce no move.
func diffQueue(prev, next []model.Job) []QueueOp {
	prevByKey := make(map[string]model.Job, len(prev))
	for _, j := range prev {
		prevByKey[j.Key()] = j
	}
	nextKeys := make(map[string]bool, len(next))
	for _, j := range next {
		nextKeys[j.Key()] = true
	}

	var ops []QueueOp

	// Removals first so common-element positions are computed against the
	// surviving sequence.
	for _, j := range prev {
		if !nextKeys[j.Key()] {
			ops = append(ops, QueueOp{Kind: QueueRemove, Key: j.Key()})
		}
	}

	// Position of each common key within the old surviving order.
	oldCommonPos := make(map[string]int, len(prev))
	pos := 0
	for _, j := range prev {
		if nextKeys[j.Key()] {
			oldCommonPos[j.Key()] = pos
			pos++
		}
	}

	commonPos := 0
	for i, j := range next {
		key := j.Key()
		old, existed := prevByKey[key]
		if !existed {
			ops = append(ops, QueueOp{Kind: QueueInsert, Key: key, Index: i, Job: j})
			continue
		}
		if oldCommonPos[key] != commonPos {
			ops = append(ops, QueueOp{Kind: QueueMove, Key: key, Index: i})
		}
		commonPos++
		if !old.SameScalars(j) {
			ops = append(ops, QueueOp{Kind: QueueUpdate, Key: key, Index: i, Job: j})
		}
	}

	return ops
}

// diffHistory compares by log id: new ids insert at their position (the
// newest-first boundary in practice), known ids with changed status update
// in place, known ids absent from the new list are removed. An update that
// would regress a terminal status is suppressed.
func diffHistory(prev, next []model.HistoryEntry) []HistoryOp {
	prevByID := make(map[int64]model.HistoryEntry, len(prev))
	for _, e := range prev {
		prevByID[e.LogID] = e
	}
	nextIDs := make(map[int64]bool, len(next))
	for _, e := range next {
		nextIDs[e.LogID] = true
	}

	var ops []HistoryOp
	for _, e := range prev {
		if !nextIDs[e.LogID] {
			ops = append(ops, HistoryOp{Kind: HistoryRemove, LogID: e.LogID})
		}
	}

	for i, e := range next {
		old, existed := prevByID[e.LogID]
		if !existed {
			ops = append(ops, HistoryOp{Kind: HistoryInsert, LogID: e.LogID, Index: i, Entry: e})
			continue
		}
		if historyEqual(old, e) {
			continue
		}
		if !old.Status.CanTransition(e.Status) {
			logger.Warnf(component, "suppressing status regression %s -> %s for log %d", old.Status, e.Status, e.LogID)
			continue
		}
		ops = append(ops, HistoryOp{Kind: HistoryUpdate, LogID: e.LogID, Index: i, Entry: e})
	}

	return ops
}

func historyEqual(a, b model.HistoryEntry) bool {
	if a.Status != b.Status || a.Title != b.Title || a.ErrorSummary != b.ErrorSummary ||
		a.URL != b.URL || a.Folder != b.Folder {
		return false
	}
	if len(a.Filenames) != len(b.Filenames) {
		return false
	}
	for i := range a.Filenames {
		if a.Filenames[i] != b.Filenames[i] {
			return false
		}
	}
	return true
}

// diffScythes compares by id with full-content equality.
func diffScythes(prev, next []model.Scythe) []ScytheOp {
	prevByID := make(map[int64]model.Scythe, len(prev))
	for _, s := range prev {
		prevByID[s.ID] = s
	}
	nextIDs := make(map[int64]bool, len(next))
	for _, s := range next {
		nextIDs[s.ID] = true
	}

	var ops []ScytheOp
	for _, s := range prev {
		if !nextIDs[s.ID] {
			ops = append(ops, ScytheOp{Kind: ScytheRemove, ID: s.ID})
		}
	}
	for i, s := range next {
		old, existed := prevByID[s.ID]
		if !existed {
			ops = append(ops, ScytheOp{Kind: ScytheInsert, ID: s.ID, Index: i, Scythe: s})
			continue
		}
		if !old.Equal(s) {
			ops = append(ops, ScytheOp{Kind: ScytheUpdate, ID: s.ID, Index: i, Scythe: s})
		}
	}
	return ops
}
