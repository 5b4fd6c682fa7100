package reconcile

import "github.com/KaliDrag0n/ContentReaper/internal/model"

// Apply replays a patch onto a view, returning the patched view. Rendering
// layers keep their own keyed widget state and apply ops directly; Apply is
// the reference semantics those layers follow, and what the round-trip
// property tests check.
func Apply(view model.Snapshot, patch Patch) model.Snapshot {
	out := view.Clone()

	for _, op := range patch.Current {
		switch op.Kind {
		case CurrentClear:
			out.Current = nil
		case CurrentSet, CurrentUpdate:
			job := *op.Job
			out.Current = &job
		}
	}

	out.Queue = applyQueueOps(out.Queue, patch.Queue)
	out.History = applyHistoryOps(out.History, patch.History)
	out.Scythes = applyScytheOps(out.Scythes, patch.Scythes)

	if patch.Paused != nil {
		out.IsPaused = *patch.Paused
	}
	return out
}

func applyQueueOps(queue []model.Job, ops []QueueOp) []model.Job {
	indexOf := func(key string) int {
		for i, j := range queue {
			if j.Key() == key {
				return i
			}
		}
		return -1
	}

	for _, op := range ops {
		switch op.Kind {
		case QueueRemove:
			if i := indexOf(op.Key); i >= 0 {
				queue = append(queue[:i], queue[i+1:]...)
			}
		case QueueInsert:
			i := op.Index
			if i > len(queue) {
				i = len(queue)
			}
			queue = append(queue[:i], append([]model.Job{op.Job}, queue[i:]...)...)
		case QueueMove:
			from := indexOf(op.Key)
			if from < 0 {
				continue
			}
			job := queue[from]
			queue = append(queue[:from], queue[from+1:]...)
			to := op.Index
			if to > len(queue) {
				to = len(queue)
			}
			queue = append(queue[:to], append([]model.Job{job}, queue[to:]...)...)
		case QueueUpdate:
			if i := indexOf(op.Key); i >= 0 {
				queue[i] = op.Job
			}
		}
	}
	return queue
}

func applyHistoryOps(history []model.HistoryEntry, ops []HistoryOp) []model.HistoryEntry {
	indexOf := func(logID int64) int {
		for i, e := range history {
			if e.LogID == logID {
				return i
			}
		}
		return -1
	}

	for _, op := range ops {
		switch op.Kind {
		case HistoryRemove:
			if i := indexOf(op.LogID); i >= 0 {
				history = append(history[:i], history[i+1:]...)
			}
		case HistoryInsert:
			i := op.Index
			if i > len(history) {
				i = len(history)
			}
			history = append(history[:i], append([]model.HistoryEntry{op.Entry}, history[i:]...)...)
		case HistoryUpdate:
			if i := indexOf(op.LogID); i >= 0 {
				history[i] = op.Entry
			}
		}
	}
	return history
}

func applyScytheOps(scythes []model.Scythe, ops []ScytheOp) []model.Scythe {
	indexOf := func(id int64) int {
		for i, s := range scythes {
			if s.ID == id {
				return i
			}
		}
		return -1
	}

	for _, op := range ops {
		switch op.Kind {
		case ScytheRemove:
			if i := indexOf(op.ID); i >= 0 {
				scythes = append(scythes[:i], scythes[i+1:]...)
			}
		case ScytheInsert:
			i := op.Index
			if i > len(scythes) {
				i = len(scythes)
			}
			scythes = append(scythes[:i], append([]model.Scythe{op.Scythe}, scythes[i:]...)...)
		case ScytheUpdate:
			if i := indexOf(op.ID); i >= 0 {
				scythes[i] = op.Scythe
			}
		}
	}
	return scythes
}
