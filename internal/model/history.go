package model

// HistoryStatus is the outcome recorded for a finished (or abandoned) job.
type HistoryStatus string

const (
	StatusCompleted HistoryStatus = "COMPLETED"
	StatusPartial   HistoryStatus = "PARTIAL"
	StatusStopped   HistoryStatus = "STOPPED"
	StatusCancelled HistoryStatus = "CANCELLED"
	StatusFailed    HistoryStatus = "FAILED"
	StatusError     HistoryStatus = "ERROR"
	StatusAbandoned HistoryStatus = "ABANDONED"
	StatusInfo      HistoryStatus = "INFO"
	StatusPending   HistoryStatus = "PENDING"
)

// Terminal reports whether no further status transition is legal.
// INFO entries are informational markers and never transition; PENDING is
// the only non-terminal status a history entry can carry.
func (s HistoryStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusStopped, StatusCancelled,
		StatusFailed, StatusError, StatusAbandoned, StatusInfo:
		return true
	}
	return false
}

// CanTransition reports whether a history entry may legally move from s to
// next. Status only moves toward a terminal value, never backward.
func (s HistoryStatus) CanTransition(next HistoryStatus) bool {
	if s == next {
		return true
	}
	return !s.Terminal()
}

// Resumable reports whether re-queueing this entry is a resume rather than
// a fresh start. Label-only distinction; reconciliation does not differ.
func (s HistoryStatus) Resumable() bool {
	return s == StatusStopped || s == StatusPartial
}

// HistoryEntry is one line of the backend's download log. LogID is permanent
// and unique across the entry's lifetime; apart from a PENDING entry settling
// into a terminal status, entries are immutable.
type HistoryEntry struct {
	LogID        int64         `json:"log_id"`
	Title        string        `json:"title"`
	URL          string        `json:"url"`
	Folder       string        `json:"folder,omitempty"`
	Status       HistoryStatus `json:"status"`
	ErrorSummary string        `json:"error_summary,omitempty"`
	Filenames    []string      `json:"filenames,omitempty"`
	Template     *JobTemplate  `json:"job_data,omitempty"`
}
