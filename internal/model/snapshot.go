package model

// Snapshot is one complete authoritative state payload from the backend:
// the active download, the ordered queue, the history log, saved Scythes,
// and the queue pause flag.
type Snapshot struct {
	Current  *Job           `json:"current"`
	Queue    []Job          `json:"queue"`
	History  []HistoryEntry `json:"history"`
	Scythes  []Scythe       `json:"scythes"`
	IsPaused bool           `json:"is_paused"`
}

// Clone returns a copy that shares no mutable structure with the receiver.
// The store hands clones to overlay functions so predictions never write
// into the confirmed base state.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	if s.Queue != nil {
		out.Queue = make([]Job, len(s.Queue))
		copy(out.Queue, s.Queue)
	}
	if s.History != nil {
		out.History = make([]HistoryEntry, len(s.History))
		copy(out.History, s.History)
		for i := range out.History {
			if fn := out.History[i].Filenames; fn != nil {
				out.History[i].Filenames = append([]string(nil), fn...)
			}
		}
	}
	if s.Scythes != nil {
		out.Scythes = make([]Scythe, len(s.Scythes))
		copy(out.Scythes, s.Scythes)
	}
	return out
}

// QueueIndex returns the position of the job with the given id, or -1.
func (s Snapshot) QueueIndex(id int64) int {
	for i, j := range s.Queue {
		if j.ID == id {
			return i
		}
	}
	return -1
}

// HistoryIndex returns the position of the entry with the given log id, or -1.
func (s Snapshot) HistoryIndex(logID int64) int {
	for i, h := range s.History {
		if h.LogID == logID {
			return i
		}
	}
	return -1
}
