package model

// Schedule describes when a Scythe fires on its own.
type Schedule struct {
	Enabled  bool     `json:"enabled"`
	Interval string   `json:"interval,omitempty"`
	Weekdays []string `json:"weekdays,omitempty"`
	Time     string   `json:"time,omitempty"`
}

// Equal reports full-content equality of two schedules.
func (s Schedule) Equal(other Schedule) bool {
	if s.Enabled != other.Enabled || s.Interval != other.Interval || s.Time != other.Time {
		return false
	}
	if len(s.Weekdays) != len(other.Weekdays) {
		return false
	}
	for i := range s.Weekdays {
		if s.Weekdays[i] != other.Weekdays[i] {
			return false
		}
	}
	return true
}

// Scythe is a saved job template, optionally on a schedule. Scythes are
// CRUD-managed independently of the live queue.
type Scythe struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Template JobTemplate `json:"job_data"`
	Schedule *Schedule   `json:"schedule,omitempty"`
}

// Equal reports full-content equality. Scythes are low-cardinality, so the
// reconciler compares whole values instead of tracking per-field changes.
func (s Scythe) Equal(other Scythe) bool {
	if s.ID != other.ID || s.Name != other.Name {
		return false
	}
	if !templateEqual(s.Template, other.Template) {
		return false
	}
	if (s.Schedule == nil) != (other.Schedule == nil) {
		return false
	}
	if s.Schedule != nil && !s.Schedule.Equal(*other.Schedule) {
		return false
	}
	return true
}

func templateEqual(a, b JobTemplate) bool {
	if !intPtrEqual(a.PlaylistStart, b.PlaylistStart) || !intPtrEqual(a.PlaylistEnd, b.PlaylistEnd) {
		return false
	}
	// Pointer fields handled above; the rest is comparable.
	a.PlaylistStart, a.PlaylistEnd = nil, nil
	b.PlaylistStart, b.PlaylistEnd = nil, nil
	return a == b
}

func intPtrEqual(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
