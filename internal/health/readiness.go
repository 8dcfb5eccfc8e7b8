package health

import "sync/atomic"

// Snapshot is one immutable readiness reading. Details maps dependency name
// to up/down.
type Snapshot struct {
	Ready   bool
	Details map[string]bool
}

// ReadinessState publishes dependency health from the probe to the HTTP
// handlers. The probe is the only writer; readers take whole snapshots so
// ready and details never tear.
type ReadinessState struct {
	v atomic.Value
}

func NewReadinessState() *ReadinessState {
	s := &ReadinessState{}
	s.v.Store(Snapshot{Ready: false, Details: map[string]bool{}})
	return s
}

// Set replaces the snapshot. Ready is the conjunction of all details.
func (s *ReadinessState) Set(details map[string]bool) {
	ready := true
	copied := make(map[string]bool, len(details))
	for name, up := range details {
		copied[name] = up
		if !up {
			ready = false
		}
	}
	s.v.Store(Snapshot{Ready: ready, Details: copied})
}

// Get returns the current snapshot.
func (s *ReadinessState) Get() Snapshot {
	return s.v.Load().(Snapshot)
}
