package state

import "time"

// ZoneState is the reduced semantic state of a zone.
type ZoneState string

const (
	StateOpen    ZoneState = "open"
	StateClosed  ZoneState = "closed"
	StateUnknown ZoneState = "unknown"
)

// Output carries at most one transition event and at most one left-open
// event per Update call. Empty string means no event.
type Output struct {
	TransitionEvent string
	LeftOpenEvent   string
}

// Machine debounces per-zone observations: a state change commits only after
// N consecutive same-class observations, and a single left-open event fires
// once per open episode that exceeds the configured threshold.
type Machine struct {
	zone            string
	openEvent       string
	closeEvent      string
	leftOpenEvent   string
	leftOpenSeconds float64
	openRequired    int
	closedRequired  int

	state           ZoneState
	candidate       ZoneState // "" until the first observation
	candidateCount  int
	openSince       time.Time // zero while not open
	leftOpenEmitted bool
}

// NewMachine starts in StateUnknown.
func NewMachine(zone string, spec ZoneSpec, leftOpenSeconds float64, openRequired, closedRequired int) *Machine {
	if openRequired <= 0 {
		openRequired = 3
	}
	if closedRequired <= 0 {
		closedRequired = 3
	}
	return &Machine{
		zone:            zone,
		openEvent:       spec.OpenEvent,
		closeEvent:      spec.CloseEvent,
		leftOpenEvent:   spec.LeftOpenEvent,
		leftOpenSeconds: leftOpenSeconds,
		openRequired:    openRequired,
		closedRequired:  closedRequired,
		state:           StateUnknown,
	}
}

// Zone returns the zone name the machine was built for.
func (m *Machine) Zone() string { return m.zone }

// State returns the committed (debounced) state.
func (m *Machine) State() ZoneState { return m.state }

// Update feeds one observation. Unknown observations are bookkeeping only:
// they track an unknown run but never commit a transition. The left-open
// check runs on every update.
func (m *Machine) Update(observed ZoneState, ts time.Time) Output {
	if observed == StateUnknown {
		if m.candidate == StateUnknown {
			m.candidateCount++
		} else {
			m.candidate = StateUnknown
			m.candidateCount = 1
		}
		return Output{LeftOpenEvent: m.checkLeftOpen(ts)}
	}

	if m.candidate == observed {
		m.candidateCount++
	} else {
		m.candidate = observed
		m.candidateCount = 1
	}

	var out Output
	required := m.closedRequired
	if observed == StateOpen {
		required = m.openRequired
	}
	if m.candidateCount >= required && m.state != observed {
		m.state = observed
		switch observed {
		case StateOpen:
			m.openSince = ts
			m.leftOpenEmitted = false
			out.TransitionEvent = m.openEvent
		case StateClosed:
			m.openSince = time.Time{}
			m.leftOpenEmitted = false
			out.TransitionEvent = m.closeEvent
		}
	}

	out.LeftOpenEvent = m.checkLeftOpen(ts)
	return out
}

func (m *Machine) checkLeftOpen(ts time.Time) string {
	if m.state != StateOpen {
		return ""
	}
	if m.openSince.IsZero() {
		m.openSince = ts
		return ""
	}
	if m.leftOpenEmitted {
		return ""
	}
	if ts.Sub(m.openSince).Seconds() >= m.leftOpenSeconds {
		m.leftOpenEmitted = true
		return m.leftOpenEvent
	}
	return ""
}
