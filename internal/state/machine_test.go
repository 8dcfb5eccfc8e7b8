package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testSpec = ZoneSpec{
	OpenEvent:     "garage_opened",
	CloseEvent:    "garage_closed",
	LeftOpenEvent: "garage_left_open",
}

func at(sec int) time.Time {
	return time.Unix(1700000000, 0).Add(time.Duration(sec) * time.Second)
}

func TestMachine_CleanOpening(t *testing.T) {
	// open x5 at t=0..4, left_open_seconds=2:
	// open_event on the 3rd sample, left_open_event at t=4 (2s after open_since=t2).
	m := NewMachine("garage", testSpec, 2, 3, 3)

	out := m.Update(StateOpen, at(0))
	assert.Empty(t, out.TransitionEvent)
	out = m.Update(StateOpen, at(1))
	assert.Empty(t, out.TransitionEvent)

	out = m.Update(StateOpen, at(2))
	assert.Equal(t, "garage_opened", out.TransitionEvent)
	assert.Empty(t, out.LeftOpenEvent)
	assert.Equal(t, StateOpen, m.State())

	out = m.Update(StateOpen, at(3))
	assert.Empty(t, out.TransitionEvent)
	assert.Empty(t, out.LeftOpenEvent)

	out = m.Update(StateOpen, at(4))
	assert.Empty(t, out.TransitionEvent)
	assert.Equal(t, "garage_left_open", out.LeftOpenEvent)
}

func TestMachine_FlickerSuppression(t *testing.T) {
	// open, open, closed, open, open, open: the closed interrupts the first
	// run; a fresh run of 3 opens commits afterwards.
	m := NewMachine("garage", testSpec, 120, 3, 3)

	seq := []ZoneState{StateOpen, StateOpen, StateClosed, StateOpen, StateOpen}
	for i, obs := range seq {
		out := m.Update(obs, at(i))
		assert.Empty(t, out.TransitionEvent, "no event before a full run (step %d)", i)
		assert.Empty(t, out.LeftOpenEvent)
	}
	out := m.Update(StateOpen, at(5))
	assert.Equal(t, "garage_opened", out.TransitionEvent)
}

func TestMachine_UnknownInterleave(t *testing.T) {
	// An unknown observation overwrites the candidate, so the open run
	// restarts after it; unknown itself never commits a transition.
	m := NewMachine("garage", testSpec, 120, 3, 3)

	m.Update(StateOpen, at(0))
	out := m.Update(StateUnknown, at(1))
	assert.Empty(t, out.TransitionEvent)
	assert.Equal(t, StateUnknown, m.State())

	m.Update(StateOpen, at(2))
	m.Update(StateOpen, at(3))
	out = m.Update(StateOpen, at(4))
	assert.Equal(t, "garage_opened", out.TransitionEvent)
}

func TestMachine_CloseAfterOpen(t *testing.T) {
	m := NewMachine("garage", testSpec, 2, 3, 3)

	var events []string
	seq := []ZoneState{StateOpen, StateOpen, StateOpen, StateClosed, StateClosed, StateClosed}
	for i, obs := range seq {
		out := m.Update(obs, at(i))
		if out.TransitionEvent != "" {
			events = append(events, out.TransitionEvent)
		}
		assert.Empty(t, out.LeftOpenEvent, "left_open must not fire before threshold")
	}
	assert.Equal(t, []string{"garage_opened", "garage_closed"}, events)
	assert.Equal(t, StateClosed, m.State())
}

func TestMachine_LeftOpenFiresOnce(t *testing.T) {
	m := NewMachine("garage", testSpec, 2, 3, 3)

	m.Update(StateOpen, at(0))
	m.Update(StateOpen, at(1))
	out := m.Update(StateOpen, at(2))
	assert.Equal(t, "garage_opened", out.TransitionEvent)

	out = m.Update(StateOpen, at(10))
	assert.Equal(t, "garage_left_open", out.LeftOpenEvent)

	// Any further update while still open returns no second left_open.
	for i := 11; i < 20; i++ {
		out = m.Update(StateOpen, at(i))
		assert.Empty(t, out.LeftOpenEvent)
		assert.Empty(t, out.TransitionEvent)
	}
}

func TestMachine_LeftOpenRequiresOpenState(t *testing.T) {
	m := NewMachine("garage", testSpec, 1, 3, 3)

	// Never commits open: left_open can never fire.
	seq := []ZoneState{StateClosed, StateClosed, StateClosed, StateUnknown, StateOpen, StateUnknown, StateOpen}
	for i, obs := range seq {
		out := m.Update(obs, at(i*10))
		assert.Empty(t, out.LeftOpenEvent)
	}
	assert.Equal(t, StateClosed, m.State())
}

func TestMachine_LeftOpenRearmsAfterClose(t *testing.T) {
	// left_open fires once per open episode; closing and reopening rearms it.
	m := NewMachine("garage", testSpec, 2, 3, 3)

	m.Update(StateOpen, at(0))
	m.Update(StateOpen, at(1))
	m.Update(StateOpen, at(2))
	out := m.Update(StateOpen, at(5))
	assert.Equal(t, "garage_left_open", out.LeftOpenEvent)

	m.Update(StateClosed, at(6))
	m.Update(StateClosed, at(7))
	out = m.Update(StateClosed, at(8))
	assert.Equal(t, "garage_closed", out.TransitionEvent)

	m.Update(StateOpen, at(9))
	m.Update(StateOpen, at(10))
	out = m.Update(StateOpen, at(11))
	assert.Equal(t, "garage_opened", out.TransitionEvent)

	out = m.Update(StateOpen, at(14))
	assert.Equal(t, "garage_left_open", out.LeftOpenEvent)
}

func TestMachine_AtMostOneEventPerUpdate(t *testing.T) {
	m := NewMachine("garage", testSpec, 0, 1, 1)

	// With thresholds of 1 and a zero left-open threshold, a single update
	// can produce both a transition and a left-open event, but never more
	// than one of each.
	out := m.Update(StateOpen, at(0))
	assert.Equal(t, "garage_opened", out.TransitionEvent)
	assert.Equal(t, "garage_left_open", out.LeftOpenEvent)

	out = m.Update(StateOpen, at(1))
	assert.Empty(t, out.TransitionEvent)
	assert.Empty(t, out.LeftOpenEvent)
}

func TestMachine_InitialUnknownEmitsFirstTransition(t *testing.T) {
	// From the initial unknown state, the first debounced closed run emits a
	// close_event even though the zone was never open.
	m := NewMachine("latch", ZoneSpecs["latch"], 120, 3, 3)

	m.Update(StateClosed, at(0))
	m.Update(StateClosed, at(1))
	out := m.Update(StateClosed, at(2))
	assert.Equal(t, "latch_locked", out.TransitionEvent)
}

func TestMachine_DefaultThresholds(t *testing.T) {
	m := NewMachine("gate", ZoneSpecs["gate"], 60, 0, 0)
	m.Update(StateOpen, at(0))
	m.Update(StateOpen, at(1))
	out := m.Update(StateOpen, at(2))
	assert.Equal(t, "gate_ajar", out.TransitionEvent, "zero thresholds fall back to 3")
}
