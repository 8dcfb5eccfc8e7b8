package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safehaven/safehaven-core/internal/config"
	"github.com/safehaven/safehaven-core/internal/state"
)

var garageIDs = config.ClassIDs{Open: 0, Closed: 1}

func row(cls int, score float64) Detection {
	return Detection{float64(cls), score, 10, 10, 50, 50}
}

func TestReduceZoneState(t *testing.T) {
	tests := []struct {
		name      string
		dets      []Detection
		wantState state.ZoneState
		wantScore float64
	}{
		{"no detections", nil, state.StateUnknown, 0},
		{"open above threshold", []Detection{row(0, 0.9)}, state.StateOpen, 0.9},
		{"closed above threshold", []Detection{row(1, 0.8)}, state.StateClosed, 0.8},
		{"both below threshold", []Detection{row(0, 0.3), row(1, 0.4)}, state.StateUnknown, 0},
		{"best per class wins", []Detection{row(0, 0.6), row(0, 0.9), row(1, 0.7)}, state.StateOpen, 0.9},
		{"closed beats weaker open", []Detection{row(0, 0.55), row(1, 0.85)}, state.StateClosed, 0.85},
		{"exact tie goes to open", []Detection{row(0, 0.7), row(1, 0.7)}, state.StateOpen, 0.7},
		{"irrelevant classes ignored", []Detection{row(4, 0.99), row(5, 0.99)}, state.StateUnknown, 0},
		{"short rows skipped", []Detection{{0, 0.95}, row(1, 0.6)}, state.StateClosed, 0.6},
		{"one class above threshold wins even if lower", []Detection{row(0, 0.2), row(1, 0.5)}, state.StateClosed, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score := ReduceZoneState(tt.dets, garageIDs, 0.5)
			assert.Equal(t, tt.wantState, got)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
		})
	}
}

func TestReduceZoneState_ThresholdBoundary(t *testing.T) {
	// A score exactly at the threshold counts as confident.
	got, score := ReduceZoneState([]Detection{row(0, 0.5)}, garageIDs, 0.5)
	assert.Equal(t, state.StateOpen, got)
	assert.InDelta(t, 0.5, score, 1e-9)
}
