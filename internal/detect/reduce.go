package detect

import (
	"github.com/safehaven/safehaven-core/internal/config"
	"github.com/safehaven/safehaven-core/internal/state"
)

// ReduceZoneState collapses raw detections into a zone observation. The best
// score per relevant class wins; if neither class clears the confidence
// threshold the zone is unknown with score 0. Ties go to open.
func ReduceZoneState(dets []Detection, ids config.ClassIDs, confThreshold float64) (state.ZoneState, float64) {
	var bestOpen, bestClosed float64
	for _, det := range dets {
		if len(det) < 6 {
			continue
		}
		clsID := int(det[0])
		score := det[1]
		switch clsID {
		case ids.Open:
			bestOpen = max(bestOpen, score)
		case ids.Closed:
			bestClosed = max(bestClosed, score)
		}
	}

	if bestOpen < confThreshold && bestClosed < confThreshold {
		return state.StateUnknown, 0
	}
	if bestOpen >= bestClosed {
		return state.StateOpen, bestOpen
	}
	return state.StateClosed, bestClosed
}
