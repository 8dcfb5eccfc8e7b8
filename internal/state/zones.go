package state

// ZoneSpec names the three lifecycle events a zone can emit.
type ZoneSpec struct {
	OpenEvent     string
	CloseEvent    string
	LeftOpenEvent string
}

// ZoneSpecs is the static table of supported zones. Cameras may configure a
// subset; ROIs for unknown zones are ignored by the worker.
var ZoneSpecs = map[string]ZoneSpec{
	"garage": {
		OpenEvent:     "garage_opened",
		CloseEvent:    "garage_closed",
		LeftOpenEvent: "garage_left_open",
	},
	"gate": {
		OpenEvent:     "gate_ajar",
		CloseEvent:    "gate_closed",
		LeftOpenEvent: "gate_left_open",
	},
	"latch": {
		OpenEvent:     "latch_unlocked",
		CloseEvent:    "latch_locked",
		LeftOpenEvent: "latch_left_open",
	},
}
