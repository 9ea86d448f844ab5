package pipeline

// State is a stage of the translation state machine.
type State int

const (
	Received State = iota
	Extracting
	BuildingRequest
	Translating
	Formatting
	Done
	Failed
)

var stateNames = [...]string{
	Received:        "received",
	Extracting:      "extracting",
	BuildingRequest: "building_request",
	Translating:     "translating",
	Formatting:      "formatting",
	Done:            "done",
	Failed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
