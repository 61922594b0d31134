package view

type CheckState string

const (
	CheckStateSatisfied   CheckState = "satisfied"
	CheckStatePartial     CheckState = "partial"
	CheckStateUnsatisfied CheckState = "unsatisfied"
)

// Check is a single compliance requirement within a ruleset.
// Weight is optional; nil means the default weight of 1.
type Check struct {
	Id       string     `json:"id"`
	Label    string     `json:"label"`
	Category string     `json:"category,omitempty"`
	State    CheckState `json:"state"`
	Weight   *float64   `json:"weight,omitempty"`
}

func ValidCheckState(state CheckState) bool {
	switch state {
	case CheckStateSatisfied, CheckStatePartial, CheckStateUnsatisfied:
		return true
	default:
		return false
	}
}

// CheckStateUpdate sets the observed state for a check defined in a stored ruleset.
type CheckStateUpdate struct {
	Id    string     `json:"id"`
	State CheckState `json:"state"`
}
