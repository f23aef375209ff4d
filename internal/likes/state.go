package likes

import "fmt"

// State is where a key sits in the optimistic mutation lifecycle:
//
//	Idle -> Pending -> {Committed | RolledBack} -> Idle
//
// Pending may be re-entered by an overlapping toggle, and a settled state goes
// back to Pending rather than Idle while another toggle is still in flight.
type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CanTransition reports whether s -> to is a legal lifecycle step.
func (s State) CanTransition(to State) bool {
	switch s {
	case StateIdle:
		return to == StatePending
	case StatePending:
		return to == StatePending || to == StateCommitted || to == StateRolledBack
	case StateCommitted, StateRolledBack:
		return to == StateIdle || to == StatePending
	}
	return false
}

// Snapshot is the observable cache state of one key.
type Snapshot struct {
	Key    Key
	Status LikeStatus
	// Known is false until the status was fetched or speculatively set.
	Known bool
	State State
	// InFlight is the advisory marker; UIs disable the control while set.
	InFlight bool
	// Queued counts offline intents for this key awaiting replay.
	Queued int
}

// Event is delivered to subscribers on every change of a key.
type Event struct {
	Snapshot
	// Err is set on the RolledBack event of a failed toggle.
	Err error
}
