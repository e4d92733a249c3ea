package app

// State is the orchestrator state of the displayed problem.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateTesting    State = "testing"
	StateSubmitting State = "submitting"
	StateSaving     State = "saving"
	StateError      State = "error"
)

// Interactive reports whether the editor accepts input in s.
func (s State) Interactive() bool {
	switch s {
	case StateReady, StateTesting, StateSubmitting, StateSaving:
		return true
	default:
		return false
	}
}
