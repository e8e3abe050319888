// Package checkout drives a cart through payment preference creation to the
// provider redirect and back.
package checkout

import "fmt"

// State is a step of the checkout flow.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StatePaying     State = "paying"
	StateSuccess    State = "success"
	StateFailure    State = "failure"
	StatePending    State = "pending"
	StateError      State = "error"
	StateRedirected State = "redirected"
)

var transitions = map[State][]State{
	StateLoading: {StateReady, StateError, StateRedirected},
	StateReady:   {StatePaying},
	StatePaying:  {StateSuccess, StateFailure, StatePending},
}

// CanTransition reports whether the flow may move from one state to another.
// Terminal states have no outgoing transitions.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// TransitionError is returned for a move CanTransition rejects.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("checkout: cannot go from %s to %s", e.From, e.To)
}
