// Package timestep implements transitions of the agent-environment
// interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition packages together a single transition of the
// agent-environment interaction. Once added to a replay buffer, a
// Transition is owned by the buffer and is never mutated.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	NextState mat.Vector
	Done      bool
}

// NewTransition returns a new Transition. The done flag denotes whether
// NextState is terminal.
func NewTransition(state, action mat.Vector, reward float64,
	nextState mat.Vector, done bool) Transition {
	return Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
		Done:      done,
	}
}

func (t Transition) String() string {
	str := "Transition | Reward: %.2f  |  Done: %v  |  State: %v  |  " +
		"Action: %v"

	return fmt.Sprintf(str, t.Reward, t.Done, mat.Formatted(t.State.T()),
		mat.Formatted(t.Action.T()))
}
