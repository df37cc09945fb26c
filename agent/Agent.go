// Package agent defines agent and function approximator interfaces
package agent

import (
	"github.com/nvjustdev/DRL-CollaborateCompete/params"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent selects actions for one or more cooperating actors and
// updates its own weights from recorded experience. The environment
// loop drives an Agent through Act and Step; Reset marks episode
// boundaries.
type Agent interface {
	// Act returns one bounded action per agent for the given batch of
	// per-agent states, optionally perturbed by exploration noise.
	// Every action coordinate lies in [-1, 1].
	Act(states []float64, explore bool) ([]float64, error)

	// Step records the transition(s) of a single environment step and
	// performs any learning scheduled for the given time step. The
	// timeStep parameter increases monotonically and gates the update
	// cadence.
	Step(timeStep int, states, actions, rewards,
		nextStates []float64, dones []bool) error

	// Reset prepares the agent for a new episode
	Reset()

	// Eval sets the agent into evaluation mode
	Eval()

	// Train sets the agent into training mode
	Train()
}

// Approximator is a differentiable parametric function. Its weights
// are exposed as an ordered parameter vector so that hard and soft
// target updates can be performed without knowledge of the underlying
// implementation.
type Approximator interface {
	// Parameters returns the approximator's current weights. The
	// returned Vector is index-aligned with that of any approximator
	// of identical architecture.
	Parameters() params.Vector

	// SetParameters copies the given weights into the approximator
	SetParameters(params.Vector) error

	// Eval sets the approximator into evaluation mode
	Eval()

	// Train sets the approximator into training mode
	Train()
}

// DeterministicPolicy is a deterministic mapping from states to
// actions.
type DeterministicPolicy interface {
	Approximator

	// Predict runs the forward pass on a batch of states laid out in
	// row major order and returns the batch of actions. No gradient
	// is tracked.
	Predict(states []float64) ([]float64, error)
}

// PolicyLearner is a DeterministicPolicy whose weights can be adapted
// by gradient ascent on an action-value function.
type PolicyLearner interface {
	DeterministicPolicy

	// Update performs a single gradient step increasing the mean
	// action value of the policy's own actions at the given states,
	// evaluated under the given action-value weights. The supplied
	// critic weights are read, never modified: only the policy's
	// parameters change.
	Update(states []float64, critic params.Vector) error
}

// ActionValueFn is a mapping from state-action pairs to scalar
// values.
type ActionValueFn interface {
	Approximator

	// Predict runs the forward pass on batches of states and actions
	// laid out in row major order and returns the batch of values. No
	// gradient is tracked.
	Predict(states, actions []float64) ([]float64, error)
}

// ActionValueLearner is an ActionValueFn whose weights can be adapted
// by gradient descent on a squared error.
type ActionValueLearner interface {
	ActionValueFn

	// Update performs a single gradient step minimizing the mean
	// squared error between the predicted values at the given
	// state-action pairs and the given targets. Targets are treated
	// as constants: no gradient flows through them.
	Update(states, actions, targets []float64) error
}
