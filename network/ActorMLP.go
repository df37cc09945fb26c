package network

import (
	"fmt"

	"github.com/nvjustdev/DRL-CollaborateCompete/params"
	G "gorgonia.org/gorgonia"
)

// ActorMLP implements a deterministic policy as a multi-layered
// perceptron: states in, one action per state out. A final layer with
// a tanh activation is always added so predicted actions fall in
// (-1, 1) before any exploration noise is applied.
//
// ActorMLP is forward-only. Policy weights are learned by a
// DeterministicActorCritic and copied in through SetParameters.
type ActorMLP struct {
	g      *G.ExprGraph
	layers []*fcLayer
	input  *G.Node

	stateSize  int
	actionSize int
	batchSize  int

	prediction *G.Node
	predVal    G.Value

	learnables G.Nodes
	vm         G.VM

	eval bool
}

// NewActorMLP creates and returns a new ActorMLP predicting one
// action of size actionSize for each of batch states of size
// stateSize. The hiddenSizes, biases, and activations parameters
// describe the hidden layers as in addFCLayers; the output layer is
// added by the constructor. The init parameter determines the weight
// initialization scheme.
func NewActorMLP(stateSize, actionSize, batch int, hiddenSizes []int,
	biases []bool, activations []*Activation,
	init G.InitWFn) (*ActorMLP, error) {
	if err := validateArch(hiddenSizes, biases, activations); err != nil {
		return nil, fmt.Errorf("newactormlp: %v", err)
	}
	if stateSize < 1 || actionSize < 1 || batch < 1 {
		return nil, fmt.Errorf("newactormlp: sizes must be positive "+
			"\n\thave(state %v, action %v, batch %v)", stateSize,
			actionSize, batch)
	}

	// Output layer keeps actions in (-1, 1)
	hiddenSizes = append(append([]int{}, hiddenSizes...), actionSize)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*Activation{}, activations...), TanH())

	g := G.NewGraph()
	input := newInputMatrix(g, batch, stateSize, "actorStates")
	layers := addFCLayers(g, hiddenSizes, biases, activations, init,
		stateSize, "Actor")

	prediction, err := fwdLayers(layers, input)
	if err != nil {
		return nil, fmt.Errorf("newactormlp: %v", err)
	}

	a := &ActorMLP{
		g:          g,
		layers:     layers,
		input:      input,
		stateSize:  stateSize,
		actionSize: actionSize,
		batchSize:  batch,
		prediction: prediction,
		learnables: learnablesOf(layers),
	}
	G.Read(a.prediction, &a.predVal)
	a.vm = G.NewTapeMachine(g)

	return a, nil
}

// BatchSize returns the number of states the policy predicts actions
// for in a single forward pass
func (a *ActorMLP) BatchSize() int {
	return a.batchSize
}

// Features returns the number of features in a single state vector
func (a *ActorMLP) Features() int {
	return a.stateSize
}

// Outputs returns the size of a single predicted action vector
func (a *ActorMLP) Outputs() int {
	return a.actionSize
}

// Predict runs the forward pass on a batch of states in row major
// order and returns the predicted actions in row major order
func (a *ActorMLP) Predict(states []float64) ([]float64, error) {
	if err := letInput(a.input, states, a.batchSize, a.stateSize); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	if err := a.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not run forward pass: %v",
			err)
	}

	data := a.predVal.Data().([]float64)
	actions := make([]float64, len(data))
	copy(actions, data)

	a.vm.Reset()
	return actions, nil
}

// Parameters returns the policy weights
func (a *ActorMLP) Parameters() params.Vector {
	return parametersOf(a.learnables)
}

// SetParameters copies the given weights into the policy
func (a *ActorMLP) SetParameters(v params.Vector) error {
	return setLearnables(a.learnables, v)
}

// Eval sets the policy into evaluation mode
func (a *ActorMLP) Eval() { a.eval = true }

// Train sets the policy into training mode
func (a *ActorMLP) Train() { a.eval = false }
