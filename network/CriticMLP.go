package network

import (
	"fmt"

	"github.com/nvjustdev/DRL-CollaborateCompete/params"
	"github.com/nvjustdev/DRL-CollaborateCompete/solver"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// CriticMLP implements a state-action value function as a
// multi-layered perceptron. State and action inputs are concatenated
// along the feature dimension before the first layer, and a final
// linear layer with a single output unit is always added so the
// network predicts one scalar value per state-action pair.
//
// A CriticMLP built with NewCriticMLP is forward-only and learns its
// weights through SetParameters. A CriticMLP built with
// NewCriticLearner additionally supports Update, a single gradient
// step minimizing the mean squared error to externally supplied
// targets.
type CriticMLP struct {
	g           *G.ExprGraph
	layers      []*fcLayer
	stateInput  *G.Node
	actionInput *G.Node

	stateSize  int
	actionSize int
	batchSize  int

	prediction *G.Node
	predVal    G.Value

	learnables G.Nodes
	model      []G.ValueGrad
	vm         G.VM

	// Learning machinery, nil for forward-only critics
	targets *G.Node
	solver  G.Solver

	eval bool
}

// NewCriticMLP creates and returns a new forward-only CriticMLP
// predicting one value for each of batch state-action pairs. The
// hiddenSizes, biases, and activations parameters describe the hidden
// layers; the scalar output layer is added by the constructor.
func NewCriticMLP(stateSize, actionSize, batch int, hiddenSizes []int,
	biases []bool, activations []*Activation,
	init G.InitWFn) (*CriticMLP, error) {
	return newCriticMLP(stateSize, actionSize, batch, hiddenSizes,
		biases, activations, init, nil)
}

// NewCriticLearner creates and returns a new CriticMLP whose weights
// are adapted by the argument solver through Update.
func NewCriticLearner(stateSize, actionSize, batch int,
	hiddenSizes []int, biases []bool, activations []*Activation,
	init G.InitWFn, sol *solver.Solver) (*CriticMLP, error) {
	if sol == nil {
		return nil, fmt.Errorf("newcriticlearner: no solver provided")
	}
	return newCriticMLP(stateSize, actionSize, batch, hiddenSizes,
		biases, activations, init, sol)
}

func newCriticMLP(stateSize, actionSize, batch int, hiddenSizes []int,
	biases []bool, activations []*Activation, init G.InitWFn,
	sol *solver.Solver) (*CriticMLP, error) {
	if err := validateArch(hiddenSizes, biases, activations); err != nil {
		return nil, fmt.Errorf("newcriticmlp: %v", err)
	}
	if stateSize < 1 || actionSize < 1 || batch < 1 {
		return nil, fmt.Errorf("newcriticmlp: sizes must be positive "+
			"\n\thave(state %v, action %v, batch %v)", stateSize,
			actionSize, batch)
	}

	// Scalar output layer
	hiddenSizes = append(append([]int{}, hiddenSizes...), 1)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*Activation{}, activations...),
		Identity())

	g := G.NewGraph()
	stateInput := newInputMatrix(g, batch, stateSize, "criticStates")
	actionInput := newInputMatrix(g, batch, actionSize, "criticActions")
	input := G.Must(G.Concat(1, stateInput, actionInput))

	layers := addFCLayers(g, hiddenSizes, biases, activations, init,
		stateSize+actionSize, "Critic")

	prediction, err := fwdLayers(layers, input)
	if err != nil {
		return nil, fmt.Errorf("newcriticmlp: %v", err)
	}

	c := &CriticMLP{
		g:           g,
		layers:      layers,
		stateInput:  stateInput,
		actionInput: actionInput,
		stateSize:   stateSize,
		actionSize:  actionSize,
		batchSize:   batch,
		prediction:  prediction,
		learnables:  learnablesOf(layers),
	}
	G.Read(c.prediction, &c.predVal)

	if sol == nil {
		c.vm = G.NewTapeMachine(g)
		return c, nil
	}

	// Mean squared error to constant targets
	c.targets = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, 1),
		G.WithName("criticTargets"), G.WithInit(G.Zeroes()))
	loss := G.Must(G.Sub(c.prediction, c.targets))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))

	if _, err := G.Grad(loss, c.learnables...); err != nil {
		return nil, fmt.Errorf("newcriticmlp: could not compute value "+
			"gradient: %v", err)
	}

	c.vm = G.NewTapeMachine(g, G.BindDualValues(c.learnables...))
	c.solver = sol.Solver

	c.model = make([]G.ValueGrad, 0, len(c.learnables))
	for _, node := range c.learnables {
		c.model = append(c.model, node)
	}

	return c, nil
}

// BatchSize returns the number of state-action pairs the critic
// values in a single forward pass
func (c *CriticMLP) BatchSize() int {
	return c.batchSize
}

// Features returns the number of features in a single state vector
func (c *CriticMLP) Features() int {
	return c.stateSize
}

// setInputs assigns state and action batches to the input nodes
func (c *CriticMLP) setInputs(states, actions []float64) error {
	err := letInput(c.stateInput, states, c.batchSize, c.stateSize)
	if err != nil {
		return err
	}
	return letInput(c.actionInput, actions, c.batchSize, c.actionSize)
}

// Predict runs the forward pass on batches of states and actions in
// row major order and returns the predicted values
func (c *CriticMLP) Predict(states, actions []float64) ([]float64,
	error) {
	if err := c.setInputs(states, actions); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	if err := c.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not run forward pass: %v",
			err)
	}

	data := c.predVal.Data().([]float64)
	values := make([]float64, len(data))
	copy(values, data)

	c.vm.Reset()
	return values, nil
}

// Update performs a single gradient step minimizing the mean squared
// error between the critic's predictions at the given state-action
// pairs and the given targets. Targets are constants: no gradient
// flows through them.
func (c *CriticMLP) Update(states, actions, targets []float64) error {
	if c.solver == nil {
		return fmt.Errorf("update: critic is forward-only")
	}
	if len(targets) != c.batchSize {
		return fmt.Errorf("update: invalid number of targets "+
			"\n\twant(%v)\n\thave(%v)", c.batchSize, len(targets))
	}

	if err := c.setInputs(states, actions); err != nil {
		return fmt.Errorf("update: %v", err)
	}

	backing := make([]float64, len(targets))
	copy(backing, targets)
	targetTensor := tensor.New(
		tensor.WithBacking(backing),
		tensor.WithShape(c.batchSize, 1),
	)
	if err := G.Let(c.targets, targetTensor); err != nil {
		return fmt.Errorf("update: could not set targets: %v", err)
	}

	if err := c.vm.RunAll(); err != nil {
		return fmt.Errorf("update: could not run learning step: %v", err)
	}
	if err := c.solver.Step(c.model); err != nil {
		return fmt.Errorf("update: could not adapt weights: %v", err)
	}

	c.vm.Reset()
	return nil
}

// Parameters returns the critic weights
func (c *CriticMLP) Parameters() params.Vector {
	return parametersOf(c.learnables)
}

// SetParameters copies the given weights into the critic
func (c *CriticMLP) SetParameters(v params.Vector) error {
	return setLearnables(c.learnables, v)
}

// Eval sets the critic into evaluation mode
func (c *CriticMLP) Eval() { c.eval = true }

// Train sets the critic into training mode
func (c *CriticMLP) Train() { c.eval = false }
