package network

import (
	"fmt"

	"github.com/nvjustdev/DRL-CollaborateCompete/params"
	"github.com/nvjustdev/DRL-CollaborateCompete/solver"
	G "gorgonia.org/gorgonia"
)

// DeterministicActorCritic trains a deterministic policy by gradient
// ascent on an action-value function. A single computational graph
// holds the policy layers feeding a mirror copy of the critic:
//
//	states → actor layers → actions → critic mirror → values
//
// with loss = -mean(values). The gradient is computed with respect to
// the policy learnables only, so a solver step changes the policy and
// never the critic mirror. The mirror's weights are refreshed from
// the live critic before every update.
type DeterministicActorCritic struct {
	g *G.ExprGraph

	actorLayers  []*fcLayer
	criticLayers []*fcLayer
	input        *G.Node

	stateSize  int
	actionSize int
	batchSize  int

	prediction *G.Node
	predVal    G.Value

	actorLearnables  G.Nodes
	criticLearnables G.Nodes
	model            []G.ValueGrad

	vm     G.VM
	solver G.Solver

	eval bool
}

// NewDeterministicActorCritic creates and returns a new
// DeterministicActorCritic. The actor and critic architectures are
// described as in NewActorMLP and NewCriticMLP; the critic
// architecture must match the critic whose weights will be supplied
// to Update. The sol parameter adapts the policy weights.
func NewDeterministicActorCritic(stateSize, actionSize, batch int,
	actorHidden []int, actorBiases []bool, actorActivations []*Activation,
	criticHidden []int, criticBiases []bool,
	criticActivations []*Activation, init G.InitWFn,
	sol *solver.Solver) (*DeterministicActorCritic, error) {
	if err := validateArch(actorHidden, actorBiases,
		actorActivations); err != nil {
		return nil, fmt.Errorf("newdeterministicactorcritic: actor: %v",
			err)
	}
	if err := validateArch(criticHidden, criticBiases,
		criticActivations); err != nil {
		return nil, fmt.Errorf("newdeterministicactorcritic: critic: %v",
			err)
	}
	if sol == nil {
		return nil, fmt.Errorf("newdeterministicactorcritic: no solver " +
			"provided")
	}
	if stateSize < 1 || actionSize < 1 || batch < 1 {
		return nil, fmt.Errorf("newdeterministicactorcritic: sizes must "+
			"be positive \n\thave(state %v, action %v, batch %v)",
			stateSize, actionSize, batch)
	}

	// Actor output layer keeps actions in (-1, 1); critic output
	// layer predicts a single scalar value
	actorHidden = append(append([]int{}, actorHidden...), actionSize)
	actorBiases = append(append([]bool{}, actorBiases...), true)
	actorActivations = append(append([]*Activation{},
		actorActivations...), TanH())

	criticHidden = append(append([]int{}, criticHidden...), 1)
	criticBiases = append(append([]bool{}, criticBiases...), true)
	criticActivations = append(append([]*Activation{},
		criticActivations...), Identity())

	g := G.NewGraph()
	input := newInputMatrix(g, batch, stateSize, "actorCriticStates")

	actorLayers := addFCLayers(g, actorHidden, actorBiases,
		actorActivations, init, stateSize, "Actor")
	prediction, err := fwdLayers(actorLayers, input)
	if err != nil {
		return nil, fmt.Errorf("newdeterministicactorcritic: actor: %v",
			err)
	}

	criticLayers := addFCLayers(g, criticHidden, criticBiases,
		criticActivations, init, stateSize+actionSize, "CriticMirror")
	criticInput := G.Must(G.Concat(1, input, prediction))
	values, err := fwdLayers(criticLayers, criticInput)
	if err != nil {
		return nil, fmt.Errorf("newdeterministicactorcritic: critic: %v",
			err)
	}

	// Maximize the expected value of the policy's actions
	loss := G.Must(G.Mean(values))
	loss = G.Must(G.Neg(loss))

	a := &DeterministicActorCritic{
		g:                g,
		actorLayers:      actorLayers,
		criticLayers:     criticLayers,
		input:            input,
		stateSize:        stateSize,
		actionSize:       actionSize,
		batchSize:        batch,
		prediction:       prediction,
		actorLearnables:  learnablesOf(actorLayers),
		criticLearnables: learnablesOf(criticLayers),
		solver:           sol.Solver,
	}
	G.Read(a.prediction, &a.predVal)

	// Gradient with respect to the policy learnables only: the
	// critic mirror must not be altered by a policy update
	if _, err := G.Grad(loss, a.actorLearnables...); err != nil {
		return nil, fmt.Errorf("newdeterministicactorcritic: could not "+
			"compute policy gradient: %v", err)
	}

	a.vm = G.NewTapeMachine(g, G.BindDualValues(a.actorLearnables...))

	a.model = make([]G.ValueGrad, 0, len(a.actorLearnables))
	for _, node := range a.actorLearnables {
		a.model = append(a.model, node)
	}

	return a, nil
}

// BatchSize returns the number of states the policy predicts actions
// for in a single forward pass
func (a *DeterministicActorCritic) BatchSize() int {
	return a.batchSize
}

// Features returns the number of features in a single state vector
func (a *DeterministicActorCritic) Features() int {
	return a.stateSize
}

// Predict runs the forward pass on a batch of states in row major
// order and returns the predicted actions in row major order
func (a *DeterministicActorCritic) Predict(states []float64) ([]float64,
	error) {
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

// Update performs a single gradient step increasing the mean value of
// the policy's actions at the given states under the given critic
// weights. The critic weights are copied into the mirror and are
// never modified.
func (a *DeterministicActorCritic) Update(states []float64,
	critic params.Vector) error {
	if err := setLearnables(a.criticLearnables, critic); err != nil {
		return fmt.Errorf("update: could not refresh critic mirror: %v",
			err)
	}
	if err := letInput(a.input, states, a.batchSize, a.stateSize); err != nil {
		return fmt.Errorf("update: %v", err)
	}

	if err := a.vm.RunAll(); err != nil {
		return fmt.Errorf("update: could not run learning step: %v", err)
	}
	if err := a.solver.Step(a.model); err != nil {
		return fmt.Errorf("update: could not adapt policy weights: %v",
			err)
	}

	a.vm.Reset()
	return nil
}

// Parameters returns the policy weights. The critic mirror is
// internal and not part of the policy's parameter vector.
func (a *DeterministicActorCritic) Parameters() params.Vector {
	return parametersOf(a.actorLearnables)
}

// SetParameters copies the given weights into the policy
func (a *DeterministicActorCritic) SetParameters(v params.Vector) error {
	return setLearnables(a.actorLearnables, v)
}

// Eval sets the policy into evaluation mode
func (a *DeterministicActorCritic) Eval() { a.eval = true }

// Train sets the policy into training mode
func (a *DeterministicActorCritic) Train() { a.eval = false }
