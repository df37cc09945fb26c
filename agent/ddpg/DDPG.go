// Package ddpg implements the Deep Deterministic Policy Gradient
// algorithm for continuous control with one or more cooperating
// agents. All agents share a single actor-critic pair and a single
// replay buffer; target networks are updated by Polyak averaging.
package ddpg

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/nvjustdev/DRL-CollaborateCompete/agent"
	"github.com/nvjustdev/DRL-CollaborateCompete/expreplay"
	"github.com/nvjustdev/DRL-CollaborateCompete/noise"
	"github.com/nvjustdev/DRL-CollaborateCompete/params"
	ts "github.com/nvjustdev/DRL-CollaborateCompete/timestep"
	"github.com/nvjustdev/DRL-CollaborateCompete/utils/floatutils"
)

// ActorFile and CriticFile are the file names written by Save within
// the chosen checkpoint directory.
const (
	ActorFile  string = "actor.gob"
	CriticFile string = "critic.gob"
)

// DDPG implements the deep deterministic policy gradient algorithm.
// Five approximators cooperate:
//
// The behaviour policy selects actions for all cooperating agents at
// each environment step. The train actor and train critic are the
// learned networks, adapted by gradient ascent on the action value
// and gradient descent on the squared TD error respectively. The
// target actor and target critic are slow copies providing the
// bootstrap target
//
//	y = r + γ * Q'(s', μ'(s')) * (1 - done)
//
// and are moved toward the learned networks by Polyak averaging after
// every learning update.
type DDPG struct {
	behaviour    agent.DeterministicPolicy // Action selection
	trainActor   agent.PolicyLearner       // Policy whose weights are adapted
	targetActor  agent.DeterministicPolicy // Slow policy copy
	trainCritic  agent.ActionValueLearner  // Value whose weights are adapted
	targetCritic agent.ActionValueFn       // Slow value copy

	replay expreplay.ExperienceReplayer
	noise  []*noise.OrnsteinUhlenbeck // One process, or one per agent

	numAgents  int
	stateSize  int
	actionSize int

	gamma float64 // Discount factor
	tau   float64 // Polyak averaging constant

	// Exploration rate, scaling the noise added to actions
	eps      float64
	epsMin   float64
	epsDecay float64

	updateEvery     int // Steps between learning triggers
	gradientUpdates int // Learning updates per trigger
	batchSize       int

	eval bool // Whether or not in evaluation mode
}

// New creates and returns a new DDPG agent from the given
// approximators and replay buffer. The target networks are hard
// copies of the learned networks immediately after construction. The
// behaviour policy must share the actor architecture so that actor
// weights can be copied into it.
func New(config Config, behaviour agent.DeterministicPolicy,
	trainActor agent.PolicyLearner, targetActor agent.DeterministicPolicy,
	trainCritic agent.ActionValueLearner, targetCritic agent.ActionValueFn,
	replay expreplay.ExperienceReplayer, seed uint64) (*DDPG, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if replay.BatchSize() != config.BatchSize {
		return nil, fmt.Errorf("new: replay buffer samples a different "+
			"batch size \n\twant(%v)\n\thave(%v)", config.BatchSize,
			replay.BatchSize())
	}

	// A fully zero-valued schedule means none was configured: fall
	// back to full-scale noise with no decay
	eps, epsMin, epsDecay := config.EpsMax, config.EpsMin, config.EpsDecay
	if eps == 0 && epsMin == 0 && epsDecay == 0 {
		eps = DefaultEpsMax
		epsMin = DefaultEpsMin
		epsDecay = DefaultEpsDecay
	}

	d := &DDPG{
		behaviour:    behaviour,
		trainActor:   trainActor,
		targetActor:  targetActor,
		trainCritic:  trainCritic,
		targetCritic: targetCritic,

		replay: replay,

		numAgents:  config.NumAgents,
		stateSize:  config.StateSize,
		actionSize: config.ActionSize,

		gamma: config.Gamma,
		tau:   config.Tau,

		eps:      eps,
		epsMin:   epsMin,
		epsDecay: epsDecay,

		updateEvery:     config.UpdateEvery,
		gradientUpdates: config.GradientUpdates,
		batchSize:       config.BatchSize,
	}

	// Exploration noise
	if config.PerAgentNoise {
		d.noise = make([]*noise.OrnsteinUhlenbeck, config.NumAgents)
		for i := range d.noise {
			proc, err := noise.New(config.ActionSize, config.Mu,
				config.Theta, config.Sigma, seed+uint64(i))
			if err != nil {
				return nil, fmt.Errorf("new: noise process: %v", err)
			}
			d.noise[i] = proc
		}
	} else {
		proc, err := noise.New(config.NumAgents*config.ActionSize,
			config.Mu, config.Theta, config.Sigma, seed)
		if err != nil {
			return nil, fmt.Errorf("new: noise process: %v", err)
		}
		d.noise = []*noise.OrnsteinUhlenbeck{proc}
	}

	// Hard update: target and behaviour networks start as exact
	// copies of the learned networks
	if err := d.targetActor.SetParameters(
		d.trainActor.Parameters()); err != nil {
		return nil, fmt.Errorf("new: could not sync target actor: %v",
			err)
	}
	if err := d.targetCritic.SetParameters(
		d.trainCritic.Parameters()); err != nil {
		return nil, fmt.Errorf("new: could not sync target critic: %v",
			err)
	}
	if err := d.behaviour.SetParameters(
		d.trainActor.Parameters()); err != nil {
		return nil, fmt.Errorf("new: could not sync behaviour policy: %v",
			err)
	}

	return d, nil
}

// Act returns one action per agent for the given batch of per-agent
// states, laid out in row major order. When explore is true and the
// agent is in training mode, Ornstein-Uhlenbeck noise scaled by the
// current exploration rate is added to each action. Every action
// coordinate is clipped to [-1, 1] whether or not noise was added.
func (d *DDPG) Act(states []float64, explore bool) ([]float64, error) {
	if len(states) != d.numAgents*d.stateSize {
		return nil, fmt.Errorf("act: invalid state batch size "+
			"\n\twant(%v)\n\thave(%v)", d.numAgents*d.stateSize,
			len(states))
	}

	actions, err := d.behaviour.Predict(states)
	if err != nil {
		return nil, fmt.Errorf("act: could not predict actions: %v", err)
	}

	if explore && !d.eval {
		if len(d.noise) == 1 {
			sample := d.noise[0].Sample()
			for i := range actions {
				actions[i] += d.eps * sample[i]
			}
		} else {
			for i, proc := range d.noise {
				sample := proc.Sample()
				for j, x := range sample {
					actions[i*d.actionSize+j] += d.eps * x
				}
			}
		}
	}

	return floatutils.ClipSlice(actions, -1.0, 1.0), nil
}

// Step records every agent's transition for a single environment step
// and performs any learning scheduled for the given time step.
// Learning triggers when timeStep is a multiple of the update
// interval and the replay buffer holds strictly more transitions than
// the batch size; each trigger runs the configured number of learning
// updates, each on a fresh sample. In evaluation mode Step records
// nothing and never learns.
func (d *DDPG) Step(timeStep int, states, actions, rewards,
	nextStates []float64, dones []bool) error {
	if d.eval {
		return nil
	}

	if len(states) != d.numAgents*d.stateSize ||
		len(nextStates) != d.numAgents*d.stateSize {
		return fmt.Errorf("step: invalid state batch size "+
			"\n\twant(%v)\n\thave(%v, %v)", d.numAgents*d.stateSize,
			len(states), len(nextStates))
	}
	if len(actions) != d.numAgents*d.actionSize {
		return fmt.Errorf("step: invalid action batch size "+
			"\n\twant(%v)\n\thave(%v)", d.numAgents*d.actionSize,
			len(actions))
	}
	if len(rewards) != d.numAgents || len(dones) != d.numAgents {
		return fmt.Errorf("step: invalid reward or done batch size "+
			"\n\twant(%v)\n\thave(%v, %v)", d.numAgents, len(rewards),
			len(dones))
	}

	transitions := make([]ts.Transition, d.numAgents)
	for i := 0; i < d.numAgents; i++ {
		state := mat.NewVecDense(d.stateSize, append([]float64{},
			states[i*d.stateSize:(i+1)*d.stateSize]...))
		action := mat.NewVecDense(d.actionSize, append([]float64{},
			actions[i*d.actionSize:(i+1)*d.actionSize]...))
		nextState := mat.NewVecDense(d.stateSize, append([]float64{},
			nextStates[i*d.stateSize:(i+1)*d.stateSize]...))

		transitions[i] = ts.NewTransition(state, action, rewards[i],
			nextState, dones[i])
	}
	if err := d.replay.AddBatch(transitions); err != nil {
		return fmt.Errorf("step: could not record transitions: %v", err)
	}

	if timeStep%d.updateEvery != 0 {
		return nil
	}
	if d.replay.Capacity() <= d.batchSize {
		return nil
	}

	for i := 0; i < d.gradientUpdates; i++ {
		if err := d.learn(); err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}
	return nil
}

// learn performs a single learning update on a fresh sample from the
// replay buffer: a critic step toward the bootstrap target, an actor
// step up the critic's value estimate, a Polyak move of both target
// networks, a behaviour policy sync, and an exploration rate decay.
func (d *DDPG) learn() error {
	states, actions, rewards, nextStates, dones, err := d.replay.Sample()
	if err != nil {
		return fmt.Errorf("learn: could not sample transitions: %v", err)
	}

	// Bootstrap target y = r + γ * Q'(s', μ'(s')) * (1 - done)
	nextActions, err := d.targetActor.Predict(nextStates)
	if err != nil {
		return fmt.Errorf("learn: could not predict next actions: %v",
			err)
	}
	nextValues, err := d.targetCritic.Predict(nextStates, nextActions)
	if err != nil {
		return fmt.Errorf("learn: could not predict next values: %v",
			err)
	}

	discounts := mat.NewVecDense(d.batchSize, nil)
	for i, done := range dones {
		discounts.SetVec(i, d.gamma*(1.0-done))
	}
	targets := mat.NewVecDense(d.batchSize, nil)
	targets.MulElemVec(discounts, mat.NewVecDense(d.batchSize,
		nextValues))
	targets.AddVec(targets, mat.NewVecDense(d.batchSize, rewards))

	// Critic descends the squared TD error
	if err := d.trainCritic.Update(states, actions,
		targets.RawVector().Data); err != nil {
		return fmt.Errorf("learn: could not update critic: %v", err)
	}

	// Actor ascends the freshly updated critic's value estimate. The
	// critic weights are read through a copy and never modified by
	// the actor step.
	if err := d.trainActor.Update(states,
		d.trainCritic.Parameters()); err != nil {
		return fmt.Errorf("learn: could not update actor: %v", err)
	}

	// Soft update: target ← τ·local + (1-τ)·target
	blended, err := d.targetActor.Parameters().Blend(
		d.trainActor.Parameters(), d.tau)
	if err != nil {
		return fmt.Errorf("learn: could not blend actor weights: %v", err)
	}
	if err := d.targetActor.SetParameters(blended); err != nil {
		return fmt.Errorf("learn: could not update target actor: %v", err)
	}

	blended, err = d.targetCritic.Parameters().Blend(
		d.trainCritic.Parameters(), d.tau)
	if err != nil {
		return fmt.Errorf("learn: could not blend critic weights: %v",
			err)
	}
	if err := d.targetCritic.SetParameters(blended); err != nil {
		return fmt.Errorf("learn: could not update target critic: %v",
			err)
	}

	// Behaviour policy follows the learned actor exactly
	if err := d.behaviour.SetParameters(
		d.trainActor.Parameters()); err != nil {
		return fmt.Errorf("learn: could not sync behaviour policy: %v",
			err)
	}

	d.eps = floatutils.Max(d.eps-d.epsDecay, d.epsMin)
	return nil
}

// Reset prepares the agent for a new episode by resetting the
// exploration noise to its mean. The replay buffer and all weights
// persist across episodes.
func (d *DDPG) Reset() {
	for _, proc := range d.noise {
		proc.Reset()
	}
}

// Eps returns the current exploration rate
func (d *DDPG) Eps() float64 {
	return d.eps
}

// Save writes the learned actor and critic weights to dir, one opaque
// parameter file each.
func (d *DDPG) Save(dir string) error {
	if err := params.Save(filepath.Join(dir, ActorFile),
		d.trainActor.Parameters()); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := params.Save(filepath.Join(dir, CriticFile),
		d.trainCritic.Parameters()); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Load reads actor and critic weights previously written by Save and
// installs them in the learned, target, and behaviour networks.
func (d *DDPG) Load(dir string) error {
	actor, err := params.Load(filepath.Join(dir, ActorFile))
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}
	critic, err := params.Load(filepath.Join(dir, CriticFile))
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}

	if err := d.trainActor.SetParameters(actor); err != nil {
		return fmt.Errorf("load: could not set actor weights: %v", err)
	}
	if err := d.trainCritic.SetParameters(critic); err != nil {
		return fmt.Errorf("load: could not set critic weights: %v", err)
	}
	if err := d.targetActor.SetParameters(actor); err != nil {
		return fmt.Errorf("load: could not set target actor weights: %v",
			err)
	}
	if err := d.targetCritic.SetParameters(critic); err != nil {
		return fmt.Errorf("load: could not set target critic weights: %v",
			err)
	}
	if err := d.behaviour.SetParameters(actor); err != nil {
		return fmt.Errorf("load: could not set behaviour weights: %v",
			err)
	}
	return nil
}

// Eval sets the agent into evaluation mode: actions are noise-free
// and Step performs no recording or learning.
func (d *DDPG) Eval() {
	d.eval = true
	d.behaviour.Eval()
	d.trainActor.Eval()
	d.targetActor.Eval()
	d.trainCritic.Eval()
	d.targetCritic.Eval()
}

// Train sets the agent into training mode
func (d *DDPG) Train() {
	d.eval = false
	d.behaviour.Train()
	d.trainActor.Train()
	d.targetActor.Train()
	d.trainCritic.Train()
	d.targetCritic.Train()
}
