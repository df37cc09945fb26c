package ddpg

import (
	"fmt"

	"github.com/nvjustdev/DRL-CollaborateCompete/agent"
	"github.com/nvjustdev/DRL-CollaborateCompete/expreplay"
	"github.com/nvjustdev/DRL-CollaborateCompete/initwfn"
	"github.com/nvjustdev/DRL-CollaborateCompete/network"
	"github.com/nvjustdev/DRL-CollaborateCompete/solver"
)

// Default exploration schedule, applied when a Config leaves the
// schedule zero-valued: noise at full scale for the whole run, with
// no decay.
const (
	DefaultEpsMax   float64 = 1.0
	DefaultEpsMin   float64 = 0.0
	DefaultEpsDecay float64 = 0.0
)

// Config implements a configuration for a DDPG agent
type Config struct {
	// Problem dimensions
	NumAgents  int // Cooperating actors sharing the networks
	StateSize  int // Features per state observation
	ActionSize int // Action components per agent

	// Actor network architecture. The tanh output layer is always
	// added by the networks themselves and is not listed here.
	ActorLayers      []int
	ActorBiases      []bool
	ActorActivations []*network.Activation

	// Critic network architecture. The scalar output layer is always
	// added by the networks themselves and is not listed here.
	CriticLayers      []int
	CriticBiases      []bool
	CriticActivations []*network.Activation

	ActorSolver  *solver.Solver // Adapts the actor weights
	CriticSolver *solver.Solver // Adapts the critic weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	Gamma float64 // Discount factor
	Tau   float64 // Polyak averaging constant

	// Ornstein-Uhlenbeck exploration noise parameters. When
	// PerAgentNoise is true, each agent gets an independent noise
	// process; otherwise a single process covers all agents' actions.
	Mu            float64
	Theta         float64
	Sigma         float64
	PerAgentNoise bool

	// Exploration rate schedule, scaling the noise added to actions
	EpsMax   float64
	EpsMin   float64
	EpsDecay float64

	// Experience replay parameters
	BatchSize      int
	ReplayCapacity int

	// Learning schedule: every UpdateEvery environment steps, run
	// GradientUpdates learning updates, each with a fresh sample
	UpdateEvery     int
	GradientUpdates int
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent.
func (c Config) Validate() error {
	if c.NumAgents < 1 || c.StateSize < 1 || c.ActionSize < 1 {
		return fmt.Errorf("config: problem dimensions must be positive "+
			"\n\thave(agents %v, state %v, action %v)", c.NumAgents,
			c.StateSize, c.ActionSize)
	}

	if len(c.ActorLayers) != len(c.ActorBiases) {
		return fmt.Errorf("config: invalid number of actor biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorBiases))
	}
	if len(c.ActorLayers) != len(c.ActorActivations) {
		return fmt.Errorf("config: invalid number of actor activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorActivations))
	}
	if len(c.CriticLayers) != len(c.CriticBiases) {
		return fmt.Errorf("config: invalid number of critic biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticBiases))
	}
	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("config: invalid number of critic activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}

	if c.Gamma <= 0 || c.Gamma > 1 {
		return fmt.Errorf("config: discount factor must be in (0, 1] "+
			"\n\thave(%v)", c.Gamma)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("config: averaging constant must be in (0, 1] "+
			"\n\thave(%v)", c.Tau)
	}

	if c.EpsMax < c.EpsMin || c.EpsMin < 0 || c.EpsDecay < 0 {
		return fmt.Errorf("config: invalid exploration schedule "+
			"\n\thave(max %v, min %v, decay %v)", c.EpsMax, c.EpsMin,
			c.EpsDecay)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be positive "+
			"\n\thave(%v)", c.BatchSize)
	}
	if c.ReplayCapacity <= c.BatchSize {
		return fmt.Errorf("config: replay capacity must exceed batch "+
			"size \n\twant(>%v)\n\thave(%v)", c.BatchSize,
			c.ReplayCapacity)
	}

	if c.UpdateEvery < 1 {
		return fmt.Errorf("config: networks must be updated at positive "+
			"timestep intervals \n\twant(>0)\n\thave(%v)", c.UpdateEvery)
	}
	if c.GradientUpdates < 1 {
		return fmt.Errorf("config: learning phases per update must be "+
			"positive \n\twant(>0)\n\thave(%v)", c.GradientUpdates)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DDPG)
	return ok
}

// CreateAgent creates a new DDPG agent based on the configuration.
// Networks are backed by Gorgonia computational graphs; each network
// owns its own graph and weights are moved between them by copying
// parameter vectors.
func (c Config) CreateAgent(seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.InitWFn == nil {
		return nil, fmt.Errorf("createagent: no weight initializer " +
			"provided")
	}
	if c.ActorSolver == nil {
		return nil, fmt.Errorf("createagent: no actor solver provided")
	}
	if c.CriticSolver == nil {
		return nil, fmt.Errorf("createagent: no critic solver provided")
	}

	init := c.InitWFn.InitWFn()

	// Behaviour policy selects actions for all cooperating agents at
	// once
	behaviour, err := network.NewActorMLP(c.StateSize, c.ActionSize,
		c.NumAgents, c.ActorLayers, c.ActorBiases, c.ActorActivations,
		init)
	if err != nil {
		return nil, fmt.Errorf("createagent: behaviour policy: %v", err)
	}

	trainActor, err := network.NewDeterministicActorCritic(c.StateSize,
		c.ActionSize, c.BatchSize, c.ActorLayers, c.ActorBiases,
		c.ActorActivations, c.CriticLayers, c.CriticBiases,
		c.CriticActivations, init, c.ActorSolver)
	if err != nil {
		return nil, fmt.Errorf("createagent: actor: %v", err)
	}

	targetActor, err := network.NewActorMLP(c.StateSize, c.ActionSize,
		c.BatchSize, c.ActorLayers, c.ActorBiases, c.ActorActivations,
		init)
	if err != nil {
		return nil, fmt.Errorf("createagent: target actor: %v", err)
	}

	trainCritic, err := network.NewCriticLearner(c.StateSize,
		c.ActionSize, c.BatchSize, c.CriticLayers, c.CriticBiases,
		c.CriticActivations, init, c.CriticSolver)
	if err != nil {
		return nil, fmt.Errorf("createagent: critic: %v", err)
	}

	targetCritic, err := network.NewCriticMLP(c.StateSize, c.ActionSize,
		c.BatchSize, c.CriticLayers, c.CriticBiases,
		c.CriticActivations, init)
	if err != nil {
		return nil, fmt.Errorf("createagent: target critic: %v", err)
	}

	replay, err := expreplay.New(c.StateSize, c.ActionSize,
		c.ReplayCapacity, c.BatchSize, seed)
	if err != nil {
		return nil, fmt.Errorf("createagent: replay buffer: %v", err)
	}

	return New(c, behaviour, trainActor, targetActor, trainCritic,
		targetCritic, replay, seed)
}
