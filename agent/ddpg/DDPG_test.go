package ddpg

import (
	"math"
	"testing"

	"gorgonia.org/tensor"

	"github.com/nvjustdev/DRL-CollaborateCompete/initwfn"
	"github.com/nvjustdev/DRL-CollaborateCompete/params"
	"github.com/nvjustdev/DRL-CollaborateCompete/solver"
	"github.com/nvjustdev/DRL-CollaborateCompete/timestep"
)

// mockApprox implements the shared approximator surface of the mocks.
// Weights are a single 2x2 tensor identified by its leading element.
type mockApprox struct {
	weights params.Vector
}

func newMockApprox(id float64) *mockApprox {
	backing := []float64{id, id, id, id}
	dense := tensor.New(tensor.WithShape(2, 2),
		tensor.WithBacking(backing))
	return &mockApprox{weights: params.Vector{dense}}
}

func (m *mockApprox) Parameters() params.Vector {
	return m.weights.Clone()
}

func (m *mockApprox) SetParameters(v params.Vector) error {
	m.weights = v.Clone()
	return nil
}

func (m *mockApprox) Eval()  {}
func (m *mockApprox) Train() {}

// mockPolicy is a deterministic policy returning a fixed action batch
type mockPolicy struct {
	*mockApprox
	actions []float64
}

func (m *mockPolicy) Predict(states []float64) ([]float64, error) {
	return append([]float64{}, m.actions...), nil
}

// mockPolicyLearner records its updates
type mockPolicyLearner struct {
	*mockPolicy
	updates    int
	lastCritic params.Vector
}

func (m *mockPolicyLearner) Update(states []float64,
	critic params.Vector) error {
	m.updates++
	m.lastCritic = critic.Clone()
	return nil
}

// mockCritic is an action-value function returning fixed values
type mockCritic struct {
	*mockApprox
	values []float64
}

func (m *mockCritic) Predict(states, actions []float64) ([]float64,
	error) {
	return append([]float64{}, m.values...), nil
}

// mockCriticLearner records the targets of each update
type mockCriticLearner struct {
	*mockCritic
	updates     int
	lastTargets []float64
}

func (m *mockCriticLearner) Update(states, actions,
	targets []float64) error {
	m.updates++
	m.lastTargets = append([]float64{}, targets...)
	return nil
}

// mockReplay is a replay buffer returning a fixed sample and counting
// calls
type mockReplay struct {
	batchSize int
	occupancy int
	adds      int
	samples   int

	states, actions, rewards, nextStates, dones []float64
}

func (m *mockReplay) Add(t timestep.Transition) error {
	m.adds++
	m.occupancy++
	return nil
}

func (m *mockReplay) AddBatch(ts []timestep.Transition) error {
	m.adds += len(ts)
	m.occupancy += len(ts)
	return nil
}

func (m *mockReplay) Sample() ([]float64, []float64, []float64,
	[]float64, []float64, error) {
	m.samples++
	return m.states, m.actions, m.rewards, m.nextStates, m.dones, nil
}

func (m *mockReplay) Capacity() int    { return m.occupancy }
func (m *mockReplay) MaxCapacity() int { return 100 }
func (m *mockReplay) BatchSize() int   { return m.batchSize }

// testConfig returns a valid configuration for a single agent with
// 4-dimensional states and 2-dimensional actions. Noise is degenerate
// (μ = θ = σ = 0) so exploration adds exactly zero.
func testConfig() Config {
	return Config{
		NumAgents:  1,
		StateSize:  4,
		ActionSize: 2,

		Gamma: 0.9,
		Tau:   0.5,

		EpsMax: 1.0,

		BatchSize:      2,
		ReplayCapacity: 100,

		UpdateEvery:     5,
		GradientUpdates: 3,
	}
}

// newTestAgent wires a DDPG agent from mocks. The behaviour policy
// predicts behaviourActions; the target critic predicts targetValues
// for a sampled batch with the given rewards and done flags.
func newTestAgent(t *testing.T, config Config, behaviourActions,
	targetValues, rewards, dones []float64) (*DDPG, *mockPolicyLearner,
	*mockCriticLearner, *mockReplay, *mockPolicy, *mockCritic) {
	batch := config.BatchSize

	behaviour := &mockPolicy{newMockApprox(0.0), behaviourActions}
	trainActor := &mockPolicyLearner{
		mockPolicy: &mockPolicy{newMockApprox(1.0), nil},
	}
	targetActor := &mockPolicy{newMockApprox(2.0),
		make([]float64, batch*config.ActionSize)}
	trainCritic := &mockCriticLearner{
		mockCritic: &mockCritic{newMockApprox(3.0), nil},
	}
	targetCritic := &mockCritic{newMockApprox(4.0), targetValues}

	replay := &mockReplay{
		batchSize:  batch,
		states:     make([]float64, batch*config.StateSize),
		actions:    make([]float64, batch*config.ActionSize),
		rewards:    rewards,
		nextStates: make([]float64, batch*config.StateSize),
		dones:      dones,
	}

	d, err := New(config, behaviour, trainActor, targetActor,
		trainCritic, targetCritic, replay, 42)
	if err != nil {
		t.Fatal(err)
	}
	return d, trainActor, trainCritic, replay, targetActor, targetCritic
}

// TestNewHardUpdates ensures that immediately after construction the
// target and behaviour networks hold exact copies of the learned
// network weights.
func TestNewHardUpdates(t *testing.T) {
	config := testConfig()

	behaviour := &mockPolicy{newMockApprox(0.0), []float64{0, 0}}
	trainActor := &mockPolicyLearner{
		mockPolicy: &mockPolicy{newMockApprox(1.0), nil},
	}
	targetActor := &mockPolicy{newMockApprox(2.0), nil}
	trainCritic := &mockCriticLearner{
		mockCritic: &mockCritic{newMockApprox(3.0), nil},
	}
	targetCritic := &mockCritic{newMockApprox(4.0), nil}
	replay := &mockReplay{batchSize: config.BatchSize}

	_, err := New(config, behaviour, trainActor, targetActor,
		trainCritic, targetCritic, replay, 42)
	if err != nil {
		t.Fatal(err)
	}

	if !targetActor.Parameters().Equal(trainActor.Parameters()) {
		t.Error("target actor weights differ from learned actor " +
			"weights after construction")
	}
	if !targetCritic.Parameters().Equal(trainCritic.Parameters()) {
		t.Error("target critic weights differ from learned critic " +
			"weights after construction")
	}
	if !behaviour.Parameters().Equal(trainActor.Parameters()) {
		t.Error("behaviour weights differ from learned actor weights " +
			"after construction")
	}
}

// TestActClampsActions ensures every action coordinate returned by Act
// lies in [-1, 1], with and without exploration, even when the policy
// itself predicts out-of-range actions.
func TestActClampsActions(t *testing.T) {
	config := testConfig()
	// Keep full-scale noise active
	config.Sigma = 5.0

	d, _, _, _, _, _ := newTestAgent(t, config,
		[]float64{3.5, -7.0}, nil, nil, nil)

	states := make([]float64, config.StateSize)
	for _, explore := range []bool{false, true} {
		actions, err := d.Act(states, explore)
		if err != nil {
			t.Fatal(err)
		}
		if len(actions) != config.NumAgents*config.ActionSize {
			t.Fatalf("unexpected action batch size \n\twant(%v)"+
				"\n\thave(%v)", config.NumAgents*config.ActionSize,
				len(actions))
		}
		for i, a := range actions {
			if a < -1.0 || a > 1.0 {
				t.Errorf("action %v out of bounds with explore=%v "+
					"\n\twant([-1, 1])\n\thave(%v)", i, explore, a)
			}
		}
	}
}

// TestActRejectsWrongBatch ensures Act fails fast on a state batch of
// the wrong size.
func TestActRejectsWrongBatch(t *testing.T) {
	d, _, _, _, _, _ := newTestAgent(t, testConfig(),
		[]float64{0, 0}, nil, nil, nil)

	if _, err := d.Act([]float64{1.0}, false); err == nil {
		t.Error("expected error for undersized state batch")
	}
}

// TestLearnTerminalTarget ensures the bootstrap target for a terminal
// transition is exactly the reward, and for a non-terminal transition
// is reward + γ times the target critic's next value.
func TestLearnTerminalTarget(t *testing.T) {
	config := testConfig()

	rewards := []float64{1.5, -0.5}
	dones := []float64{1.0, 0.0}
	targetValues := []float64{100.0, 10.0}

	d, _, trainCritic, _, _, _ := newTestAgent(t, config, []float64{0, 0},
		targetValues, rewards, dones)

	if err := d.learn(); err != nil {
		t.Fatal(err)
	}

	if trainCritic.updates != 1 {
		t.Fatalf("unexpected number of critic updates \n\twant(1)"+
			"\n\thave(%v)", trainCritic.updates)
	}

	// Terminal transitions bootstrap nothing; non-terminal transitions
	// add γ times the target critic's next value
	want := []float64{1.5, -0.5 + 0.9*10.0}
	for i, target := range trainCritic.lastTargets {
		if math.Abs(target-want[i]) > 1e-12 {
			t.Errorf("unexpected update target %v \n\twant(%v)"+
				"\n\thave(%v)", i, want[i], target)
		}
	}
}

// TestLearnSoftUpdates ensures learn moves the target networks
// τ-fraction of the way toward the learned networks and re-syncs the
// behaviour policy exactly.
func TestLearnSoftUpdates(t *testing.T) {
	config := testConfig()

	d, trainActor, trainCritic, _, targetActor,
		targetCritic := newTestAgent(t, config, []float64{0, 0},
		[]float64{0, 0}, []float64{0, 0}, []float64{0, 0})

	// Move the learned networks away from the targets, then learn
	fresh := newMockApprox(9.0)
	if err := trainActor.SetParameters(fresh.Parameters()); err != nil {
		t.Fatal(err)
	}
	if err := trainCritic.SetParameters(fresh.Parameters()); err != nil {
		t.Fatal(err)
	}

	if err := d.learn(); err != nil {
		t.Fatal(err)
	}

	// Targets started at the learned networks' construction weights
	// (1.0 for the actor, 3.0 for the critic) and move halfway to 9.0
	// with τ = 0.5
	wantActor := 0.5*9.0 + 0.5*1.0
	haveActor := targetActor.Parameters()[0].Data().([]float64)[0]
	if math.Abs(haveActor-wantActor) > 1e-12 {
		t.Errorf("unexpected target actor weight \n\twant(%v)"+
			"\n\thave(%v)", wantActor, haveActor)
	}

	wantCritic := 0.5*9.0 + 0.5*3.0
	haveCritic := targetCritic.Parameters()[0].Data().([]float64)[0]
	if math.Abs(haveCritic-wantCritic) > 1e-12 {
		t.Errorf("unexpected target critic weight \n\twant(%v)"+
			"\n\thave(%v)", wantCritic, haveCritic)
	}

	if trainActor.updates != 1 {
		t.Errorf("unexpected number of actor updates \n\twant(1)"+
			"\n\thave(%v)", trainActor.updates)
	}
	if !trainActor.lastCritic.Equal(trainCritic.Parameters()) {
		t.Error("actor update did not receive the learned critic " +
			"weights")
	}
}

// TestStepCadence runs the agent through a short interaction and
// ensures learning triggers only on multiples of the update interval,
// with exactly the configured number of learning updates per trigger,
// each drawing a fresh sample.
func TestStepCadence(t *testing.T) {
	config := testConfig()

	d, trainActor, trainCritic, replay, _, _ := newTestAgent(t, config,
		[]float64{0, 0}, []float64{0, 0}, []float64{0, 0},
		[]float64{0, 0})

	states := make([]float64, config.StateSize)
	actions := make([]float64, config.ActionSize)
	rewards := []float64{0.0}
	dones := []bool{false}

	for timeStep := 1; timeStep <= 4; timeStep++ {
		if err := d.Step(timeStep, states, actions, rewards, states,
			dones); err != nil {
			t.Fatal(err)
		}
	}
	if trainCritic.updates != 0 {
		t.Fatalf("learning triggered off the update interval "+
			"\n\twant(0 updates)\n\thave(%v)", trainCritic.updates)
	}
	if replay.adds != 4 {
		t.Fatalf("unexpected number of recorded transitions "+
			"\n\twant(4)\n\thave(%v)", replay.adds)
	}

	// The 5th step is on the interval and the buffer occupancy (5)
	// strictly exceeds the batch size (2)
	if err := d.Step(5, states, actions, rewards, states,
		dones); err != nil {
		t.Fatal(err)
	}
	if trainCritic.updates != config.GradientUpdates {
		t.Errorf("unexpected number of critic updates \n\twant(%v)"+
			"\n\thave(%v)", config.GradientUpdates, trainCritic.updates)
	}
	if trainActor.updates != config.GradientUpdates {
		t.Errorf("unexpected number of actor updates \n\twant(%v)"+
			"\n\thave(%v)", config.GradientUpdates, trainActor.updates)
	}
	if replay.samples != config.GradientUpdates {
		t.Errorf("learning updates did not each draw a fresh sample "+
			"\n\twant(%v)\n\thave(%v)", config.GradientUpdates,
			replay.samples)
	}
}

// TestStepInsufficientOccupancy ensures no learning happens on the
// update interval while the buffer holds batchSize or fewer
// transitions.
func TestStepInsufficientOccupancy(t *testing.T) {
	config := testConfig()
	config.BatchSize = 8

	d, _, trainCritic, _, _, _ := newTestAgent(t, config,
		[]float64{0, 0}, nil, nil, nil)

	states := make([]float64, config.StateSize)
	actions := make([]float64, config.ActionSize)

	// 5 transitions by the 5th step: on the interval but under batch
	for timeStep := 1; timeStep <= 5; timeStep++ {
		if err := d.Step(timeStep, states, actions, []float64{0.0},
			states, []bool{false}); err != nil {
			t.Fatal(err)
		}
	}
	if trainCritic.updates != 0 {
		t.Errorf("learning triggered with insufficient occupancy "+
			"\n\twant(0 updates)\n\thave(%v)", trainCritic.updates)
	}
}

// TestEvalSkipsRecordingAndNoise ensures evaluation mode records no
// transitions and adds no exploration noise.
func TestEvalSkipsRecordingAndNoise(t *testing.T) {
	config := testConfig()
	config.Sigma = 5.0

	d, _, _, replay, _, _ := newTestAgent(t, config,
		[]float64{0.25, -0.25}, nil, nil, nil)
	d.Eval()

	states := make([]float64, config.StateSize)
	actions, err := d.Act(states, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.25, -0.25}
	for i, a := range actions {
		if a != want[i] {
			t.Errorf("noise applied in evaluation mode \n\twant(%v)"+
				"\n\thave(%v)", want[i], a)
		}
	}

	if err := d.Step(5, states, actions, []float64{0.0}, states,
		[]bool{false}); err != nil {
		t.Fatal(err)
	}
	if replay.adds != 0 {
		t.Errorf("transitions recorded in evaluation mode \n\twant(0)"+
			"\n\thave(%v)", replay.adds)
	}
}

// TestEpsDecay ensures the exploration rate decays by epsDecay per
// learning update and never falls below epsMin.
func TestEpsDecay(t *testing.T) {
	config := testConfig()
	config.EpsMax = 1.0
	config.EpsMin = 0.4
	config.EpsDecay = 0.25

	d, _, _, _, _, _ := newTestAgent(t, config, []float64{0, 0},
		[]float64{0, 0}, []float64{0, 0}, []float64{0, 0})

	want := []float64{0.75, 0.5, 0.4, 0.4}
	for i, expected := range want {
		if err := d.learn(); err != nil {
			t.Fatal(err)
		}
		if math.Abs(d.Eps()-expected) > 1e-12 {
			t.Errorf("unexpected exploration rate after %v updates "+
				"\n\twant(%v)\n\thave(%v)", i+1, expected, d.Eps())
		}
	}
}

// TestDefaultExplorationSchedule ensures a zero-valued exploration
// schedule falls back to full-scale noise rather than silently
// disabling exploration, while an explicit schedule is kept as given.
func TestDefaultExplorationSchedule(t *testing.T) {
	config := testConfig()
	config.EpsMax = 0.0
	config.EpsMin = 0.0
	config.EpsDecay = 0.0

	d, _, _, _, _, _ := newTestAgent(t, config, []float64{0, 0}, nil,
		nil, nil)
	if d.Eps() != DefaultEpsMax {
		t.Errorf("unexpected exploration rate for an unset schedule "+
			"\n\twant(%v)\n\thave(%v)", DefaultEpsMax, d.Eps())
	}

	config = testConfig()
	config.EpsMax = 0.3
	d, _, _, _, _, _ = newTestAgent(t, config, []float64{0, 0}, nil,
		nil, nil)
	if d.Eps() != 0.3 {
		t.Errorf("explicit exploration rate not kept \n\twant(%v)"+
			"\n\thave(%v)", 0.3, d.Eps())
	}
}

// TestCreateAgentRejectsMissingComponents ensures CreateAgent returns
// an error, rather than panicking, when the weight initializer or a
// solver is missing from an otherwise valid configuration.
func TestCreateAgentRejectsMissingComponents(t *testing.T) {
	config := testConfig()
	if _, err := config.CreateAgent(1); err == nil {
		t.Error("expected error for missing weight initializer")
	}

	initWFn, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatal(err)
	}
	config.InitWFn = initWFn
	if _, err := config.CreateAgent(1); err == nil {
		t.Error("expected error for missing actor solver")
	}

	config.ActorSolver, err = solver.NewDefaultAdam(1e-4,
		config.BatchSize)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := config.CreateAgent(1); err == nil {
		t.Error("expected error for missing critic solver")
	}
}

// TestConfigValidate spot-checks the configuration guards
func TestConfigValidate(t *testing.T) {
	valid := testConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid configuration rejected: %v", err)
	}

	invalid := []func(*Config){
		func(c *Config) { c.Gamma = 0.0 },
		func(c *Config) { c.Gamma = 1.5 },
		func(c *Config) { c.Tau = 0.0 },
		func(c *Config) { c.Tau = 1.5 },
		func(c *Config) { c.NumAgents = 0 },
		func(c *Config) { c.BatchSize = 0 },
		func(c *Config) { c.ReplayCapacity = valid.BatchSize },
		func(c *Config) { c.UpdateEvery = 0 },
		func(c *Config) { c.GradientUpdates = 0 },
		func(c *Config) { c.EpsMax = -1.0 },
	}
	for i, corrupt := range invalid {
		config := testConfig()
		corrupt(&config)
		if err := config.Validate(); err == nil {
			t.Errorf("invalid configuration %v accepted", i)
		}
	}
}
