// Package expreplay implements experience replay buffers for
// off-policy learning
package expreplay

import (
	"fmt"

	"github.com/nvjustdev/DRL-CollaborateCompete/timestep"
)

// ExperienceReplayer implements an experience replay buffer. The
// buffer is capacity bounded: once full, adding a new transition
// evicts the oldest one. Insertion order affects eviction only, never
// sampling.
type ExperienceReplayer interface {
	// Add adds a single transition to the buffer
	Add(t timestep.Transition) error

	// AddBatch adds one transition per agent to the buffer in a
	// single call
	AddBatch(ts []timestep.Transition) error

	// Sample samples a batch of experience uniformly at random,
	// without replacement, and returns the batch as five
	// batch-aligned slices: states, actions, rewards, next states,
	// and done flags (0 or 1)
	Sample() ([]float64, []float64, []float64, []float64, []float64,
		error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer as a ring over flat
// per-field caches. The element at currentInUsePos is always the
// oldest, so overwriting it on Add gives FIFO eviction.
type cache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []float64

	currentInUsePos int
	isFull          bool

	// Outlines how data is sampled
	sampler Selector

	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer with the argument
// maximum capacity and batch size. The featureSize and actionSize
// parameters define the size of the state feature and action vectors.
func New(featureSize, actionSize, maxCapacity, batchSize int,
	seed uint64) (ExperienceReplayer, error) {
	return NewWithSelector(NewUniformSelector(batchSize, seed),
		featureSize, actionSize, maxCapacity)
}

// NewWithSelector creates and returns a new ExperienceReplayer. The
// sampler parameter is a Selector which determines how data is sampled
// from the replay buffer.
func NewWithSelector(sampler Selector, featureSize, actionSize,
	maxCapacity int) (ExperienceReplayer, error) {
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if featureSize < 1 || actionSize < 1 {
		return nil, fmt.Errorf("new: feature and action sizes must be "+
			"positive \n\thave(%v, %v)", featureSize, actionSize)
	}
	if maxCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}

	return &cache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		doneCache:      make([]float64, maxCapacity),

		currentInUsePos: 0,
		isFull:          false,

		sampler: sampler,

		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Occupancy: %v/%v \nStates: %v \nActions: %v " +
		"\nRewards: %v \nNext States: %v \nDones: %v"
	return fmt.Sprintf(baseStr, c.Capacity(), c.MaxCapacity(),
		c.stateCache, c.actionCache, c.rewardCache, c.nextStateCache,
		c.doneCache)
}

// BatchSize returns the number of samples sampled using Sample() -
// a.k.a the batch size
func (c *cache) BatchSize() int {
	return c.sampler.BatchSize()
}

// Sample samples and returns a batch of transitions from the replay
// buffer. The returned values are the states, actions, rewards, next
// states, and done flags. Repeated calls are independent: a
// transition sampled in one batch may reappear in later batches.
func (c *cache) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, error) {
	if c.Capacity() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
		return nil, nil, nil, nil, nil, err
	}
	if c.Capacity() < c.BatchSize() {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	indices := c.sampler.choose(c)

	stateBatch := make([]float64, c.BatchSize()*c.featureSize)
	nextStateBatch := make([]float64, c.BatchSize()*c.featureSize)
	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize],
		)
		copy(nextStateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize],
		)
	}

	actionBatch := make([]float64, c.BatchSize()*c.actionSize)
	for i, index := range indices {
		batchStartInd := i * c.actionSize
		expStartInd := index * c.actionSize
		copy(actionBatch[batchStartInd:batchStartInd+c.actionSize],
			c.actionCache[expStartInd:expStartInd+c.actionSize],
		)
	}

	rewardBatch := make([]float64, c.BatchSize())
	doneBatch := make([]float64, c.BatchSize())
	for i, index := range indices {
		rewardBatch[i] = c.rewardCache[index]
		doneBatch[i] = c.doneCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, nextStateBatch,
		doneBatch, nil
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Capacity() int {
	if c.isFull {
		return c.MaxCapacity()
	}
	return c.currentInUsePos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// Add adds a transition to the cache, evicting the oldest transition
// if the cache is at maximum capacity
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize ||
		t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", c.featureSize, t.State.Len())
	}
	if t.Action.Len() != c.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", c.actionSize, t.Action.Len())
	}

	index := c.currentInUsePos
	if !c.isFull && index+1 == c.MaxCapacity() {
		c.isFull = true
	}

	// Copy states
	stateInd := index * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[stateInd+i] = t.State.AtVec(i)
		c.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	// Copy actions
	actionInd := index * c.actionSize
	for i := 0; i < c.actionSize; i++ {
		c.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	c.rewardCache[index] = t.Reward
	if t.Done {
		c.doneCache[index] = 1.0
	} else {
		c.doneCache[index] = 0.0
	}

	c.currentInUsePos = (c.currentInUsePos + 1) % c.MaxCapacity()
	return nil
}

// AddBatch adds one transition per agent to the cache in a single
// call. Transitions are recorded in slice order, so the last element
// is the most recently inserted for eviction purposes.
func (c *cache) AddBatch(ts []timestep.Transition) error {
	for i := range ts {
		if err := c.Add(ts[i]); err != nil {
			return fmt.Errorf("addbatch: could not add transition %v: %v",
				i, err)
		}
	}
	return nil
}
