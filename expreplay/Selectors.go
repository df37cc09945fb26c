package expreplay

import (
	"golang.org/x/exp/rand"
)

// Selector implements functionality for choosing which indices data
// should be sampled at from an experience replay buffer
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer
	choose(c *cache) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly without replacement
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data
// uniformly randomly, without replacement, from an experience replay
// buffer
func NewUniformSelector(samples int, seed uint64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of distinct indices at which to draw data
// from the buffer. The caller guarantees that the buffer holds at
// least BatchSize() samples.
func (u *uniformSelector) choose(c *cache) []int {
	selected := make([]int, u.BatchSize())
	perm := u.rng.Perm(c.Capacity())

	for i := 0; i < u.BatchSize(); i++ {
		selected[i] = perm[i]
	}

	return selected
}
