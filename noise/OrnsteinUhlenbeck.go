// Package noise implements stochastic processes for exploration in
// continuous action spaces
package noise

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// OrnsteinUhlenbeck implements a discretized Ornstein-Uhlenbeck
// process. The process state is a vector of floats representing the
// current deviation from the mean μ. On each Sample() the state is
// advanced by
//
//	state ← state + θ(μ - state) + σξ
//
// where ξ is a vector of independent draws from a continuous uniform
// distribution on [0, 1). Uniform draws, rather than the Gaussian
// draws of the canonical process, are a deliberate simplification:
// the resulting perturbation is biased away from the mean, which is
// acceptable for exploration noise that is clamped downstream.
type OrnsteinUhlenbeck struct {
	mu    []float64
	theta float64
	sigma float64
	state []float64
	rng   distuv.Uniform
}

// New returns a new OrnsteinUhlenbeck process over a state vector of
// the argument size, with mean vector μ·1, mean-reversion rate θ, and
// scale σ. The process starts at the mean.
func New(size int, mu, theta, sigma float64,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	if size < 1 {
		return nil, fmt.Errorf("new: process size must be positive "+
			"\n\thave(%v)", size)
	}

	src := rand.NewSource(seed)
	rng := distuv.Uniform{Min: 0.0, Max: 1.0, Src: src}

	meanVec := make([]float64, size)
	for i := range meanVec {
		meanVec[i] = mu
	}

	ou := &OrnsteinUhlenbeck{
		mu:    meanVec,
		theta: theta,
		sigma: sigma,
		state: make([]float64, size),
		rng:   rng,
	}
	ou.Reset()

	return ou, nil
}

// Size returns the length of the process state vector
func (o *OrnsteinUhlenbeck) Size() int {
	return len(o.state)
}

// Reset resets the internal state to the mean vector μ
func (o *OrnsteinUhlenbeck) Reset() {
	copy(o.state, o.mu)
}

// Sample advances the internal state by one discrete step and returns
// a copy of the new state
func (o *OrnsteinUhlenbeck) Sample() []float64 {
	for i := range o.state {
		o.state[i] += o.theta*(o.mu[i]-o.state[i]) + o.sigma*o.rng.Rand()
	}

	sample := make([]float64, len(o.state))
	copy(sample, o.state)
	return sample
}
