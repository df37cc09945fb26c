// Package params implements an ordered parameter vector abstraction
// for function approximators.
//
// A Vector decouples target-network synchronization from any specific
// approximator implementation: hard updates are exact copies and soft
// updates are elementwise linear combinations over the underlying
// weight tensors, independent of the computational graph the weights
// came from.
package params

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Vector is an ordered collection of weight tensors. Vectors taken
// from two approximators of identical architecture are index-aligned:
// element i of one corresponds to element i of the other.
type Vector []*tensor.Dense

// Clone returns an exact deep copy of the Vector
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i].Clone().(*tensor.Dense)
	}
	return out
}

// Blend returns the elementwise linear combination
//
//	τ·local + (1-τ)·v
//
// leaving both v and local unchanged. Blending with τ = 1 returns a
// copy of local (a hard update), with τ = 0 a copy of v.
func (v Vector) Blend(local Vector, tau float64) (Vector, error) {
	if len(v) != len(local) {
		return nil, fmt.Errorf("blend: mismatched parameter vectors "+
			"\n\twant(%v tensors)\n\thave(%v)", len(v), len(local))
	}

	out := make(Vector, len(v))
	for i := range v {
		weights, err := v[i].MulScalar(1-tau, true)
		if err != nil {
			return nil, fmt.Errorf("blend: could not scale target "+
				"weights: %v", err)
		}

		localWeights, err := local[i].MulScalar(tau, true)
		if err != nil {
			return nil, fmt.Errorf("blend: could not scale local "+
				"weights: %v", err)
		}

		out[i], err = weights.Add(localWeights)
		if err != nil {
			return nil, fmt.Errorf("blend: could not combine weights: %v",
				err)
		}
	}
	return out, nil
}

// Equal returns whether two Vectors hold exactly equal weights
func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if !v[i].Shape().Eq(other[i].Shape()) {
			return false
		}

		data, ok := v[i].Data().([]float64)
		otherData, okOther := other[i].Data().([]float64)
		if !ok || !okOther {
			return false
		}
		for j := range data {
			if data[j] != otherData[j] {
				return false
			}
		}
	}
	return true
}
