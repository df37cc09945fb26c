// Package network implements Gorgonia-backed function approximators
// for continuous control: a deterministic policy MLP, a state-action
// value MLP, and a composite network that trains the policy by
// gradient ascent on the value function.
//
// All networks run on CPU-backed float64 tensors; the execution
// backend is fixed at construction rather than by any package-level
// global.
package network

import (
	"fmt"

	"github.com/nvjustdev/DRL-CollaborateCompete/params"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// parametersOf returns the current weight values of the given
// learnable nodes as a parameter vector. The returned tensors are the
// live weights; callers must not mutate them.
func parametersOf(learnables G.Nodes) params.Vector {
	v := make(params.Vector, len(learnables))
	for i, node := range learnables {
		v[i] = node.Value().(*tensor.Dense)
	}
	return v
}

// setLearnables copies the given parameter vector into the given
// learnable nodes
func setLearnables(learnables G.Nodes, v params.Vector) error {
	if len(v) != len(learnables) {
		return fmt.Errorf("setlearnables: mismatched parameter vector "+
			"\n\twant(%v tensors)\n\thave(%v)", len(learnables), len(v))
	}

	for i, node := range learnables {
		value := v[i].Clone().(*tensor.Dense)
		if !node.Shape().Eq(value.Shape()) {
			return fmt.Errorf("setlearnables: mismatched weight shape "+
				"at index %v \n\twant%v \n\thave%v", i, node.Shape(),
				value.Shape())
		}
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("setlearnables: could not set weights at "+
				"index %v: %v", i, err)
		}
	}
	return nil
}

// newInputMatrix returns a zeroed input node of the given shape on g
func newInputMatrix(g *G.ExprGraph, batch, features int,
	name string) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName(name),
		G.WithInit(G.Zeroes()),
	)
}

// letInput assigns a batch of row major data to an input node
func letInput(input *G.Node, data []float64, batch, features int) error {
	if len(data) != batch*features {
		return fmt.Errorf("letinput: invalid number of inputs "+
			"\n\twant(%v)\n\thave(%v)", batch*features, len(data))
	}

	backing := make([]float64, len(data))
	copy(backing, data)
	inputTensor := tensor.New(
		tensor.WithBacking(backing),
		tensor.WithShape(batch, features),
	)
	return G.Let(input, inputTensor)
}
