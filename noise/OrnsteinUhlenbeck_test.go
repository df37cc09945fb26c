package noise

import (
	"math"
	"testing"
)

// TestResetToMean ensures that after Reset() the process state equals
// the configured mean exactly.
func TestResetToMean(t *testing.T) {
	mu := 0.5
	ou, err := New(4, mu, 0.15, 0.2, 19)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		ou.Sample()
	}
	ou.Reset()

	for i := 0; i < ou.Size(); i++ {
		if ou.state[i] != mu {
			t.Errorf("state not reset to mean at index %v \n\twant(%v)"+
				"\n\thave(%v)", i, mu, ou.state[i])
		}
	}
}

// TestZeroCoefficientsFixedPoint ensures that with θ = 0 and σ = 0
// repeated sampling keeps the state fixed at the mean.
func TestZeroCoefficientsFixedPoint(t *testing.T) {
	mu := -0.25
	ou, err := New(3, mu, 0.0, 0.0, 19)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		sample := ou.Sample()
		for j := range sample {
			if sample[j] != mu {
				t.Fatalf("state drifted from mean on step %v "+
					"\n\twant(%v)\n\thave(%v)", i, mu, sample[j])
			}
		}
	}
}

// TestMeanReversion ensures the θ(μ - state) term pulls a perturbed
// state back toward the mean when σ = 0.
func TestMeanReversion(t *testing.T) {
	mu := 0.0
	theta := 0.15
	ou, err := New(2, mu, theta, 0.0, 19)
	if err != nil {
		t.Fatal(err)
	}

	start := 1.0
	for i := range ou.state {
		ou.state[i] = start
	}

	prev := start
	for i := 0; i < 50; i++ {
		sample := ou.Sample()
		if math.Abs(sample[0]-mu) >= math.Abs(prev-mu) {
			t.Fatalf("state not reverting to mean on step %v "+
				"\n\thave(%v after %v)", i, sample[0], prev)
		}
		prev = sample[0]
	}
}

// TestSampleReturnsCopy ensures mutating a returned sample does not
// corrupt the process state.
func TestSampleReturnsCopy(t *testing.T) {
	ou, err := New(2, 0.0, 0.0, 0.0, 19)
	if err != nil {
		t.Fatal(err)
	}

	sample := ou.Sample()
	sample[0] = 100.0

	next := ou.Sample()
	if next[0] != 0.0 {
		t.Errorf("external mutation corrupted process state "+
			"\n\thave(%v)", next[0])
	}
}
