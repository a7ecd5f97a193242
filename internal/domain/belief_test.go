package domain

import (
	"math"
	"testing"
)

func TestClampBelief(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{0.0, MinBelief},
		{1.0, MaxBelief},
		{-3, MinBelief},
		{0.01, 0.01},
		{0.99, 0.99},
		{0.999, MaxBelief},
	}
	for _, c := range cases {
		if got := ClampBelief(c.in); got != c.want {
			t.Errorf("ClampBelief(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestBeliefStateApply(t *testing.T) {
	state := NewBeliefState(0.5)

	state.Apply(BeliefUpdate{Prior: 0.5, Posterior: 0.7, BeliefChange: 0.2})
	state.Apply(BeliefUpdate{Prior: 0.7, Posterior: 0.6, BeliefChange: -0.1})

	if state.CurrentBelief != 0.6 {
		t.Errorf("CurrentBelief = %v, want 0.6", state.CurrentBelief)
	}
	if len(state.UpdateHistory) != 2 {
		t.Fatalf("len(UpdateHistory) = %d, want 2", len(state.UpdateHistory))
	}
	if state.UpdateHistory[0].Posterior != 0.7 {
		t.Errorf("history entry mutated: %v", state.UpdateHistory[0])
	}
}

func TestNewBeliefStateClampsPrior(t *testing.T) {
	if got := NewBeliefState(0.001).CurrentBelief; got != MinBelief {
		t.Errorf("CurrentBelief = %v, want %v", got, MinBelief)
	}
}

func TestBeliefStateProbabilities(t *testing.T) {
	probs := NewBeliefState(0.3).Probabilities()
	if len(probs) != 2 {
		t.Fatalf("len(probs) = %d, want 2", len(probs))
	}
	if math.Abs(probs[0]-0.3) > 1e-12 || math.Abs(probs[1]-0.7) > 1e-12 {
		t.Errorf("probs = %v, want [0.3 0.7]", probs)
	}
	if sum := probs[0] + probs[1]; math.Abs(sum-1) > 1e-12 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
}

func TestNormalizeProbabilities(t *testing.T) {
	got := NormalizeProbabilities([]float64{2, 1, 1})
	want := []float64{0.5, 0.25, 0.25}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("normalized[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNormalizeProbabilitiesZeroSumBecomesUniform(t *testing.T) {
	got := NormalizeProbabilities([]float64{0, 0, 0, 0})
	for i, p := range got {
		if p != 0.25 {
			t.Errorf("normalized[%d] = %v, want 0.25", i, p)
		}
	}
}

func TestNormalizeProbabilitiesDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1}
	NormalizeProbabilities(in)
	if in[0] != 3 || in[1] != 1 {
		t.Errorf("input mutated: %v", in)
	}
}
