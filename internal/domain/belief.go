package domain

// Belief probabilities are hard-clamped to this interval so log-odds
// arithmetic never sees 0 or 1.
const (
	MinBelief = 0.01
	MaxBelief = 0.99
)

// ClampBelief forces p into [MinBelief, MaxBelief].
func ClampBelief(p float64) float64 {
	if p < MinBelief {
		return MinBelief
	}
	if p > MaxBelief {
		return MaxBelief
	}
	return p
}

// BeliefUpdate is one entry of the append-only update history. It is
// the audit record of a single Bayesian update and is never mutated
// retroactively.
//
// BayesFactor is the factor actually applied to the belief, after the
// single-evidence strength cap. A raw likelihood ratio beyond the cap
// (or an undefined one, when a likelihood is zero) is recorded as the
// capped value, keeping the entry finite and consistent with the
// posterior it produced.
type BeliefUpdate struct {
	Prior         float64 `json:"prior"`
	Posterior     float64 `json:"posterior"`
	Weight        float64 `json:"weight"`
	BayesFactor   float64 `json:"bayes_factor"`
	BeliefChange  float64 `json:"belief_change"`
	Diagnosticity float64 `json:"diagnosticity"`
}

// BeliefState tracks the current hypothesis probability and its full
// update history.
type BeliefState struct {
	CurrentBelief float64        `json:"current_belief"`
	UpdateHistory []BeliefUpdate `json:"update_history"`
}

func NewBeliefState(prior float64) *BeliefState {
	return &BeliefState{CurrentBelief: ClampBelief(prior)}
}

// Apply records an update and advances the current belief.
func (b *BeliefState) Apply(u BeliefUpdate) {
	b.UpdateHistory = append(b.UpdateHistory, u)
	b.CurrentBelief = u.Posterior
}

// Probabilities returns the two-hypothesis probability vector
// [P(H), P(not H)], normalized to sum to 1.
func (b *BeliefState) Probabilities() []float64 {
	return NormalizeProbabilities([]float64{b.CurrentBelief, 1 - b.CurrentBelief})
}

// NormalizeProbabilities rescales a probability vector so its
// components sum to 1. A zero-sum vector becomes uniform.
func NormalizeProbabilities(probs []float64) []float64 {
	if len(probs) == 0 {
		return probs
	}
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	out := make([]float64, len(probs))
	if sum <= 0 {
		for i := range out {
			out[i] = 1.0 / float64(len(out))
		}
		return out
	}
	for i, p := range probs {
		out[i] = p / sum
	}
	return out
}
