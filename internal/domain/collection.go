package domain

import "time"

// CollectionState is the mutable state the aggregation controller
// accumulates across a run. It is owned exclusively by the single
// coordinating goroutine; stopping rules only ever read it.
type CollectionState struct {
	EvidenceCount      int           `json:"evidence_count"`
	TimeElapsed        time.Duration `json:"time_elapsed"`
	InfoValues         []float64     `json:"info_values"`
	ProbabilityHistory [][]float64   `json:"probability_history"`
	CumulativeCost     float64       `json:"cumulative_cost"`
	ExpectedBenefit    float64       `json:"expected_benefit"`
	Confidence         float64       `json:"confidence"`
}

func NewCollectionState(expectedBenefit float64) *CollectionState {
	return &CollectionState{ExpectedBenefit: expectedBenefit}
}

// RecordSample appends one evidence item's info-value sample and the
// resulting hypothesis-probability snapshot. The snapshot is
// renormalized so it always sums to 1.
func (s *CollectionState) RecordSample(infoValue float64, probs []float64, cost float64) {
	s.EvidenceCount++
	s.InfoValues = append(s.InfoValues, infoValue)
	s.ProbabilityHistory = append(s.ProbabilityHistory, NormalizeProbabilities(probs))
	s.CumulativeCost += cost
}

// LatestProbabilities returns the most recent probability snapshot,
// or nil if nothing has been recorded yet.
func (s *CollectionState) LatestProbabilities() []float64 {
	if len(s.ProbabilityHistory) == 0 {
		return nil
	}
	return s.ProbabilityHistory[len(s.ProbabilityHistory)-1]
}
