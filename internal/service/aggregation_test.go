package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/credence-ai/credence/internal/assessor"
	"github.com/credence-ai/credence/internal/domain"
)

func makeEvidence(n int) []domain.Evidence {
	items := make([]domain.Evidence, n)
	for i := range items {
		items[i] = domain.Evidence{
			Content:            fmt.Sprintf("observation %d", i),
			Source:             fmt.Sprintf("source-%d", i),
			Timestamp:          time.Now(),
			ClaimedReliability: 0.8,
			Type:               domain.EvidencePeerReviewed,
		}
	}
	return items
}

// noStopConstraints disables every stopping rule so runs consume the
// whole stream.
func noStopConstraints() domain.Constraints {
	c := domain.DefaultConstraints()
	c.ActiveRules = []string{}
	return c
}

func newTestController(mock *assessor.MockClient) *AggregationController {
	return NewAggregationController(mock, mock, zap.NewNop())
}

func TestRunNeutralEvidenceLeavesBeliefUnchanged(t *testing.T) {
	mock := assessor.NewMockClient()
	controller := newTestController(mock)

	result, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "the treatment is effective",
		Prior:       0.3,
		Evidence:    makeEvidence(10),
		Constraints: noStopConstraints(),
	})
	require.NoError(t, err)

	// Both likelihoods 0.5 means a log Bayes factor of exactly zero,
	// so ten updates must leave the prior untouched.
	assert.InDelta(t, 0.3, result.FinalBelief, 1e-9)
	assert.Equal(t, 10, result.NumEvidencePieces)
	assert.Equal(t, 0.0, result.TotalBeliefChange)
	assert.False(t, result.EarlyStop)
	assert.False(t, result.PartialFailure)
	assert.Len(t, mock.QualityCalls, 10)
	assert.Len(t, mock.LikelihoodCalls, 10)
}

func TestRunDefaultConstraintsConsumeMoreThanOneItem(t *testing.T) {
	mock := assessor.NewMockClient()
	controller := newTestController(mock)

	// A run posted with no expected benefit and untouched defaults must
	// not be halted after a single item by the cost rule.
	result, trace, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "the treatment is effective",
		Prior:       0.5,
		Evidence:    makeEvidence(10),
		Constraints: domain.DefaultConstraints(),
	})
	require.NoError(t, err)

	assert.Greater(t, result.NumEvidencePieces, 1)
	for _, d := range trace {
		for _, s := range d.Signals {
			if s.Rule == domain.RuleCostBenefit {
				assert.False(t, s.Stop, "cost_benefit voted stop with no expected benefit: %s", s.Reason)
			}
		}
	}
}

func TestRunStreamingEarlyStop(t *testing.T) {
	mock := assessor.NewMockClient()
	mock.LikelihoodResponse = &domain.LikelihoodAssessment{
		LikelihoodGivenHypothesis:    0.9,
		LikelihoodGivenNotHypothesis: 0.1,
		Diagnosticity:                0.8,
	}
	controller := newTestController(mock)

	constraints := domain.DefaultConstraints()
	constraints.ActiveRules = []string{domain.RuleConfidenceThreshold}
	constraints.ConfidenceThreshold = 0.3

	result, trace, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "the vaccine reduces transmission",
		Prior:       0.5,
		Evidence:    makeEvidence(20),
		Constraints: constraints,
	})
	require.NoError(t, err)

	assert.True(t, result.EarlyStop)
	require.NotNil(t, result.StopDecision)
	assert.True(t, result.StopDecision.Stop)
	assert.Less(t, result.NumEvidencePieces, 20)
	assert.NotEmpty(t, trace)

	// The last trace entry must be the decision that halted the run.
	last := trace[len(trace)-1]
	assert.True(t, last.Stop)
	require.Len(t, last.Signals, 1)
	assert.Equal(t, domain.RuleConfidenceThreshold, last.Signals[0].Rule)
}

func TestRunBatchModeConsumesEverything(t *testing.T) {
	mock := assessor.NewMockClient()
	mock.LikelihoodResponse = &domain.LikelihoodAssessment{
		LikelihoodGivenHypothesis:    0.9,
		LikelihoodGivenNotHypothesis: 0.1,
		Diagnosticity:                0.8,
	}
	controller := newTestController(mock)

	constraints := domain.DefaultConstraints()
	constraints.ActiveRules = []string{domain.RuleConfidenceThreshold}
	constraints.ConfidenceThreshold = 0.3

	result, trace, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "the vaccine reduces transmission",
		Prior:       0.5,
		Evidence:    makeEvidence(8),
		Constraints: constraints,
		Batch:       true,
	})
	require.NoError(t, err)

	// Batch mode consults the rules once, after the stream is done.
	assert.False(t, result.EarlyStop)
	assert.Equal(t, 8, result.NumEvidencePieces)
	require.NotNil(t, result.StopDecision)
	assert.True(t, result.StopDecision.Stop)
	assert.Len(t, trace, 1)
}

func TestRunAssessorFailureDegradesToNeutral(t *testing.T) {
	mock := assessor.NewMockClient()
	mock.QualityError = errors.New("model overloaded")
	mock.LikelihoodError = errors.New("model overloaded")
	controller := newTestController(mock)

	result, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "the bridge design is sound",
		Prior:       0.4,
		Evidence:    makeEvidence(4),
		Constraints: noStopConstraints(),
	})
	require.NoError(t, err)

	// Every item recovered with neutral defaults: belief untouched,
	// all records flagged, run flagged as partial failure.
	assert.InDelta(t, 0.4, result.FinalBelief, 1e-9)
	assert.Equal(t, 4, result.DegradedCount)
	assert.True(t, result.PartialFailure)
	for _, r := range result.Records {
		assert.True(t, r.Degraded)
		assert.Equal(t, domain.DefaultOverallQuality, r.Quality.Overall())
	}
}

func TestRunPartialFailureRequiresMajorityDegraded(t *testing.T) {
	mock := assessor.NewMockClient()
	mock.QualityFunc = func(ctx context.Context, ev *domain.Evidence) (*domain.QualityAssessment, error) {
		if strings.HasPrefix(ev.Source, "bad-") {
			return nil, errors.New("unparseable response")
		}
		return domain.NeutralQualityAssessment(), nil
	}
	controller := newTestController(mock)

	evidence := makeEvidence(4)
	evidence[0].Source = "bad-0"
	evidence[1].Source = "bad-1"

	result, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "the dataset is representative",
		Prior:       0.5,
		Evidence:    evidence,
		Constraints: noStopConstraints(),
	})
	require.NoError(t, err)

	// Exactly half degraded is still within tolerance.
	assert.Equal(t, 2, result.DegradedCount)
	assert.False(t, result.PartialFailure)
}

func TestRunMalformedEvidenceIsDegradedNotFatal(t *testing.T) {
	mock := assessor.NewMockClient()
	controller := newTestController(mock)

	evidence := makeEvidence(3)
	evidence[1].Content = ""

	result, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "the witness account is accurate",
		Prior:       0.5,
		Evidence:    evidence,
		Constraints: noStopConstraints(),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.NumEvidencePieces)
	assert.Equal(t, 1, result.DegradedCount)
	assert.True(t, result.Records[1].Degraded)
	// The malformed item never reaches the assessors.
	assert.Len(t, mock.QualityCalls, 2)
}

func TestRunInvalidConstraintsRejectedBeforeProcessing(t *testing.T) {
	mock := assessor.NewMockClient()
	controller := newTestController(mock)

	constraints := domain.DefaultConstraints()
	constraints.Strategy = "plurality"

	_, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "h",
		Prior:       0.5,
		Evidence:    makeEvidence(3),
		Constraints: constraints,
	})
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "combination_strategy", cfgErr.Field)
	assert.Empty(t, mock.QualityCalls)
}

func TestRunInvalidPriorIsDomainError(t *testing.T) {
	controller := newTestController(assessor.NewMockClient())

	for _, prior := range []float64{0, 1, -0.2, 1.7} {
		_, _, err := controller.Run(context.Background(), RunRequest{
			Hypothesis:  "h",
			Prior:       prior,
			Evidence:    makeEvidence(1),
			Constraints: noStopConstraints(),
		})
		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr, "prior %v", prior)
	}
}

func TestRunEmptyEvidence(t *testing.T) {
	controller := newTestController(assessor.NewMockClient())

	_, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "h",
		Prior:       0.5,
		Constraints: noStopConstraints(),
	})
	require.ErrorIs(t, err, ErrNoEvidence)
}

func TestRunCancelledContext(t *testing.T) {
	controller := newTestController(assessor.NewMockClient())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := controller.Run(ctx, RunRequest{
		Hypothesis:  "h",
		Prior:       0.5,
		Evidence:    makeEvidence(5),
		Constraints: noStopConstraints(),
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunOrderIsDeterministicUnderConcurrency(t *testing.T) {
	mock := assessor.NewMockClient()
	mock.LikelihoodFunc = func(ctx context.Context, ev *domain.Evidence, hypothesis string) (*domain.LikelihoodAssessment, error) {
		// Per-source likelihoods so every input position produces a
		// distinct update.
		var n int
		fmt.Sscanf(ev.Source, "source-%d", &n)
		lh := 0.5 + 0.04*float64(n%10)
		return &domain.LikelihoodAssessment{
			LikelihoodGivenHypothesis:    lh,
			LikelihoodGivenNotHypothesis: 1 - lh,
		}, nil
	}
	controller := newTestController(mock)
	controller.MaxConcurrency = 4

	req := RunRequest{
		Hypothesis:  "h",
		Prior:       0.5,
		Evidence:    makeEvidence(12),
		Constraints: noStopConstraints(),
	}

	first, _, err := controller.Run(context.Background(), req)
	require.NoError(t, err)
	second, _, err := controller.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, second.UpdateHistory, len(first.UpdateHistory))
	for i := range first.UpdateHistory {
		assert.Equal(t, first.UpdateHistory[i].Posterior, second.UpdateHistory[i].Posterior, "update %d", i)
	}
	assert.Equal(t, first.FinalBelief, second.FinalBelief)
}

func TestRunSummaryPicksExtremes(t *testing.T) {
	mock := assessor.NewMockClient()
	mock.LikelihoodFunc = func(ctx context.Context, ev *domain.Evidence, hypothesis string) (*domain.LikelihoodAssessment, error) {
		switch ev.Source {
		case "source-1":
			return &domain.LikelihoodAssessment{
				LikelihoodGivenHypothesis:    0.95,
				LikelihoodGivenNotHypothesis: 0.05,
				Diagnosticity:                0.9,
			}, nil
		default:
			return &domain.LikelihoodAssessment{
				LikelihoodGivenHypothesis:    0.55,
				LikelihoodGivenNotHypothesis: 0.45,
				Diagnosticity:                0.1,
			}, nil
		}
	}
	controller := newTestController(mock)

	result, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "h",
		Prior:       0.5,
		Evidence:    makeEvidence(3),
		Constraints: noStopConstraints(),
	})
	require.NoError(t, err)

	require.NotNil(t, result.Summary.StrongestEvidence)
	assert.Equal(t, "source-1", result.Summary.StrongestEvidence.Source)
	require.NotNil(t, result.Summary.MostDiagnostic)
	assert.Equal(t, "source-1", result.Summary.MostDiagnostic.Source)
	require.NotNil(t, result.Summary.LargestUpdate)
	assert.Equal(t, "source-1", result.Summary.LargestUpdate.Source)
	assert.InDelta(t, 0.9, result.Summary.MostDiagnostic.Value, 1e-9)
}

// constantEmbedder returns the same vector for every input, so every
// item after the first registers as a near-duplicate.
type constantEmbedder struct{}

func (constantEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.6, 0.8, 0}, nil
}

func TestRunFlagsRedundantEvidence(t *testing.T) {
	controller := newTestController(assessor.NewMockClient())
	controller.SetEmbeddingClient(constantEmbedder{})

	result, _, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "h",
		Prior:       0.5,
		Evidence:    makeEvidence(3),
		Constraints: noStopConstraints(),
	})
	require.NoError(t, err)

	assert.False(t, result.Records[0].Redundant)
	assert.True(t, result.Records[1].Redundant)
	assert.True(t, result.Records[2].Redundant)
}

func TestRunTraceGrowsPerItemInStreamingMode(t *testing.T) {
	controller := newTestController(assessor.NewMockClient())

	_, trace, err := controller.Run(context.Background(), RunRequest{
		Hypothesis:  "h",
		Prior:       0.5,
		Evidence:    makeEvidence(6),
		Constraints: noStopConstraints(),
	})
	require.NoError(t, err)

	require.Len(t, trace, 6)
	for i, d := range trace {
		assert.False(t, d.Stop)
		assert.Equal(t, i+1, d.Metrics.EvidenceCount)
	}
}
