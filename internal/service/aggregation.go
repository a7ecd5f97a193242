package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAssessTimeout bounds each external assessor call.
	DefaultAssessTimeout = 30 * time.Second
	// DefaultMaxConcurrency bounds in-flight assessor calls.
	DefaultMaxConcurrency = 4
	// DefaultFatalDegradedFraction is the degraded-item fraction above
	// which a run is flagged as a partial failure instead of a
	// confident result.
	DefaultFatalDegradedFraction = 0.5
	// Cosine score above which two evidence items in the same run are
	// considered near-duplicates.
	redundancyThreshold = 0.95
)

var ErrNoEvidence = errors.New("evidence stream is empty")

// RunRequest describes one aggregation run.
type RunRequest struct {
	Hypothesis string
	Prior      float64
	Evidence   []domain.Evidence

	Constraints domain.Constraints

	// Batch consults the stopping rules only after the stream is
	// exhausted; the default streaming mode consults them after every
	// item and halts as soon as they signal stop.
	Batch bool

	// CostPerItem feeds the cost_benefit rule; defaults to 1.
	CostPerItem float64
	// ExpectedBenefit seeds CollectionState for the cost_benefit rule.
	ExpectedBenefit float64
}

// AggregationController orchestrates the evidence loop: assess,
// estimate, weight, update, record, and consult the stopping rules.
// The collaborating assessors are injected; the controller holds no
// global state and a single instance can serve concurrent runs.
type AggregationController struct {
	quality    domain.QualityAssessor
	likelihood domain.LikelihoodEstimator
	weights    *WeightCalculator
	bayes      *BayesEngine
	embedder   domain.EmbeddingClient
	logger     *zap.Logger

	AssessTimeout         time.Duration
	MaxConcurrency        int
	FatalDegradedFraction float64
}

func NewAggregationController(
	quality domain.QualityAssessor,
	likelihood domain.LikelihoodEstimator,
	logger *zap.Logger,
) *AggregationController {
	return &AggregationController{
		quality:               quality,
		likelihood:            likelihood,
		weights:               NewWeightCalculator(logger),
		bayes:                 NewBayesEngine(logger),
		logger:                logger,
		AssessTimeout:         DefaultAssessTimeout,
		MaxConcurrency:        DefaultMaxConcurrency,
		FatalDegradedFraction: DefaultFatalDegradedFraction,
	}
}

// SetEmbeddingClient enables near-duplicate flagging of evidence
// within a run. Optional; without it no redundancy flags are set.
func (c *AggregationController) SetEmbeddingClient(client domain.EmbeddingClient) {
	c.embedder = client
}

// assessed is the join result of the two external calls for one item.
type assessed struct {
	quality    *domain.QualityAssessment
	likelihood *domain.LikelihoodAssessment
	embedding  []float32
	degraded   bool
}

// Run executes the aggregation loop and returns the result plus the
// stopping-rule decision trace. Assessor calls for items within a
// dispatch window run concurrently, but updates are always applied in
// input order so the audit trail is reproducible byte for byte.
func (c *AggregationController) Run(ctx context.Context, req RunRequest) (*domain.AggregationResult, []domain.StoppingDecision, error) {
	if err := req.Constraints.Validate(); err != nil {
		return nil, nil, err
	}
	if math.IsNaN(req.Prior) || math.IsInf(req.Prior, 0) || req.Prior <= 0 || req.Prior >= 1 {
		return nil, nil, &domain.DomainError{Op: "aggregation.run",
			Detail: "prior must be a finite probability strictly inside (0,1)"}
	}
	if len(req.Evidence) == 0 {
		return nil, nil, ErrNoEvidence
	}

	costPerItem := req.CostPerItem
	if costPerItem <= 0 {
		costPerItem = 1
	}

	start := time.Now()
	belief := domain.NewBeliefState(req.Prior)
	state := domain.NewCollectionState(req.ExpectedBenefit)
	stopping := NewStoppingEngine(c.logger)

	records := make([]domain.EvidenceRecord, 0, len(req.Evidence))
	var embeddings [][]float32
	var stopDecision *domain.StoppingDecision
	earlyStop := false
	degraded := 0

	chunk := c.MaxConcurrency
	if chunk < 1 {
		chunk = 1
	}

outer:
	for lo := 0; lo < len(req.Evidence); lo += chunk {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		hi := lo + chunk
		if hi > len(req.Evidence) {
			hi = len(req.Evidence)
		}

		// Dispatch the window's assessor calls concurrently; results
		// land in input-order slots.
		window := make([]assessed, hi-lo)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(chunk)
		for i := lo; i < hi; i++ {
			i := i
			g.Go(func() error {
				window[i-lo] = c.assessOne(gctx, &req.Evidence[i], req.Hypothesis)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}

		// Apply updates strictly in input order.
		for i := lo; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}

			ev := req.Evidence[i]
			a := window[i-lo]
			if a.degraded {
				degraded++
			}

			weight := c.weights.Compute(&ev, a.quality)
			update, err := c.bayes.Update(
				belief.CurrentBelief,
				a.likelihood.LikelihoodGivenHypothesis,
				a.likelihood.LikelihoodGivenNotHypothesis,
				weight,
			)
			if err != nil {
				return nil, nil, err
			}
			diagnosticity := a.likelihood.Diagnosticity
			if diagnosticity == 0 {
				diagnosticity = a.likelihood.LikelihoodGap()
			}
			update.Diagnosticity = diagnosticity
			belief.Apply(update)

			record := domain.EvidenceRecord{
				Evidence:   ev,
				Quality:    a.quality,
				Likelihood: a.likelihood,
				Weight:     weight,
				Update:     update,
				Degraded:   a.degraded,
			}
			if a.embedding != nil && isRedundant(a.embedding, embeddings) {
				record.Redundant = true
			}
			embeddings = append(embeddings, a.embedding)
			records = append(records, record)

			state.RecordSample(diagnosticity, belief.Probabilities(), costPerItem)
			state.TimeElapsed = time.Since(start)
			state.Confidence = confidenceInResult(records)

			if !req.Batch {
				decision := stopping.Evaluate(state, req.Constraints)
				if decision.Stop {
					stopDecision = decision
					earlyStop = true
					c.logger.Info("stopping rules signaled halt",
						zap.Int("evidence_consumed", state.EvidenceCount),
						zap.Int("evidence_dropped", len(req.Evidence)-state.EvidenceCount))
					break outer
				}
			}
		}
	}

	if req.Batch {
		stopDecision = stopping.Evaluate(state, req.Constraints)
	}

	result := c.buildResult(req, belief, records, start)
	result.EarlyStop = earlyStop
	result.StopDecision = stopDecision
	result.DegradedCount = degraded
	if float64(degraded)/float64(len(records)) > c.FatalDegradedFraction {
		result.PartialFailure = true
		c.logger.Warn("run degraded beyond fatal threshold",
			zap.Int("degraded", degraded),
			zap.Int("total", len(records)))
	}

	return result, stopping.Trace(), nil
}

// assessOne performs the two external calls for one evidence item
// under the per-call timeout. Any failure, timeout, or malformed
// payload is recovered locally with neutral defaults and the record is
// flagged degraded; it never aborts the batch.
func (c *AggregationController) assessOne(ctx context.Context, ev *domain.Evidence, hypothesis string) assessed {
	out := assessed{}

	if err := ev.Validate(); err != nil {
		c.logger.Warn("malformed evidence, using neutral assessments",
			zap.String("source", ev.Source),
			zap.Error(err))
		out.quality = domain.NeutralQualityAssessment()
		out.likelihood = domain.NeutralLikelihoodAssessment()
		out.degraded = true
		return out
	}

	quality, err := c.callQuality(ctx, ev)
	if err != nil {
		c.logger.Warn("quality assessment degraded",
			zap.String("source", ev.Source),
			zap.Error(err))
		quality = domain.NeutralQualityAssessment()
		out.degraded = true
	}
	out.quality = quality

	likelihood, err := c.callLikelihood(ctx, ev, hypothesis)
	if err != nil {
		c.logger.Warn("likelihood estimate degraded",
			zap.String("source", ev.Source),
			zap.Error(err))
		likelihood = domain.NeutralLikelihoodAssessment()
		out.degraded = true
	}
	out.likelihood = likelihood

	if c.embedder != nil {
		embedding, err := c.embedder.Embed(ctx, ev.Content)
		if err != nil {
			c.logger.Debug("evidence embedding failed, skipping redundancy check",
				zap.String("source", ev.Source),
				zap.Error(err))
		} else {
			out.embedding = embedding
		}
	}

	return out
}

func (c *AggregationController) callQuality(ctx context.Context, ev *domain.Evidence) (*domain.QualityAssessment, error) {
	tctx, cancel := context.WithTimeout(ctx, c.AssessTimeout)
	defer cancel()

	quality, err := c.quality.AssessQuality(tctx, ev)
	if err != nil {
		return nil, &domain.AssessorError{Stage: "quality", Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}
	if err := quality.Validate(); err != nil {
		return nil, &domain.AssessorError{Stage: "quality", Err: err}
	}
	return quality, nil
}

func (c *AggregationController) callLikelihood(ctx context.Context, ev *domain.Evidence, hypothesis string) (*domain.LikelihoodAssessment, error) {
	tctx, cancel := context.WithTimeout(ctx, c.AssessTimeout)
	defer cancel()

	likelihood, err := c.likelihood.EstimateLikelihood(tctx, ev, hypothesis)
	if err != nil {
		return nil, &domain.AssessorError{Stage: "likelihood", Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}
	if err := likelihood.Validate(); err != nil {
		return nil, &domain.AssessorError{Stage: "likelihood", Err: err}
	}
	return likelihood, nil
}

func (c *AggregationController) buildResult(req RunRequest, belief *domain.BeliefState, records []domain.EvidenceRecord, start time.Time) *domain.AggregationResult {
	result := &domain.AggregationResult{
		RunID:             uuid.New(),
		Hypothesis:        req.Hypothesis,
		PriorBelief:       domain.ClampBelief(req.Prior),
		FinalBelief:       belief.CurrentBelief,
		NumEvidencePieces: len(records),
		UpdateHistory:     belief.UpdateHistory,
		Records:           records,
		Summary:           summarize(records),
		StartedAt:         start,
		CompletedAt:       time.Now(),
	}
	result.TotalBeliefChange = result.FinalBelief - result.PriorBelief

	diagSum := 0.0
	for _, r := range records {
		diagSum += r.Update.Diagnosticity
	}
	if len(records) > 0 {
		result.AverageDiagnosticity = diagSum / float64(len(records))
	}
	result.ConfidenceInResult = confidenceInResult(records)

	return result
}

// confidenceInResult is the mean of diagnosticity x overall quality
// across the consumed items. It also serves as the scalar confidence
// the confidence_threshold stopping rule reads.
func confidenceInResult(records []domain.EvidenceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Update.Diagnosticity * r.Quality.Overall()
	}
	return sum / float64(len(records))
}

func summarize(records []domain.EvidenceRecord) domain.AggregationSummary {
	var summary domain.AggregationSummary
	for i, r := range records {
		if summary.StrongestEvidence == nil || r.Update.BayesFactor > summary.StrongestEvidence.Value {
			summary.StrongestEvidence = &domain.SummaryEntry{Index: i, Source: r.Evidence.Source, Value: r.Update.BayesFactor}
		}
		if summary.MostDiagnostic == nil || r.Update.Diagnosticity > summary.MostDiagnostic.Value {
			summary.MostDiagnostic = &domain.SummaryEntry{Index: i, Source: r.Evidence.Source, Value: r.Update.Diagnosticity}
		}
		change := math.Abs(r.Update.BeliefChange)
		if summary.LargestUpdate == nil || change > summary.LargestUpdate.Value {
			summary.LargestUpdate = &domain.SummaryEntry{Index: i, Source: r.Evidence.Source, Value: change}
		}
	}
	return summary
}

func isRedundant(embedding []float32, previous [][]float32) bool {
	for _, p := range previous {
		if p == nil {
			continue
		}
		if cosineSimilarity(embedding, p) >= redundancyThreshold {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
