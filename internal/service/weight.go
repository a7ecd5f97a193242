package service

import (
	"math"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"go.uber.org/zap"
)

// Fixed quality-dimension coefficients; they sum to 1.0.
const (
	coeffFactualAccuracy     = 0.25
	coeffSourceCredibility   = 0.20
	coeffMethodologicalRigor = 0.15
	coeffLogicalConsistency  = 0.15
	coeffBiasLevel           = 0.15
	coeffCompleteness        = 0.10
)

const (
	// Informal one-year decay for evidence age; not a true half-life.
	temporalDecayDays = 365.0
	// Even very old evidence retains some baseline relevance.
	temporalFloor = 0.3

	MinWeight = 0.01
	MaxWeight = 2.0
)

// WeightCalculator turns a quality assessment plus evidence metadata
// into a single scalar weight in [MinWeight, MaxWeight]. Missing or
// partial quality input never fails; it degrades to the documented
// neutral defaults.
type WeightCalculator struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewWeightCalculator(logger *zap.Logger) *WeightCalculator {
	return &WeightCalculator{logger: logger, now: time.Now}
}

// SetClock overrides the clock used for evidence age; tests only.
func (c *WeightCalculator) SetClock(now func() time.Time) {
	c.now = now
}

func (c *WeightCalculator) Compute(ev *domain.Evidence, q *domain.QualityAssessment) float64 {
	if q == nil {
		q = domain.NeutralQualityAssessment()
	}

	qualityWeight := coeffFactualAccuracy*domain.DimOr(q.FactualAccuracy, domain.DefaultFactualAccuracy) +
		coeffSourceCredibility*domain.DimOr(q.SourceCredibility, domain.DefaultSourceCredibility) +
		coeffMethodologicalRigor*domain.DimOr(q.MethodologicalRigor, domain.DefaultMethodologicalRigor) +
		coeffLogicalConsistency*domain.DimOr(q.LogicalConsistency, domain.DefaultLogicalConsistency) +
		coeffBiasLevel*domain.DimOr(q.BiasLevel, domain.DefaultBiasLevel) +
		coeffCompleteness*domain.DimOr(q.Completeness, domain.DefaultCompleteness)

	ageDays := 0.0
	if !ev.Timestamp.IsZero() {
		ageDays = c.now().Sub(ev.Timestamp).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
	}
	temporalWeight := math.Exp(-ageDays / temporalDecayDays)

	typeWeight := ev.Type.TypeWeight()

	weight := qualityWeight * (temporalFloor + (1-temporalFloor)*temporalWeight) * typeWeight
	weight = clampWeight(weight)

	c.logger.Debug("computed evidence weight",
		zap.String("source", ev.Source),
		zap.String("evidence_type", string(ev.Type)),
		zap.Float64("quality_weight", qualityWeight),
		zap.Float64("age_days", ageDays),
		zap.Float64("temporal_weight", temporalWeight),
		zap.Float64("type_weight", typeWeight),
		zap.Float64("weight", weight))

	return weight
}

func clampWeight(w float64) float64 {
	if math.IsNaN(w) || w < MinWeight {
		return MinWeight
	}
	if w > MaxWeight {
		return MaxWeight
	}
	return w
}
