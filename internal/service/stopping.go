package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"go.uber.org/zap"
)

// convergenceSnapshots is how many trailing probability snapshots the
// convergence rule compares.
const convergenceSnapshots = 3

// StoppingEngine evaluates the configured stopping criteria against a
// run's collection state. Every evaluation is appended to the engine's
// decision trace; one engine instance serves one run.
type StoppingEngine struct {
	logger *zap.Logger
	trace  []domain.StoppingDecision
	now    func() time.Time
}

func NewStoppingEngine(logger *zap.Logger) *StoppingEngine {
	return &StoppingEngine{logger: logger, now: time.Now}
}

// Trace returns a copy of the append-only decision trace.
func (e *StoppingEngine) Trace() []domain.StoppingDecision {
	out := make([]domain.StoppingDecision, len(e.trace))
	copy(out, e.trace)
	return out
}

// Evaluate runs the active rules against state, combines their signals
// per the configured strategy, and records the decision. Constraints
// are assumed validated at run start.
func (e *StoppingEngine) Evaluate(state *domain.CollectionState, c domain.Constraints) *domain.StoppingDecision {
	signals := make([]domain.RuleSignal, 0, len(c.Rules()))
	for _, rule := range c.Rules() {
		stop, reason := e.evalRule(rule, state, c)
		signals = append(signals, domain.RuleSignal{Rule: rule, Stop: stop, Reason: reason})
	}

	decision := &domain.StoppingDecision{
		Stop:        combineSignals(signals, c.Strategy),
		Strategy:    c.Strategy,
		Signals:     signals,
		Metrics:     snapshotMetrics(state, c.WindowSize),
		EvaluatedAt: e.now(),
	}
	e.trace = append(e.trace, *decision)

	e.logger.Debug("stopping evaluation",
		zap.Bool("stop", decision.Stop),
		zap.String("strategy", string(c.Strategy)),
		zap.Int("evidence_count", state.EvidenceCount))

	return decision
}

func (e *StoppingEngine) evalRule(rule string, state *domain.CollectionState, c domain.Constraints) (bool, string) {
	switch rule {
	case domain.RuleDiminishingReturns:
		return evalDiminishingReturns(state, c)
	case domain.RuleConfidenceThreshold:
		return evalConfidenceThreshold(state, c)
	case domain.RuleCostBenefit:
		return evalCostBenefit(state, c)
	case domain.RuleTimeConstraint:
		return evalTimeConstraint(state, c)
	case domain.RuleConvergence:
		return evalConvergence(state, c)
	case domain.RuleSufficientDiscrimination:
		return evalSufficientDiscrimination(state, c)
	default:
		// Unknown names are rejected by Constraints.Validate.
		return false, fmt.Sprintf("unknown rule %q", rule)
	}
}

// combineSignals merges rule votes per the strategy. "all" over an
// empty signal set is defined as no-stop.
func combineSignals(signals []domain.RuleSignal, strategy domain.CombinationStrategy) bool {
	trues := 0
	for _, s := range signals {
		if s.Stop {
			trues++
		}
	}
	switch strategy {
	case domain.StrategyAny:
		return trues > 0
	case domain.StrategyAll:
		return len(signals) > 0 && trues == len(signals)
	case domain.StrategyMajority:
		return trues*2 > len(signals)
	default:
		return false
	}
}

func evalDiminishingReturns(state *domain.CollectionState, c domain.Constraints) (bool, string) {
	window := c.WindowSize
	if len(state.InfoValues) < 2*window {
		return false, fmt.Sprintf("insufficient data: %d info-value samples, need %d",
			len(state.InfoValues), 2*window)
	}

	n := len(state.InfoValues)
	recent := mean(state.InfoValues[n-window:])
	previous := mean(state.InfoValues[n-2*window : n-window])
	drop := previous - recent

	if drop > c.DiminishingThreshold {
		return true, fmt.Sprintf("info value dropped %.4f (from %.4f to %.4f), over threshold %.4f",
			drop, previous, recent, c.DiminishingThreshold)
	}
	return false, fmt.Sprintf("info value change %.4f within threshold %.4f", drop, c.DiminishingThreshold)
}

func evalConfidenceThreshold(state *domain.CollectionState, c domain.Constraints) (bool, string) {
	if state.Confidence >= c.ConfidenceThreshold {
		return true, fmt.Sprintf("confidence %.2f reached threshold %.2f",
			state.Confidence, c.ConfidenceThreshold)
	}
	return false, fmt.Sprintf("confidence %.2f below threshold %.2f",
		state.Confidence, c.ConfidenceThreshold)
}

func evalCostBenefit(state *domain.CollectionState, c domain.Constraints) (bool, string) {
	if state.ExpectedBenefit <= 0 {
		return false, "no expected benefit configured"
	}
	limit := state.ExpectedBenefit * c.CostBenefitRatio
	if state.CumulativeCost > limit {
		return true, fmt.Sprintf("cumulative cost %.2f exceeds benefit limit %.2f",
			state.CumulativeCost, limit)
	}
	return false, fmt.Sprintf("cumulative cost %.2f within benefit limit %.2f",
		state.CumulativeCost, limit)
}

func evalTimeConstraint(state *domain.CollectionState, c domain.Constraints) (bool, string) {
	if c.TimeLimit <= 0 {
		return false, "no time limit configured"
	}
	if state.TimeElapsed >= c.TimeLimit {
		return true, fmt.Sprintf("elapsed time %s reached limit %s", state.TimeElapsed, c.TimeLimit)
	}
	return false, fmt.Sprintf("elapsed time %s within limit %s", state.TimeElapsed, c.TimeLimit)
}

func evalConvergence(state *domain.CollectionState, c domain.Constraints) (bool, string) {
	if len(state.ProbabilityHistory) < convergenceSnapshots {
		return false, fmt.Sprintf("insufficient data: %d probability snapshots, need %d",
			len(state.ProbabilityHistory), convergenceSnapshots)
	}

	recent := state.ProbabilityHistory[len(state.ProbabilityHistory)-convergenceSnapshots:]
	maxDiff := 0.0
	for i := 0; i < len(recent); i++ {
		for j := i + 1; j < len(recent); j++ {
			if len(recent[i]) != len(recent[j]) {
				return false, "probability snapshots have mismatched dimensions"
			}
			for k := range recent[i] {
				if d := math.Abs(recent[i][k] - recent[j][k]); d > maxDiff {
					maxDiff = d
				}
			}
		}
	}

	if maxDiff < c.ConvergenceThreshold {
		return true, fmt.Sprintf("probabilities converged: max change %.4f below threshold %.4f",
			maxDiff, c.ConvergenceThreshold)
	}
	return false, fmt.Sprintf("probabilities still moving: max change %.4f above threshold %.4f",
		maxDiff, c.ConvergenceThreshold)
}

func evalSufficientDiscrimination(state *domain.CollectionState, c domain.Constraints) (bool, string) {
	probs := state.LatestProbabilities()
	if probs == nil {
		return false, "insufficient data: no probability snapshots"
	}
	if len(probs) == 1 {
		return true, "single hypothesis, trivially discriminated"
	}

	sorted := make([]float64, len(probs))
	copy(sorted, probs)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	gap := sorted[0] - sorted[1]
	if gap >= c.DiscriminationGap {
		return true, fmt.Sprintf("top hypotheses separated by %.2f, at least required gap %.2f",
			gap, c.DiscriminationGap)
	}
	return false, fmt.Sprintf("top hypotheses separated by %.2f, below required gap %.2f",
		gap, c.DiscriminationGap)
}

func snapshotMetrics(state *domain.CollectionState, window int) domain.MetricsSnapshot {
	recent := state.InfoValues
	if len(recent) > 2*window {
		recent = recent[len(recent)-2*window:]
	}
	recentCopy := make([]float64, len(recent))
	copy(recentCopy, recent)

	var probs []float64
	if latest := state.LatestProbabilities(); latest != nil {
		probs = make([]float64, len(latest))
		copy(probs, latest)
	}

	return domain.MetricsSnapshot{
		EvidenceCount:      state.EvidenceCount,
		TimeElapsedSeconds: state.TimeElapsed.Seconds(),
		Confidence:         state.Confidence,
		CumulativeCost:     state.CumulativeCost,
		ExpectedBenefit:    state.ExpectedBenefit,
		RecentInfoValues:   recentCopy,
		Probabilities:      probs,
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
