package domain

import (
	"fmt"
	"time"
)

type CombinationStrategy string

const (
	StrategyAny      CombinationStrategy = "any"
	StrategyAll      CombinationStrategy = "all"
	StrategyMajority CombinationStrategy = "majority"
)

func ValidStrategy(s string) bool {
	switch CombinationStrategy(s) {
	case StrategyAny, StrategyAll, StrategyMajority:
		return true
	}
	return false
}

// Stopping rule names. Constraints.ActiveRules selects a subset.
const (
	RuleDiminishingReturns       = "diminishing_returns"
	RuleConfidenceThreshold      = "confidence_threshold"
	RuleCostBenefit              = "cost_benefit"
	RuleTimeConstraint           = "time_constraint"
	RuleConvergence              = "convergence"
	RuleSufficientDiscrimination = "sufficient_discrimination"
)

// AllRules returns the six rule names in their canonical evaluation order.
func AllRules() []string {
	return []string{
		RuleDiminishingReturns,
		RuleConfidenceThreshold,
		RuleCostBenefit,
		RuleTimeConstraint,
		RuleConvergence,
		RuleSufficientDiscrimination,
	}
}

func ValidRule(name string) bool {
	for _, r := range AllRules() {
		if r == name {
			return true
		}
	}
	return false
}

// Constraints configures the stopping-rule engine for one run.
//
// ActiveRules distinguishes nil from empty: nil means "all six rules",
// an explicitly empty slice means "no rules active" (in which case
// strategy "all" evaluates to no-stop).
type Constraints struct {
	Strategy             CombinationStrategy `json:"combination_strategy"`
	ActiveRules          []string            `json:"active_rules,omitempty"`
	ConfidenceThreshold  float64             `json:"confidence_threshold"`
	TimeLimit            time.Duration       `json:"time_limit"`
	CostBenefitRatio     float64             `json:"cost_benefit_ratio"`
	ConvergenceThreshold float64             `json:"convergence_threshold"`
	DiscriminationGap    float64             `json:"discrimination_gap"`
	DiminishingThreshold float64             `json:"diminishing_threshold"`
	WindowSize           int                 `json:"window_size"`
}

func DefaultConstraints() Constraints {
	return Constraints{
		Strategy:             StrategyAny,
		ActiveRules:          nil, // all rules
		ConfidenceThreshold:  0.95,
		TimeLimit:            0, // no limit
		CostBenefitRatio:     1.0,
		ConvergenceThreshold: 0.01,
		DiscriminationGap:    0.3,
		DiminishingThreshold: 0.1,
		WindowSize:           5,
	}
}

// Rules returns the effective active rule set.
func (c *Constraints) Rules() []string {
	if c.ActiveRules == nil {
		return AllRules()
	}
	return c.ActiveRules
}

// Validate checks the constraint set before a run starts. Any failure
// is a ConfigurationError; nothing is processed afterwards.
func (c *Constraints) Validate() error {
	if !ValidStrategy(string(c.Strategy)) {
		return &ConfigurationError{Field: "combination_strategy",
			Detail: fmt.Sprintf("unknown strategy %q (valid: any, all, majority)", c.Strategy)}
	}
	for _, r := range c.ActiveRules {
		if !ValidRule(r) {
			return &ConfigurationError{Field: "active_rules", Detail: fmt.Sprintf("unknown rule %q", r)}
		}
	}
	if !isUnit(c.ConfidenceThreshold) {
		return &ConfigurationError{Field: "confidence_threshold", Detail: "must be in [0,1]"}
	}
	if !isUnit(c.ConvergenceThreshold) {
		return &ConfigurationError{Field: "convergence_threshold", Detail: "must be in [0,1]"}
	}
	if !isUnit(c.DiscriminationGap) {
		return &ConfigurationError{Field: "discrimination_gap", Detail: "must be in [0,1]"}
	}
	if !isUnit(c.DiminishingThreshold) {
		return &ConfigurationError{Field: "diminishing_threshold", Detail: "must be in [0,1]"}
	}
	if !isFinite(c.CostBenefitRatio) || c.CostBenefitRatio <= 0 {
		return &ConfigurationError{Field: "cost_benefit_ratio", Detail: "must be a positive number"}
	}
	if c.TimeLimit < 0 {
		return &ConfigurationError{Field: "time_limit", Detail: "must not be negative"}
	}
	if c.WindowSize < 1 {
		return &ConfigurationError{Field: "window_size", Detail: "must be at least 1"}
	}
	return nil
}

// RuleSignal is one rule's vote with its textual reason.
type RuleSignal struct {
	Rule   string `json:"rule"`
	Stop   bool   `json:"stop"`
	Reason string `json:"reason"`
}

// MetricsSnapshot captures the collection metrics that produced a
// stopping decision, so the decision trace can be replayed.
type MetricsSnapshot struct {
	EvidenceCount      int       `json:"evidence_count"`
	TimeElapsedSeconds float64   `json:"time_elapsed_seconds"`
	Confidence         float64   `json:"confidence"`
	CumulativeCost     float64   `json:"cumulative_cost"`
	ExpectedBenefit    float64   `json:"expected_benefit"`
	RecentInfoValues   []float64 `json:"recent_info_values,omitempty"`
	Probabilities      []float64 `json:"hypothesis_probabilities,omitempty"`
}

// StoppingDecision is one evaluation of the active rules. Decisions
// are appended to an immutable trace; the trace is a first-class
// audit artifact, not a debugging side effect.
type StoppingDecision struct {
	Stop        bool                `json:"stop"`
	Strategy    CombinationStrategy `json:"strategy"`
	Signals     []RuleSignal        `json:"signals"`
	Metrics     MetricsSnapshot     `json:"metrics"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
}
