package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConstraintsAreValid(t *testing.T) {
	c := DefaultConstraints()
	if err := c.Validate(); err != nil {
		t.Fatalf("DefaultConstraints().Validate() = %v, want nil", err)
	}
}

func TestConstraintsValidateRejections(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Constraints)
		wantField string
	}{
		{"unknown strategy", func(c *Constraints) { c.Strategy = "plurality" }, "combination_strategy"},
		{"unknown rule", func(c *Constraints) { c.ActiveRules = []string{"gut_feeling"} }, "active_rules"},
		{"confidence above one", func(c *Constraints) { c.ConfidenceThreshold = 1.5 }, "confidence_threshold"},
		{"negative convergence", func(c *Constraints) { c.ConvergenceThreshold = -0.1 }, "convergence_threshold"},
		{"gap above one", func(c *Constraints) { c.DiscriminationGap = 2 }, "discrimination_gap"},
		{"diminishing above one", func(c *Constraints) { c.DiminishingThreshold = 1.1 }, "diminishing_threshold"},
		{"zero cost benefit ratio", func(c *Constraints) { c.CostBenefitRatio = 0 }, "cost_benefit_ratio"},
		{"negative time limit", func(c *Constraints) { c.TimeLimit = -time.Second }, "time_limit"},
		{"zero window", func(c *Constraints) { c.WindowSize = 0 }, "window_size"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConstraints()
			tc.mutate(&c)

			err := c.Validate()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigurationError", err)
			}
			if cfgErr.Field != tc.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tc.wantField)
			}
		})
	}
}

func TestConstraintsRulesNilMeansAll(t *testing.T) {
	c := DefaultConstraints()
	if got := c.Rules(); len(got) != len(AllRules()) {
		t.Errorf("Rules() = %v, want all %d rules", got, len(AllRules()))
	}
}

func TestConstraintsRulesEmptyMeansNone(t *testing.T) {
	c := DefaultConstraints()
	c.ActiveRules = []string{}
	if got := c.Rules(); len(got) != 0 {
		t.Errorf("Rules() = %v, want empty", got)
	}
}

func TestConstraintsRulesSubsetPreserved(t *testing.T) {
	c := DefaultConstraints()
	c.ActiveRules = []string{RuleConvergence, RuleTimeConstraint}
	got := c.Rules()
	if len(got) != 2 || got[0] != RuleConvergence || got[1] != RuleTimeConstraint {
		t.Errorf("Rules() = %v", got)
	}
}

func TestValidRule(t *testing.T) {
	for _, r := range AllRules() {
		if !ValidRule(r) {
			t.Errorf("ValidRule(%q) = false", r)
		}
	}
	if ValidRule("coin_flip") {
		t.Error("ValidRule accepted unknown rule")
	}
}

func TestValidStrategy(t *testing.T) {
	for _, s := range []string{"any", "all", "majority"} {
		if !ValidStrategy(s) {
			t.Errorf("ValidStrategy(%q) = false", s)
		}
	}
	if ValidStrategy("consensus") {
		t.Error("ValidStrategy accepted unknown strategy")
	}
}
