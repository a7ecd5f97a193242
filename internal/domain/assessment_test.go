package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNeutralQualityAssessmentMatchesDefaults(t *testing.T) {
	q := NeutralQualityAssessment()
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if q.Overall() != DefaultOverallQuality {
		t.Errorf("Overall() = %v, want %v", q.Overall(), DefaultOverallQuality)
	}
	if DimOr(q.BiasLevel, 0) != DefaultBiasLevel {
		t.Errorf("BiasLevel = %v, want %v", DimOr(q.BiasLevel, 0), DefaultBiasLevel)
	}
}

func TestQualityOverallNilReceiverUsesDefault(t *testing.T) {
	var q *QualityAssessment
	if q.Overall() != DefaultOverallQuality {
		t.Errorf("nil Overall() = %v, want %v", q.Overall(), DefaultOverallQuality)
	}
}

func TestQualityValidateRejectsOutOfRange(t *testing.T) {
	bad := 1.4
	q := &QualityAssessment{FactualAccuracy: &bad}

	err := q.Validate()
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("Validate() = %v, want *DataError", err)
	}
	if dataErr.Field != "factual_accuracy" {
		t.Errorf("Field = %q, want factual_accuracy", dataErr.Field)
	}
}

func TestQualityValidateAllowsMissingDimensions(t *testing.T) {
	q := &QualityAssessment{}
	if err := q.Validate(); err != nil {
		t.Errorf("Validate() on empty assessment = %v, want nil", err)
	}
}

func TestNeutralLikelihoodCarriesNoInformation(t *testing.T) {
	l := NeutralLikelihoodAssessment()
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if l.LikelihoodGivenHypothesis != l.LikelihoodGivenNotHypothesis {
		t.Errorf("neutral likelihoods differ: %v vs %v",
			l.LikelihoodGivenHypothesis, l.LikelihoodGivenNotHypothesis)
	}
	if l.LikelihoodGap() != 0 {
		t.Errorf("LikelihoodGap() = %v, want 0", l.LikelihoodGap())
	}
}

func TestLikelihoodValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		l    LikelihoodAssessment
	}{
		{"lh above one", LikelihoodAssessment{LikelihoodGivenHypothesis: 1.2, LikelihoodGivenNotHypothesis: 0.5}},
		{"lnh negative", LikelihoodAssessment{LikelihoodGivenHypothesis: 0.5, LikelihoodGivenNotHypothesis: -0.1}},
		{"lh NaN", LikelihoodAssessment{LikelihoodGivenHypothesis: math.NaN(), LikelihoodGivenNotHypothesis: 0.5}},
		{"negative diagnosticity", LikelihoodAssessment{LikelihoodGivenHypothesis: 0.5, LikelihoodGivenNotHypothesis: 0.5, Diagnosticity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dataErr *DataError
			if !errors.As(tc.l.Validate(), &dataErr) {
				t.Errorf("Validate() accepted %+v", tc.l)
			}
		})
	}
}

func TestLikelihoodGap(t *testing.T) {
	l := LikelihoodAssessment{LikelihoodGivenHypothesis: 0.9, LikelihoodGivenNotHypothesis: 0.3}
	if got := l.LikelihoodGap(); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("LikelihoodGap() = %v, want 0.6", got)
	}
}
