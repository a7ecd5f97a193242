package domain

import "math"

// Neutral per-dimension defaults used when an assessor omits a score
// or fails outright. Chosen to be mildly conservative rather than
// midpoint-everything: bias_level defaults high because 1.0 means
// "least biased".
const (
	DefaultFactualAccuracy     = 0.6
	DefaultSourceCredibility   = 0.6
	DefaultMethodologicalRigor = 0.5
	DefaultCompleteness        = 0.5
	DefaultBiasLevel           = 0.7
	DefaultRelevance           = 0.6
	DefaultLogicalConsistency  = 0.6
	DefaultOverallQuality      = 0.5
	DefaultAssessmentConfidence = 0.5
)

// QualityAssessment holds the named dimension scores for one piece of
// evidence, each in [0,1]. Nil pointers mean the assessor did not
// score that dimension; consumers substitute the documented neutral
// defaults instead of failing.
type QualityAssessment struct {
	FactualAccuracy        *float64 `json:"factual_accuracy,omitempty"`
	SourceCredibility      *float64 `json:"source_credibility,omitempty"`
	MethodologicalRigor    *float64 `json:"methodological_rigor,omitempty"`
	Completeness           *float64 `json:"completeness,omitempty"`
	BiasLevel              *float64 `json:"bias_level,omitempty"` // 1.0 = least biased
	Relevance              *float64 `json:"relevance,omitempty"`
	LogicalConsistency     *float64 `json:"logical_consistency,omitempty"`
	OverallQuality         *float64 `json:"overall_quality,omitempty"`
	ConfidenceInAssessment float64  `json:"confidence_in_assessment"`
	Notes                  string   `json:"notes,omitempty"`
}

// DimOr returns the dimension value, or def when the dimension is missing.
func DimOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Overall returns the overall_quality dimension or its neutral default.
func (q *QualityAssessment) Overall() float64 {
	if q == nil {
		return DefaultOverallQuality
	}
	return DimOr(q.OverallQuality, DefaultOverallQuality)
}

// NeutralQualityAssessment is the fallback assessment applied to
// degraded evidence records.
func NeutralQualityAssessment() *QualityAssessment {
	f := func(v float64) *float64 { return &v }
	return &QualityAssessment{
		FactualAccuracy:        f(DefaultFactualAccuracy),
		SourceCredibility:      f(DefaultSourceCredibility),
		MethodologicalRigor:    f(DefaultMethodologicalRigor),
		Completeness:           f(DefaultCompleteness),
		BiasLevel:              f(DefaultBiasLevel),
		Relevance:              f(DefaultRelevance),
		LogicalConsistency:     f(DefaultLogicalConsistency),
		OverallQuality:         f(DefaultOverallQuality),
		ConfidenceInAssessment: DefaultAssessmentConfidence,
		Notes:                  "neutral fallback assessment",
	}
}

// Validate rejects dimension scores outside [0,1] or non-finite.
// Called at the assessor boundary so malformed external output never
// propagates downstream.
func (q *QualityAssessment) Validate() error {
	dims := []struct {
		name string
		v    *float64
	}{
		{"factual_accuracy", q.FactualAccuracy},
		{"source_credibility", q.SourceCredibility},
		{"methodological_rigor", q.MethodologicalRigor},
		{"completeness", q.Completeness},
		{"bias_level", q.BiasLevel},
		{"relevance", q.Relevance},
		{"logical_consistency", q.LogicalConsistency},
		{"overall_quality", q.OverallQuality},
	}
	for _, d := range dims {
		if d.v == nil {
			continue
		}
		if !isUnit(*d.v) {
			return &DataError{Field: d.name, Detail: "score must be in [0,1]"}
		}
	}
	if q.ConfidenceInAssessment != 0 && !isUnit(q.ConfidenceInAssessment) {
		return &DataError{Field: "confidence_in_assessment", Detail: "score must be in [0,1]"}
	}
	return nil
}

// LikelihoodAssessment is the externally estimated likelihood pair for
// one piece of evidence under a hypothesis and its negation.
type LikelihoodAssessment struct {
	LikelihoodGivenHypothesis    float64 `json:"likelihood_given_hypothesis"`
	LikelihoodGivenNotHypothesis float64 `json:"likelihood_given_not_hypothesis"`
	Diagnosticity                float64 `json:"diagnosticity"`
	Reasoning                    string  `json:"reasoning,omitempty"`
	ConfidenceInLikelihood       float64 `json:"confidence_in_likelihood"`
}

// NeutralLikelihoodAssessment carries no information: both likelihoods
// 0.5, so the Bayesian update leaves the belief unchanged.
func NeutralLikelihoodAssessment() *LikelihoodAssessment {
	return &LikelihoodAssessment{
		LikelihoodGivenHypothesis:    0.5,
		LikelihoodGivenNotHypothesis: 0.5,
		Diagnosticity:                0,
		Reasoning:                    "neutral fallback likelihood",
		ConfidenceInLikelihood:       DefaultAssessmentConfidence,
	}
}

// Validate rejects likelihoods outside [0,1] or non-finite values at
// the assessor boundary. Validation never mutates the assessment.
func (l *LikelihoodAssessment) Validate() error {
	if !isUnit(l.LikelihoodGivenHypothesis) {
		return &DataError{Field: "likelihood_given_hypothesis", Detail: "must be in [0,1]"}
	}
	if !isUnit(l.LikelihoodGivenNotHypothesis) {
		return &DataError{Field: "likelihood_given_not_hypothesis", Detail: "must be in [0,1]"}
	}
	if !isFinite(l.Diagnosticity) || l.Diagnosticity < 0 {
		return &DataError{Field: "diagnosticity", Detail: "must be a finite non-negative number"}
	}
	return nil
}

// LikelihoodGap is the absolute likelihood difference, the fallback
// diagnosticity when an estimator does not provide one.
func (l *LikelihoodAssessment) LikelihoodGap() float64 {
	return math.Abs(l.LikelihoodGivenHypothesis - l.LikelihoodGivenNotHypothesis)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isUnit(v float64) bool {
	return isFinite(v) && v >= 0 && v <= 1
}
