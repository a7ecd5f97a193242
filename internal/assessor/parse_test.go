package assessor

import (
	"math"
	"testing"
)

func TestCleanJSONStripsFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, c := range cases {
		if got := cleanJSON(c.in); got != c.want {
			t.Errorf("cleanJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseQuality(t *testing.T) {
	raw := "```json\n{\"factual_accuracy\": 0.8, \"source_credibility\": 0.9, \"overall_quality\": 0.85, \"confidence_in_assessment\": 0.7}\n```"

	q, err := parseQuality(raw)
	if err != nil {
		t.Fatalf("parseQuality() error: %v", err)
	}
	if q.FactualAccuracy == nil || *q.FactualAccuracy != 0.8 {
		t.Errorf("FactualAccuracy = %v, want 0.8", q.FactualAccuracy)
	}
	// Dimensions absent from the payload stay nil so consumers can
	// substitute neutral defaults.
	if q.MethodologicalRigor != nil {
		t.Errorf("MethodologicalRigor = %v, want nil", *q.MethodologicalRigor)
	}
}

func TestParseQualityRejectsOutOfRange(t *testing.T) {
	if _, err := parseQuality(`{"factual_accuracy": 1.5}`); err == nil {
		t.Error("parseQuality accepted out-of-range score")
	}
}

func TestParseQualityRejectsMalformedJSON(t *testing.T) {
	if _, err := parseQuality("the evidence looks fine to me"); err == nil {
		t.Error("parseQuality accepted prose")
	}
}

func TestParseLikelihood(t *testing.T) {
	raw := `{"likelihood_given_hypothesis": 0.9, "likelihood_given_not_hypothesis": 0.3, "diagnosticity": 0.7}`

	l, err := parseLikelihood(raw)
	if err != nil {
		t.Fatalf("parseLikelihood() error: %v", err)
	}
	if l.LikelihoodGivenHypothesis != 0.9 || l.Diagnosticity != 0.7 {
		t.Errorf("parsed %+v", l)
	}
}

func TestParseLikelihoodFillsMissingDiagnosticity(t *testing.T) {
	raw := `{"likelihood_given_hypothesis": 0.9, "likelihood_given_not_hypothesis": 0.3}`

	l, err := parseLikelihood(raw)
	if err != nil {
		t.Fatalf("parseLikelihood() error: %v", err)
	}
	if math.Abs(l.Diagnosticity-0.6) > 1e-12 {
		t.Errorf("Diagnosticity = %v, want 0.6", l.Diagnosticity)
	}
}

func TestParseLikelihoodRejectsOutOfRange(t *testing.T) {
	raw := `{"likelihood_given_hypothesis": 1.2, "likelihood_given_not_hypothesis": 0.3}`
	if _, err := parseLikelihood(raw); err == nil {
		t.Error("parseLikelihood accepted out-of-range likelihood")
	}
}
