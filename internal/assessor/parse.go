package assessor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/credence-ai/credence/internal/domain"
)

// cleanJSON strips markdown fences the chat models sometimes wrap
// around their JSON output.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseQuality decodes and validates an assessor's quality payload.
// Out-of-range scores are rejected here, at the boundary, so nothing
// downstream ever sees a malformed assessment.
func parseQuality(raw string) (*domain.QualityAssessment, error) {
	raw = cleanJSON(raw)

	var quality domain.QualityAssessment
	if err := json.Unmarshal([]byte(raw), &quality); err != nil {
		return nil, fmt.Errorf("parse quality assessment: %w (raw: %s)", err, raw)
	}
	if err := quality.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quality assessment: %w", err)
	}
	return &quality, nil
}

// parseLikelihood decodes and validates an estimator's likelihood payload.
func parseLikelihood(raw string) (*domain.LikelihoodAssessment, error) {
	raw = cleanJSON(raw)

	var likelihood domain.LikelihoodAssessment
	if err := json.Unmarshal([]byte(raw), &likelihood); err != nil {
		return nil, fmt.Errorf("parse likelihood assessment: %w (raw: %s)", err, raw)
	}
	if err := likelihood.Validate(); err != nil {
		return nil, fmt.Errorf("invalid likelihood assessment: %w", err)
	}
	if likelihood.Diagnosticity == 0 {
		likelihood.Diagnosticity = likelihood.LikelihoodGap()
	}
	return &likelihood, nil
}
