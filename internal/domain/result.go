package domain

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceRecord is the per-item audit entry: the consumed evidence,
// the assessments that scored it, and the update it produced.
type EvidenceRecord struct {
	Evidence   Evidence              `json:"evidence"`
	Quality    *QualityAssessment    `json:"quality"`
	Likelihood *LikelihoodAssessment `json:"likelihood"`
	Weight     float64               `json:"weight"`
	Update     BeliefUpdate          `json:"update"`
	Degraded   bool                  `json:"degraded,omitempty"`
	Redundant  bool                  `json:"redundant,omitempty"`
}

// SummaryEntry points at one evidence record by input position.
type SummaryEntry struct {
	Index  int     `json:"index"`
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

// AggregationSummary highlights the strongest evidence (max bayes
// factor), the most diagnostic evidence, and the largest single
// belief change of a run.
type AggregationSummary struct {
	StrongestEvidence *SummaryEntry `json:"strongest_evidence,omitempty"`
	MostDiagnostic    *SummaryEntry `json:"most_diagnostic,omitempty"`
	LargestUpdate     *SummaryEntry `json:"largest_update,omitempty"`
}

// AggregationResult is the JSON-serializable outcome of one run.
type AggregationResult struct {
	RunID                uuid.UUID          `json:"run_id"`
	TenantID             uuid.UUID          `json:"tenant_id,omitempty"`
	Hypothesis           string             `json:"hypothesis"`
	PriorBelief          float64            `json:"prior_belief"`
	FinalBelief          float64            `json:"final_belief"`
	TotalBeliefChange    float64            `json:"total_belief_change"`
	NumEvidencePieces    int                `json:"num_evidence_pieces"`
	AverageDiagnosticity float64            `json:"average_diagnosticity"`
	ConfidenceInResult   float64            `json:"confidence_in_result"`
	UpdateHistory        []BeliefUpdate     `json:"update_history"`
	Records              []EvidenceRecord   `json:"records"`
	Summary              AggregationSummary `json:"summary"`
	EarlyStop            bool               `json:"early_stop,omitempty"`
	StopDecision         *StoppingDecision  `json:"stop_decision,omitempty"`
	PartialFailure       bool               `json:"partial_failure,omitempty"`
	DegradedCount        int                `json:"degraded_count"`
	StartedAt            time.Time          `json:"started_at"`
	CompletedAt          time.Time          `json:"completed_at"`
}
