package domain

import (
	"time"

	"github.com/google/uuid"
)

type EvidenceType string

const (
	EvidencePrimarySource      EvidenceType = "primary_source"
	EvidencePeerReviewed       EvidenceType = "peer_reviewed"
	EvidenceGovernmentDocument EvidenceType = "government_document"
	EvidenceSecondarySource    EvidenceType = "secondary_source"
	EvidenceTertiarySource     EvidenceType = "tertiary_source"
	EvidenceOpinion            EvidenceType = "opinion"
	EvidenceSocialMedia        EvidenceType = "social_media"
	EvidenceUnknown            EvidenceType = "unknown"
)

func ValidEvidenceType(t string) bool {
	switch EvidenceType(t) {
	case EvidencePrimarySource, EvidencePeerReviewed, EvidenceGovernmentDocument,
		EvidenceSecondarySource, EvidenceTertiarySource, EvidenceOpinion,
		EvidenceSocialMedia, EvidenceUnknown:
		return true
	}
	return false
}

// TypeWeight returns the prior weight multiplier for an evidence type.
// Unrecognized types fall back to 0.6.
func (t EvidenceType) TypeWeight() float64 {
	switch t {
	case EvidencePrimarySource:
		return 1.0
	case EvidencePeerReviewed:
		return 0.95
	case EvidenceGovernmentDocument:
		return 0.9
	case EvidenceSecondarySource:
		return 0.7
	case EvidenceTertiarySource:
		return 0.55
	case EvidenceOpinion:
		return 0.35
	case EvidenceSocialMedia:
		return 0.3
	case EvidenceUnknown:
		return 0.5
	default:
		return 0.6
	}
}

// Evidence is a single piece of raw evidence. Immutable once created;
// it is retained read-only in the audit record after consumption.
type Evidence struct {
	ID                 uuid.UUID    `json:"id"`
	TenantID           uuid.UUID    `json:"tenant_id,omitempty"`
	Content            string       `json:"content"`
	Source             string       `json:"source"`
	Timestamp          time.Time    `json:"timestamp"`
	ClaimedReliability float64      `json:"claimed_reliability"`
	Type               EvidenceType `json:"evidence_type"`
	Domain             string       `json:"domain,omitempty"`
	Embedding          []float32    `json:"-"`
	CreatedAt          time.Time    `json:"created_at,omitempty"`
}

// Validate reports whether the evidence carries the fields the
// aggregation loop requires. A failure here is a DataError: the item
// is processed as degraded, never aborting the batch.
func (e *Evidence) Validate() error {
	if e.Content == "" {
		return &DataError{Field: "content", Detail: "content is required"}
	}
	if e.Source == "" {
		return &DataError{Field: "source", Detail: "source identifier is required"}
	}
	return nil
}

type EvidenceWithScore struct {
	Evidence
	Score float32 `json:"score"`
}
