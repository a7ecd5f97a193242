package domain

import (
	"context"

	"github.com/google/uuid"
)

// QualityAssessor judges raw evidence quality. Implementations may
// time out or fail; callers recover with neutral defaults.
type QualityAssessor interface {
	AssessQuality(ctx context.Context, ev *Evidence) (*QualityAssessment, error)
}

// LikelihoodEstimator estimates the likelihood pair of a piece of
// evidence under a hypothesis and its negation.
type LikelihoodEstimator interface {
	EstimateLikelihood(ctx context.Context, ev *Evidence, hypothesis string) (*LikelihoodAssessment, error)
}

// AssessorClient is the full external assessor collaborator.
type AssessorClient interface {
	QualityAssessor
	LikelihoodEstimator
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Tenant, error)
}

type RunStore interface {
	Create(ctx context.Context, r *AggregationResult) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*AggregationResult, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]AggregationResult, error)
	DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// TraceStore persists the append-only decision trace of a run.
// Rows are insert-only; there is no update or delete by design of the
// audit contract (retention pruning removes whole runs, traces follow
// by cascade).
type TraceStore interface {
	Append(ctx context.Context, runID uuid.UUID, tenantID uuid.UUID, seq int, d *StoppingDecision) error
	GetByRunID(ctx context.Context, runID uuid.UUID, tenantID uuid.UUID) ([]StoppingDecision, error)
}

type EvidenceStore interface {
	Create(ctx context.Context, e *Evidence) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*Evidence, error)
	FindSimilar(ctx context.Context, tenantID uuid.UUID, embedding []float32, threshold float32, limit int) ([]EvidenceWithScore, error)
}
