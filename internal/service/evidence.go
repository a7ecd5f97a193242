package service

import (
	"context"
	"errors"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrEvidenceContentEmpty = errors.New("evidence content is empty")

// EvidenceService stores raw evidence for reuse across runs, with an
// embedding for similarity lookup when a provider is configured.
type EvidenceService struct {
	store    domain.EvidenceStore
	embedder domain.EmbeddingClient
	logger   *zap.Logger
}

func NewEvidenceService(store domain.EvidenceStore, embedder domain.EmbeddingClient, logger *zap.Logger) *EvidenceService {
	return &EvidenceService{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Ingest validates and stores one evidence item. Embedding failures
// are not fatal: the item is stored without a vector and skips
// similarity lookup.
func (s *EvidenceService) Ingest(ctx context.Context, ev *domain.Evidence) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	if s.embedder != nil {
		embedding, err := s.embedder.Embed(ctx, ev.Content)
		if err != nil {
			s.logger.Warn("evidence embedding failed",
				zap.String("source", ev.Source),
				zap.Error(err))
		} else {
			ev.Embedding = embedding
		}
	}

	return s.store.Create(ctx, ev)
}

func (s *EvidenceService) Get(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Evidence, error) {
	return s.store.GetByID(ctx, id, tenantID)
}

// FindSimilar embeds the query text and returns stored evidence above
// the similarity threshold.
func (s *EvidenceService) FindSimilar(ctx context.Context, tenantID uuid.UUID, text string, threshold float32, limit int) ([]domain.EvidenceWithScore, error) {
	if text == "" {
		return nil, ErrEvidenceContentEmpty
	}
	if s.embedder == nil {
		return nil, errors.New("no embedding provider configured")
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.store.FindSimilar(ctx, tenantID, embedding, threshold, limit)
}
