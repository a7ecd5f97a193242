package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type EvidenceStore struct {
	db *pgxpool.Pool
}

func NewEvidenceStore(db *pgxpool.Pool) *EvidenceStore {
	return &EvidenceStore{db: db}
}

func (s *EvidenceStore) Create(ctx context.Context, e *domain.Evidence) error {
	var embedding *pgvector.Vector
	if len(e.Embedding) > 0 {
		v := pgvector.NewVector(e.Embedding)
		embedding = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO evidence (tenant_id, content, source, evidence_type, domain, claimed_reliability, observed_at, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		e.TenantID, e.Content, e.Source, e.Type, e.Domain, e.ClaimedReliability, e.Timestamp, embedding,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *EvidenceStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Evidence, error) {
	e := &domain.Evidence{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, content, source, evidence_type, domain, claimed_reliability, observed_at, created_at
		 FROM evidence WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&e.ID, &e.TenantID, &e.Content, &e.Source, &e.Type, &e.Domain, &e.ClaimedReliability, &e.Timestamp, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// FindSimilar returns stored evidence whose embedding cosine similarity
// to the query vector meets the threshold, most similar first.
func (s *EvidenceStore) FindSimilar(ctx context.Context, tenantID uuid.UUID, embedding []float32, threshold float32, limit int) ([]domain.EvidenceWithScore, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, content, source, evidence_type, domain, claimed_reliability, observed_at, created_at,
		        1 - (embedding <=> $2) AS score
		 FROM evidence
		 WHERE tenant_id = $1 AND embedding IS NOT NULL
		   AND 1 - (embedding <=> $2) >= $3
		 ORDER BY embedding <=> $2
		 LIMIT $4`,
		tenantID, vec, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similar evidence query: %w", err)
	}
	defer rows.Close()

	var results []domain.EvidenceWithScore
	for rows.Next() {
		var es domain.EvidenceWithScore
		err := rows.Scan(
			&es.ID, &es.TenantID, &es.Content, &es.Source, &es.Type,
			&es.Domain, &es.ClaimedReliability, &es.Timestamp, &es.CreatedAt,
			&es.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan similar evidence row: %w", err)
		}
		results = append(results, es)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similar evidence rows: %w", err)
	}
	return results, nil
}
