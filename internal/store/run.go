package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunStore persists completed aggregation runs. The hot query columns
// are lifted out of the result; the full audit record lives in a JSONB
// column so history and per-record assessments survive verbatim.
type RunStore struct {
	db *pgxpool.Pool
}

func NewRunStore(db *pgxpool.Pool) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Create(ctx context.Context, r *domain.AggregationResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO runs (id, tenant_id, hypothesis, prior_belief, final_belief, early_stop, partial_failure, result, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.RunID, r.TenantID, r.Hypothesis, r.PriorBelief, r.FinalBelief,
		r.EarlyStop, r.PartialFailure, payload, r.StartedAt, r.CompletedAt,
	)
	return err
}

func (s *RunStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.AggregationResult, error) {
	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT result FROM runs WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r := &domain.AggregationResult{}
	if err := json.Unmarshal(payload, r); err != nil {
		return nil, fmt.Errorf("unmarshal run result: %w", err)
	}
	return r, nil
}

func (s *RunStore) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.AggregationResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT result FROM runs WHERE tenant_id = $1
		 ORDER BY completed_at DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs query: %w", err)
	}
	defer rows.Close()

	var results []domain.AggregationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		var r domain.AggregationResult
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("unmarshal run result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs rows: %w", err)
	}
	return results, nil
}

// DeleteOlderThan prunes runs completed more than retentionDays ago.
// Decision trace rows follow by cascade.
func (s *RunStore) DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM runs WHERE completed_at < NOW() - ($1 * INTERVAL '1 day')`,
		retentionDays,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
