package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TraceStore persists stopping decisions as insert-only rows keyed by
// (run_id, seq). There is no update or delete path; pruning happens
// through the runs table cascade.
type TraceStore struct {
	db *pgxpool.Pool
}

func NewTraceStore(db *pgxpool.Pool) *TraceStore {
	return &TraceStore{db: db}
}

func (s *TraceStore) Append(ctx context.Context, runID uuid.UUID, tenantID uuid.UUID, seq int, d *domain.StoppingDecision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal stopping decision: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO run_decisions (run_id, tenant_id, seq, decision, evaluated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		runID, tenantID, seq, payload, d.EvaluatedAt,
	)
	return err
}

func (s *TraceStore) GetByRunID(ctx context.Context, runID uuid.UUID, tenantID uuid.UUID) ([]domain.StoppingDecision, error) {
	rows, err := s.db.Query(ctx,
		`SELECT decision FROM run_decisions
		 WHERE run_id = $1 AND tenant_id = $2
		 ORDER BY seq ASC`,
		runID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("trace query: %w", err)
	}
	defer rows.Close()

	var decisions []domain.StoppingDecision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan trace row: %w", err)
		}
		var d domain.StoppingDecision
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("unmarshal stopping decision: %w", err)
		}
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trace rows: %w", err)
	}
	return decisions, nil
}
