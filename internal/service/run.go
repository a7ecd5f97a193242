package service

import (
	"context"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunService executes aggregation runs and persists their results and
// decision traces for later audit.
type RunService struct {
	controller *AggregationController
	runs       domain.RunStore
	traces     domain.TraceStore
	logger     *zap.Logger
}

func NewRunService(client domain.AssessorClient, runs domain.RunStore, traces domain.TraceStore, logger *zap.Logger) *RunService {
	return &RunService{
		controller: NewAggregationController(client, client, logger),
		runs:       runs,
		traces:     traces,
		logger:     logger,
	}
}

func (s *RunService) SetEmbeddingClient(client domain.EmbeddingClient) {
	s.controller.SetEmbeddingClient(client)
}

// Controller exposes the underlying aggregation controller so callers
// can tune concurrency and timeouts.
func (s *RunService) Controller() *AggregationController {
	return s.controller
}

// Execute runs the aggregation loop for one tenant and persists the
// result together with its full decision trace.
func (s *RunService) Execute(ctx context.Context, tenantID uuid.UUID, req RunRequest) (*domain.AggregationResult, error) {
	result, trace, err := s.controller.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	result.TenantID = tenantID

	if err := s.runs.Create(ctx, result); err != nil {
		return nil, err
	}
	for i := range trace {
		if err := s.traces.Append(ctx, result.RunID, tenantID, i, &trace[i]); err != nil {
			return nil, err
		}
	}

	s.logger.Info("run completed",
		zap.String("run_id", result.RunID.String()),
		zap.Float64("prior", result.PriorBelief),
		zap.Float64("final", result.FinalBelief),
		zap.Int("evidence", result.NumEvidencePieces),
		zap.Bool("early_stop", result.EarlyStop),
		zap.Bool("partial_failure", result.PartialFailure))

	return result, nil
}

func (s *RunService) Get(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.AggregationResult, error) {
	return s.runs.GetByID(ctx, id, tenantID)
}

func (s *RunService) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.AggregationResult, error) {
	return s.runs.ListByTenant(ctx, tenantID, limit)
}

func (s *RunService) Trace(ctx context.Context, runID uuid.UUID, tenantID uuid.UUID) ([]domain.StoppingDecision, error) {
	return s.traces.GetByRunID(ctx, runID, tenantID)
}
