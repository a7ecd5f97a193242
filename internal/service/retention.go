package service

import (
	"context"
	"sync"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"go.uber.org/zap"
)

const defaultRetentionInterval = 6 * time.Hour

// RetentionService prunes persisted runs older than the configured
// retention period on a background schedule. Decision-trace rows
// follow their run by cascade, so the audit record of a retained run
// is never partially deleted.
type RetentionService struct {
	runs   domain.RunStore
	logger *zap.Logger

	RetentionDays int
	interval      time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

func NewRetentionService(runs domain.RunStore, retentionDays int, logger *zap.Logger) *RetentionService {
	return &RetentionService{
		runs:          runs,
		logger:        logger,
		RetentionDays: retentionDays,
		interval:      defaultRetentionInterval,
		stopCh:        make(chan struct{}),
	}
}

func (s *RetentionService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs retention pruning on a periodic schedule in a background
// goroutine. A non-positive retention period disables pruning.
func (s *RetentionService) Start() {
	if s.RetentionDays <= 0 {
		s.logger.Info("run retention disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("run retention started",
			zap.Int("retention_days", s.RetentionDays),
			zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := s.RunOnce(ctx); err != nil {
					s.logger.Error("run retention pass failed", zap.Error(err))
				}
				cancel()
			case <-s.stopCh:
				s.logger.Info("run retention stopped")
				return
			}
		}
	}()
}

func (s *RetentionService) Stop() {
	if s.RetentionDays <= 0 {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
}

func (s *RetentionService) RunOnce(ctx context.Context) error {
	deleted, err := s.runs.DeleteOlderThan(ctx, s.RetentionDays)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned expired runs", zap.Int64("deleted", deleted))
	}
	return nil
}
