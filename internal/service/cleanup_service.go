package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/pkg/config"
)

type cleanupTokenStore interface {
	DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error)
}

type cleanupUserStore interface {
	DeleteStaleUnverified(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService periodically sweeps dead refresh tokens and unverified
// accounts past the retention window.
type CleanupService struct {
	tokens  cleanupTokenStore
	users   cleanupUserStore
	metrics *MetricsService
	logger  *zap.Logger
	config  config.CleanupConfig
}

// NewCleanupService constructs a CleanupService.
func NewCleanupService(tokens cleanupTokenStore, users cleanupUserStore, metrics *MetricsService, logger *zap.Logger, cfg config.CleanupConfig) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{tokens: tokens, users: users, metrics: metrics, logger: logger, config: cfg}
}

// RunOnce executes one sweep. Each deletion failure is logged and aborts the
// run; the next scheduled run retries from scratch.
func (s *CleanupService) RunOnce(ctx context.Context) error {
	now := time.Now().UTC()

	tokensSwept, err := s.tokens.DeleteExpiredOrRevoked(ctx, now)
	if err != nil {
		s.logger.Error("refresh token sweep failed", zap.Error(err))
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordCleanup("refresh_tokens", tokensSwept)
	}

	usersSwept, err := s.users.DeleteStaleUnverified(ctx, now.Add(-s.config.UnverifiedRetention))
	if err != nil {
		s.logger.Error("stale user sweep failed", zap.Error(err))
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordCleanup("users", usersSwept)
	}

	s.logger.Info("cleanup run finished",
		zap.Int64("refresh_tokens_deleted", tokensSwept),
		zap.Int64("unverified_users_deleted", usersSwept),
	)
	return nil
}

// Start runs RunOnce on the configured interval until ctx is cancelled. An
// initial sweep fires immediately so restarts do not postpone cleanup by a
// full day.
func (s *CleanupService) Start(ctx context.Context) {
	interval := s.config.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	go func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("initial cleanup run failed", zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					s.logger.Warn("scheduled cleanup run failed", zap.Error(err))
				}
			}
		}
	}()
}
