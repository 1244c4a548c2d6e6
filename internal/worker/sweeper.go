package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/config"
	"github.com/spec-kit/aftersales-service/internal/service"
)

// Sweeper triggers the overdue sweep and notification retention cleanup on
// a fixed interval. The sweep logic itself lives in the services; this is
// only the scheduler.
type Sweeper struct {
	overdue       *service.OverdueService
	notifications *service.NotificationService
	cfg           config.SweeperConfig
	logger        *zap.Logger
}

// NewSweeper builds the worker.
func NewSweeper(overdue *service.OverdueService, notifications *service.NotificationService, cfg config.SweeperConfig, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		overdue:       overdue,
		notifications: notifications,
		cfg:           cfg,
		logger:        logger,
	}
}

// Run loops until ctx is cancelled. An immediate first sweep runs before
// the ticker starts.
func (w *Sweeper) Run(ctx context.Context) {
	w.tick(ctx)

	ticker := time.NewTicker(w.cfg.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Sweeper) tick(ctx context.Context) {
	if w.overdue != nil {
		if _, err := w.overdue.RunOnce(ctx); err != nil {
			w.logger.Error("overdue sweep failed", zap.Error(err))
		}
	}
	if w.notifications != nil {
		if _, err := w.notifications.CleanupExpired(ctx, time.Now().UTC()); err != nil {
			w.logger.Error("notification cleanup failed", zap.Error(err))
		}
	}
}

// StartNotificationWorker registers notification handlers on the
// dispatcher so fan-out happens after service transactions commit.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
