package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/clock"
	"github.com/spec-kit/aftersales-service/internal/events"
	"github.com/spec-kit/aftersales-service/internal/observability"
	"github.com/spec-kit/aftersales-service/internal/repository"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// OverdueService flips the overdue flag on open requests whose SLA
// deadline has passed. The flip happens in a single atomic update whose
// predicate includes is_overdue=false, so each request is flagged at most
// once per lifecycle and concurrent sweeps cannot double-flag.
type OverdueService struct {
	repos      repository.Repositories
	dispatcher events.Dispatcher
	clock      clock.Clock
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// OverdueDependencies bundles collaborators for the sweeper.
type OverdueDependencies struct {
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewOverdueService constructs the service.
func NewOverdueService(deps OverdueDependencies) *OverdueService {
	return &OverdueService{
		repos:      deps.Repos,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// RunOnce performs one sweep and returns how many requests were flagged.
// Scheduling is the caller's concern; the sweep itself is stateless.
func (s *OverdueService) RunOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()
	flipped, err := s.repos.Requests.MarkOverdue(ctx, now)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.metrics.RecordSweep(len(flipped))
	if len(flipped) > 0 {
		s.logger.Info("overdue sweep flagged requests", zap.Int("count", len(flipped)))
	}

	for i := range flipped {
		request := &flipped[i]
		if s.dispatcher == nil {
			continue
		}
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRequestOverdue,
			RequestID: request.ID,
			Timestamp: time.Now().UTC(),
			Payload: events.RequestOverduePayload{
				RequestNumber: request.RequestNumber,
				DepartmentID:  request.DepartmentID,
				TechnicianID:  request.AssignedTechnicianID,
				SLADueDate:    request.SLADueDate,
			},
		})
	}
	return len(flipped), nil
}
