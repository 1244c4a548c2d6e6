package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/events"
	"github.com/spec-kit/aftersales-service/internal/observability"
	"github.com/spec-kit/aftersales-service/internal/sla"
)

type overdueFixture struct {
	*requestFixture
	overdue *OverdueService
	metrics *observability.Metrics
}

func newOverdueFixture(t *testing.T) *overdueFixture {
	t.Helper()
	base := newRequestFixture(t)
	metrics := observability.NewMetrics()
	return &overdueFixture{
		requestFixture: base,
		metrics:        metrics,
		overdue: NewOverdueService(OverdueDependencies{
			Repos:      base.store.repos(),
			Dispatcher: base.dispatcher,
			Clock:      base.clk,
			Metrics:    metrics,
			Logger:     zap.NewNop(),
		}),
	}
}

func TestSweepFlagsPastDueRequests(t *testing.T) {
	f := newOverdueFixture(t)
	request := f.createRequest(t, domain.WarrantyStatusUnderWarranty, domain.ExecutionMethodWorkshop)

	// not yet due
	flipped, err := f.overdue.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, flipped)

	f.clk.Advance(169 * time.Hour)
	flipped, err = f.overdue.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	stored, err := f.store.repos().Requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOverdue)
	require.Len(t, f.dispatcher.published(events.EventRequestOverdue), 1)

	runs, flips := f.metrics.SweepStats()
	assert.Equal(t, int64(2), runs)
	assert.Equal(t, int64(1), flips)
}

func TestSweepFlagsEachRequestOnce(t *testing.T) {
	f := newOverdueFixture(t)
	f.createRequest(t, domain.WarrantyStatusUnderWarranty, domain.ExecutionMethodWorkshop)

	f.clk.Advance(200 * time.Hour)
	flipped, err := f.overdue.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	// second sweep finds nothing new and emits no duplicate events
	flipped, err = f.overdue.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, flipped)
	assert.Len(t, f.dispatcher.published(events.EventRequestOverdue), 1)
}

func TestSweepSkipsCompletedAndClosed(t *testing.T) {
	f := newOverdueFixture(t)
	completed := f.createRequest(t, domain.WarrantyStatusUnderWarranty, domain.ExecutionMethodWorkshop)
	completed = f.moveTo(t, completed, domain.RequestStatusCompleted)
	closed := f.createRequest(t, domain.WarrantyStatusUnderWarranty, domain.ExecutionMethodWorkshop)
	closed = f.moveTo(t, closed, domain.RequestStatusClosed)

	f.clk.Advance(400 * time.Hour)
	flipped, err := f.overdue.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, flipped)

	for _, id := range []string{completed.ID, closed.ID} {
		stored, err := f.store.repos().Requests.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, stored.IsOverdue)
	}
}

func TestOverdueFlagSurvivesCompletion(t *testing.T) {
	f := newOverdueFixture(t)
	request := f.createRequest(t, domain.WarrantyStatusUnderWarranty, domain.ExecutionMethodWorkshop)

	f.clk.Advance(200 * time.Hour)
	_, err := f.overdue.RunOnce(context.Background())
	require.NoError(t, err)

	request = f.moveTo(t, request, domain.RequestStatusCompleted)
	assert.True(t, request.IsOverdue, "overdue flag is frozen once set")
}

func TestSweepUsesConfiguredDeadline(t *testing.T) {
	f := newOverdueFixture(t)
	// on-site out-of-warranty deadline is 288h
	f.createRequest(t, domain.WarrantyStatusOutOfWarranty, domain.ExecutionMethodOnSite)

	f.clk.Advance(time.Duration(sla.DefaultConfig().OutOfWarrantyHours) * time.Hour)
	flipped, err := f.overdue.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, flipped, "buffer hours still remaining")

	f.clk.Advance(49 * time.Hour)
	flipped, err = f.overdue.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)
}
