package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/events"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

type notificationFixture struct {
	store      *memStore
	svc        *NotificationService
	dispatcher events.Dispatcher
	dept       *domain.Department
	manager    *domain.User
	technician *domain.User
	keeper     *domain.User
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	store := newMemStore()
	dispatcher := events.NewInMemoryDispatcher()

	dept := store.addDepartment("electronics")
	f := &notificationFixture{
		store:      store,
		dispatcher: dispatcher,
		dept:       dept,
		manager:    store.addUser(domain.RoleDepartmentManager, &dept.ID),
		technician: store.addUser(domain.RoleTechnician, &dept.ID),
		keeper:     store.addUser(domain.RoleWarehouseKeeper, nil),
	}
	f.svc = NewNotificationService(NotificationDependencies{
		Repos:      store.repos(),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Retention:  30 * 24 * time.Hour,
	})
	f.svc.RegisterHandlers()
	return f
}

func (f *notificationFixture) inboxOf(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	inbox, err := f.svc.ListForUser(context.Background(), userID, false, 50, 0)
	require.NoError(t, err)
	return inbox
}

func TestRequestCreatedNotifiesDepartmentManagers(t *testing.T) {
	f := newNotificationFixture(t)
	otherDept := f.store.addDepartment("appliances")
	otherManager := f.store.addUser(domain.RoleDepartmentManager, &otherDept.ID)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRequestCreated,
		RequestID: uuid.NewString(),
		ActorID:   f.technician.ID,
		Payload: events.RequestCreatedPayload{
			RequestNumber: 1001,
			DepartmentID:  f.dept.ID,
		},
	})
	require.NoError(t, err)

	inbox := f.inboxOf(t, f.manager.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationRequestCreated, inbox[0].Type)
	assert.Empty(t, f.inboxOf(t, otherManager.ID), "other departments stay quiet")
	assert.Empty(t, f.inboxOf(t, f.technician.ID))
}

func TestAssignedNotifiesNewTechnician(t *testing.T) {
	f := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRequestAssigned,
		RequestID: uuid.NewString(),
		ActorID:   f.manager.ID,
		Payload: events.RequestAssignedPayload{
			DepartmentID:    f.dept.ID,
			NewTechnicianID: f.technician.ID,
		},
	})
	require.NoError(t, err)

	inbox := f.inboxOf(t, f.technician.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationRequestAssigned, inbox[0].Type)
}

func TestStatusChangeSkipsActingTechnician(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	// technician moved the request themselves, no self-notification
	err := f.dispatcher.Publish(ctx, events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventRequestStatusChanged,
		ActorID: f.technician.ID,
		Payload: events.RequestStatusChangedPayload{
			TechnicianID: &f.technician.ID,
			OldStatus:    domain.RequestStatusAssigned,
			NewStatus:    domain.RequestStatusUnderInspection,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, f.inboxOf(t, f.technician.ID))

	// a manager moving it does notify the technician
	err = f.dispatcher.Publish(ctx, events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventRequestStatusChanged,
		ActorID: f.manager.ID,
		Payload: events.RequestStatusChangedPayload{
			TechnicianID: &f.technician.ID,
			OldStatus:    domain.RequestStatusUnderInspection,
			NewStatus:    domain.RequestStatusInRepair,
		},
	})
	require.NoError(t, err)
	assert.Len(t, f.inboxOf(t, f.technician.ID), 1)
}

func TestOverdueNotifiesManagersAndTechnicianOnce(t *testing.T) {
	f := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		ID:   uuid.NewString(),
		Type: events.EventRequestOverdue,
		Payload: events.RequestOverduePayload{
			RequestNumber: 1002,
			DepartmentID:  f.dept.ID,
			TechnicianID:  &f.technician.ID,
			SLADueDate:    time.Now().UTC(),
		},
	})
	require.NoError(t, err)

	assert.Len(t, f.inboxOf(t, f.manager.ID), 1)
	assert.Len(t, f.inboxOf(t, f.technician.ID), 1)
}

func TestLowStockNotifiesWarehouseKeepers(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	// above threshold, no signal
	err := f.dispatcher.Publish(ctx, events.Event{
		ID:   uuid.NewString(),
		Type: events.EventPartConsumed,
		Payload: events.PartConsumedPayload{
			SparePartName:     "capacitor",
			RemainingQuantity: 5,
			MinQuantity:       2,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, f.inboxOf(t, f.keeper.ID))

	err = f.dispatcher.Publish(ctx, events.Event{
		ID:   uuid.NewString(),
		Type: events.EventPartConsumed,
		Payload: events.PartConsumedPayload{
			SparePartName:     "capacitor",
			RemainingQuantity: 2,
			MinQuantity:       2,
		},
	})
	require.NoError(t, err)

	inbox := f.inboxOf(t, f.keeper.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationLowStock, inbox[0].Type)
}

func TestMarkReadEnforcesOwnership(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	err := f.dispatcher.Publish(ctx, events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventRequestAssigned,
		ActorID: f.manager.ID,
		Payload: events.RequestAssignedPayload{NewTechnicianID: f.technician.ID},
	})
	require.NoError(t, err)

	inbox := f.inboxOf(t, f.technician.ID)
	require.Len(t, inbox, 1)

	err = f.svc.MarkRead(ctx, f.manager.ID, inbox[0].ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"), "non-owner cannot mark read")

	require.NoError(t, f.svc.MarkRead(ctx, f.technician.ID, inbox[0].ID))
	count, err := f.svc.UnreadCount(ctx, f.technician.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllRead(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := f.dispatcher.Publish(ctx, events.Event{
			ID:      uuid.NewString(),
			Type:    events.EventRequestAssigned,
			ActorID: f.manager.ID,
			Payload: events.RequestAssignedPayload{NewTechnicianID: f.technician.ID},
		})
		require.NoError(t, err)
	}

	marked, err := f.svc.MarkAllRead(ctx, f.technician.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	unread, err := f.svc.ListForUser(ctx, f.technician.ID, true, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestCleanupExpiredDeletesOnlyOldReadRows(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	oldRead := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    f.technician.ID,
		Title:     "old",
		Type:      domain.NotificationStatusChanged,
		IsRead:    true,
		CreatedAt: now.Add(-40 * 24 * time.Hour),
	}
	oldUnread := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    f.technician.ID,
		Title:     "old unread",
		Type:      domain.NotificationStatusChanged,
		CreatedAt: now.Add(-40 * 24 * time.Hour),
	}
	freshRead := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    f.technician.ID,
		Title:     "fresh",
		Type:      domain.NotificationStatusChanged,
		IsRead:    true,
		CreatedAt: now.Add(-1 * 24 * time.Hour),
	}
	f.store.mu.Lock()
	for _, n := range []*domain.Notification{oldRead, oldUnread, freshRead} {
		f.store.notifications[n.ID] = n
	}
	f.store.mu.Unlock()

	deleted, err := f.svc.CleanupExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining := f.inboxOf(t, f.technician.ID)
	assert.Len(t, remaining, 2)
}
