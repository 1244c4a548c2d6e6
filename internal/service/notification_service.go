package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/events"
	"github.com/spec-kit/aftersales-service/internal/persistence"
	"github.com/spec-kit/aftersales-service/internal/repository"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// NotificationService turns domain events into per-user notification rows.
// Recipient resolution happens here; delivery to external channels does
// not. Creation is best-effort: failures are logged and never propagated
// to the operation that emitted the event.
type NotificationService struct {
	repos      repository.Repositories
	dispatcher events.Dispatcher
	cache      *persistence.Redis
	logger     *zap.Logger
	retention  time.Duration
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Cache      *persistence.Redis
	Logger     *zap.Logger
	Retention  time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	retention := deps.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &NotificationService{
		repos:      deps.Repos,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     deps.Logger,
		retention:  retention,
	}
}

// RegisterHandlers subscribes to the domain events that fan out.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleRequestCreated)
	n.dispatcher.Subscribe(events.EventRequestAssigned, n.handleRequestAssigned)
	n.dispatcher.Subscribe(events.EventRequestStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventRequestOverdue, n.handleRequestOverdue)
	n.dispatcher.Subscribe(events.EventPartConsumed, n.handlePartConsumed)
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestCreatedPayload)
	if !ok {
		return nil
	}
	recipients := n.resolveRecipients(ctx, []domain.Role{domain.RoleDepartmentManager}, &payload.DepartmentID)
	n.notify(ctx, recipients, &event.RequestID, domain.NotificationRequestCreated,
		fmt.Sprintf("New request #%d", payload.RequestNumber),
		fmt.Sprintf("A new service request #%d was received in your department", payload.RequestNumber))
	return nil
}

func (n *NotificationService) handleRequestAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestAssignedPayload)
	if !ok {
		return nil
	}
	n.notify(ctx, []string{payload.NewTechnicianID}, &event.RequestID, domain.NotificationRequestAssigned,
		"Request assigned to you",
		"A service request has been assigned to you")
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestStatusChangedPayload)
	if !ok {
		return nil
	}
	// keep the technician informed of moves they did not make themselves
	if payload.TechnicianID == nil || *payload.TechnicianID == event.ActorID {
		return nil
	}
	n.notify(ctx, []string{*payload.TechnicianID}, &event.RequestID, domain.NotificationStatusChanged,
		"Request status changed",
		fmt.Sprintf("Request moved from %s to %s", payload.OldStatus, payload.NewStatus))
	return nil
}

func (n *NotificationService) handleRequestOverdue(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestOverduePayload)
	if !ok {
		return nil
	}
	recipients := n.resolveRecipients(ctx, []domain.Role{domain.RoleDepartmentManager}, &payload.DepartmentID)
	if payload.TechnicianID != nil {
		recipients = append(recipients, *payload.TechnicianID)
	}
	n.notify(ctx, recipients, &event.RequestID, domain.NotificationRequestOverdue,
		fmt.Sprintf("Request #%d overdue", payload.RequestNumber),
		fmt.Sprintf("Request #%d passed its SLA deadline (%s)", payload.RequestNumber, payload.SLADueDate.Format(time.RFC3339)))
	return nil
}

func (n *NotificationService) handlePartConsumed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PartConsumedPayload)
	if !ok {
		return nil
	}
	if payload.RemainingQuantity > payload.MinQuantity {
		return nil
	}
	recipients := n.resolveRecipients(ctx, []domain.Role{domain.RoleWarehouseKeeper}, nil)
	n.notify(ctx, recipients, nil, domain.NotificationLowStock,
		fmt.Sprintf("Low stock: %s", payload.SparePartName),
		fmt.Sprintf("Spare part %s is down to %d units (reorder threshold %d)",
			payload.SparePartName, payload.RemainingQuantity, payload.MinQuantity))
	return nil
}

// resolveRecipients maps a role set and optional department scope to the
// concrete set of active user ids, deduplicated.
func (n *NotificationService) resolveRecipients(ctx context.Context, roles []domain.Role, departmentID *string) []string {
	users, err := n.repos.Users.ListActiveByRoles(ctx, roles, departmentID)
	if err != nil {
		n.logger.Warn("recipient resolution failed", zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids
}

// notify creates one notification row per unique recipient. Errors are
// logged and swallowed.
func (n *NotificationService) notify(ctx context.Context, userIDs []string, requestID *string, notificationType domain.NotificationType, title, message string) {
	seen := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		notification := &domain.Notification{
			UserID:    userID,
			RequestID: requestID,
			Title:     title,
			Message:   message,
			Type:      notificationType,
		}
		if err := n.repos.Notifications.Create(ctx, notification); err != nil {
			n.logger.Warn("notification create failed",
				zap.String("user_id", userID),
				zap.String("type", string(notificationType)),
				zap.Error(err))
			continue
		}
		n.bumpUnreadCache(ctx, userID, 1)
	}
}

// ListForUser returns notifications owned by the user.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	result, err := n.repos.Notifications.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// MarkRead marks one notification read; only the owner succeeds.
func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := n.repos.Notifications.MarkRead(ctx, notificationID, userID); err != nil {
		return apperrors.MapError(notFoundOr(err, "notification", map[string]any{"notification_id": notificationID}))
	}
	n.invalidateUnreadCache(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := n.repos.Notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	n.invalidateUnreadCache(ctx, userID)
	return count, nil
}

// UnreadCount returns the number of unread notifications, served from the
// cache when possible.
func (n *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if cached, ok := n.readUnreadCache(ctx, userID); ok {
		return cached, nil
	}
	count, err := n.repos.Notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	n.writeUnreadCache(ctx, userID, count)
	return count, nil
}

// CleanupExpired deletes read notifications older than the retention
// horizon and returns how many rows were removed.
func (n *NotificationService) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-n.retention)
	count, err := n.repos.Notifications.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if count > 0 {
		n.logger.Info("notification retention cleanup", zap.Int64("deleted", count))
	}
	return count, nil
}

const unreadCacheTTL = 5 * time.Minute

func unreadCacheKey(userID string) string {
	return "notifications:unread:" + userID
}

func (n *NotificationService) readUnreadCache(ctx context.Context, userID string) (int64, bool) {
	if n.cache == nil || n.cache.Client == nil {
		return 0, false
	}
	count, err := n.cache.Client.Get(ctx, unreadCacheKey(userID)).Int64()
	if err != nil {
		return 0, false
	}
	return count, true
}

func (n *NotificationService) writeUnreadCache(ctx context.Context, userID string, count int64) {
	if n.cache == nil || n.cache.Client == nil {
		return
	}
	if err := n.cache.Client.Set(ctx, unreadCacheKey(userID), count, unreadCacheTTL).Err(); err != nil {
		n.logger.Debug("unread cache write failed", zap.Error(err))
	}
}

func (n *NotificationService) bumpUnreadCache(ctx context.Context, userID string, delta int64) {
	if n.cache == nil || n.cache.Client == nil {
		return
	}
	if err := n.cache.Client.IncrBy(ctx, unreadCacheKey(userID), delta).Err(); err != nil {
		n.logger.Debug("unread cache bump failed", zap.Error(err))
	}
}

func (n *NotificationService) invalidateUnreadCache(ctx context.Context, userID string) {
	if n.cache == nil || n.cache.Client == nil {
		return
	}
	if err := n.cache.Client.Del(ctx, unreadCacheKey(userID)).Err(); err != nil {
		n.logger.Debug("unread cache invalidation failed", zap.Error(err))
	}
}
