package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
)

// StubPublisher logs audit events instead of sending them to Kafka. Useful
// for development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly audit publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishRolePermissionsUpdated logs rbac.role.permissions.updated events.
func (p *StubPublisher) PublishRolePermissionsUpdated(_ context.Context, event domain.RolePermissionsUpdatedEvent) error {
	payload := map[string]any{
		"role":       event.Role,
		"before":     event.Before,
		"after":      event.After,
		"updated_by": event.UpdatedBy,
		"updated_at": event.UpdatedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent(eventRolePermissionsUpdated, "", event.UpdatedAt, payload)
	return nil
}

// PublishUserRestrictionsUpdated logs rbac.user.restrictions.updated events.
func (p *StubPublisher) PublishUserRestrictionsUpdated(_ context.Context, event domain.UserRestrictionsUpdatedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"before":     event.Before,
		"after":      event.After,
		"updated_by": event.UpdatedBy,
		"updated_at": event.UpdatedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent(eventUserRestrictionsUpdate, event.UserID, event.UpdatedAt, payload)
	return nil
}

// PublishAccessDenied logs rbac.access.denied events.
func (p *StubPublisher) PublishAccessDenied(_ context.Context, event domain.AccessDeniedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"role":       event.Role,
		"permission": event.Permission,
		"mode":       event.Mode,
		"reason":     event.Reason,
		"path":       event.Path,
		"denied_at":  event.DeniedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent(eventAccessDenied, event.UserID, event.DeniedAt, payload)
	return nil
}

// PublishCacheInvalidation logs rbac.cache.invalidated events.
func (p *StubPublisher) PublishCacheInvalidation(_ context.Context, event domain.CacheInvalidationEvent) error {
	payload := map[string]any{
		"role":           event.Role,
		"user_id":        event.UserID,
		"invalidated_at": event.InvalidatedAt,
	}
	p.logEvent(eventCacheInvalidated, event.UserID, event.InvalidatedAt, payload)
	return nil
}

var _ port.AuditPublisher = (*StubPublisher)(nil)
