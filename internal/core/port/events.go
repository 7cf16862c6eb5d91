package port

import (
	"context"

	"github.com/taskory/admin-access/internal/core/domain"
)

// AuditPublisher emits audit facts to the external audit collaborator.
// The core emits; it never stores audit records itself.
type AuditPublisher interface {
	PublishRolePermissionsUpdated(ctx context.Context, event domain.RolePermissionsUpdatedEvent) error
	PublishUserRestrictionsUpdated(ctx context.Context, event domain.UserRestrictionsUpdatedEvent) error
	PublishAccessDenied(ctx context.Context, event domain.AccessDeniedEvent) error
	PublishCacheInvalidation(ctx context.Context, event domain.CacheInvalidationEvent) error
}
