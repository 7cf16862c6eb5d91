package port

import (
	"context"

	"github.com/taskory/admin-access/internal/core/domain"
)

// RoleRepository reads the fixed role set and user role assignments.
type RoleRepository interface {
	List(ctx context.Context) ([]domain.Role, error)
	ListByUser(ctx context.Context, userID string) ([]domain.RoleKey, error)
}
