package port

import (
	"context"

	"github.com/taskory/admin-access/internal/core/domain"
)

// GrantRepository manages role-permission grant storage.
type GrantRepository interface {
	ListByRole(ctx context.Context, role domain.RoleKey) ([]domain.Grant, error)
	// ReplaceForRole swaps the full grant set for a role in one transaction.
	ReplaceForRole(ctx context.Context, role domain.RoleKey, grants []domain.Grant) error
}
