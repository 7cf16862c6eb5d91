package port

import (
	"context"

	"github.com/taskory/admin-access/internal/core/domain"
)

// PermissionRepository reads the permission catalog rows.
type PermissionRepository interface {
	List(ctx context.Context) ([]domain.Permission, error)
}
