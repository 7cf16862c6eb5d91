package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
)

// GrantRepository implements port.GrantRepository over PostgreSQL.
type GrantRepository struct {
	exec    pgTxExecutor
	builder squirrel.StatementBuilderType
}

// NewGrantRepository constructs a grant repository instance.
func NewGrantRepository(exec pgTxExecutor) *GrantRepository {
	return &GrantRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListByRole returns the stored grant tuples for a role.
func (r *GrantRepository) ListByRole(ctx context.Context, role domain.RoleKey) ([]domain.Grant, error) {
	stmt, args, err := r.builder.Select("permission_key", "mode", "allow").
		From("rbac.role_permissions").
		Where(squirrel.Eq{"role_key": string(role)}).
		OrderBy("permission_key ASC", "mode ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select grants sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.Grant
	for rows.Next() {
		grant := domain.Grant{Role: role}
		if err := rows.Scan(&grant.Permission, &grant.Mode, &grant.Allow); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}

	return grants, nil
}

// ReplaceForRole swaps the full grant set for a role inside one transaction
// so readers never observe a half-applied edit.
func (r *GrantRepository) ReplaceForRole(ctx context.Context, role domain.RoleKey, grants []domain.Grant) error {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace grants: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleteStmt, deleteArgs, err := r.builder.Delete("rbac.role_permissions").
		Where(squirrel.Eq{"role_key": string(role)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete grants sql: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteStmt, deleteArgs...); err != nil {
		return fmt.Errorf("delete grants: %w", err)
	}

	if len(grants) > 0 {
		insert := r.builder.Insert("rbac.role_permissions").
			Columns("role_key", "permission_key", "mode", "allow")
		for _, grant := range grants {
			insert = insert.Values(string(role), grant.Permission, string(grant.Mode), grant.Allow)
		}

		insertStmt, insertArgs, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert grants sql: %w", err)
		}

		if _, err := tx.Exec(ctx, insertStmt, insertArgs...); err != nil {
			return fmt.Errorf("insert grants: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace grants: %w", err)
	}

	return nil
}

var _ port.GrantRepository = (*GrantRepository)(nil)
