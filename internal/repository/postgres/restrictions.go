package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/taskory/admin-access/internal/core/port"
)

// RestrictionRepository implements port.RestrictionRepository over PostgreSQL.
type RestrictionRepository struct {
	exec    pgTxExecutor
	builder squirrel.StatementBuilderType
}

// NewRestrictionRepository constructs a restriction repository instance.
func NewRestrictionRepository(exec pgTxExecutor) *RestrictionRepository {
	return &RestrictionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByUser returns the user's restricted permission keys. An empty result
// is an empty set, not an error.
func (r *RestrictionRepository) GetByUser(ctx context.Context, userID string) ([]string, error) {
	stmt, args, err := r.builder.Select("permission_key").
		From("rbac.user_restricted_permissions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("permission_key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select restrictions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query restrictions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan restriction: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restrictions: %w", err)
	}

	return keys, nil
}

// ReplaceForUser swaps the full restriction set for a user in one transaction.
func (r *RestrictionRepository) ReplaceForUser(ctx context.Context, userID string, permissionKeys []string) error {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace restrictions: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleteStmt, deleteArgs, err := r.builder.Delete("rbac.user_restricted_permissions").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete restrictions sql: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteStmt, deleteArgs...); err != nil {
		return fmt.Errorf("delete restrictions: %w", err)
	}

	if len(permissionKeys) > 0 {
		insert := r.builder.Insert("rbac.user_restricted_permissions").
			Columns("user_id", "permission_key")
		for _, key := range permissionKeys {
			insert = insert.Values(userID, key)
		}

		insertStmt, insertArgs, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert restrictions sql: %w", err)
		}

		if _, err := tx.Exec(ctx, insertStmt, insertArgs...); err != nil {
			return fmt.Errorf("insert restrictions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace restrictions: %w", err)
	}

	return nil
}

var _ port.RestrictionRepository = (*RestrictionRepository)(nil)
