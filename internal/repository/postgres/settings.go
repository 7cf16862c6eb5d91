package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/taskory/admin-access/internal/core/port"
)

// SettingsRepository reads feature flags from the system_settings table.
// Writes go through a settings surface external to this service.
type SettingsRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSettingsRepository constructs a settings repository instance.
func NewSettingsRepository(exec pgExecutor) *SettingsRepository {
	return &SettingsRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Flag resolves a dotted flag path. The first segment selects the settings
// row, the remaining segments walk its JSON value. An absent row, path, or
// non-boolean leaf reports the flag as unconfigured.
func (r *SettingsRepository) Flag(ctx context.Context, path string) (bool, bool, error) {
	segments := strings.Split(strings.TrimSpace(path), ".")
	if len(segments) < 2 || segments[0] == "" {
		return false, false, fmt.Errorf("invalid flag path %q", path)
	}

	stmt, args, err := r.builder.Select("value").
		From("rbac.system_settings").
		Where(squirrel.Eq{"key": segments[0]}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, false, fmt.Errorf("build select setting sql: %w", err)
	}

	var raw []byte
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("scan setting %q: %w", segments[0], err)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, false, fmt.Errorf("decode setting %q: %w", segments[0], err)
	}

	for _, segment := range segments[1:] {
		node, ok := value.(map[string]any)
		if !ok {
			return false, false, nil
		}
		value, ok = node[segment]
		if !ok {
			return false, false, nil
		}
	}

	flag, ok := value.(bool)
	if !ok {
		return false, false, nil
	}

	return flag, true, nil
}

var _ port.SettingsRepository = (*SettingsRepository)(nil)
