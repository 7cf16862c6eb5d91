package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
)

var (
	// ErrDuplicateGrant indicates two grant tuples target the same
	// (permission, mode) pair within one edit.
	ErrDuplicateGrant = errors.New("duplicate grant for permission and mode")
)

// GrantInput represents one grant tuple in a role-permission edit.
type GrantInput struct {
	Permission string
	Mode       domain.Mode
	Allow      bool
}

// RoleAdmin manages the role registry and role-permission edits. Every edit
// validates against the catalog, invalidates the grant cache synchronously,
// and emits an audit event.
type RoleAdmin struct {
	roles   port.RoleRepository
	grants  port.GrantRepository
	catalog *Catalog
	cache   *GrantCache
	audit   port.AuditPublisher
	logger  *zap.Logger
	now     func() time.Time
}

// NewRoleAdmin constructs a RoleAdmin.
func NewRoleAdmin(roles port.RoleRepository, grants port.GrantRepository, catalog *Catalog, cache *GrantCache, audit port.AuditPublisher, logger *zap.Logger) *RoleAdmin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleAdmin{
		roles:   roles,
		grants:  grants,
		catalog: catalog,
		cache:   cache,
		audit:   audit,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for deterministic testing.
func (s *RoleAdmin) WithClock(clock func() time.Time) *RoleAdmin {
	if clock != nil {
		s.now = clock
	}
	return s
}

// ListRoles returns all roles.
func (s *RoleAdmin) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// RolePermissions returns the stored grant tuples for a role.
func (s *RoleAdmin) RolePermissions(ctx context.Context, role domain.RoleKey) ([]domain.Grant, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	grants, err := s.grants.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list grants for role %q: %w", role, err)
	}
	return grants, nil
}

// EffectiveRoleForUser collapses a user's role assignments into the single
// role the resolver evaluates. Highest privilege wins.
func (s *RoleAdmin) EffectiveRoleForUser(ctx context.Context, userID string) (domain.RoleKey, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	assigned, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list roles for user %q: %w", userID, err)
	}

	return domain.EffectiveRole(assigned)
}

// ReplaceRolePermissions swaps the full grant set for a role. The cache
// entry is invalidated before returning so an immediately subsequent
// resolution observes the edit, and the change is published both as an
// audit fact and as an invalidation broadcast for sibling instances.
func (s *RoleAdmin) ReplaceRolePermissions(ctx context.Context, actorID string, role domain.RoleKey, inputs []GrantInput) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	grants := make([]domain.Grant, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		key := strings.TrimSpace(input.Permission)
		if err := s.catalog.Validate(key); err != nil {
			return err
		}

		mode := input.Mode
		if mode == "" {
			mode = domain.ModeAll
		}

		tuple := key + "|" + string(mode)
		if _, dup := seen[tuple]; dup {
			return fmt.Errorf("%w: %s (%s)", ErrDuplicateGrant, key, mode)
		}
		seen[tuple] = struct{}{}

		grants = append(grants, domain.Grant{
			Role:       role,
			Permission: key,
			Mode:       mode,
			Allow:      input.Allow,
		})
	}

	before, err := s.grants.ListByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("read grants before edit: %w", err)
	}

	if err := s.grants.ReplaceForRole(ctx, role, grants); err != nil {
		return fmt.Errorf("replace grants for role %q: %w", role, err)
	}

	s.cache.InvalidateRole(role)

	now := s.now()
	event := domain.RolePermissionsUpdatedEvent{
		EventID:   uuid.NewString(),
		Role:      role,
		Before:    toGrantChanges(before),
		After:     toGrantChanges(grants),
		UpdatedBy: actorID,
		UpdatedAt: now,
	}
	if err := s.audit.PublishRolePermissionsUpdated(ctx, event); err != nil {
		s.logger.Error("publish role permissions audit event failed",
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}

	invalidation := domain.CacheInvalidationEvent{
		EventID:       uuid.NewString(),
		Role:          role,
		InvalidatedAt: now,
	}
	if err := s.audit.PublishCacheInvalidation(ctx, invalidation); err != nil {
		s.logger.Error("publish cache invalidation failed",
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}

	return nil
}

func toGrantChanges(grants []domain.Grant) []domain.GrantChange {
	changes := make([]domain.GrantChange, 0, len(grants))
	for _, grant := range grants {
		changes = append(changes, domain.GrantChange{
			Permission: grant.Permission,
			Mode:       grant.Mode,
			Allow:      grant.Allow,
		})
	}
	return changes
}
