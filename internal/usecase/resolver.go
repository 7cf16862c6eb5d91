package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
)

// DecisionMetrics observes resolution outcomes by reason code.
type DecisionMetrics interface {
	ObserveDecision(reason domain.ReasonCode)
}

// RestrictionSource supplies a user's restriction set with a staleness
// window measured in seconds.
type RestrictionSource interface {
	Restrictions(ctx context.Context, userID string) ([]string, error)
}

// Resolver is the single place encoding the precedence rules that combine
// role grants, per-user restrictions, and feature flags into a decision.
type Resolver struct {
	catalog      *Catalog
	cache        *GrantCache
	restrictions RestrictionSource
	settings     port.SettingsRepository
	logger       *zap.Logger
	metrics      DecisionMetrics
}

// NewResolver constructs a Resolver.
func NewResolver(catalog *Catalog, cache *GrantCache, restrictions RestrictionSource, settings port.SettingsRepository, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		catalog:      catalog,
		cache:        cache,
		restrictions: restrictions,
		settings:     settings,
		logger:       logger,
	}
}

// WithMetrics attaches decision observability.
func (r *Resolver) WithMetrics(metrics DecisionMetrics) *Resolver {
	r.metrics = metrics
	return r
}

// Resolve evaluates whether role may exercise permissionKey in mode for the
// given user. Precedence, first decisive rule wins:
//
//  1. an explicit user restriction denies, even for super_admin;
//  2. super_admin bypasses the grant table;
//  3. a grant row for (role, key, mode), falling back to (role, key, all),
//     absence meaning deny;
//  4. a configured feature flag set to false denies any granted result;
//  5. otherwise the role grant allows.
//
// Unknown permission keys and roles are configuration errors and propagate;
// they are never coerced into a denial.
func (r *Resolver) Resolve(ctx context.Context, role domain.RoleKey, permissionKey string, mode domain.Mode, userID string) (domain.Decision, error) {
	permission, err := r.catalog.Get(permissionKey)
	if err != nil {
		return domain.Decision{}, err
	}
	if !role.Valid() {
		return domain.Decision{}, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	// The restriction read happens before any grant lookup so a freshly
	// written restriction cannot be raced by an in-flight grant check.
	restricted, err := r.restrictionSet(ctx, userID)
	if err != nil {
		return domain.Decision{}, err
	}

	return r.decide(ctx, role, permission, mode, restricted, nil)
}

// ResolveMany evaluates a batch of permission keys with the guarantees of N
// sequential Resolve calls but a single restriction fetch and a single
// grant snapshot fetch.
func (r *Resolver) ResolveMany(ctx context.Context, role domain.RoleKey, permissionKeys []string, mode domain.Mode, userID string) (map[string]domain.Decision, error) {
	permissions := make([]domain.Permission, 0, len(permissionKeys))
	for _, key := range permissionKeys {
		permission, err := r.catalog.Get(key)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}

	return r.resolveSet(ctx, role, permissions, mode, userID)
}

// EffectivePermissions returns the caller's allow/deny map over the whole
// catalog. The snapshot drives UI affordance hiding only; every
// state-changing action is re-checked server-side through Resolve.
func (r *Resolver) EffectivePermissions(ctx context.Context, role domain.RoleKey, mode domain.Mode, userID string) (map[string]bool, error) {
	decisions, err := r.resolveSet(ctx, role, r.catalog.List(), mode, userID)
	if err != nil {
		return nil, err
	}

	effective := make(map[string]bool, len(decisions))
	for key, decision := range decisions {
		effective[key] = decision.Allow
	}
	return effective, nil
}

func (r *Resolver) resolveSet(ctx context.Context, role domain.RoleKey, permissions []domain.Permission, mode domain.Mode, userID string) (map[string]domain.Decision, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	restricted, err := r.restrictionSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	flagMemo := make(map[string]bool)
	decisions := make(map[string]domain.Decision, len(permissions))
	for _, permission := range permissions {
		decision, err := r.decide(ctx, role, permission, mode, restricted, flagMemo)
		if err != nil {
			return nil, err
		}
		decisions[permission.Key] = decision
	}

	return decisions, nil
}

func (r *Resolver) decide(ctx context.Context, role domain.RoleKey, permission domain.Permission, mode domain.Mode, restricted map[string]struct{}, flagMemo map[string]bool) (domain.Decision, error) {
	if _, ok := restricted[permission.Key]; ok {
		return r.finish(domain.Decision{Allow: false, Reason: domain.ReasonUserRestricted}), nil
	}

	if role == domain.RoleSuperAdmin {
		disabled, err := r.flagDisabled(ctx, permission, flagMemo)
		if err != nil {
			return domain.Decision{}, err
		}
		if disabled {
			return r.finish(domain.Decision{Allow: false, Reason: domain.ReasonFeatureDisabled}), nil
		}
		return r.finish(domain.Decision{Allow: true, Reason: domain.ReasonSuperAdminOverride}), nil
	}

	snapshot, err := r.cache.RolePermissions(ctx, role)
	if err != nil {
		return domain.Decision{}, err
	}

	if !snapshot.Allowed(permission.Key, mode) {
		return r.finish(domain.Decision{Allow: false, Reason: domain.ReasonNoGrant}), nil
	}

	disabled, err := r.flagDisabled(ctx, permission, flagMemo)
	if err != nil {
		return domain.Decision{}, err
	}
	if disabled {
		return r.finish(domain.Decision{Allow: false, Reason: domain.ReasonFeatureDisabled}), nil
	}

	return r.finish(domain.Decision{Allow: true, Reason: domain.ReasonRoleGrant}), nil
}

func (r *Resolver) restrictionSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	keys, err := r.restrictions.Restrictions(ctx, userID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: load restrictions for user %q", domain.ErrResolutionTimeout, userID)
		}
		return nil, fmt.Errorf("%w: load restrictions for user %q: %v", domain.ErrStoreUnavailable, userID, err)
	}

	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set, nil
}

// flagDisabled reports whether a configured feature flag turns the
// capability off. An absent flag means enabled; flags fail open on absence,
// unlike grants which fail closed.
func (r *Resolver) flagDisabled(ctx context.Context, permission domain.Permission, memo map[string]bool) (bool, error) {
	if permission.FlagPath == nil || *permission.FlagPath == "" {
		return false, nil
	}
	path := *permission.FlagPath

	if memo != nil {
		if disabled, ok := memo[path]; ok {
			return disabled, nil
		}
	}

	value, configured, err := r.settings.Flag(ctx, path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: read flag %q", domain.ErrResolutionTimeout, path)
		}
		return false, fmt.Errorf("%w: read flag %q: %v", domain.ErrStoreUnavailable, path, err)
	}

	disabled := configured && !value
	if memo != nil {
		memo[path] = disabled
	}
	return disabled, nil
}

func (r *Resolver) finish(decision domain.Decision) domain.Decision {
	if r.metrics != nil {
		r.metrics.ObserveDecision(decision.Reason)
	}
	return decision
}
