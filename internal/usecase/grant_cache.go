package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
)

const defaultRoleMapTTL = 5 * time.Minute

// CacheMetrics observes grant cache refresh outcomes.
type CacheMetrics interface {
	ObserveCacheRefresh(outcome string)
}

// RoleSnapshot is an immutable materialisation of a role's grants. Once
// published it is never mutated; a refresh swaps the whole snapshot so
// concurrent readers cannot observe a mixed-version map.
type RoleSnapshot struct {
	grants      map[domain.Mode]map[string]bool
	refreshedAt time.Time
}

// Allowed reports the stored grant for (key, mode). A mode-specific row is
// decisive; the mode=all row applies only when no mode row exists. Absence
// of any row is deny.
func (s *RoleSnapshot) Allowed(key string, mode domain.Mode) bool {
	if mode != domain.ModeAll {
		if byKey, ok := s.grants[mode]; ok {
			if allow, ok := byKey[key]; ok {
				return allow
			}
		}
	}
	if byKey, ok := s.grants[domain.ModeAll]; ok {
		if allow, ok := byKey[key]; ok {
			return allow
		}
	}
	return false
}

// RefreshedAt reports when the snapshot was loaded from the store.
func (s *RoleSnapshot) RefreshedAt() time.Time {
	return s.refreshedAt
}

type cacheEntry struct {
	snapshot    *RoleSnapshot
	invalidated bool
	// gen moves on every invalidation so an in-flight refresh that started
	// before the invalidation cannot publish its (possibly pre-edit) read.
	gen uint64
}

// GrantCache materialises per-role permission maps with time-boxed
// freshness. Reads are lock-free beyond a short RLock; refreshes for the
// same role are coalesced; invalidation forces the next read to hit the
// store while retaining the last known-good snapshot for degraded serving.
type GrantCache struct {
	store          port.GrantRepository
	policy         domain.DegradationPolicy
	ttl            time.Duration
	refreshTimeout time.Duration
	logger         *zap.Logger
	metrics        CacheMetrics

	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	entries map[domain.RoleKey]cacheEntry
}

// NewGrantCache constructs the cache. A non-positive ttl falls back to the
// five minute default.
func NewGrantCache(store port.GrantRepository, ttl time.Duration, policy domain.DegradationPolicy, logger *zap.Logger) *GrantCache {
	if ttl <= 0 {
		ttl = defaultRoleMapTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrantCache{
		store:   store,
		policy:  policy,
		ttl:     ttl,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[domain.RoleKey]cacheEntry),
	}
}

// WithMetrics attaches refresh observability.
func (c *GrantCache) WithMetrics(metrics CacheMetrics) *GrantCache {
	c.metrics = metrics
	return c
}

// WithClock overrides the cache clock for deterministic testing.
func (c *GrantCache) WithClock(clock func() time.Time) *GrantCache {
	if clock != nil {
		c.now = clock
	}
	return c
}

// WithRefreshTimeout bounds each store refresh independently of the caller
// context. Zero disables the bound.
func (c *GrantCache) WithRefreshTimeout(timeout time.Duration) *GrantCache {
	if timeout > 0 {
		c.refreshTimeout = timeout
	}
	return c
}

// RolePermissions returns a snapshot no older than the TTL, refreshing
// synchronously when needed. Concurrent refreshes for one role share a
// single store round trip.
func (c *GrantCache) RolePermissions(ctx context.Context, role domain.RoleKey) (*RoleSnapshot, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	if snapshot, ok := c.fresh(role); ok {
		return snapshot, nil
	}

	result, err, _ := c.group.Do(string(role), func() (any, error) {
		// A concurrent flight may have refreshed already.
		if snapshot, ok := c.fresh(role); ok {
			return snapshot, nil
		}
		return c.refresh(ctx, role)
	})
	if err != nil {
		return nil, err
	}

	return result.(*RoleSnapshot), nil
}

// Invalidate forces the next read of every role to hit the store.
func (c *GrantCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for role, entry := range c.entries {
		entry.invalidated = true
		entry.gen++
		c.entries[role] = entry
	}
}

// InvalidateRole forces the next read of one role to hit the store. The
// prior snapshot is retained as the degraded-mode fallback. A marker entry
// is written even for never-read roles so a refresh already in flight
// cannot publish a read that predates the invalidation.
func (c *GrantCache) InvalidateRole(role domain.RoleKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entries[role]
	entry.invalidated = true
	entry.gen++
	c.entries[role] = entry
}

func (c *GrantCache) fresh(role domain.RoleKey) (*RoleSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[role]
	if !ok || entry.invalidated || entry.snapshot == nil {
		return nil, false
	}
	if c.now().Sub(entry.snapshot.refreshedAt) >= c.ttl {
		return nil, false
	}
	return entry.snapshot, true
}

func (c *GrantCache) lastKnown(role domain.RoleKey) *RoleSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[role].snapshot
}

func (c *GrantCache) generation(role domain.RoleKey) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[role].gen
}

func (c *GrantCache) refresh(ctx context.Context, role domain.RoleKey) (*RoleSnapshot, error) {
	startGen := c.generation(role)

	if c.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()
	}

	grants, err := c.store.ListByRole(ctx, role)
	if err != nil {
		if prior := c.lastKnown(role); prior != nil && c.policy.AllowsStaleServe(domain.DegradationReasonStoreUnavailable) {
			c.observe("stale_served")
			c.logger.Warn("grant store refresh failed, serving stale snapshot",
				zap.String("role", string(role)),
				zap.Time("refreshed_at", prior.refreshedAt),
				zap.Error(err),
			)
			return prior, nil
		}

		c.observe("failure")
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: refresh role %q", domain.ErrResolutionTimeout, role)
		}
		return nil, fmt.Errorf("%w: refresh role %q: %v", domain.ErrStoreUnavailable, role, err)
	}

	snapshot := buildSnapshot(grants, c.now())

	// Publish only if no invalidation landed while the store read was in
	// flight; a moved generation means this read may predate an edit, so
	// the entry stays invalidated and the next read refreshes again.
	c.mu.Lock()
	if entry := c.entries[role]; entry.gen == startGen {
		c.entries[role] = cacheEntry{snapshot: snapshot, gen: entry.gen}
	}
	c.mu.Unlock()

	c.observe("success")
	return snapshot, nil
}

func (c *GrantCache) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveCacheRefresh(outcome)
	}
}

func buildSnapshot(grants []domain.Grant, refreshedAt time.Time) *RoleSnapshot {
	byMode := make(map[domain.Mode]map[string]bool)
	for _, grant := range grants {
		mode := grant.Mode
		if mode == "" {
			mode = domain.ModeAll
		}
		byKey, ok := byMode[mode]
		if !ok {
			byKey = make(map[string]bool)
			byMode[mode] = byKey
		}
		byKey[grant.Permission] = grant.Allow
	}
	return &RoleSnapshot{grants: byMode, refreshedAt: refreshedAt}
}
