package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
	"github.com/taskory/admin-access/internal/repository"
)

const defaultRestrictionTTL = 10 * time.Second

// RestrictionAdmin manages per-user permission restrictions. Restrictions
// can only narrow what a role grants, never widen it, and their staleness
// window is kept to seconds: the cache TTL is short and every write drops
// the cached entry before returning.
type RestrictionAdmin struct {
	store  port.RestrictionRepository
	cache  port.RestrictionCache
	ttl    time.Duration
	audit  port.AuditPublisher
	logger *zap.Logger
	now    func() time.Time

	catalog *Catalog
}

// NewRestrictionAdmin constructs a RestrictionAdmin.
func NewRestrictionAdmin(store port.RestrictionRepository, catalog *Catalog, audit port.AuditPublisher, logger *zap.Logger) *RestrictionAdmin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestrictionAdmin{
		store:   store,
		catalog: catalog,
		audit:   audit,
		logger:  logger,
		ttl:     defaultRestrictionTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithCache attaches the short-TTL restriction cache.
func (s *RestrictionAdmin) WithCache(cache port.RestrictionCache, ttl time.Duration) *RestrictionAdmin {
	s.cache = cache
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// WithClock overrides the clock for deterministic testing.
func (s *RestrictionAdmin) WithClock(clock func() time.Time) *RestrictionAdmin {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Restrictions returns the user's restricted permission keys, read through
// the short-TTL cache. A cache failure falls back to the store; the store
// is the source of truth.
func (s *RestrictionAdmin) Restrictions(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetRestrictions(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("restriction cache read failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	keys, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load restrictions for user %q: %w", userID, err)
	}
	if keys == nil {
		keys = []string{}
	}

	if s.cache != nil {
		if err := s.cache.SetRestrictions(ctx, userID, keys, s.ttl); err != nil {
			s.logger.Warn("restriction cache write failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return keys, nil
}

// ReplaceRestrictions swaps the user's full restriction set. Every key is
// validated against the catalog, the cached entry is dropped before
// returning, and the before/after sets are published as an audit fact.
func (s *RestrictionAdmin) ReplaceRestrictions(ctx context.Context, actorID, userID string, permissionKeys []string) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	normalized := make([]string, 0, len(permissionKeys))
	seen := make(map[string]struct{}, len(permissionKeys))
	for _, key := range permissionKeys {
		key = strings.TrimSpace(key)
		if err := s.catalog.Validate(key); err != nil {
			return err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	sort.Strings(normalized)

	before, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("read restrictions before edit: %w", err)
	}

	if err := s.store.ReplaceForUser(ctx, userID, normalized); err != nil {
		return fmt.Errorf("replace restrictions for user %q: %w", userID, err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteRestrictions(ctx, userID); err != nil {
			// The short TTL bounds the staleness window if the drop fails.
			s.logger.Error("restriction cache invalidation failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	event := domain.UserRestrictionsUpdatedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		Before:    before,
		After:     normalized,
		UpdatedBy: actorID,
		UpdatedAt: s.now(),
	}
	if err := s.audit.PublishUserRestrictionsUpdated(ctx, event); err != nil {
		s.logger.Error("publish restriction audit event failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return nil
}

var _ RestrictionSource = (*RestrictionAdmin)(nil)
