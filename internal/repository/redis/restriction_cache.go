package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/taskory/admin-access/internal/core/port"
	"github.com/taskory/admin-access/internal/repository"
)

const defaultRestrictionPrefix = "rbac:restrictions"

// RestrictionCache keeps per-user restriction sets close to the resolver.
// Restrictions are a security control, so the TTL stays in seconds and every
// write path deletes the entry before returning.
type RestrictionCache struct {
	client *red.Client
	prefix string
}

// NewRestrictionCache constructs the restriction cache helper.
func NewRestrictionCache(client *red.Client, keyPrefix string) *RestrictionCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRestrictionPrefix
	}

	return &RestrictionCache{client: client, prefix: prefix}
}

// GetRestrictions fetches the cached restriction set. A cached empty set is
// distinct from a miss.
func (c *RestrictionCache) GetRestrictions(ctx context.Context, userID string) ([]string, error) {
	key := c.key(userID)
	if key == "" {
		return nil, fmt.Errorf("user id is required")
	}

	result, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get restrictions: %w", err)
	}

	if result == "" {
		return []string{}, nil
	}

	return strings.Split(result, ","), nil
}

// SetRestrictions stores the restriction set with TTL.
func (c *RestrictionCache) SetRestrictions(ctx context.Context, userID string, permissionKeys []string, ttl time.Duration) error {
	key := c.key(userID)
	if key == "" {
		return fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	payload := strings.Join(permissionKeys, ",")
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set restrictions: %w", err)
	}

	return nil
}

// DeleteRestrictions removes the cached restriction entry.
func (c *RestrictionCache) DeleteRestrictions(ctx context.Context, userID string) error {
	key := c.key(userID)
	if key == "" {
		return fmt.Errorf("user id is required")
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete restrictions: %w", err)
	}

	return nil
}

func (c *RestrictionCache) key(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.prefix, userID)
}

var _ port.RestrictionCache = (*RestrictionCache)(nil)
