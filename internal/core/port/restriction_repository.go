package port

import (
	"context"
	"time"
)

// RestrictionRepository manages per-user permission restriction sets.
type RestrictionRepository interface {
	GetByUser(ctx context.Context, userID string) ([]string, error)
	// ReplaceForUser swaps the full restriction set for a user.
	ReplaceForUser(ctx context.Context, userID string, permissionKeys []string) error
}

// RestrictionCache keeps restriction sets close to the resolver with a TTL
// measured in seconds. Misses return repository.ErrNotFound.
type RestrictionCache interface {
	GetRestrictions(ctx context.Context, userID string) ([]string, error)
	SetRestrictions(ctx context.Context, userID string, permissionKeys []string, ttl time.Duration) error
	DeleteRestrictions(ctx context.Context, userID string) error
}
