package domain

import "time"

// GrantChange records one grant tuple touched by a role-permission edit.
type GrantChange struct {
	Permission string
	Mode       Mode
	Allow      bool
}

// RolePermissionsUpdatedEvent represents the payload for
// rbac.role.permissions.updated messages.
type RolePermissionsUpdatedEvent struct {
	EventID   string
	Role      RoleKey
	Before    []GrantChange
	After     []GrantChange
	UpdatedBy string
	UpdatedAt time.Time
	Metadata  map[string]any
}

// UserRestrictionsUpdatedEvent represents the payload for
// rbac.user.restrictions.updated messages. Before and after carry the full
// restriction sets so the audit trail is self-contained.
type UserRestrictionsUpdatedEvent struct {
	EventID   string
	UserID    string
	Before    []string
	After     []string
	UpdatedBy string
	UpdatedAt time.Time
	Metadata  map[string]any
}

// AccessDeniedEvent represents the payload for rbac.access.denied messages,
// emitted by the request guard when a resolution denies an action.
type AccessDeniedEvent struct {
	EventID    string
	UserID     string
	Role       RoleKey
	Permission string
	Mode       Mode
	Reason     ReasonCode
	Path       string
	DeniedAt   time.Time
	Metadata   map[string]any
}

// CacheInvalidationEvent represents the payload for rbac.cache.invalidated
// messages, broadcast after grant or restriction writes so sibling instances
// drop their local snapshots.
type CacheInvalidationEvent struct {
	EventID string
	// Role is empty when the whole permission cache must be dropped.
	Role RoleKey
	// UserID is set when a user's restriction cache entry must be dropped.
	UserID        string
	InvalidatedAt time.Time
}
