package domain

import (
	"fmt"
	"strings"
)

// RoleKey identifies one of the fixed admin-panel roles.
type RoleKey string

const (
	RoleSuperAdmin RoleKey = "super_admin"
	RoleAdmin      RoleKey = "admin"
	RoleModerator  RoleKey = "moderator"
	RoleTaskGiver  RoleKey = "task_giver"
	RoleTaskDoer   RoleKey = "task_doer"
)

var roleRanks = map[RoleKey]int{
	RoleSuperAdmin: 5,
	RoleAdmin:      4,
	RoleModerator:  3,
	RoleTaskGiver:  2,
	RoleTaskDoer:   1,
}

// ParseRoleKey normalises textual input into a known role key.
func ParseRoleKey(value string) (RoleKey, error) {
	key := RoleKey(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := roleRanks[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
	return key, nil
}

// Rank orders roles by privilege; higher means more privileged.
func (r RoleKey) Rank() int {
	return roleRanks[r]
}

// Valid reports whether the key belongs to the closed role set.
func (r RoleKey) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// EffectiveRole collapses multiple role assignments into the single role the
// resolver evaluates. Highest privilege wins.
func EffectiveRole(roles []RoleKey) (RoleKey, error) {
	var best RoleKey
	for _, role := range roles {
		if !role.Valid() {
			return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
		if role.Rank() > best.Rank() {
			best = role
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no role assigned", ErrUnknownRole)
	}
	return best, nil
}

// Role carries the display metadata for a role key.
type Role struct {
	Key   RoleKey
	Label string
}

// Mode scopes a grant to an operating persona.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeTaskDoer  Mode = "task_doer"
	ModeTaskGiver Mode = "task_giver"
)

// ParseMode normalises textual input into a mode, defaulting to ModeAll.
func ParseMode(value string) Mode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ModeTaskDoer):
		return ModeTaskDoer
	case string(ModeTaskGiver):
		return ModeTaskGiver
	default:
		return ModeAll
	}
}

// Permission defines a named capability keyed by "<group>.<action>".
type Permission struct {
	Key      string
	Label    string
	Group    string
	FlagPath *string
}

// Grant states whether a role may exercise a permission in a mode. Absence
// of a grant means deny.
type Grant struct {
	Role       RoleKey
	Permission string
	Mode       Mode
	Allow      bool
}

// ReasonCode explains which precedence rule produced a decision.
type ReasonCode string

const (
	ReasonSuperAdminOverride ReasonCode = "SUPER_ADMIN_OVERRIDE"
	ReasonUserRestricted     ReasonCode = "USER_RESTRICTED"
	ReasonNoGrant            ReasonCode = "NO_GRANT"
	ReasonFeatureDisabled    ReasonCode = "FEATURE_DISABLED"
	ReasonRoleGrant          ReasonCode = "ROLE_GRANT"
)

// Decision is the outcome of resolving (role, permission, mode, user).
// A negative decision is an ordinary value, not an error.
type Decision struct {
	Allow  bool
	Reason ReasonCode
}

// Actor is the authenticated identity assembled upstream from a validated
// session. The core never parses tokens.
type Actor struct {
	UserID string
	Role   RoleKey
	Mode   Mode
}
