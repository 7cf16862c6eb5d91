package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PermissionPayload describes one catalog entry.
type PermissionPayload struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Group    string  `json:"group"`
	FlagPath *string `json:"flag_path,omitempty"`
}

// PermissionListResponse wraps the full permission catalog, grouped for the
// admin panel's matrix view.
type PermissionListResponse struct {
	Permissions []PermissionPayload `json:"permissions"`
	Total       int                 `json:"total"`
}

// RolePayload summarizes a role.
type RolePayload struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// RoleListResponse wraps the fixed role set.
type RoleListResponse struct {
	Roles []RolePayload `json:"roles"`
}

// GrantPayload describes one grant tuple on a role.
type GrantPayload struct {
	Permission string `json:"permission" binding:"required"`
	Mode       string `json:"mode"`
	Allow      bool   `json:"allow"`
}

// RolePermissionsResponse returns a role's grant set.
type RolePermissionsResponse struct {
	Role   string         `json:"role"`
	Grants []GrantPayload `json:"grants"`
}

// RolePermissionsUpdateRequest replaces a role's full grant set.
type RolePermissionsUpdateRequest struct {
	Grants []GrantPayload `json:"grants" binding:"required"`
}

// UserRoleResponse reports the single highest-privilege role resolved from
// a user's role assignments.
type UserRoleResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// RestrictionsResponse returns a user's restricted permission keys.
type RestrictionsResponse struct {
	UserID       string   `json:"user_id"`
	Restrictions []string `json:"restrictions"`
}

// RestrictionsUpdateRequest replaces a user's full restriction set.
type RestrictionsUpdateRequest struct {
	Restrictions []string `json:"restrictions" binding:"required"`
}

// AccessCheckRequest asks for decisions on one or more permission keys for
// the calling actor.
type AccessCheckRequest struct {
	Permissions []string `json:"permissions" binding:"required,min=1"`
	Mode        string   `json:"mode"`
}

// DecisionPayload carries one allow/deny outcome with its reason code.
type DecisionPayload struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`
}

// AccessCheckResponse maps each requested permission key to its decision.
type AccessCheckResponse struct {
	Decisions map[string]DecisionPayload `json:"decisions"`
}

// EffectivePermissionsResponse is the actor's full snapshot, keyed by
// permission, used by the panel to render its navigation in one round trip.
type EffectivePermissionsResponse struct {
	UserID      string          `json:"user_id"`
	Role        string          `json:"role"`
	Mode        string          `json:"mode"`
	Permissions map[string]bool `json:"permissions"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
