package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/transport/http/middleware"
	"github.com/taskory/admin-access/internal/usecase"
)

// RoleHandler serves the role registry and role-permission editing.
type RoleHandler struct {
	roles *usecase.RoleAdmin
}

func NewRoleHandler(roles *usecase.RoleAdmin) *RoleHandler {
	return &RoleHandler{roles: roles}
}

var roleErrorCases = []ErrorCase{
	{Err: domain.ErrUnknownRole, Status: http.StatusNotFound, Message: "unknown role"},
	{Err: domain.ErrUnknownPermission, Status: http.StatusBadRequest, Message: "unknown permission key"},
	{Err: usecase.ErrDuplicateGrant, Status: http.StatusBadRequest, Message: "duplicate grant tuple"},
	{Err: domain.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "permission store unavailable"},
}

// List godoc
// @Summary List roles
// @Description Returns the fixed set of admin panel roles.
// @Tags Roles
// @Produce json
// @Success 200 {object} RoleListResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	if h.roles == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "role handler not fully configured"))
		return
	}

	roles, err := h.roles.ListRoles(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to list roles")
		return
	}

	payload := make([]RolePayload, 0, len(roles))
	for _, role := range roles {
		payload = append(payload, RolePayload{
			Key:   string(role.Key),
			Label: role.Label,
		})
	}

	c.JSON(http.StatusOK, RoleListResponse{Roles: payload})
}

// Permissions godoc
// @Summary Get a role's grant set
// @Description Returns the grant tuples persisted for the role.
// @Tags Roles
// @Produce json
// @Param role path string true "Role key"
// @Success 200 {object} RolePermissionsResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles/{role}/permissions [get]
func (h *RoleHandler) Permissions(c *gin.Context) {
	if h.roles == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "role handler not fully configured"))
		return
	}

	role, err := domain.ParseRoleKey(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "unknown role"))
		return
	}

	grants, err := h.roles.RolePermissions(c.Request.Context(), role)
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to load role permissions")
		return
	}

	payload := make([]GrantPayload, 0, len(grants))
	for _, grant := range grants {
		payload = append(payload, GrantPayload{
			Permission: grant.Permission,
			Mode:       string(grant.Mode),
			Allow:      grant.Allow,
		})
	}

	c.JSON(http.StatusOK, RolePermissionsResponse{
		Role:   string(role),
		Grants: payload,
	})
}

// EffectiveRole godoc
// @Summary Get a user's effective role
// @Description Collapses the user's role assignments into the single highest-privilege role.
// @Tags Roles
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} UserRoleResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/role [get]
func (h *RoleHandler) EffectiveRole(c *gin.Context) {
	if h.roles == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "role handler not fully configured"))
		return
	}

	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id is required"))
		return
	}

	role, err := h.roles.EffectiveRoleForUser(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to resolve user role")
		return
	}

	c.JSON(http.StatusOK, UserRoleResponse{
		UserID: userID,
		Role:   string(role),
	})
}

// ReplacePermissions godoc
// @Summary Replace a role's grant set
// @Description Swaps the role's full grant set, invalidates the permission cache, and records an audit fact.
// @Tags Roles
// @Accept json
// @Produce json
// @Param role path string true "Role key"
// @Param request body RolePermissionsUpdateRequest true "Replacement grant set"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles/{role}/permissions [put]
func (h *RoleHandler) ReplacePermissions(c *gin.Context) {
	if h.roles == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "role handler not fully configured"))
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing actor identity"))
		return
	}

	role, err := domain.ParseRoleKey(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "unknown role"))
		return
	}

	var req RolePermissionsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid grant payload"))
		return
	}

	inputs := make([]usecase.GrantInput, 0, len(req.Grants))
	for _, grant := range req.Grants {
		key := strings.TrimSpace(grant.Permission)
		if key == "" {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "permission key cannot be empty"))
			return
		}
		inputs = append(inputs, usecase.GrantInput{
			Permission: key,
			Mode:       domain.ParseMode(grant.Mode),
			Allow:      grant.Allow,
		})
	}

	if err := h.roles.ReplaceRolePermissions(c.Request.Context(), actor.UserID, role, inputs); err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to replace role permissions")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role permissions updated"})
}
