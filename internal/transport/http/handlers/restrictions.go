package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/transport/http/middleware"
	"github.com/taskory/admin-access/internal/usecase"
)

// RestrictionHandler serves per-user restriction overrides.
type RestrictionHandler struct {
	restrictions *usecase.RestrictionAdmin
}

func NewRestrictionHandler(restrictions *usecase.RestrictionAdmin) *RestrictionHandler {
	return &RestrictionHandler{restrictions: restrictions}
}

var restrictionErrorCases = []ErrorCase{
	{Err: domain.ErrUnknownPermission, Status: http.StatusBadRequest, Message: "unknown permission key"},
	{Err: domain.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "permission store unavailable"},
}

// Get godoc
// @Summary Get a user's restrictions
// @Description Returns the permission keys withheld from the user regardless of role grants.
// @Tags Restrictions
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} RestrictionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/restrictions [get]
func (h *RestrictionHandler) Get(c *gin.Context) {
	if h.restrictions == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "restriction handler not fully configured"))
		return
	}

	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id is required"))
		return
	}

	keys, err := h.restrictions.Restrictions(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, restrictionErrorCases, http.StatusInternalServerError, "failed to load restrictions")
		return
	}

	c.JSON(http.StatusOK, RestrictionsResponse{
		UserID:       userID,
		Restrictions: keys,
	})
}

// Replace godoc
// @Summary Replace a user's restrictions
// @Description Swaps the user's full restriction set and records an audit fact. An empty set clears all restrictions.
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body RestrictionsUpdateRequest true "Replacement restriction set"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/restrictions [put]
func (h *RestrictionHandler) Replace(c *gin.Context) {
	if h.restrictions == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "restriction handler not fully configured"))
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing actor identity"))
		return
	}

	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id is required"))
		return
	}

	var req RestrictionsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid restriction payload"))
		return
	}

	if err := h.restrictions.ReplaceRestrictions(c.Request.Context(), actor.UserID, userID, req.Restrictions); err != nil {
		RespondWithMappedError(c, err, restrictionErrorCases, http.StatusInternalServerError, "failed to replace restrictions")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "restrictions updated"})
}
