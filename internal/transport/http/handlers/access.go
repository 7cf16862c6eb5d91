package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/transport/http/middleware"
	"github.com/taskory/admin-access/internal/usecase"
)

// AccessHandler exposes permission resolution to the admin panel.
type AccessHandler struct {
	resolver *usecase.Resolver
}

func NewAccessHandler(resolver *usecase.Resolver) *AccessHandler {
	return &AccessHandler{resolver: resolver}
}

var accessErrorCases = []ErrorCase{
	{Err: domain.ErrUnknownPermission, Status: http.StatusBadRequest, Message: "unknown permission key"},
	{Err: domain.ErrUnknownRole, Status: http.StatusBadRequest, Message: "unknown role"},
	{Err: domain.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "permission store unavailable"},
	{Err: domain.ErrResolutionTimeout, Status: http.StatusGatewayTimeout, Message: "permission resolution timed out"},
}

// Check godoc
// @Summary Resolve permissions for the calling actor
// @Description Evaluates each requested permission key against the actor's role, restrictions, and feature flags.
// @Tags Access
// @Accept json
// @Produce json
// @Param request body AccessCheckRequest true "Permission keys to resolve"
// @Success 200 {object} AccessCheckResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/access/check [post]
func (h *AccessHandler) Check(c *gin.Context) {
	if h.resolver == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "access handler not fully configured"))
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing actor identity"))
		return
	}

	var req AccessCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid access check payload"))
		return
	}

	mode := actor.Mode
	if req.Mode != "" {
		mode = domain.ParseMode(req.Mode)
	}

	decisions, err := h.resolver.ResolveMany(c.Request.Context(), actor.Role, req.Permissions, mode, actor.UserID)
	if err != nil {
		RespondWithMappedError(c, err, accessErrorCases, http.StatusInternalServerError, "permission resolution failed")
		return
	}

	payload := make(map[string]DecisionPayload, len(decisions))
	for key, decision := range decisions {
		payload[key] = DecisionPayload{
			Allow:  decision.Allow,
			Reason: string(decision.Reason),
		}
	}

	c.JSON(http.StatusOK, AccessCheckResponse{Decisions: payload})
}

// Me godoc
// @Summary Effective permissions for the calling actor
// @Description Returns the actor's full allow/deny snapshot across the permission catalog.
// @Tags Access
// @Produce json
// @Success 200 {object} EffectivePermissionsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/access/me [get]
func (h *AccessHandler) Me(c *gin.Context) {
	if h.resolver == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "access handler not fully configured"))
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing actor identity"))
		return
	}

	effective, err := h.resolver.EffectivePermissions(c.Request.Context(), actor.Role, actor.Mode, actor.UserID)
	if err != nil {
		RespondWithMappedError(c, err, accessErrorCases, http.StatusInternalServerError, "permission resolution failed")
		return
	}

	c.JSON(http.StatusOK, EffectivePermissionsResponse{
		UserID:      actor.UserID,
		Role:        string(actor.Role),
		Mode:        string(actor.Mode),
		Permissions: effective,
	})
}
