package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskory/admin-access/internal/usecase"
)

// PermissionHandler serves the permission catalog.
type PermissionHandler struct {
	catalog *usecase.Catalog
}

func NewPermissionHandler(catalog *usecase.Catalog) *PermissionHandler {
	return &PermissionHandler{catalog: catalog}
}

// List godoc
// @Summary List the permission catalog
// @Description Returns every known permission with its group and optional feature flag binding.
// @Tags Permissions
// @Produce json
// @Success 200 {object} PermissionListResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "permission handler not fully configured"))
		return
	}

	permissions := h.catalog.List()
	payload := make([]PermissionPayload, 0, len(permissions))
	for _, permission := range permissions {
		payload = append(payload, PermissionPayload{
			Key:      permission.Key,
			Label:    permission.Label,
			Group:    permission.Group,
			FlagPath: permission.FlagPath,
		})
	}

	c.JSON(http.StatusOK, PermissionListResponse{
		Permissions: payload,
		Total:       len(payload),
	})
}
