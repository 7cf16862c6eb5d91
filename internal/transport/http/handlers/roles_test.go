package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/usecase"
)

type roleStoreStub struct {
	roles     []domain.Role
	userRoles map[string][]domain.RoleKey
}

func (s *roleStoreStub) List(context.Context) ([]domain.Role, error) {
	return s.roles, nil
}

func (s *roleStoreStub) ListByUser(_ context.Context, userID string) ([]domain.RoleKey, error) {
	return s.userRoles[userID], nil
}

type grantStoreStub struct{}

func (grantStoreStub) ListByRole(context.Context, domain.RoleKey) ([]domain.Grant, error) {
	return nil, nil
}

func (grantStoreStub) ReplaceForRole(context.Context, domain.RoleKey, []domain.Grant) error {
	return nil
}

type auditStub struct{}

func (auditStub) PublishRolePermissionsUpdated(context.Context, domain.RolePermissionsUpdatedEvent) error {
	return nil
}

func (auditStub) PublishUserRestrictionsUpdated(context.Context, domain.UserRestrictionsUpdatedEvent) error {
	return nil
}

func (auditStub) PublishAccessDenied(context.Context, domain.AccessDeniedEvent) error {
	return nil
}

func (auditStub) PublishCacheInvalidation(context.Context, domain.CacheInvalidationEvent) error {
	return nil
}

func newRoleRouter(t *testing.T, users map[string][]domain.RoleKey) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := usecase.NewCatalog([]domain.Permission{
		{Key: "tasks.view", Label: "View tasks", Group: "tasks"},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	grants := grantStoreStub{}
	cache := usecase.NewGrantCache(grants, time.Minute, domain.NewDegradationPolicy(domain.DegradationPolicyModeStrict), zap.NewNop())
	roles := &roleStoreStub{
		roles:     []domain.Role{{Key: domain.RoleModerator, Label: "Moderator"}},
		userRoles: users,
	}
	handler := NewRoleHandler(usecase.NewRoleAdmin(roles, grants, catalog, cache, auditStub{}, zap.NewNop()))

	router := gin.New()
	router.GET("/api/v1/users/:id/role", handler.EffectiveRole)
	return router
}

func TestRoleHandler_EffectiveRolePicksHighestPrivilege(t *testing.T) {
	router := newRoleRouter(t, map[string][]domain.RoleKey{
		"u-1": {domain.RoleTaskDoer, domain.RoleModerator},
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/users/u-1/role", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var payload UserRoleResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.UserID != "u-1" || payload.Role != string(domain.RoleModerator) {
		t.Fatalf("expected moderator for u-1, got %+v", payload)
	}
}

func TestRoleHandler_EffectiveRoleWithoutAssignments(t *testing.T) {
	router := newRoleRouter(t, map[string][]domain.RoleKey{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/users/u-2/role", nil))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a user with no role assignments, got %d", recorder.Code)
	}
}
