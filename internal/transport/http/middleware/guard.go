package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
	"github.com/taskory/admin-access/internal/usecase"
)

// PermissionGuard protects admin routes with a permission resolution. Denials
// carry the reason-specific message the panel surfaces to operators, and are
// published as audit facts.
type PermissionGuard struct {
	resolver *usecase.Resolver
	audit    port.AuditPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewPermissionGuard constructs a guard over the resolver.
func NewPermissionGuard(resolver *usecase.Resolver, audit port.AuditPublisher, logger *zap.Logger) *PermissionGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionGuard{
		resolver: resolver,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for deterministic testing.
func (g *PermissionGuard) WithClock(clock func() time.Time) *PermissionGuard {
	if clock != nil {
		g.now = clock
	}
	return g
}

// RequirePermission aborts the request unless the actor holds the named
// permission. Integrity errors surface as 500s; they are never coerced into
// a deny. A resolution timeout denies, because waiting out a slow store must
// not grant access.
func (g *PermissionGuard) RequirePermission(permissionKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
			return
		}

		decision, err := g.resolver.Resolve(c.Request.Context(), actor.Role, permissionKey, actor.Mode, actor.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrResolutionTimeout) {
				g.logger.Warn("permission resolution timed out",
					zap.String("permission", permissionKey),
					zap.String("user_id", actor.UserID),
				)
				g.deny(c, actor, permissionKey, domain.Decision{Allow: false, Reason: domain.ReasonNoGrant})
				return
			}

			g.logger.Error("permission resolution failed",
				zap.String("permission", permissionKey),
				zap.String("user_id", actor.UserID),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "permission resolution failed"})
			return
		}

		if !decision.Allow {
			g.deny(c, actor, permissionKey, decision)
			return
		}

		c.Next()
	}
}

func (g *PermissionGuard) deny(c *gin.Context, actor domain.Actor, permissionKey string, decision domain.Decision) {
	message := "insufficient permission"
	if decision.Reason == domain.ReasonFeatureDisabled {
		message = "this feature is temporarily disabled"
	}

	if g.audit != nil {
		event := domain.AccessDeniedEvent{
			EventID:    uuid.NewString(),
			UserID:     actor.UserID,
			Role:       actor.Role,
			Permission: permissionKey,
			Mode:       actor.Mode,
			Reason:     decision.Reason,
			Path:       c.FullPath(),
			DeniedAt:   g.now(),
		}
		if err := g.audit.PublishAccessDenied(c.Request.Context(), event); err != nil {
			g.logger.Warn("publish access denied event failed",
				zap.String("user_id", actor.UserID),
				zap.Error(err),
			)
		}
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":  message,
		"reason": string(decision.Reason),
	})
}
