package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskory/admin-access/internal/core/domain"
)

// Gateway-injected identity headers. Token validation happens upstream; by
// the time a request reaches this service the gateway has already resolved
// the caller into these headers.
const (
	ActorIDHeader   = "X-Actor-Id"
	ActorRoleHeader = "X-Actor-Role"
	ActorModeHeader = "X-Actor-Mode"

	actorContextKey = "actor"
)

// ActorContext extracts the acting admin from the gateway headers and stores
// it on the request context. Requests without a resolvable actor are
// rejected before reaching any handler.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(ActorIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
			return
		}

		role, err := domain.ParseRoleKey(c.GetHeader(ActorRoleHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown actor role"})
			return
		}

		actor := domain.Actor{
			UserID: userID,
			Role:   role,
			Mode:   domain.ParseMode(c.GetHeader(ActorModeHeader)),
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// GetActor retrieves the acting admin stored by ActorContext.
func GetActor(c *gin.Context) (domain.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := value.(domain.Actor)
	return actor, ok
}
