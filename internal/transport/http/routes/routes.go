package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/infra/config"
	"github.com/taskory/admin-access/internal/transport/http/handlers"
	"github.com/taskory/admin-access/internal/transport/http/middleware"
	"github.com/taskory/admin-access/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Catalog      *usecase.Catalog
	Resolver     *usecase.Resolver
	Roles        *usecase.RoleAdmin
	Restrictions *usecase.RestrictionAdmin
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Guard    *middleware.PermissionGuard
	Metrics  *middleware.HTTPMetrics
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware. Every
// /api/v1 route requires a gateway-resolved actor; catalog editing routes
// additionally require the rbac.manage permission.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.Metrics.Handler())

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.ActorContext())
	{
		manage := func() gin.HandlerFunc {
			if deps.Guard == nil {
				return func(c *gin.Context) { c.Next() }
			}
			return deps.Guard.RequirePermission("rbac.manage")
		}()

		permissionHandler := handlers.NewPermissionHandler(deps.Services.Catalog)
		api.GET("/permissions", permissionHandler.List)

		roleHandler := handlers.NewRoleHandler(deps.Services.Roles)
		rolesGroup := api.Group("/roles")
		rolesGroup.GET("", roleHandler.List)
		rolesGroup.GET("/:role/permissions", roleHandler.Permissions)
		rolesGroup.PUT("/:role/permissions", manage, roleHandler.ReplacePermissions)

		restrictionHandler := handlers.NewRestrictionHandler(deps.Services.Restrictions)
		usersGroup := api.Group("/users")
		usersGroup.GET("/:id/role", roleHandler.EffectiveRole)
		usersGroup.GET("/:id/restrictions", restrictionHandler.Get)
		usersGroup.PUT("/:id/restrictions", manage, restrictionHandler.Replace)

		accessHandler := handlers.NewAccessHandler(deps.Services.Resolver)
		accessGroup := api.Group("/access")
		accessGroup.POST("/check", accessHandler.Check)
		accessGroup.GET("/me", accessHandler.Me)
	}

	return r
}
