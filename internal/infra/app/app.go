package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
	"github.com/taskory/admin-access/internal/infra/config"
	"github.com/taskory/admin-access/internal/infra/database"
	kafkainfra "github.com/taskory/admin-access/internal/infra/kafka"
	"github.com/taskory/admin-access/internal/infra/logger"
	redisinfra "github.com/taskory/admin-access/internal/infra/redis"
	"github.com/taskory/admin-access/internal/infra/telemetry"
	postgresrepo "github.com/taskory/admin-access/internal/repository/postgres"
	redisrepo "github.com/taskory/admin-access/internal/repository/redis"
	"github.com/taskory/admin-access/internal/transport/http/middleware"
	"github.com/taskory/admin-access/internal/transport/http/routes"
	"github.com/taskory/admin-access/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	// The catalog is loaded once at startup. Permission keys are part of
	// each deploy, so a missing catalog is a hard failure.
	catalog, err := usecase.LoadCatalog(ctx, repos.Permissions)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("load permission catalog: %w", err)
	}
	log.Info("permission catalog loaded", zap.Int("permissions", catalog.Len()))

	var audit port.AuditPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			audit = kafkainfra.NewStubPublisher(log)
		} else {
			audit = kafkainfra.NewAuditPublisher(producer, cfg.App, log)
			log.Info("kafka audit publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		audit = kafkainfra.NewStubPublisher(log)
	}

	policy := domain.NewDegradationPolicy(domain.ParseDegradationPolicyMode(cfg.Cache.DegradationPolicy))
	grantCache := usecase.NewGrantCache(repos.Grants, cfg.Cache.RoleMapTTL, policy, log).
		WithMetrics(provider).
		WithRefreshTimeout(cfg.Cache.RefreshTimeout)

	restrictionCache := redisrepo.NewRestrictionCache(redisClient.Client(), cfg.Redis.RestrictionPrefix)
	restrictionAdmin := usecase.NewRestrictionAdmin(repos.Restrictions, catalog, audit, log).
		WithCache(restrictionCache, cfg.Cache.RestrictionTTL)

	resolver := usecase.NewResolver(catalog, grantCache, restrictionAdmin, repos.Settings, log).
		WithMetrics(provider)

	roleAdmin := usecase.NewRoleAdmin(repos.Roles, repos.Grants, catalog, grantCache, audit, log)

	guard := middleware.NewPermissionGuard(resolver, audit, log)

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Guard:    guard,
		Metrics:  httpMetrics,
		Database: pool,
		Cache:    redisClient,
		Services: routes.ServiceSet{
			Catalog:      catalog,
			Resolver:     resolver,
			Roles:        roleAdmin,
			Restrictions: restrictionAdmin,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting admin access API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
