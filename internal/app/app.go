// Package app wires repositories and services for the API server and the maintenance CLI.
package app

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/cache"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/database"
)

// Container holds the shared connections and services.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService

	Sections  *service.SectionService
	Reconcile *service.ReconcileService
}

// Open connects to Postgres (required) and Redis (only when the report cache is enabled) and builds the services.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Reconcile.CacheEnabled {
		rdb, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("report cache disabled: redis unavailable", zap.Error(err))
			rdb = nil
		}
	}

	c := &Container{Config: cfg, Logger: logger, DB: db, Redis: rdb, Metrics: service.NewMetricsService()}
	c.build()
	return c, nil
}

func (c *Container) build() {
	sectionRepo := repository.NewSectionRepository(c.DB)
	enrollmentRepo := repository.NewEnrollmentRepository(c.DB)

	codes := service.NewEnrollmentCodeGenerator(sectionRepo, c.Config.Sections.CodeMaxAttempts, nil, c.Metrics, c.Logger.Named("codes"))

	var reports *service.ReportCacheService
	if c.Redis != nil {
		reports = service.NewReportCacheService(
			repository.NewReportCacheRepository(c.Redis, c.Logger),
			c.Metrics,
			c.Config.Reconcile.ReportTTL,
			c.Logger,
			c.Config.Reconcile.CacheEnabled,
		)
	}

	c.Sections = service.NewSectionService(sectionRepo, codes, c.Config.Sections.DefaultCapacity, nil, c.Logger.Named("sections"))
	c.Reconcile = service.NewReconcileService(sectionRepo, enrollmentRepo, codes, reports, c.Metrics,
		service.SectionDefaults{Name: c.Config.Sections.DefaultName, Capacity: c.Config.Sections.DefaultCapacity},
		c.Logger.Named("reconcile"))
}

// Close releases the connections.
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
