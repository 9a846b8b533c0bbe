package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

// Report kinds stored in the cache.
const (
	ReportKindReconcile    = "reconcile"
	ReportKindCodeBackfill = "code-backfill"
)

// ReportCacheRepository abstracts persistence for maintenance reports.
type ReportCacheRepository interface {
	LoadReport(ctx context.Context, kind string, dest interface{}) error
	SaveReport(ctx context.Context, kind string, report interface{}, ttl time.Duration) error
}

// ReportCacheService keeps the last report of each maintenance kind and records cache metrics.
type ReportCacheService struct {
	repo    ReportCacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewReportCacheService constructs a report cache service.
func NewReportCacheService(repo ReportCacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *ReportCacheService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *ReportCacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Load reads the last report of kind into dest. It returns true when the cache was hit.
func (s *ReportCacheService) Load(ctx context.Context, kind string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	err := s.repo.LoadReport(ctx, kind, dest)
	if err != nil {
		s.metrics.RecordCacheLookup(false)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("report cache get failed", zap.String("kind", kind), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheLookup(true)
	return true, nil
}

// Save stores report as the last run of kind.
func (s *ReportCacheService) Save(ctx context.Context, kind string, report interface{}) error {
	if !s.Enabled() {
		return nil
	}
	start := time.Now()
	err := s.repo.SaveReport(ctx, kind, report, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("report cache set failed", zap.String("kind", kind), zap.Error(err))
	}
	return err
}
