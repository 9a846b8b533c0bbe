package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

const reportKeyPrefix = "lms:maintenance:"

// ReportCacheRepository keeps the most recent maintenance run reports in Redis.
type ReportCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewReportCacheRepository constructs a cache repository. A nil client turns every call into a miss.
func NewReportCacheRepository(client *redis.Client, logger *zap.Logger) *ReportCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCacheRepository{client: client, logger: logger}
}

// ReportKey builds the Redis key for the last report of a maintenance kind.
func ReportKey(kind string) string {
	return reportKeyPrefix + kind + ":last"
}

// LoadReport unmarshals the last stored report of the kind into dest.
func (r *ReportCacheRepository) LoadReport(ctx context.Context, kind string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	key := ReportKey(kind)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal report for %s: %w", key, err)
	}
	return nil
}

// SaveReport stores the report as the last run of the kind.
func (r *ReportCacheRepository) SaveReport(ctx context.Context, kind string, report interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	key := ReportKey(kind)
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.logger.Debug("maintenance report cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}
