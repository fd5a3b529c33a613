package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mizanhq/reports-backend/internal/config"
	"github.com/mizanhq/reports-backend/internal/domain"
)

const (
	reportKeyPrefix     = "reports"
	reportScanBatchSize = 100
)

// ReportCache stores rendered report payloads per (connection, report,
// filter) so repeated dashboard refreshes don't re-run tenant queries.
// Payloads are JSON round-tripped; callers pass a pointer destination.
type ReportCache interface {
	Get(ctx context.Context, key ReportKey, dest interface{}) (bool, error)
	Set(ctx context.Context, key ReportKey, value interface{}) error
	InvalidateConnection(ctx context.Context, connectionID int64) error
	InvalidateAll(ctx context.Context) error
}

// ReportKey identifies one cached report result.
type ReportKey struct {
	ConnectionID int64
	Report       string
	Filter       interface{} // nil for filterless reports
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, key ReportKey, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key.redisKey()).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode report cache: %w", err)
	}
	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, key ReportKey, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, key.redisKey(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateConnection(ctx context.Context, connectionID int64) error {
	prefix := fmt.Sprintf("%s:%d:", reportKeyPrefix, connectionID)
	return deleteKeysWithPrefix(ctx, c.client, prefix, reportScanBatchSize)
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix+":", reportScanBatchSize)
}

func (n *noopReportCache) Get(ctx context.Context, key ReportKey, dest interface{}) (bool, error) {
	return false, nil
}

func (n *noopReportCache) Set(ctx context.Context, key ReportKey, value interface{}) error {
	return nil
}

func (n *noopReportCache) InvalidateConnection(ctx context.Context, connectionID int64) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (k ReportKey) redisKey() string {
	return fmt.Sprintf("%s:%d:%s:%s", reportKeyPrefix, k.ConnectionID, k.Report, filterHash(k.Filter))
}

// filterHash builds a stable digest of the filter so semantically equal
// filters share one cache entry.
func filterHash(filter interface{}) string {
	switch f := filter.(type) {
	case nil:
		return "default"
	case domain.DebtsFilter:
		parts := []string{}
		if f.UnpaidOnly {
			parts = append(parts, "unpaid_only=1")
		}
		if f.DueToday {
			parts = append(parts, "due_today=1")
		}
		if f.DateFrom != "" {
			parts = append(parts, "date_from="+strings.TrimSpace(f.DateFrom))
		}
		if f.DateTo != "" {
			parts = append(parts, "date_to="+strings.TrimSpace(f.DateTo))
		}
		if len(parts) == 0 {
			return "default"
		}
		sort.Strings(parts)
		return shortHash(strings.Join(parts, "|"))
	default:
		raw, err := json.Marshal(filter)
		if err != nil {
			return "default"
		}
		return shortHash(string(raw))
	}
}

func shortHash(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
