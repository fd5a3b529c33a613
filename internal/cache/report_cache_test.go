package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizanhq/reports-backend/internal/domain"
)

func TestRedisKeyFilterless(t *testing.T) {
	key := ReportKey{ConnectionID: 42, Report: "required_items"}
	assert.Equal(t, "reports:42:required_items:default", key.redisKey())
}

func TestRedisKeyEmptyFilterMatchesFilterless(t *testing.T) {
	bare := ReportKey{ConnectionID: 7, Report: "debts"}
	zero := ReportKey{ConnectionID: 7, Report: "debts", Filter: domain.DebtsFilter{}}
	assert.Equal(t, bare.redisKey(), zero.redisKey())
}

func TestFilterHashIsStable(t *testing.T) {
	a := filterHash(domain.DebtsFilter{UnpaidOnly: true, DateFrom: "2026-01-01"})
	b := filterHash(domain.DebtsFilter{UnpaidOnly: true, DateFrom: "2026-01-01"})
	assert.Equal(t, a, b)
}

func TestFilterHashDistinguishesFilters(t *testing.T) {
	unpaid := filterHash(domain.DebtsFilter{UnpaidOnly: true})
	dueToday := filterHash(domain.DebtsFilter{DueToday: true})
	assert.NotEqual(t, unpaid, dueToday)

	ranged := filterHash(domain.DebtsFilter{DateFrom: "2026-01-01", DateTo: "2026-02-01"})
	assert.NotEqual(t, unpaid, ranged)
}

func TestNoopCacheNeverHits(t *testing.T) {
	c := NewNoopReportCache()
	ctx := context.Background()
	key := ReportKey{ConnectionID: 1, Report: "low_stock"}

	require.NoError(t, c.Set(ctx, key, []string{"anything"}))

	var dest []string
	hit, err := c.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, dest)
}
