package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

func TestClassifyRateTable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	threshold := 24 * time.Hour

	tests := []struct {
		name  string
		table *models.RateTable
		want  models.RateCacheStatus
	}{
		{
			name:  "nil table is empty",
			table: nil,
			want:  models.RateCacheEmpty,
		},
		{
			name:  "just fetched is fresh",
			table: &models.RateTable{FetchedAt: now},
			want:  models.RateCacheFresh,
		},
		{
			name:  "age below threshold is fresh",
			table: &models.RateTable{FetchedAt: now.Add(-23 * time.Hour)},
			want:  models.RateCacheFresh,
		},
		{
			name:  "age exactly at threshold is still fresh",
			table: &models.RateTable{FetchedAt: now.Add(-threshold)},
			want:  models.RateCacheFresh,
		},
		{
			name:  "age beyond threshold is stale",
			table: &models.RateTable{FetchedAt: now.Add(-25 * time.Hour)},
			want:  models.RateCacheStale,
		},
		{
			name:  "days old is stale not empty",
			table: &models.RateTable{FetchedAt: now.AddDate(0, 0, -7)},
			want:  models.RateCacheStale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRateTable(tt.table, now, threshold)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribeRateCache(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	threshold := 24 * time.Hour

	t.Run("empty cache", func(t *testing.T) {
		info := DescribeRateCache(nil, now, threshold)
		assert.Equal(t, models.RateCacheEmpty, info.Status)
		assert.Equal(t, 0, info.CurrencyCount)
		assert.Equal(t, 0.0, info.AgeSeconds)
		assert.True(t, info.FetchedAt.IsZero())
	})

	t.Run("populated cache", func(t *testing.T) {
		fetchedAt := now.Add(-90 * time.Minute)
		table := &models.RateTable{
			Base:      "SGD",
			Rates:     map[string]float64{"USD": 0.74, "EUR": 0.68, "MYR": 3.3},
			FetchedAt: fetchedAt,
		}
		info := DescribeRateCache(table, now, threshold)
		assert.Equal(t, models.RateCacheFresh, info.Status)
		assert.Equal(t, 3, info.CurrencyCount)
		assert.Equal(t, 5400.0, info.AgeSeconds)
		assert.Equal(t, fetchedAt, info.FetchedAt)
	})

	t.Run("classification matches ClassifyRateTable", func(t *testing.T) {
		table := &models.RateTable{
			Rates:     map[string]float64{"USD": 0.74},
			FetchedAt: now.Add(-48 * time.Hour),
		}
		info := DescribeRateCache(table, now, threshold)
		assert.Equal(t, ClassifyRateTable(table, now, threshold), info.Status)
		assert.Equal(t, models.RateCacheStale, info.Status)
	})
}
