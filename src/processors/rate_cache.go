package processors

import (
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

// ClassifyRateTable classifies a rate snapshot by age. Absence of a table is
// a first-class state, not an error: nil classifies as empty. Staleness is a
// pure function of the supplied clock, so the refresh collaborator and the
// conversion engine can never disagree about a table's state.
func ClassifyRateTable(table *models.RateTable, now time.Time, staleThreshold time.Duration) models.RateCacheStatus {
	if table == nil {
		return models.RateCacheEmpty
	}
	if now.Sub(table.FetchedAt) > staleThreshold {
		return models.RateCacheStale
	}
	return models.RateCacheFresh
}

// DescribeRateCache builds the status payload served to the dashboard. It
// applies the exact classification rule of ClassifyRateTable.
func DescribeRateCache(table *models.RateTable, now time.Time, staleThreshold time.Duration) models.RateCacheInfo {
	info := models.RateCacheInfo{
		Status: ClassifyRateTable(table, now, staleThreshold),
	}
	if table == nil {
		return info
	}
	info.CurrencyCount = len(table.Rates)
	info.AgeSeconds = now.Sub(table.FetchedAt).Seconds()
	info.FetchedAt = table.FetchedAt
	return info
}
