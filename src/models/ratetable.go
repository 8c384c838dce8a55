package models

import "time"

// RateTable is an immutable snapshot of exchange rates against the reporting
// currency. Each value is expressed as units of the quoted currency per one
// unit of the reporting currency. A nil *RateTable means no table has been
// fetched yet; staleness is always derived from FetchedAt at read time, the
// snapshot itself never expires in place.
type RateTable struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// RateCacheStatus classifies a rate table snapshot by age.
type RateCacheStatus string

const (
	RateCacheFresh RateCacheStatus = "fresh"
	RateCacheStale RateCacheStatus = "stale"
	RateCacheEmpty RateCacheStatus = "empty"
)

// RateCacheInfo is the classification plus display details served by the
// rate status endpoint. FetchedAt is the zero value while the cache is empty.
type RateCacheInfo struct {
	Status        RateCacheStatus `json:"status"`
	CurrencyCount int             `json:"currency_count"`
	AgeSeconds    float64         `json:"age_seconds"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// RateTier identifies which source satisfied a currency conversion.
// TierIdentity marks the last-resort 1:1 degradation; callers that badge
// deals as "unconverted" should key on it alone.
type RateTier string

const (
	TierReporting RateTier = "reporting" // amount was already in the reporting currency
	TierExplicit  RateTier = "explicit"  // rate carried on the record itself
	TierCached    RateTier = "cached"    // rate from the fetched table
	TierFallback  RateTier = "fallback"  // built-in approximate rate
	TierIdentity  RateTier = "identity"  // no rate found, amount passed through 1:1
)

// RateAPIResponse is the JSON shape returned by the exchange-rate API's
// /latest endpoint.
type RateAPIResponse struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Timestamp int64              `json:"timestamp"`
}
