package processors

import (
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

// DealResolver turns loosely-typed source records into canonical deals.
// Resolve never fails; malformed attributes fall back to documented defaults.
type DealResolver interface {
	Resolve(raw models.RawDealRecord) models.Deal
	ResolveAll(source string, raws []models.RawDealRecord) []models.Deal
}

// PipelineAggregator produces the dashboard rollups from a filtered deal set.
// The rate table is read-only to the aggregation; callers hand in whatever
// snapshot is current and the converter degrades through its tiers when the
// snapshot cannot serve a currency.
type PipelineAggregator interface {
	Aggregate(deals []models.Deal, table *models.RateTable) models.PipelineSummary
}
