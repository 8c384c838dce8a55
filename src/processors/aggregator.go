// src/processors/aggregator.go
package processors

import (
	"sort"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
)

// winProbabilityThreshold is the probability at or above which a deal counts
// toward an owner's win rate.
const winProbabilityThreshold = 80.0

// convertedDeal pairs a deal with its reporting-currency value for the
// duration of one aggregation call. Converting once and reusing the value in
// every breakdown keeps the country view, the manager view and the grand
// total arithmetically consistent.
type convertedDeal struct {
	deal  models.Deal
	value float64
	tier  models.RateTier
}

type aggregatorImpl struct {
	converter *CurrencyConverter
}

// NewAggregator creates a PipelineAggregator that converts amounts through
// the given converter.
func NewAggregator(converter *CurrencyConverter) PipelineAggregator {
	return &aggregatorImpl{converter: converter}
}

// Aggregate rolls a filtered deal set up into the dashboard summary: grand
// totals, headline averages, the per-country breakdown, the per-owner
// breakdown nested again by country, and stage counts in first-seen order.
// An empty input produces all-zero aggregates and empty slices, never an
// error. Repeated calls with identical inputs produce identical output.
func (a *aggregatorImpl) Aggregate(deals []models.Deal, table *models.RateTable) models.PipelineSummary {
	summary := models.PipelineSummary{
		Currency:         a.converter.ReportingCurrency(),
		CountryBreakdown: []models.CountryMetrics{},
		ManagerBreakdown: []models.AccountManagerMetrics{},
		StageBreakdown:   []models.StageCount{},
	}
	if len(deals) == 0 {
		return summary
	}

	converted := make([]convertedDeal, len(deals))
	var totalValue, probabilitySum float64
	unconverted := 0
	for i, deal := range deals {
		value, tier := a.converter.Convert(deal.AmountOriginal, deal.CurrencyCode, deal.ExplicitRate, table)
		converted[i] = convertedDeal{deal: deal, value: value, tier: tier}
		totalValue += value
		probabilitySum += deal.ProbabilityPercent
		if tier == models.TierIdentity {
			unconverted++
		}
	}

	summary.DealCount = len(deals)
	summary.GrandTotal = totalValue
	summary.AvgProbability = probabilitySum / float64(len(deals))
	summary.AvgDealSize = totalValue / float64(len(deals))
	summary.UnconvertedCount = unconverted
	summary.CountryBreakdown = countryMetricsFor(converted)
	summary.ManagerBreakdown = a.managerMetricsFor(converted)
	summary.StageBreakdown = stageCountsFor(deals)
	return summary
}

// countryMetricsFor groups a converted set by country code and computes each
// group's rollup, sorted by total value descending. The sort is stable, so
// equal totals keep their first-seen relative order. Groups with an
// unrecognized country display the Unknown sentinel name rather than the raw
// spelling of whichever member happened to come first.
func countryMetricsFor(converted []convertedDeal) []models.CountryMetrics {
	var order []string
	groups := make(map[string][]convertedDeal)
	for _, c := range converted {
		code := c.deal.CountryCode
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], c)
	}

	metrics := make([]models.CountryMetrics, 0, len(order))
	for _, code := range order {
		members := groups[code]
		m := models.CountryMetrics{
			CountryCode: code,
			CountryName: members[0].deal.CountryName,
			CountryFlag: members[0].deal.CountryFlag,
			DealCount:   len(members),
			Deals:       make([]models.Deal, 0, len(members)),
		}
		if code == utils.UnknownCountry.Code {
			m.CountryName = utils.UnknownCountry.Name
			m.CountryFlag = utils.UnknownCountry.Flag
		}
		var probabilitySum float64
		for _, c := range members {
			m.TotalValue += c.value
			probabilitySum += c.deal.ProbabilityPercent
			m.Deals = append(m.Deals, c.deal)
		}
		m.AvgProbability = probabilitySum / float64(len(members))
		m.AvgDealSize = m.TotalValue / float64(len(members))
		metrics = append(metrics, m)
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].TotalValue > metrics[j].TotalValue
	})
	return metrics
}

// managerMetricsFor groups a converted set by owner. Each owner's rollup is
// computed from their full deal set, then nested by country with the same
// computation the top-level country breakdown uses.
func (a *aggregatorImpl) managerMetricsFor(converted []convertedDeal) []models.AccountManagerMetrics {
	var order []string
	groups := make(map[string][]convertedDeal)
	for _, c := range converted {
		owner := c.deal.Owner
		if _, seen := groups[owner]; !seen {
			order = append(order, owner)
		}
		groups[owner] = append(groups[owner], c)
	}

	metrics := make([]models.AccountManagerMetrics, 0, len(order))
	for _, owner := range order {
		members := groups[owner]
		m := models.AccountManagerMetrics{
			Owner:     owner,
			DealCount: len(members),
			Deals:     make([]models.Deal, 0, len(members)),
		}
		var probabilitySum float64
		wins := 0
		for _, c := range members {
			m.TotalValue += c.value
			probabilitySum += c.deal.ProbabilityPercent
			if c.deal.ProbabilityPercent >= winProbabilityThreshold {
				wins++
			}
			m.Deals = append(m.Deals, c.deal)
		}
		m.AvgProbability = probabilitySum / float64(len(members))
		m.AvgDealSize = m.TotalValue / float64(len(members))
		m.WinRate = float64(wins) / float64(len(members)) * 100
		m.Countries = countryMetricsFor(members)
		metrics = append(metrics, m)
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].TotalValue > metrics[j].TotalValue
	})
	return metrics
}

// stageCountsFor counts deals per raw stage label, in first-seen order.
func stageCountsFor(deals []models.Deal) []models.StageCount {
	var order []string
	counts := make(map[string]int)
	for _, deal := range deals {
		if _, seen := counts[deal.Stage]; !seen {
			order = append(order, deal.Stage)
		}
		counts[deal.Stage]++
	}

	stages := make([]models.StageCount, 0, len(order))
	for _, stage := range order {
		stages = append(stages, models.StageCount{Stage: stage, Count: counts[stage]})
	}
	return stages
}
