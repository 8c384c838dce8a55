package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

func testRateTable() *models.RateTable {
	return &models.RateTable{
		Base:      "SGD",
		Rates:     map[string]float64{"USD": 0.75, "MYR": 3.0},
		FetchedAt: time.Date(2025, time.May, 14, 6, 0, 0, 0, time.UTC),
	}
}

func pipelineDeals() []models.Deal {
	return []models.Deal{
		{
			Name: "Acme Expansion", Owner: "Alice Tan",
			AmountOriginal: 100000, CurrencyCode: "USD",
			ProbabilityPercent: 80, Stage: "Negotiation",
			CountryCode: "SG", CountryName: "Singapore", CountryFlag: "🇸🇬",
		},
		{
			Name: "Globex Renewal", Owner: "Alice Tan",
			AmountOriginal: 120000, CurrencyCode: "USD", ExplicitRate: 1.35,
			ProbabilityPercent: 40, Stage: "Qualification",
			CountryCode: "SG", CountryName: "Singapore", CountryFlag: "🇸🇬",
		},
		{
			Name: "Initech Rollout", Owner: "Bob Lim",
			AmountOriginal: 150000, CurrencyCode: "MYR",
			ProbabilityPercent: 90, Stage: "Negotiation",
			CountryCode: "MY", CountryName: "Malaysia", CountryFlag: "🇲🇾",
		},
	}
}

func TestAggregateHeadlineNumbers(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	summary := agg.Aggregate(pipelineDeals(), testRateTable())

	// 100000/0.75 + 120000/1.35 + 150000/3.0
	wantTotal := 100000/0.75 + 120000/1.35 + 50000.0

	assert.Equal(t, "SGD", summary.Currency)
	assert.Equal(t, 3, summary.DealCount)
	assert.InDelta(t, wantTotal, summary.GrandTotal, 1e-6)
	assert.InDelta(t, 272222.22, summary.GrandTotal, 0.01)
	assert.InDelta(t, 70.0, summary.AvgProbability, 1e-9)
	assert.InDelta(t, wantTotal/3, summary.AvgDealSize, 1e-6)
	assert.Equal(t, 0, summary.UnconvertedCount)
}

func TestAggregateCountryBreakdown(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	summary := agg.Aggregate(pipelineDeals(), testRateTable())

	assert.Len(t, summary.CountryBreakdown, 2)

	// Sorted by total value descending.
	sg := summary.CountryBreakdown[0]
	my := summary.CountryBreakdown[1]
	assert.Equal(t, "SG", sg.CountryCode)
	assert.Equal(t, "MY", my.CountryCode)

	assert.Equal(t, 2, sg.DealCount)
	assert.InDelta(t, 100000/0.75+120000/1.35, sg.TotalValue, 1e-6)
	assert.InDelta(t, 60.0, sg.AvgProbability, 1e-9)
	assert.InDelta(t, sg.TotalValue/2, sg.AvgDealSize, 1e-6)

	assert.Equal(t, 1, my.DealCount)
	assert.InDelta(t, 50000, my.TotalValue, 1e-6)

	// The country totals reconcile exactly with the grand total.
	var countrySum float64
	dealSum := 0
	for _, m := range summary.CountryBreakdown {
		countrySum += m.TotalValue
		dealSum += m.DealCount
	}
	assert.InDelta(t, summary.GrandTotal, countrySum, summary.GrandTotal*1e-6)
	assert.Equal(t, summary.DealCount, dealSum)
}

func TestAggregateManagerBreakdown(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	summary := agg.Aggregate(pipelineDeals(), testRateTable())

	assert.Len(t, summary.ManagerBreakdown, 2)

	alice := summary.ManagerBreakdown[0]
	bob := summary.ManagerBreakdown[1]
	assert.Equal(t, "Alice Tan", alice.Owner, "highest total value first")
	assert.Equal(t, "Bob Lim", bob.Owner)

	// One of Alice's two deals sits at the 80 threshold; at-threshold counts.
	assert.Equal(t, 2, alice.DealCount)
	assert.InDelta(t, 50.0, alice.WinRate, 1e-9)
	assert.InDelta(t, 60.0, alice.AvgProbability, 1e-9)

	assert.Equal(t, 1, bob.DealCount)
	assert.InDelta(t, 100.0, bob.WinRate, 1e-9)

	// Alice's nested country view covers exactly her deals.
	assert.Len(t, alice.Countries, 1)
	assert.Equal(t, "SG", alice.Countries[0].CountryCode)
	assert.InDelta(t, alice.TotalValue, alice.Countries[0].TotalValue, 1e-6)

	var managerSum float64
	for _, m := range summary.ManagerBreakdown {
		managerSum += m.TotalValue
	}
	assert.InDelta(t, summary.GrandTotal, managerSum, summary.GrandTotal*1e-6)
}

func TestAggregateStageBreakdownFirstSeenOrder(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	summary := agg.Aggregate(pipelineDeals(), testRateTable())

	assert.Equal(t, []models.StageCount{
		{Stage: "Negotiation", Count: 2},
		{Stage: "Qualification", Count: 1},
	}, summary.StageBreakdown)
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	summary := agg.Aggregate(nil, testRateTable())

	assert.Equal(t, "SGD", summary.Currency)
	assert.Equal(t, 0, summary.DealCount)
	assert.Equal(t, 0.0, summary.GrandTotal)
	assert.Equal(t, 0.0, summary.AvgProbability)
	assert.Equal(t, 0.0, summary.AvgDealSize)
	assert.NotNil(t, summary.CountryBreakdown)
	assert.Empty(t, summary.CountryBreakdown)
	assert.NotNil(t, summary.ManagerBreakdown)
	assert.Empty(t, summary.ManagerBreakdown)
	assert.NotNil(t, summary.StageBreakdown)
	assert.Empty(t, summary.StageBreakdown)
}

func TestAggregateCountsIdentityConversions(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	deals := []models.Deal{
		{Name: "exotic", Owner: "Alice Tan", AmountOriginal: 1000, CurrencyCode: "XAU",
			CountryCode: "SG", CountryName: "Singapore"},
		{Name: "plain", Owner: "Alice Tan", AmountOriginal: 2000, CurrencyCode: "SGD",
			CountryCode: "SG", CountryName: "Singapore"},
	}

	summary := agg.Aggregate(deals, testRateTable())

	assert.Equal(t, 1, summary.UnconvertedCount)
	assert.InDelta(t, 3000, summary.GrandTotal, 1e-9)
}

func TestAggregateUnknownCountryGroupUsesSentinelName(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	// Two unrecognized spellings share the sentinel code; the group must not
	// display whichever raw name happened to come first.
	deals := []models.Deal{
		{Name: "a", Owner: "Alice Tan", AmountOriginal: 1000, CurrencyCode: "SGD",
			CountryCode: "XX", CountryName: "Atlantis", CountryFlag: "🌍"},
		{Name: "b", Owner: "Alice Tan", AmountOriginal: 2000, CurrencyCode: "SGD",
			CountryCode: "XX", CountryName: "El Dorado", CountryFlag: "🌍"},
	}

	summary := agg.Aggregate(deals, testRateTable())

	assert.Len(t, summary.CountryBreakdown, 1)
	group := summary.CountryBreakdown[0]
	assert.Equal(t, "XX", group.CountryCode)
	assert.Equal(t, "Unknown", group.CountryName)
	assert.Equal(t, "🌍", group.CountryFlag)
	assert.Equal(t, 2, group.DealCount)
}

func TestAggregateDeterministic(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))
	table := testRateTable()

	first := agg.Aggregate(pipelineDeals(), table)
	second := agg.Aggregate(pipelineDeals(), table)

	assert.Equal(t, first, second)
}

func TestAggregateStableOrderForEqualTotals(t *testing.T) {
	agg := NewAggregator(NewCurrencyConverter("SGD"))

	deals := []models.Deal{
		{Name: "a", Owner: "Alice Tan", AmountOriginal: 1000, CurrencyCode: "SGD",
			CountryCode: "SG", CountryName: "Singapore"},
		{Name: "b", Owner: "Bob Lim", AmountOriginal: 1000, CurrencyCode: "SGD",
			CountryCode: "MY", CountryName: "Malaysia"},
	}

	summary := agg.Aggregate(deals, nil)

	// Equal totals keep first-seen relative order.
	assert.Equal(t, "SG", summary.CountryBreakdown[0].CountryCode)
	assert.Equal(t, "MY", summary.CountryBreakdown[1].CountryCode)
	assert.Equal(t, "Alice Tan", summary.ManagerBreakdown[0].Owner)
	assert.Equal(t, "Bob Lim", summary.ManagerBreakdown[1].Owner)
}
