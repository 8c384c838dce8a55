package processors

import (
	"math"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

// fallbackRates holds approximate static rates for common currencies, used
// when neither the record nor the fetched table can supply one. Values are
// units of the quoted currency per 1 SGD, same orientation as the live table.
var fallbackRates = map[string]float64{
	"USD": 0.74,
	"EUR": 0.68,
	"GBP": 0.58,
	"JPY": 110,
	"AUD": 1.12,
	"NZD": 1.22,
	"INR": 62,
	"MYR": 3.3,
	"IDR": 11800,
	"THB": 26.5,
	"PHP": 42,
	"VND": 18500,
	"CNY": 5.35,
	"HKD": 5.8,
	"TWD": 23.5,
	"KRW": 1000,
}

// CurrencyConverter converts deal amounts into the reporting currency. All
// rates are interpreted as source units per reporting unit, so a conversion
// is always amount divided by rate. The converter holds no mutable state and
// performs no rounding; formatting is a presentation concern.
type CurrencyConverter struct {
	reportingCurrency string
}

func NewCurrencyConverter(reportingCurrency string) *CurrencyConverter {
	return &CurrencyConverter{reportingCurrency: reportingCurrency}
}

// ReportingCurrency returns the currency code all conversions target.
func (c *CurrencyConverter) ReportingCurrency() string {
	return c.reportingCurrency
}

// Convert resolves a rate for the amount and applies it. Resolution order,
// first applicable wins:
//
//  1. amount already in the reporting currency: returned unchanged
//  2. a positive finite rate carried on the record itself
//  3. the fetched rate table
//  4. the built-in fallback table
//  5. identity, so the dashboard never renders a blank value
//
// The returned tier tells the caller which source satisfied the conversion;
// callers that do not need it simply discard it. A NaN amount resolves to 0
// before conversion so missing revenue stays additive, and negative amounts
// pass through with their sign intact.
func (c *CurrencyConverter) Convert(amount float64, currencyCode string, explicitRate float64, table *models.RateTable) (float64, models.RateTier) {
	if math.IsNaN(amount) {
		amount = 0
	}

	if currencyCode == c.reportingCurrency {
		return amount, models.TierReporting
	}
	if explicitRate > 0 && !math.IsInf(explicitRate, 1) {
		return amount / explicitRate, models.TierExplicit
	}
	if table != nil {
		if rate, found := table.Rates[currencyCode]; found && rate > 0 && !math.IsInf(rate, 1) {
			return amount / rate, models.TierCached
		}
	}
	if rate, found := fallbackRates[currencyCode]; found {
		return amount / rate, models.TierFallback
	}
	return amount, models.TierIdentity
}
