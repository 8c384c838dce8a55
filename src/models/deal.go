// src/models/deal.go
package models

import "time"

// RawDealRecord is a loosely-typed deal as supplied by a record source.
// Key spellings differ between sources ("Deal Name" from file uploads,
// "Deal_Name" from CRM sync), so the field resolver probes alias lists
// instead of fixed keys. Values are strings, numbers or absent; a source
// never supplies two different types for the same concept.
type RawDealRecord map[string]any

// Deal is the canonical representation of one pipeline opportunity.
// Each record source is responsible for producing RawDealRecords; the field
// resolver turns those into Deals, filling every attribute with a documented
// default when the source omits it. A Deal is immutable once resolved.
type Deal struct {
	// --- Identity ---
	ID     string `json:"id"`
	Source string `json:"source"`
	HashId string `json:"hash_id"`

	// --- Descriptive fields ---
	Name        string `json:"name"`
	AccountName string `json:"account_name"`
	Owner       string `json:"owner"` // "Unassigned" when the record carried none

	// --- Monetary fields ---
	AmountOriginal float64 `json:"amount_original"` // Source currency units
	CurrencyCode   string  `json:"currency_code"`   // Reporting currency code when absent
	ExplicitRate   float64 `json:"explicit_rate"`   // Source units per reporting unit; 0 when the record carried none

	// --- Pipeline fields ---
	ProbabilityPercent float64   `json:"probability_percent"` // 0-100, missing -> 0
	Stage              string    `json:"stage"`
	ClosingDate        time.Time `json:"closing_date"` // Zero value when the record carried none

	// --- Fields derived by the resolver ---
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	CountryFlag string `json:"country_flag"`
}

// HasClosingDate reports whether the source record carried a closing date.
func (d Deal) HasClosingDate() bool {
	return !d.ClosingDate.IsZero()
}
