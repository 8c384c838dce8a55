package models

import "time"

// DateFilterKind selects how the closing-date window is computed.
type DateFilterKind string

const (
	DateFilterAll         DateFilterKind = "all" // no date restriction
	DateFilterThisMonth   DateFilterKind = "this_month"
	DateFilterThisQuarter DateFilterKind = "this_quarter"
	DateFilterThisYear    DateFilterKind = "this_year"
	DateFilterCustom      DateFilterKind = "custom"
)

// DateFilter restricts deals by closing date. Preset kinds resolve to a
// concrete half-open [start, end) window at evaluation time, so "now" is
// read fresh on every call rather than baked into the filter. Custom uses
// StartDate and EndDate directly, EndDate exclusive.
type DateFilter struct {
	Kind      DateFilterKind `json:"kind"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
}

// ProbabilityBand restricts deals to an inclusive probability range.
type ProbabilityBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultDateFilter returns the "no restriction" date filter.
func DefaultDateFilter() DateFilter {
	return DateFilter{Kind: DateFilterAll}
}

// DefaultProbabilityBand returns the "no restriction" band [0, 100].
func DefaultProbabilityBand() ProbabilityBand {
	return ProbabilityBand{Min: 0, Max: 100}
}

// FilterState is a user's persisted dashboard filter selection. It is input
// to the pipeline, never written by it.
type FilterState struct {
	DateFilter  DateFilter      `json:"date_filter"`
	Probability ProbabilityBand `json:"probability"`
}

// DefaultFilterState returns the unrestricted selection used until a user
// saves one.
func DefaultFilterState() FilterState {
	return FilterState{
		DateFilter:  DefaultDateFilter(),
		Probability: DefaultProbabilityBand(),
	}
}
