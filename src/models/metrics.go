package models

// CountryMetrics is the per-country rollup of a deal set, carrying the member
// deals for drill-down. Recomputed on every aggregation call, never persisted.
type CountryMetrics struct {
	CountryCode    string  `json:"country_code"`
	CountryName    string  `json:"country_name"`
	CountryFlag    string  `json:"country_flag"`
	DealCount      int     `json:"deal_count"`
	TotalValue     float64 `json:"total_value"`
	AvgProbability float64 `json:"avg_probability"`
	AvgDealSize    float64 `json:"avg_deal_size"`
	Deals          []Deal  `json:"deals"`
}

// AccountManagerMetrics is the per-owner rollup, nested again by country.
// WinRate is the share of the owner's deals at probability >= 80, in percent.
type AccountManagerMetrics struct {
	Owner          string           `json:"owner"`
	DealCount      int              `json:"deal_count"`
	TotalValue     float64          `json:"total_value"`
	AvgProbability float64          `json:"avg_probability"`
	AvgDealSize    float64          `json:"avg_deal_size"`
	WinRate        float64          `json:"win_rate"`
	Countries      []CountryMetrics `json:"countries"`
	Deals          []Deal           `json:"deals"`
}

// StageCount pairs a raw stage label with its deal count. Kept as a slice
// rather than a map so first-seen order survives JSON encoding.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// PipelineSummary is the full aggregation result consumed by the dashboard.
// All monetary values are in the reporting currency named by Currency.
type PipelineSummary struct {
	Currency         string                  `json:"currency"`
	DealCount        int                     `json:"deal_count"`
	GrandTotal       float64                 `json:"grand_total"`
	AvgProbability   float64                 `json:"avg_probability"`
	AvgDealSize      float64                 `json:"avg_deal_size"`
	UnconvertedCount int                     `json:"unconverted_count"`
	CountryBreakdown []CountryMetrics        `json:"country_breakdown"`
	ManagerBreakdown []AccountManagerMetrics `json:"manager_breakdown"`
	StageBreakdown   []StageCount            `json:"stage_breakdown"`
}
