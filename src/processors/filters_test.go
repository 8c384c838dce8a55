package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDateWindowPresets(t *testing.T) {
	now := time.Date(2025, time.May, 14, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		filter         models.DateFilter
		wantStart      time.Time
		wantEnd        time.Time
		wantRestricted bool
	}{
		{
			name:           "this month",
			filter:         models.DateFilter{Kind: models.DateFilterThisMonth},
			wantStart:      date(2025, time.May, 1),
			wantEnd:        date(2025, time.June, 1),
			wantRestricted: true,
		},
		{
			name:           "this quarter",
			filter:         models.DateFilter{Kind: models.DateFilterThisQuarter},
			wantStart:      date(2025, time.April, 1),
			wantEnd:        date(2025, time.July, 1),
			wantRestricted: true,
		},
		{
			name:           "this year",
			filter:         models.DateFilter{Kind: models.DateFilterThisYear},
			wantStart:      date(2025, time.January, 1),
			wantEnd:        date(2026, time.January, 1),
			wantRestricted: true,
		},
		{
			name: "custom uses its own dates",
			filter: models.DateFilter{
				Kind:      models.DateFilterCustom,
				StartDate: date(2025, time.March, 10),
				EndDate:   date(2025, time.March, 20),
			},
			wantStart:      date(2025, time.March, 10),
			wantEnd:        date(2025, time.March, 20),
			wantRestricted: true,
		},
		{
			name:           "custom with neither date is no restriction",
			filter:         models.DateFilter{Kind: models.DateFilterCustom},
			wantRestricted: false,
		},
		{
			name:           "all is no restriction",
			filter:         models.DateFilter{Kind: models.DateFilterAll},
			wantRestricted: false,
		},
		{
			name:           "unrecognized kind falls back to no restriction",
			filter:         models.DateFilter{Kind: "last_fortnight"},
			wantRestricted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, restricted := ResolveDateWindow(tt.filter, now)
			assert.Equal(t, tt.wantRestricted, restricted)
			if tt.wantRestricted {
				assert.Equal(t, tt.wantStart, start)
				assert.Equal(t, tt.wantEnd, end)
			}
		})
	}
}

func TestResolveDateWindowRecomputesAgainstClock(t *testing.T) {
	filter := models.DateFilter{Kind: models.DateFilterThisMonth}

	start1, _, _ := ResolveDateWindow(filter, date(2025, time.May, 14))
	start2, _, _ := ResolveDateWindow(filter, date(2025, time.June, 2))

	assert.Equal(t, date(2025, time.May, 1), start1)
	assert.Equal(t, date(2025, time.June, 1), start2, "preset boundaries never memoize")
}

func TestApplyFiltersDateWindow(t *testing.T) {
	now := date(2025, time.May, 14)
	deals := []models.Deal{
		{Name: "before window", ClosingDate: date(2025, time.April, 30), ProbabilityPercent: 50},
		{Name: "at window start", ClosingDate: date(2025, time.May, 1), ProbabilityPercent: 50},
		{Name: "inside window", ClosingDate: date(2025, time.May, 20), ProbabilityPercent: 50},
		{Name: "at window end", ClosingDate: date(2025, time.June, 1), ProbabilityPercent: 50},
		{Name: "no closing date", ProbabilityPercent: 50},
	}
	band := models.DefaultProbabilityBand()

	filtered := ApplyFilters(deals, models.DateFilter{Kind: models.DateFilterThisMonth}, band, now)

	// Half-open window: the start day is in, the end boundary is out, and a
	// deal without a closing date is excluded rather than guessed.
	names := make([]string, 0, len(filtered))
	for _, deal := range filtered {
		names = append(names, deal.Name)
	}
	assert.Equal(t, []string{"at window start", "inside window"}, names)

	unrestricted := ApplyFilters(deals, models.DefaultDateFilter(), band, now)
	assert.Len(t, unrestricted, 5, "no restriction keeps dateless deals")
}

func TestApplyFiltersProbabilityBandInclusive(t *testing.T) {
	now := date(2025, time.May, 14)
	band := models.ProbabilityBand{Min: 20, Max: 80}
	deals := []models.Deal{
		{Name: "below", ProbabilityPercent: 19.99},
		{Name: "at min", ProbabilityPercent: 20},
		{Name: "inside", ProbabilityPercent: 50},
		{Name: "at max", ProbabilityPercent: 80},
		{Name: "above", ProbabilityPercent: 80.01},
	}

	filtered := ApplyFilters(deals, models.DefaultDateFilter(), band, now)

	names := make([]string, 0, len(filtered))
	for _, deal := range filtered {
		names = append(names, deal.Name)
	}
	assert.Equal(t, []string{"at min", "inside", "at max"}, names)
}

func TestApplyFiltersCustomOpenSides(t *testing.T) {
	now := date(2025, time.May, 14)
	band := models.DefaultProbabilityBand()
	deals := []models.Deal{
		{Name: "early", ClosingDate: date(2025, time.January, 15), ProbabilityPercent: 50},
		{Name: "late", ClosingDate: date(2025, time.November, 15), ProbabilityPercent: 50},
		{Name: "dateless", ProbabilityPercent: 50},
	}

	// Only a start: everything from that day on.
	onlyStart := models.DateFilter{Kind: models.DateFilterCustom, StartDate: date(2025, time.June, 1)}
	filtered := ApplyFilters(deals, onlyStart, band, now)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "late", filtered[0].Name)

	// Only an end: everything strictly before it.
	onlyEnd := models.DateFilter{Kind: models.DateFilterCustom, EndDate: date(2025, time.June, 1)}
	filtered = ApplyFilters(deals, onlyEnd, band, now)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "early", filtered[0].Name)
}

func TestApplyFiltersStableAndIdempotent(t *testing.T) {
	now := date(2025, time.May, 14)
	band := models.ProbabilityBand{Min: 30, Max: 100}
	deals := []models.Deal{
		{Name: "a", ProbabilityPercent: 90},
		{Name: "b", ProbabilityPercent: 10},
		{Name: "c", ProbabilityPercent: 40},
		{Name: "d", ProbabilityPercent: 40},
		{Name: "e", ProbabilityPercent: 75},
	}

	once := ApplyFilters(deals, models.DefaultDateFilter(), band, now)
	twice := ApplyFilters(once, models.DefaultDateFilter(), band, now)

	names := make([]string, 0, len(once))
	for _, deal := range once {
		names = append(names, deal.Name)
	}
	assert.Equal(t, []string{"a", "c", "d", "e"}, names, "output preserves input relative order")
	assert.Equal(t, once, twice, "filtering a filtered set changes nothing")
}

func TestApplyFiltersEmptyInput(t *testing.T) {
	now := date(2025, time.May, 14)

	filtered := ApplyFilters(nil, models.DefaultDateFilter(), models.DefaultProbabilityBand(), now)
	assert.NotNil(t, filtered)
	assert.Empty(t, filtered)
}
