package processors

import (
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
)

// ApplyFilters returns the deals passing both the closing-date window and the
// probability band. The two predicates commute and compose as a plain AND.
// The filter is stable: output preserves input relative order, because the
// dashboard renders deals in upload/sync order by default.
func ApplyFilters(deals []models.Deal, dateFilter models.DateFilter, band models.ProbabilityBand, now time.Time) []models.Deal {
	start, end, restricted := ResolveDateWindow(dateFilter, now)

	filtered := make([]models.Deal, 0, len(deals))
	for _, deal := range deals {
		if !dateMatches(deal, start, end, restricted) {
			continue
		}
		if deal.ProbabilityPercent < band.Min || deal.ProbabilityPercent > band.Max {
			continue
		}
		filtered = append(filtered, deal)
	}
	return filtered
}

// ResolveDateWindow turns a date filter into a concrete half-open
// [start, end) window against the supplied clock. Preset windows are
// recomputed on every call so "this month" is never a memoized boundary.
// restricted is false for the no-restriction filter; a custom filter with
// neither date set is treated the same way. An unrecognized kind also
// resolves to no restriction, keeping the filter total. A zero start or end
// on a custom window leaves that side open.
func ResolveDateWindow(dateFilter models.DateFilter, now time.Time) (start, end time.Time, restricted bool) {
	switch dateFilter.Kind {
	case models.DateFilterThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), true
	case models.DateFilterThisQuarter:
		quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		start = time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 3, 0), true
	case models.DateFilterThisYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0), true
	case models.DateFilterCustom:
		if dateFilter.StartDate.IsZero() && dateFilter.EndDate.IsZero() {
			return time.Time{}, time.Time{}, false
		}
		return dateFilter.StartDate, dateFilter.EndDate, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// dateMatches applies the closing-date predicate. Under a restrictive window
// a deal without a closing date is excluded rather than guessed; it passes
// only when no restriction is in effect.
func dateMatches(deal models.Deal, start, end time.Time, restricted bool) bool {
	if !restricted {
		return true
	}
	if !deal.HasClosingDate() {
		return false
	}
	if !start.IsZero() && deal.ClosingDate.Before(start) {
		return false
	}
	if !end.IsZero() && !deal.ClosingDate.Before(end) {
		return false
	}
	return true
}
