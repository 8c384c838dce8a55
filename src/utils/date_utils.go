package utils

import "time"

// Closing-date spellings seen across record sources: CRM exports send ISO
// dates, older spreadsheet exports send day-first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
}

// ParseDate parses a date string against the known layouts.
// Returns zero time when no layout matches; missing dates are a first-class
// state downstream, not an error.
func ParseDate(dateStr string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t
		}
	}
	return time.Time{}
}
