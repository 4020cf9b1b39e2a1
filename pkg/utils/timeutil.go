package utils

import "time"

// DateLayout is the ISO date format EDGAR uses for period and filing dates.
const DateLayout = "2006-01-02"

// ParseSECDate parses the date formats EDGAR emits. It returns the zero
// time for empty or unrecognized input.
func ParseSECDate(s string) time.Time {
	for _, layout := range []string{
		DateLayout,
		"2006-01-02T15:04:05.000Z",
		"01/02/2006",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatDate formats t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
