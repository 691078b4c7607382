package kindle

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first layout that parses wins.
// Kindle writes the date in the device locale, these cover the English
// "weekday, day month year" and "weekday, month day, year" families.
var dateLayouts = []string{
	"Monday, 2 January 2006 15:04:05",
	"Monday, January 2, 2006 15:04:05",
	"Monday, January 2, 2006, 15:04:05",
	"Monday 2 January 2006 15:04:05",
	"2 January 2006 15:04:05",
	"Monday, January 2, 2006 3:04:05 PM",
	"Monday, 2 January 2006 3:04:05 PM",
}

// ParseDate parses the text that follows "Added on" in a metadata line.
// It returns nil when no known layout matches; it never guesses.
// The export carries no zone, times are returned in UTC.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return &t
		}
	}

	return nil
}
