package exporters

import (
	"cmp"
	"slices"
	"time"

	"github.com/mrlokans/clippings-sync/internal/entities"
)

// CompareHighlights orders highlights by page, then start location, then date.
//
// A missing page or location sorts after every present value, so unlocated
// highlights end up last. A missing date sorts before every present value.
func CompareHighlights(a, b entities.Highlight) int {
	if c := compareOptionalInt(a.Page, b.Page); c != 0 {
		return c
	}
	if c := compareOptionalInt(a.LocationStart, b.LocationStart); c != 0 {
		return c
	}
	return compareOptionalTime(a.AddedAt, b.AddedAt)
}

// SortHighlights returns a sorted copy; highlights that compare equal keep
// their parse order.
func SortHighlights(highlights []entities.Highlight) []entities.Highlight {
	sorted := slices.Clone(highlights)
	slices.SortStableFunc(sorted, CompareHighlights)
	return sorted
}

// compareOptionalInt puts nil after any value.
func compareOptionalInt(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

// compareOptionalTime puts nil before any value.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
