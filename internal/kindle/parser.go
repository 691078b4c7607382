package kindle

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrlokans/clippings-sync/internal/entities"
)

// SkipReason explains why a record block did not produce a highlight.
type SkipReason string

const (
	SkipTooFewLines   SkipReason = "too_few_lines"
	SkipMissingMarker SkipReason = "missing_marker"
	SkipEmptyBody     SkipReason = "empty_body"
)

// metadataMarker starts every metadata line of a highlight, note or bookmark.
const metadataMarker = "-"

// minRecordLines covers header, metadata and the blank separator line.
const minRecordLines = 3

// Regex patterns for parsing metadata lines
var (
	// Matches: "- Your Highlight on page 8 | Location 64-64 | Added on Tuesday, April 15, 2025 10:16:21 PM"
	// or: "- Your Note on page 31 | Location 307 | Added on Tuesday, April 15, 2025 11:33:26 PM"
	// or: "- Your Bookmark at location 346 | Added on Saturday, 26 March 2016 15:46:21"
	notePattern     = regexp.MustCompile(`(?i)your note`)
	bookmarkPattern = regexp.MustCompile(`(?i)your bookmark`)

	// Page patterns: "on page 8" or "on page 207-207"
	pagePattern = regexp.MustCompile(`(?i)page\s+(\d+)`)

	// Location patterns: "Location 64-64" or "location 1406-1407" or "at location 784"
	locationPattern = regexp.MustCompile(`(?i)location\s+(\d+)(?:-(\d+))?`)

	// "Added on Tuesday, April 15, 2025 10:16:21 PM"
	addedOnPattern = regexp.MustCompile(`(?i)added on\s+(.+)$`)

	// Title with author: "Book Title (Author Name)"
	// Some books don't have author in parentheses
	titleAuthorPattern = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*$`)
)

// Record is one successfully parsed clipping together with the book it
// belongs to.
type Record struct {
	Title     string
	Author    string
	Highlight entities.Highlight
}

// ParseResult is the outcome of parsing one block: either a Record or the
// reason the block was skipped.
type ParseResult struct {
	Record *Record
	Skip   SkipReason
}

func (r ParseResult) Ok() bool {
	return r.Record != nil
}

func skipped(reason SkipReason) ParseResult {
	return ParseResult{Skip: reason}
}

// Metadata holds the fields extracted from a clipping's metadata line.
// Fields that were not found stay nil.
type Metadata struct {
	Kind          entities.HighlightKind
	Page          *int
	LocationStart *int
	LocationEnd   *int
	AddedAt       string
}

// ParseRecord parses a single trimmed block produced by SplitEntries.
// Malformed blocks are reported through ParseResult.Skip, never as errors.
func ParseRecord(block string) ParseResult {
	lines := strings.Split(block, "\n")
	if len(lines) < minRecordLines {
		return skipped(SkipTooFewLines)
	}

	title, author := ParseTitleAuthor(lines[0])

	meta, ok := ParseMetadata(lines[1])
	if !ok {
		return skipped(SkipMissingMarker)
	}

	// lines[2] is the blank separator between metadata and body
	text := strings.TrimSpace(strings.Join(lines[3:], "\n"))
	if text == "" {
		return skipped(SkipEmptyBody)
	}

	highlight := entities.NewHighlight(entities.HighlightParams{
		Text:          text,
		Kind:          meta.Kind,
		Page:          meta.Page,
		LocationStart: meta.LocationStart,
		LocationEnd:   meta.LocationEnd,
		AddedAt:       ParseDate(meta.AddedAt),
	})

	return ParseResult{Record: &Record{
		Title:     title,
		Author:    author,
		Highlight: highlight,
	}}
}

// ParseTitleAuthor splits a header line of the form "Title (Author)".
// Without a trailing parenthetical the whole line is the title and the author
// is entities.UnknownAuthor.
func ParseTitleAuthor(line string) (title, author string) {
	line = strings.TrimSpace(line)
	matches := titleAuthorPattern.FindStringSubmatch(line)
	if len(matches) == 3 {
		return strings.TrimSpace(matches[1]), strings.TrimSpace(matches[2])
	}
	return line, entities.UnknownAuthor
}

// ParseMetadata extracts kind, page, location and date text from a metadata
// line. Each field is matched independently and case-insensitively, in any
// order. It returns false when the line lacks the leading marker.
func ParseMetadata(line string) (Metadata, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, metadataMarker) {
		return Metadata{}, false
	}

	meta := Metadata{Kind: entities.HighlightKindHighlight}

	switch {
	case bookmarkPattern.MatchString(line):
		meta.Kind = entities.HighlightKindBookmark
	case notePattern.MatchString(line):
		meta.Kind = entities.HighlightKindNote
	}

	if m := pagePattern.FindStringSubmatch(line); m != nil {
		meta.Page = atoi(m[1])
	}

	if m := locationPattern.FindStringSubmatch(line); m != nil {
		meta.LocationStart = atoi(m[1])
		if m[2] != "" {
			meta.LocationEnd = atoi(m[2])
		}
	}

	if m := addedOnPattern.FindStringSubmatch(line); m != nil {
		meta.AddedAt = strings.TrimSpace(m[1])
	}

	return meta, true
}

// atoi returns nil for digit runs that overflow int.
func atoi(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
