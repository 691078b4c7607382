package exporters

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/clippings-sync/internal/entities"
)

// RenderResult is a rendered archive document for one book.
type RenderResult struct {
	Content string
	// NewIDs are the ids of highlights that were not known before this render.
	NewIDs []string
}

// RenderBook renders the complete archive document for book.
//
// The document always contains every highlight of the book, sorted; known
// only decides whether a document is produced at all. It returns false when
// nothing is new and at least one earlier import exists, so unchanged books
// are not rewritten. On the very first import every book is rendered.
func RenderBook(book *entities.Book, known KnownIDs, now time.Time) (RenderResult, bool) {
	sorted := SortHighlights(book.Highlights)

	var newIDs []string
	for _, h := range sorted {
		if !known.Has(h.ID) {
			newIDs = append(newIDs, h.ID)
		}
	}

	if len(newIDs) == 0 && !known.Empty() {
		return RenderResult{}, false
	}

	return RenderResult{
		Content: GenerateMarkdown(book.Title, book.Author, sorted, now),
		NewIDs:  newIDs,
	}, true
}

// GenerateMarkdown renders highlights in the given order below a YAML front
// matter header.
func GenerateMarkdown(title, author string, highlights []entities.Highlight, now time.Time) string {
	lines := []string{
		"---",
		fmt.Sprintf("title: %s", quoteYAML(title)),
		fmt.Sprintf("author: %s", quoteYAML(author)),
		fmt.Sprintf("synced: %s", now.Format("2006-01-02")),
		"---",
		"",
		"## Highlights",
		"",
	}

	for _, h := range highlights {
		lines = append(lines, formatEntry(h), "")
	}

	return strings.Join(lines, "\n")
}

func formatEntry(h entities.Highlight) string {
	ref := ReferenceLabel(h)
	if h.IsNote() {
		return fmt.Sprintf("- **%s** — *[Note]* %s", ref, h.Text)
	}
	return fmt.Sprintf("- **%s** — \"%s\"", ref, h.Text)
}

// ReferenceLabel is the short position shown in front of an entry:
// "p. 12", "loc. 200", "loc. 200–210" or "no location".
func ReferenceLabel(h entities.Highlight) string {
	switch {
	case h.Page != nil:
		return fmt.Sprintf("p. %d", *h.Page)
	case h.LocationStart != nil:
		if h.LocationEnd != nil && *h.LocationEnd != *h.LocationStart {
			return fmt.Sprintf("loc. %d–%d", *h.LocationStart, *h.LocationEnd)
		}
		return fmt.Sprintf("loc. %d", *h.LocationStart)
	default:
		return "no location"
	}
}

func quoteYAML(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
