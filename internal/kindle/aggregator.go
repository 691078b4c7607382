package kindle

import (
	"io"

	"github.com/mrlokans/clippings-sync/internal/entities"
)

// Aggregator groups highlights by (title, author) and remembers the order in
// which books were first seen.
type Aggregator struct {
	books map[entities.BookKey]*entities.Book
	order []entities.BookKey
}

func NewAggregator() *Aggregator {
	return &Aggregator{books: make(map[entities.BookKey]*entities.Book)}
}

// Add appends the highlight to its book, creating the book on first sight.
func (a *Aggregator) Add(title, author string, highlight entities.Highlight) {
	key := entities.BookKey{Title: title, Author: author}

	book, exists := a.books[key]
	if !exists {
		book = &entities.Book{Title: title, Author: author}
		a.books[key] = book
		a.order = append(a.order, key)
	}

	book.Highlights = append(book.Highlights, highlight)
}

// Books returns the aggregated books in first-seen order.
func (a *Aggregator) Books() []*entities.Book {
	books := make([]*entities.Book, 0, len(a.order))
	for _, key := range a.order {
		books = append(books, a.books[key])
	}
	return books
}

// ParseReport is the result of parsing a whole clippings export.
type ParseReport struct {
	Books   []*entities.Book
	Blocks  int
	Records int
	Skipped map[SkipReason]int
}

// SkippedTotal is the number of blocks that did not produce a highlight.
func (r *ParseReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// HighlightCount is the number of highlights across all books.
func (r *ParseReport) HighlightCount() int {
	total := 0
	for _, b := range r.Books {
		total += len(b.Highlights)
	}
	return total
}

// Parse reads a My Clippings.txt export and returns its books. Only read
// errors are returned; malformed blocks are counted in the report.
func Parse(r io.Reader) (*ParseReport, error) {
	blocks, err := SplitEntries(r)
	if err != nil {
		return nil, err
	}

	report := &ParseReport{
		Blocks:  len(blocks),
		Skipped: make(map[SkipReason]int),
	}

	agg := NewAggregator()
	for _, block := range blocks {
		result := ParseRecord(block)
		if !result.Ok() {
			report.Skipped[result.Skip]++
			continue
		}
		report.Records++
		agg.Add(result.Record.Title, result.Record.Author, result.Record.Highlight)
	}

	report.Books = agg.Books()
	return report, nil
}
