package entities

import (
	"time"

	"github.com/mrlokans/clippings-sync/internal/utils"
)

// UnknownAuthor is used when a clipping header carries no "(Author)" suffix.
const UnknownAuthor = "Unknown"

type HighlightKind string

const (
	HighlightKindHighlight HighlightKind = "highlight"
	HighlightKindNote      HighlightKind = "note"
	HighlightKindBookmark  HighlightKind = "bookmark"
)

// Highlight is a single excerpt, note or bookmark taken from a book.
//
// Optional numeric fields are pointers: nil means the clipping did not carry
// the value, which is different from a parsed zero.
type Highlight struct {
	ID   string        `json:"id"`
	Text string        `json:"text"`
	Kind HighlightKind `json:"kind"`

	// Location information
	Page          *int `json:"page,omitempty"`
	LocationStart *int `json:"location_start,omitempty"`
	LocationEnd   *int `json:"location_end,omitempty"` // Only for ranges, never equal to LocationStart

	AddedAt *time.Time `json:"added_at,omitempty"`
}

// HighlightParams carries the parsed fields of a clipping.
type HighlightParams struct {
	Text          string
	Kind          HighlightKind
	Page          *int
	LocationStart *int
	LocationEnd   *int
	AddedAt       *time.Time
}

// NewHighlight builds a Highlight and assigns its content-derived ID.
func NewHighlight(p HighlightParams) Highlight {
	kind := p.Kind
	if kind == "" {
		kind = HighlightKindHighlight
	}

	locEnd := p.LocationEnd
	if locEnd != nil && p.LocationStart != nil && *locEnd == *p.LocationStart {
		locEnd = nil
	}

	return Highlight{
		ID:            HighlightID(p.Text, p.Page, p.LocationStart),
		Text:          p.Text,
		Kind:          kind,
		Page:          p.Page,
		LocationStart: p.LocationStart,
		LocationEnd:   locEnd,
		AddedAt:       p.AddedAt,
	}
}

// IsNote reports whether the highlight is a user annotation (note or bookmark)
// rather than a plain excerpt.
func (h Highlight) IsNote() bool {
	return h.Kind == HighlightKindNote || h.Kind == HighlightKindBookmark
}

// BookKey identifies a book during aggregation. Matching is exact.
type BookKey struct {
	Title  string
	Author string
}

type Book struct {
	Title      string      `json:"title"`
	Author     string      `json:"author"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

func (b *Book) Key() BookKey {
	return BookKey{Title: b.Title, Author: b.Author}
}

// HasKnownAuthor is false when the clipping header had no author.
func (b *Book) HasKnownAuthor() bool {
	return b.Author != "" && b.Author != UnknownAuthor
}

// Filename is the archive document name for the book, without extension.
func (b *Book) Filename() string {
	return utils.BookFilename(b.Title, b.Author, UnknownAuthor)
}

// IDs returns the ids of all highlights in book order.
func (b *Book) IDs() []string {
	ids := make([]string, 0, len(b.Highlights))
	for _, h := range b.Highlights {
		ids = append(ids, h.ID)
	}
	return ids
}

// ImportedHighlight is a row of the SQLite sync-state backend: one id that has
// already been written to the archive.
type ImportedHighlight struct {
	ID         string    `gorm:"primaryKey;size:32" json:"id"`
	ImportedAt time.Time `json:"imported_at"`
}

func (ImportedHighlight) TableName() string {
	return "imported_highlights"
}

// IntPtr is a small helper for building optional fields.
func IntPtr(v int) *int {
	return &v
}
