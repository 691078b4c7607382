package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name`,
			expected: "filename",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces",
			expected: "file name with spaces",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name  with    spaces",
			expected: "file name with spaces",
		},
		{
			name:     "trims whitespace",
			input:    "  filename  ",
			expected: "filename",
		},
		{
			name:     "returns Untitled for empty",
			input:    "",
			expected: "Untitled",
		},
		{
			name:     "returns Untitled for only special chars",
			input:    "<>:?*",
			expected: "Untitled",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", 200),
		},
		{
			name:     "truncates on a rune boundary",
			input:    strings.Repeat("a", 199) + "ęę",
			expected: strings.Repeat("a", 199),
		},
		{
			name:     "handles unicode",
			input:    "Pamiętnik znaleziony w wannie",
			expected: "Pamiętnik znaleziony w wannie",
		},
		{
			name:     "keeps brackets and hashes",
			input:    `Book: "The Title" [Vol. 1] #Series`,
			expected: "Book The Title [Vol. 1] #Series",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBookFilename(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		author   string
		expected string
	}{
		{
			name:     "joins title and author",
			title:    "Dune",
			author:   "Frank Herbert",
			expected: "Dune — Frank Herbert",
		},
		{
			name:     "omits unknown author",
			title:    "Dune",
			author:   "Unknown",
			expected: "Dune",
		},
		{
			name:     "omits empty author",
			title:    "Dune",
			author:   "",
			expected: "Dune",
		},
		{
			name:     "strips colon and slash from title",
			title:    "Sapiens: A Brief History/Of Humankind",
			author:   "Yuval Noah Harari",
			expected: "Sapiens A Brief HistoryOf Humankind — Yuval Noah Harari",
		},
		{
			name:     "author made only of unsafe characters is omitted",
			title:    "Title",
			author:   "???",
			expected: "Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BookFilename(tt.title, tt.author, "Unknown")
			assert.Equal(t, tt.expected, result)
			assert.NotContains(t, result, ":")
			assert.NotContains(t, result, "/")
		})
	}
}
