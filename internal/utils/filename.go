package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// maxFilenameBytes leaves room for the extension within the usual 255 byte limit.
const maxFilenameBytes = 200

// authorSeparator joins title and author in archive filenames.
const authorSeparator = " — "

// StripUnsafe removes characters that are invalid in filenames.
func StripUnsafe(s string) string {
	return invalidFilenameChars.ReplaceAllString(s, "")
}

// SanitizeFilename makes a document name safe to use as a file name.
// It strips invalid characters, flattens line breaks and collapses runs of
// whitespace. The result is never empty.
func SanitizeFilename(filename string) string {
	filename = StripUnsafe(filename)
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if len(filename) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(filename[cut]) {
			cut--
		}
		filename = strings.TrimSpace(filename[:cut])
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// BookFilename builds the archive document name for a book, without extension.
// The author segment is left out when the author is unknown (empty after
// sanitising, or equal to unknownAuthor).
func BookFilename(title, author, unknownAuthor string) string {
	title = StripUnsafe(title)
	author = StripUnsafe(author)
	if author != "" && author != unknownAuthor {
		return SanitizeFilename(title + authorSeparator + author)
	}
	return SanitizeFilename(title)
}
