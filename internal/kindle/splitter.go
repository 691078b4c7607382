package kindle

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EntrySeparator is the line Kindle writes between two clippings.
const EntrySeparator = "=========="

// SplitEntries reads a My Clippings.txt export and returns its record blocks
// in file order. A leading byte-order mark is dropped, Windows line endings
// are normalised, every block is trimmed and empty blocks are discarded.
func SplitEntries(r io.Reader) ([]string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return nil, fmt.Errorf("error reading clippings: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	var entries []string
	for _, chunk := range strings.Split(content, EntrySeparator) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		entries = append(entries, chunk)
	}

	return entries, nil
}
