package entities

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// HighlightIDLength is the number of hex characters kept from the digest (48 bits).
const HighlightIDLength = 12

// absentField is how a missing page or location is serialised into the id input.
const absentField = "None"

// HighlightID derives the stable identifier of a highlight from its text,
// page and starting location. The added-on date is not part of the input, so
// re-exports of the same clipping keep their id.
//
// The text is length-prefixed and the fields are separated, so distinct
// triples never share a digest input.
func HighlightID(text string, page, locationStart *int) string {
	sum := md5.Sum([]byte(identityKey(text, page, locationStart)))
	return hex.EncodeToString(sum[:])[:HighlightIDLength]
}

// identityKey serialises the identity triple as "<len>:<text>|<page>|<loc>".
func identityKey(text string, page, locationStart *int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(text)))
	b.WriteByte(':')
	b.WriteString(text)
	b.WriteByte('|')
	b.WriteString(formatOptional(page))
	b.WriteByte('|')
	b.WriteString(formatOptional(locationStart))
	return b.String()
}

func formatOptional(v *int) string {
	if v == nil {
		return absentField
	}
	return strconv.Itoa(*v)
}
