package pipeline

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize composes text to NFC and collapses every whitespace run into a
// single space, trimming both ends. Decomposed umlauts ("u" + U+0308) become
// their precomposed form so byte patterns and offsets stay stable.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
