package pii

import (
	"sort"
	"unicode/utf8"
)

// Offsets converts between the UTF-8 byte offsets used inside the module and
// the code-point (character) offsets used on the wire.
type Offsets struct {
	bytes []int // bytes[i] is the byte offset of character i; the last entry is len(text)
}

// NewOffsets indexes text.
func NewOffsets(text string) *Offsets {
	bytes := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		bytes = append(bytes, i)
	}
	return &Offsets{bytes: append(bytes, len(text))}
}

// Len returns the number of characters in the text.
func (o *Offsets) Len() int { return len(o.bytes) - 1 }

// Char returns the character index of a byte offset. Offsets inside a
// multi-byte character resolve to that character.
func (o *Offsets) Char(b int) int {
	i := sort.SearchInts(o.bytes, b)
	if i < len(o.bytes) && o.bytes[i] == b {
		return i
	}
	return i - 1
}

// Byte returns the byte offset of a character index, or false when the
// index lies outside [0, Len()].
func (o *Offsets) Byte(c int) (int, bool) {
	if c < 0 || c >= len(o.bytes) {
		return 0, false
	}
	return o.bytes[c], true
}

// CharSpan returns the character offsets of m.
func (o *Offsets) CharSpan(m Match) (start, end int) {
	return o.Char(m.Start), o.Char(m.End)
}
