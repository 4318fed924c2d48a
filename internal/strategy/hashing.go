package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// Hashing defaults and algorithms.
const (
	DefaultHashLength = 16
	AlgorithmSHA256   = "sha256"
	AlgorithmBLAKE2b  = "blake2b"
	maxHashLength     = 64
)

// Hashing replaces each match with a truncated hex digest of salt+text.
// The same value and salt always give the same pseudonym; different salts
// give unlinkable ones.
type Hashing struct {
	salt   string
	length int
	algo   string
	sum    func([]byte) [32]byte
}

// NewHashing creates a hashing strategy. length is clamped to 1..64 hex
// characters (0 selects DefaultHashLength); algorithm is "sha256" (default)
// or "blake2b".
func NewHashing(salt string, length int, algorithm string) (*Hashing, error) {
	switch {
	case length <= 0:
		length = DefaultHashLength
	case length > maxHashLength:
		length = maxHashLength
	}
	h := &Hashing{salt: salt, length: length}
	switch strings.ToLower(algorithm) {
	case "", AlgorithmSHA256:
		h.algo, h.sum = AlgorithmSHA256, sha256.Sum256
	case AlgorithmBLAKE2b:
		h.algo, h.sum = AlgorithmBLAKE2b, blake2b.Sum256
	default:
		return nil, fmt.Errorf("hash algorithm %q: %w", algorithm, ErrUnknownStrategy)
	}
	return h, nil
}

// Name returns the strategy identifier.
func (h *Hashing) Name() string { return NameHashing }

// Algorithm returns the digest in use.
func (h *Hashing) Algorithm() string { return h.algo }

// Apply replaces every match with its pseudonym.
func (h *Hashing) Apply(text string, matches []pii.Match) string {
	return rewrite(text, matches, func(m pii.Match) string {
		return h.Pseudonym(m.Text)
	})
}

// Pseudonym returns the truncated digest for one value.
func (h *Hashing) Pseudonym(value string) string {
	sum := h.sum([]byte(h.salt + value))
	return hex.EncodeToString(sum[:])[:h.length]
}
