package detector

import (
	"context"
	"net/netip"
	"regexp"
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

var (
	ipv4Pattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	// ipv6Pattern is deliberately loose: it grabs any colon-separated hex run
	// (optionally ending in a dotted quad) and leaves the real validation to
	// netip, which handles full, compressed and IPv4-mapped forms.
	ipv6Pattern = regexp.MustCompile(`(?i)(?:[0-9a-f]{0,4}:){2,7}(?:\d{1,3}(?:\.\d{1,3}){3}|[0-9a-f]{1,4})?`)
)

// IPAddressDetector finds IPv4 and IPv6 addresses.
type IPAddressDetector struct{}

// NewIPAddressDetector creates an IP address detector.
func NewIPAddressDetector() *IPAddressDetector { return &IPAddressDetector{} }

// Name returns the detector identifier.
func (d *IPAddressDetector) Name() string { return NameIPAddress }

// Detect returns IPv4 addresses first, then IPv6 addresses, each with
// confidence 1.0. Octet and hextet ranges are enforced by netip.
func (d *IPAddressDetector) Detect(_ context.Context, text string) []pii.Match {
	var matches []pii.Match

	scan(ipv4Pattern, text, isIPv4Neighbour, func(loc []int) {
		addr, err := netip.ParseAddr(text[loc[0]:loc[1]])
		if err != nil || !addr.Is4() {
			return
		}
		if m, ok := newMatch(pii.KindIPAddress, text, loc[0], loc[1], 1.0, NameIPAddress); ok {
			matches = append(matches, m)
		}
	})

	scan(ipv6Pattern, text, isIPv6Neighbour, func(loc []int) {
		candidate := text[loc[0]:loc[1]]
		if !strings.ContainsAny(candidate, "0123456789abcdefABCDEF") {
			return
		}
		addr, err := netip.ParseAddr(candidate)
		if err != nil || !addr.Is6() {
			return
		}
		if m, ok := newMatch(pii.KindIPAddress, text, loc[0], loc[1], 1.0, NameIPAddress); ok {
			matches = append(matches, m)
		}
	})

	return matches
}

func isIPv4Neighbour(r rune) bool {
	return isWordRune(r)
}

func isIPv6Neighbour(r rune) bool {
	return r == ':' || isWordRune(r)
}
