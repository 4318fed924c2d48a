package detector

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDetector is returned when a filter names a detector that does not exist.
var ErrUnknownDetector = errors.New("unknown detector")

type registryConfig struct {
	tables     *Tables
	enabled    []string
	disabled   []string
	recognizer Recognizer
	language   string
}

// Option configures the detector set built by Default.
type Option func(*registryConfig)

// WithEnabled restricts the set to the named detectors. An empty list enables all.
func WithEnabled(names ...string) Option {
	return func(c *registryConfig) { c.enabled = append(c.enabled, names...) }
}

// WithDisabled removes the named detectors. Applied after WithEnabled.
func WithDisabled(names ...string) Option {
	return func(c *registryConfig) { c.disabled = append(c.disabled, names...) }
}

// WithRecognizer appends an NER detector backed by r.
func WithRecognizer(r Recognizer, language string) Option {
	return func(c *registryConfig) {
		c.recognizer = r
		c.language = language
	}
}

// WithTables overrides the embedded reference tables.
func WithTables(t *Tables) Option {
	return func(c *registryConfig) { c.tables = t }
}

// Names lists the built-in detector names in their fixed order.
func Names() []string {
	return []string{NameEmail, NamePhone, NameIBAN, NameCreditCard, NameGermanID, NameIPAddress, NamePresidio}
}

// Default returns the ordered detector set: email, phone, iban, credit_card,
// german_id, ip_address and, when a recognizer is configured, the NER detector.
func Default(opts ...Option) ([]Detector, error) {
	cfg := &registryConfig{}
	for _, o := range opts {
		o(cfg)
	}
	tables := cfg.tables
	if tables == nil {
		tables = DefaultTables
	}

	all := []Detector{
		NewEmailDetector(),
		NewPhoneDetector(tables),
		NewIBANDetector(tables),
		NewCreditCardDetector(),
		NewGermanIDDetector(tables),
		NewIPAddressDetector(),
	}
	if cfg.recognizer != nil {
		all = append(all, NewNERDetector(cfg.recognizer, cfg.language))
	}

	enabled, err := nameSet(cfg.enabled)
	if err != nil {
		return nil, err
	}
	disabled, err := nameSet(cfg.disabled)
	if err != nil {
		return nil, err
	}

	out := make([]Detector, 0, len(all))
	for _, d := range all {
		if len(enabled) > 0 && !enabled[d.Name()] {
			continue
		}
		if disabled[d.Name()] {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func nameSet(names []string) (map[string]bool, error) {
	known := toSet(Names())
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if !known[n] {
			return nil, fmt.Errorf("%q: %w", n, ErrUnknownDetector)
		}
		set[n] = true
	}
	return set, nil
}
