package detector

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/omargawdat/pii-shield/patterns"
)

// Tables holds the reference data the rule-based detectors validate against.
type Tables struct {
	Phone struct {
		MobilePrefixes  []string `yaml:"mobile_prefixes"`
		ServicePrefixes []string `yaml:"service_prefixes"`
	} `yaml:"phone"`
	IBAN struct {
		Lengths map[string]int `yaml:"lengths"`
	} `yaml:"iban"`
	GermanID struct {
		FirstLetters []string `yaml:"first_letters"`
	} `yaml:"german_id"`
}

// ParseTables parses reference-table YAML.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing reference tables: %w", err)
	}
	for _, l := range t.GermanID.FirstLetters {
		if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
			return nil, fmt.Errorf("german_id first letter %q must be a single upper-case letter", l)
		}
	}
	return &t, nil
}

// DefaultTables is the embedded German reference data, parsed at init.
var DefaultTables *Tables

func init() {
	t, err := ParseTables(patterns.PIIDEYAML())
	if err != nil {
		panic(fmt.Sprintf("loading embedded reference tables: %v", err))
	}
	DefaultTables = t
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = true
	}
	return set
}
