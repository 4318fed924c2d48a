// Package patterns provides embedded reference tables used by the rule-based
// detectors: German phone prefixes, IBAN country lengths and the issuing
// letters of German ID cards.
package patterns

import _ "embed"

//go:embed pii_de.yaml
var piiDEYAML []byte

// PIIDEYAML returns the embedded German reference tables.
func PIIDEYAML() []byte { return piiDEYAML }
