package termsmap

import "strings"

// Version is the release of this module reported by the CLI.
const Version = "0.3.0"

// CodingSystem identifies a vocabulary participating in a cross-reference.
type CodingSystem string

// Supported coding systems. The values are the UMLS source abbreviation prefixes.
const (
	// MeSH is the NLM Medical Subject Headings vocabulary.
	MeSH CodingSystem = "MSH"
	// SNOMED is SNOMED CT in any of its UMLS source editions.
	SNOMED CodingSystem = "SNOMED"
)

// String returns the source prefix.
func (s CodingSystem) String() string {
	return string(s)
}

// IsValid returns true if this is a supported coding system.
func (s CodingSystem) IsValid() bool {
	switch s {
	case MeSH, SNOMED:
		return true
	default:
		return false
	}
}

// Sibling returns the system a cross-reference group must also reach.
func (s CodingSystem) Sibling() CodingSystem {
	if s == MeSH {
		return SNOMED
	}
	return MeSH
}

// systemConfig holds the FHIR identity of a coding system.
type systemConfig struct {
	URI     string
	Name    string
	Title   string
	Version string
}

var systemConfigs = map[CodingSystem]systemConfig{
	MeSH: {
		URI:   "http://id.nlm.nih.gov/mesh",
		Name:  "MeSH",
		Title: "Medical Subject Headings",
	},
	SNOMED: {
		URI:   "http://snomed.info/sct",
		Name:  "SNOMEDCT",
		Title: "SNOMED CT",
	},
}

// URI returns the canonical FHIR system URI, or "" for unknown systems.
func (s CodingSystem) URI() string {
	return systemConfigs[s].URI
}

// Title returns the human readable vocabulary name.
func (s CodingSystem) Title() string {
	return systemConfigs[s].Title
}

// SystemOf maps a UMLS source abbreviation such as "SNOMEDCT_US" or "MSH"
// onto its coding system.
func SystemOf(source string) (CodingSystem, bool) {
	switch {
	case strings.HasPrefix(source, string(MeSH)):
		return MeSH, true
	case strings.HasPrefix(source, string(SNOMED)):
		return SNOMED, true
	default:
		return "", false
	}
}
