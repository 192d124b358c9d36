package mesh

import "strconv"

// Kind is the MeSH record type of an XML node.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDescriptorRecord
	KindQualifier
	KindConcept
	KindTerm
)

var kindNames = [...]string{
	KindUnknown:          "Unknown",
	KindDescriptorRecord: "DescriptorRecord",
	KindQualifier:        "Qualifier",
	KindConcept:          "Concept",
	KindTerm:             "Term",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Category is the per-kind subclass of a record.
type Category uint8

const (
	CategoryUnknown Category = iota
	// Descriptor classes 1 to 4.
	CategoryDescriptorTopical
	CategoryDescriptorPublication
	CategoryDescriptorCheckTag
	CategoryDescriptorGeographic
	// Concepts.
	CategoryConceptNarrower
	CategoryConceptPreferred
	// Terms.
	CategoryTermSupplementary
	CategoryTermConceptPreferred
	CategoryTermDescriptorPreferred
)

var categoryNames = [...]string{
	CategoryUnknown:                 "Unknown",
	CategoryDescriptorTopical:       "DescriptorTopical",
	CategoryDescriptorPublication:   "DescriptorPublication",
	CategoryDescriptorCheckTag:      "DescriptorCheckTag",
	CategoryDescriptorGeographic:    "DescriptorGeographic",
	CategoryConceptNarrower:         "ConceptNarrower",
	CategoryConceptPreferred:        "ConceptPreferred",
	CategoryTermSupplementary:       "TermSupplementary",
	CategoryTermConceptPreferred:    "TermConceptPreferred",
	CategoryTermDescriptorPreferred: "TermDescriptorPreferred",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Category(" + strconv.Itoa(int(c)) + ")"
}

// Modifier is the lexical tag of a term.
type Modifier uint8

const (
	ModifierUnknown Modifier = iota
	ModifierNone
	ModifierAbbreviation
	ModifierAbbreviationEmb
	ModifierAcronym
	ModifierAcronymEmb
	ModifierEponym
	ModifierLabNumber
	ModifierTradeName
	ModifierProperName
)

var modifierNames = [...]string{
	ModifierUnknown:         "Unknown",
	ModifierNone:            "NON",
	ModifierAbbreviation:    "ABB",
	ModifierAbbreviationEmb: "ABX",
	ModifierAcronym:         "ACR",
	ModifierAcronymEmb:      "ACX",
	ModifierEponym:          "EPO",
	ModifierLabNumber:       "LAB",
	ModifierTradeName:       "TRD",
	ModifierProperName:      "NAM",
}

func (m Modifier) String() string {
	if int(m) < len(modifierNames) {
		return modifierNames[m]
	}
	return "Modifier(" + strconv.Itoa(int(m)) + ")"
}
