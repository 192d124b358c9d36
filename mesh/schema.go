package mesh

// XML element and attribute names of the NLM descriptor file.
const (
	RootTag   = "DescriptorRecordSet"
	RecordTag = "DescriptorRecord"

	conceptListTag   = "ConceptList"
	qualifierListTag = "AllowableQualifiersList"
	termListTag      = "TermList"

	attrDescriptorClass  = "DescriptorClass"
	attrPreferredConcept = "PreferredConceptYN"
	attrRecordPreferred  = "RecordPreferredTermYN"
	attrConceptPreferred = "ConceptPreferredTermYN"
	attrLexicalTag       = "LexicalTag"
)

// fieldSchema says where a kind keeps its uid and name.
type fieldSchema struct {
	// wrapper, when set, encloses both fields.
	wrapper string
	uid     string

	// name is the element path to the name text.
	name []string
}

var schemas = map[Kind]fieldSchema{
	KindDescriptorRecord: {uid: "DescriptorUI", name: []string{"DescriptorName", "String"}},
	KindQualifier:        {wrapper: "QualifierReferredTo", uid: "QualifierUI", name: []string{"QualifierName", "String"}},
	KindConcept:          {uid: "ConceptUI", name: []string{"ConceptName", "String"}},
	KindTerm:             {uid: "TermUI", name: []string{"String"}},
}

var nodeKinds = map[string]Kind{
	"DescriptorRecord":   KindDescriptorRecord,
	"AllowableQualifier": KindQualifier,
	"Concept":            KindConcept,
	"Term":               KindTerm,
}

// KindOf resolves an element name to a record kind.
func KindOf(tag string) Kind {
	return nodeKinds[tag]
}

var lexicalTags = map[string]Modifier{
	"NON": ModifierNone,
	"ABB": ModifierAbbreviation,
	"ABX": ModifierAbbreviationEmb,
	"ACR": ModifierAcronym,
	"ACX": ModifierAcronymEmb,
	"EPO": ModifierEponym,
	"LAB": ModifierLabNumber,
	"TRD": ModifierTradeName,
	"NAM": ModifierProperName,
}

// children lists the record lists a kind descends into.
var children = map[Kind][]string{
	KindDescriptorRecord: {conceptListTag, qualifierListTag},
	KindConcept:          {termListTag},
}
