package mesh

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/xmltree"
)

// ErrNotYN is returned when a Y/N attribute holds anything else.
var ErrNotYN = errors.New("mesh: value is not Y or N")

// ParseYN coerces a Y/N flag. Case and surrounding whitespace are ignored;
// only the first character is inspected.
func ParseYN(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, ErrNotYN
	}
	switch s[0] {
	case 'Y', 'y':
		return true, nil
	case 'N', 'n':
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrNotYN, s)
	}
}

// descriptorCategory decodes the DescriptorClass attribute (1 to 4).
func descriptorCategory(n *xmltree.Node) (Category, error) {
	raw, _ := n.Attr(attrDescriptorClass)
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 8)
	if err != nil || v < 1 || v > 4 {
		return CategoryUnknown, tm.NewError(tm.StatusInvalidDataType,
			"invalid %s %q", attrDescriptorClass, raw)
	}
	return CategoryDescriptorTopical + Category(v-1), nil
}

// conceptCategory decodes PreferredConceptYN. A missing or malformed flag is fatal.
func conceptCategory(n *xmltree.Node) (Category, error) {
	raw, _ := n.Attr(attrPreferredConcept)
	preferred, err := ParseYN(raw)
	if err != nil {
		return CategoryUnknown, &tm.Error{
			Status:  tm.StatusInvalidDataType,
			Message: fmt.Sprintf("invalid %s %q", attrPreferredConcept, raw),
			Err:     err,
		}
	}
	if preferred {
		return CategoryConceptPreferred, nil
	}
	return CategoryConceptNarrower, nil
}

// termAttributes decodes the term preference flags and lexical tag.
// The descriptor-level flag wins over the concept-level one. Malformed
// values are ignored; with neither flag readable the category is Unknown.
func termAttributes(n *xmltree.Node) (Category, Modifier) {
	cat := CategoryUnknown

	recordPref, recordErr := flag(n, attrRecordPreferred)
	conceptPref, conceptErr := flag(n, attrConceptPreferred)
	switch {
	case recordErr == nil && recordPref:
		cat = CategoryTermDescriptorPreferred
	case conceptErr == nil && conceptPref:
		cat = CategoryTermConceptPreferred
	case recordErr == nil || conceptErr == nil:
		cat = CategoryTermSupplementary
	}

	mod := ModifierUnknown
	if tag, ok := n.Attr(attrLexicalTag); ok {
		mod = lexicalTags[strings.ToUpper(strings.TrimSpace(tag))]
	}
	return cat, mod
}

func flag(n *xmltree.Node, name string) (bool, error) {
	raw, ok := n.Attr(name)
	if !ok {
		return false, ErrNotYN
	}
	return ParseYN(raw)
}
