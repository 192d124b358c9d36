package export

import (
	"encoding/json"
	"iter"
	"strings"

	"github.com/gofhir/fhir/r4"
	"github.com/google/uuid"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/mesh"
	"github.com/gofhir/termsmap/xref"
)

// Concept property codes used in the MeSH CodeSystem.
const (
	PropertyKind     = "kind"
	PropertyCategory = "category"
	PropertyModifier = "modifier"
)

// conceptNode is a mutable tree node; r4 concepts are value slices and
// cannot be nested while they are still growing. Entries are copied out of
// arena memory so the result outlives the document.
type conceptNode struct {
	entry    mesh.Entry
	children []*conceptNode
	index    map[string]*conceptNode
}

func (n *conceptNode) child(e mesh.Entry) *conceptNode {
	if c, ok := n.index[e.UID]; ok {
		return c
	}
	e.UID, e.Name, e.ParentUID = strings.Clone(e.UID), strings.Clone(e.Name), strings.Clone(e.ParentUID)
	c := &conceptNode{entry: e}
	if n.index == nil {
		n.index = make(map[string]*conceptNode)
	}
	n.index[e.UID] = c
	n.children = append(n.children, c)
	return c
}

// MeshCodeSystem converts MeSH entries into a CodeSystem. Descriptors and
// qualifiers are top-level concepts, concepts nest under their descriptor
// and terms under their concept. Entries must arrive in document order.
func MeshCodeSystem(entries iter.Seq[mesh.Entry]) *r4.CodeSystem {
	root := &conceptNode{}
	concepts := make(map[string]*conceptNode)

	for e := range entries {
		switch e.Kind {
		case mesh.KindDescriptorRecord, mesh.KindQualifier:
			root.child(e)
		case mesh.KindConcept:
			if parent, ok := root.index[e.ParentUID]; ok {
				concepts[e.UID] = parent.child(e)
			}
		case mesh.KindTerm:
			if parent, ok := concepts[e.ParentUID]; ok {
				parent.child(e)
			}
		}
	}

	url := tm.MeSH.URI()
	name := "MeSH"
	return &r4.CodeSystem{
		Url:     &url,
		Name:    &name,
		Concept: toConcepts(root.children),
	}
}

func toConcepts(nodes []*conceptNode) []r4.CodeSystemConcept {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]r4.CodeSystemConcept, len(nodes))
	for i, n := range nodes {
		code, display := n.entry.UID, n.entry.Name
		out[i] = r4.CodeSystemConcept{
			Code:     &code,
			Display:  &display,
			Property: properties(n.entry),
			Concept:  toConcepts(n.children),
		}
	}
	return out
}

func properties(e mesh.Entry) []r4.CodeSystemConceptProperty {
	values := [][2]string{
		{PropertyKind, e.Kind.String()},
		{PropertyCategory, e.Category.String()},
	}
	if e.Kind == mesh.KindTerm {
		values = append(values, [2]string{PropertyModifier, e.Modifier.String()})
	}

	props := make([]r4.CodeSystemConceptProperty, len(values))
	for i, v := range values {
		code, value := v[0], v[1]
		props[i] = r4.CodeSystemConceptProperty{Code: &code, ValueCode: &value}
	}
	return props
}

// Namer resolves a MeSH code to its records. *mesh.Document satisfies it.
type Namer interface {
	Lookup(uid string) []mesh.Entry
}

// XrefConceptMap converts surviving cross-reference groups into a
// ConceptMap from MeSH to SNOMED CT. Each MeSH code becomes one element
// targeting every SNOMED code that shares a uid with it. names may be nil.
// Entries must arrive grouped by uid, as xref.Document.Records yields them.
func XrefConceptMap(entries iter.Seq[xref.Entry], names Namer) *r4.ConceptMap {
	var (
		elements []r4.ConceptMapGroupElement
		byCode   = make(map[string]int)
		seen     = make(map[[2]string]bool)
	)

	flush := func(meshCodes, snomedCodes []string) {
		for _, mc := range meshCodes {
			i, ok := byCode[mc]
			if !ok {
				code := strings.Clone(mc)
				el := r4.ConceptMapGroupElement{Code: &code}
				if display := strings.Clone(displayOf(names, mc)); display != "" {
					el.Display = &display
				}
				i = len(elements)
				byCode[mc] = i
				elements = append(elements, el)
			}
			for _, sc := range snomedCodes {
				if seen[[2]string{mc, sc}] {
					continue
				}
				seen[[2]string{mc, sc}] = true
				code := strings.Clone(sc)
				elements[i].Target = append(elements[i].Target, r4.ConceptMapGroupElementTarget{Code: &code})
			}
		}
	}

	var (
		uid                   string
		meshCodes, sctTargets []string
	)
	for e := range entries {
		if e.UID != uid {
			flush(meshCodes, sctTargets)
			uid, meshCodes, sctTargets = e.UID, meshCodes[:0], sctTargets[:0]
		}
		switch sys, _ := tm.SystemOf(e.Source); sys {
		case tm.MeSH:
			meshCodes = append(meshCodes, e.Target)
		case tm.SNOMED:
			sctTargets = append(sctTargets, e.Target)
		}
	}
	flush(meshCodes, sctTargets)

	url := tm.MeSH.URI() + "/conceptmap/snomed"
	name := "MeSHToSNOMEDCT"
	source, target := tm.MeSH.URI(), tm.SNOMED.URI()
	cm := &r4.ConceptMap{
		Url:  &url,
		Name: &name,
	}
	if len(elements) > 0 {
		cm.Group = []r4.ConceptMapGroup{{
			Source:  &source,
			Target:  &target,
			Element: elements,
		}}
	}
	return cm
}

func displayOf(names Namer, code string) string {
	if names == nil {
		return ""
	}
	for _, e := range names.Lookup(code) {
		if e.Name != "" {
			return e.Name
		}
	}
	return ""
}

// MarshalResource renders a resource as FHIR JSON, filling the resource
// metadata the typed model leaves empty: resourceType, id, status and, for
// a CodeSystem, content. ConceptMap targets without an equivalence are
// marked "relatedto".
func MarshalResource(resourceType string, resource any) ([]byte, error) {
	raw, err := json.Marshal(resource)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	doc["resourceType"] = resourceType
	setDefault(doc, "id", uuid.NewString())
	setDefault(doc, "status", "active")

	switch resourceType {
	case "CodeSystem":
		setDefault(doc, "content", "complete")
		setDefault(doc, "title", tm.MeSH.Title())
	case "ConceptMap":
		setDefault(doc, "sourceUri", tm.MeSH.URI())
		setDefault(doc, "targetUri", tm.SNOMED.URI())
		markEquivalence(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func setDefault(doc map[string]any, key string, value any) {
	if v, ok := doc[key]; !ok || v == nil || v == "" {
		doc[key] = value
	}
}

func markEquivalence(doc map[string]any) {
	groups, _ := doc["group"].([]any)
	for _, g := range groups {
		group, _ := g.(map[string]any)
		elements, _ := group["element"].([]any)
		for _, el := range elements {
			element, _ := el.(map[string]any)
			targets, _ := element["target"].([]any)
			for _, t := range targets {
				if target, ok := t.(map[string]any); ok {
					setDefault(target, "equivalence", "relatedto")
				}
			}
		}
	}
}
