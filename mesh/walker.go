package mesh

import (
	"errors"
	"fmt"
	"strings"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/arena"
	"github.com/gofhir/termsmap/xmltree"
)

// walker turns descriptor subtrees into store records.
type walker struct {
	store *Store
	added int
}

// walk stores n as a record of the given kind under parent, then descends
// into the record lists the kind owns.
func (w *walker) walk(n *xmltree.Node, kind Kind, parent arena.Ref) error {
	schema, ok := schemas[kind]
	if !ok {
		return tm.NewError(tm.StatusUnknownNodeType, "no field schema for <%s>", n.Name())
	}

	uid, name, err := fields(n, schema)
	if err != nil {
		return err
	}

	var (
		cat Category
		mod Modifier
	)
	switch kind {
	case KindDescriptorRecord:
		cat, err = descriptorCategory(n)
	case KindConcept:
		cat, err = conceptCategory(n)
	case KindTerm:
		cat, mod = termAttributes(n)
	}
	if err != nil {
		return withUID(err, uid)
	}

	self, added, err := w.store.Add([]byte(uid), []byte(name), parent, kind, cat, mod)
	if err != nil {
		if errors.Is(err, arena.ErrAllocationFailed) {
			return &tm.Error{Status: tm.StatusAllocation, Message: fmt.Sprintf("record %s", uid), Err: err}
		}
		return err
	}
	if added {
		w.added++
	}

	for _, list := range children[kind] {
		for _, item := range n.Child(list).Children() {
			childKind := KindOf(item.Name())
			if childKind == KindUnknown {
				continue
			}
			if err := w.walk(item, childKind, self); err != nil {
				return err
			}
		}
	}
	return nil
}

// fields resolves the uid and name text of n per its schema.
func fields(n *xmltree.Node, schema fieldSchema) (string, string, error) {
	src := n
	if schema.wrapper != "" {
		src = n.Child(schema.wrapper)
		if src == nil {
			return "", "", tm.NewError(tm.StatusNodeMissing, "<%s> has no <%s>", n.Name(), schema.wrapper)
		}
	}

	uidNode := src.Child(schema.uid)
	if uidNode == nil {
		return "", "", tm.NewError(tm.StatusInvalidDataType, "<%s> has no <%s>", n.Name(), schema.uid)
	}
	uid := strings.TrimSpace(uidNode.Text())
	if uid == "" {
		return "", "", tm.NewError(tm.StatusEmptyNodeData, "<%s> is empty", schema.uid)
	}

	nameNode := src.Path(schema.name...)
	if nameNode == nil {
		return "", "", tm.NewError(tm.StatusInvalidDataType, "%s has no <%s>", uid, strings.Join(schema.name, "/"))
	}
	name := strings.TrimSpace(nameNode.Text())
	if name == "" {
		return "", "", tm.NewError(tm.StatusEmptyNodeData, "%s has an empty <%s>", uid, strings.Join(schema.name, "/"))
	}
	return uid, name, nil
}

func withUID(err error, uid string) error {
	var e *tm.Error
	if errors.As(err, &e) {
		return &tm.Error{Status: e.Status, Message: uid + ": " + e.Message, Err: e.Err}
	}
	return err
}
