// Package xmltree reads an XML document one top-level record at a time.
//
// Only the subtree of the current direct child of the root is held in
// memory, which keeps multi-gigabyte descriptor files streamable while still
// offering name, attribute, child and text access on each record.
package xmltree

import (
	"encoding/xml"
	"iter"
	"strings"
)

// Node is an element with its attributes, child elements and character data.
type Node struct {
	name     string
	attrs    []xml.Attr
	children []*Node
	text     strings.Builder
}

// Name returns the local element name. A nil node has an empty name.
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.name
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Children returns all child elements in document order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// ChildrenNamed yields the child elements with the given name.
func (n *Node) ChildrenNamed(name string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.Children() {
			if c.name == name && !yield(c) {
				return
			}
		}
	}
}

// Text returns the character data directly inside the element.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text.String()
}

// Path follows a chain of child names and returns the final node, or nil.
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}
