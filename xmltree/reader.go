package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"

	tm "github.com/gofhir/termsmap"
)

// Reader streams the direct children of a document's root element.
type Reader struct {
	dec  *xml.Decoder
	root string
	done bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// Root advances to the root element and checks its name.
// A document without a root element, or with a differently named one,
// is StatusRootMissing. Malformed XML is StatusXMLRead.
func (r *Reader) Root(name string) error {
	for {
		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			return tm.NewError(tm.StatusRootMissing, "expected root <%s>, document is empty", name)
		}
		if err != nil {
			return xmlError(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != name {
			return tm.NewError(tm.StatusRootMissing, "expected root <%s>, found <%s>", name, start.Name.Local)
		}
		r.root = name
		return nil
	}
}

// Next returns the next direct child of the root with its full subtree,
// or io.EOF once the root element closes.
func (r *Reader) Next() (*Node, error) {
	if r.root == "" {
		return nil, tm.NewError(tm.StatusRootMissing, "Root must be called before Next")
	}
	if r.done {
		return nil, io.EOF
	}
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, xmlError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return r.subtree(t)
		case xml.EndElement:
			r.done = true
			return nil, io.EOF
		}
	}
}

// Records yields every direct child of the root. Iteration stops at the
// first error, which is yielded with a nil node.
func (r *Reader) Records() iter.Seq2[*Node, error] {
	return func(yield func(*Node, error) bool) {
		for {
			n, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(n, err) || err != nil {
				return
			}
		}
	}
}

func (r *Reader) subtree(start xml.StartElement) (*Node, error) {
	top := newNode(start)
	stack := []*Node{top}
	for len(stack) > 0 {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, xmlError(err)
		}
		cur := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			child := newNode(t)
			cur.children = append(cur.children, child)
			stack = append(stack, child)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			cur.text.Write(t)
		}
	}
	return top, nil
}

func newNode(start xml.StartElement) *Node {
	n := &Node{name: start.Name.Local}
	if len(start.Attr) > 0 {
		n.attrs = make([]xml.Attr, len(start.Attr))
		copy(n.attrs, start.Attr)
	}
	return n
}

// Parse reads a whole document into memory and returns its root.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, tm.NewError(tm.StatusRootMissing, "document is empty")
		}
		if err != nil {
			return nil, xmlError(err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			rd := &Reader{dec: dec}
			return rd.subtree(start)
		}
	}
}

func xmlError(err error) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &tm.Error{Status: tm.StatusXMLRead, Message: fmt.Sprintf("line %d: %s", syn.Line, syn.Msg), Err: err}
	}
	return &tm.Error{Status: tm.StatusXMLRead, Message: err.Error(), Err: err}
}
