package collada

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/daerig/pkg/encoding"
)

// Element is the read-only view of an XML element the loaders navigate.
// Lookups return nil when nothing matches.
type Element interface {
	Name() string
	Attribute(name string) string
	Text() string
	Child(name string) Element
	ChildWithAttribute(name, attr, value string) Element
	Children(name string) []Element
}

// Node is an in-memory XML element. Namespaces are dropped: only local names
// are kept for elements and attributes.
type Node struct {
	name     string
	attrs    []xml.Attr
	text     strings.Builder
	children []*Node
}

var _ Element = (*Node)(nil)

// ParseXML reads a whole XML document and returns its root element.
// Documents declaring a non UTF-8 encoding are transcoded while reading.
func ParseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = encoding.CharsetReader

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{name: t.Name.Local, attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrInvalidXML)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrInvalidXML)
	}
	return root, nil
}

// Name returns the element's local name.
func (n *Node) Name() string {
	return n.name
}

// Attribute returns the value of the named attribute, or "" when absent.
func (n *Node) Attribute(name string) string {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Text returns the element's own character data with surrounding space trimmed.
func (n *Node) Text() string {
	return strings.TrimSpace(n.text.String())
}

// Child returns the first child element with the given name.
func (n *Node) Child(name string) Element {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// ChildWithAttribute returns the first child with the given name whose
// attribute attr equals value.
func (n *Node) ChildWithAttribute(name, attr, value string) Element {
	for _, c := range n.children {
		if c.name == name && c.Attribute(attr) == value {
			return c
		}
	}
	return nil
}

// Children returns every child element with the given name, in document order.
func (n *Node) Children(name string) []Element {
	var out []Element
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}
