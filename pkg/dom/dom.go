// Package dom defines the small document-tree surface the tempo engine needs from a host
// document. Adapters for concrete trees live in the htmldom and xmldom subpackages.
//
// The engine never assumes more than this capability set: element creation, deep cloning,
// attribute access, descendant enumeration, inner markup read/write, child insertion and
// removal, and lookup by identifier.
package dom

import (
	"io"
	"strings"
)

// Attribute is a single name/value pair on an element.
type Attribute struct {
	Name  string
	Value string
}

// Document is the owner of a tree of elements.
type Document interface {
	// CreateElement returns a new, detached element with the given tag name.
	CreateElement(tag string) Element

	// ElementByID finds the element whose id attribute equals id.
	ElementByID(id string) (Element, bool)

	// Render serializes the whole document.
	Render(w io.Writer) error
}

// Element is a single element node of a document tree.
type Element interface {
	TagName() string

	// Attr returns the value of the named attribute and whether it is present.
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	// Attrs returns a snapshot of the element's attributes in document order.
	Attrs() []Attribute

	// Parent returns the parent element, or nil for a detached root.
	Parent() Element
	// Children returns the element children.
	Children() []Element
	// Descendants returns all element descendants depth-first in document order,
	// excluding the element itself.
	Descendants() []Element

	// InnerMarkup serializes the element's content.
	InnerMarkup() (string, error)
	// SetInnerMarkup replaces the element's content with the parsed markup.
	SetInnerMarkup(markup string) error

	// Clone returns a deep, detached copy of the element.
	Clone() Element

	AppendChild(child Element) error
	PrependChild(child Element) error
	RemoveChild(child Element) error

	// SetHidden toggles a display:none style on the element.
	SetHidden(hidden bool)

	// Document returns the owning document.
	Document() Document

	// IsSameNode reports whether other wraps the same underlying node.
	IsSameNode(other Element) bool
}

// Fragment is a detached, ordered group of elements waiting to be inserted.
type Fragment struct {
	nodes []Element
}

// NewFragment creates an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{}
}

// Append adds an element at the end of the fragment.
func (f *Fragment) Append(el Element) {
	f.nodes = append(f.nodes, el)
}

// Len returns the number of elements in the fragment.
func (f *Fragment) Len() int {
	return len(f.nodes)
}

// Nodes returns the fragment's elements in order.
func (f *Fragment) Nodes() []Element {
	return f.nodes
}

// AppendTo inserts the fragment at the end of parent.
func (f *Fragment) AppendTo(parent Element) error {
	for _, n := range f.nodes {
		if err := parent.AppendChild(n); err != nil {
			return err
		}
	}
	return nil
}

// PrependTo inserts the fragment at the start of parent, keeping fragment order.
func (f *Fragment) PrependTo(parent Element) error {
	for i := len(f.nodes) - 1; i >= 0; i-- {
		if err := parent.PrependChild(f.nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

// HasAttr reports whether el carries the named attribute.
func HasAttr(el Element, name string) bool {
	_, ok := el.Attr(name)
	return ok
}

// SetDisplayNone rewrites an inline style declaration list so that it either carries
// display:none (hidden) or no display declaration at all.
func SetDisplayNone(style string, hidden bool) string {
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		prop := decl
		if idx := strings.Index(decl, ":"); idx >= 0 {
			prop = decl[:idx]
		}
		if strings.EqualFold(strings.TrimSpace(prop), "display") {
			continue
		}
		decls = append(decls, decl)
	}
	if hidden {
		decls = append(decls, "display: none")
	}
	if len(decls) == 0 {
		return ""
	}
	return strings.Join(decls, "; ")
}

// ApplyHidden updates or removes el's style attribute so it matches hidden.
func ApplyHidden(el Element, hidden bool) {
	style, _ := el.Attr("style")
	updated := SetDisplayNone(style, hidden)
	if updated == "" {
		el.RemoveAttr("style")
		return
	}
	el.SetAttr("style", updated)
}
