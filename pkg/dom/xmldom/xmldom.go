// Package xmldom adapts github.com/beevik/etree documents to the dom interfaces, so
// XHTML, SVG or any other XML vocabulary can host tempo templates.
package xmldom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
)

// ErrForeignNode is returned when an element from another adapter is passed in.
var ErrForeignNode = errors.New("xmldom: element does not belong to this adapter")

// scratchRoot wraps markup fragments so they parse as a single well-formed document.
const scratchRoot = "tempo-fragment"

// Document wraps an etree document.
type Document struct {
	doc *etree.Document
}

// Parse reads an XML document.
func Parse(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Wrap adapts an existing etree document.
func Wrap(doc *etree.Document) *Document {
	return &Document{doc: doc}
}

// Etree exposes the underlying document.
func (d *Document) Etree() *etree.Document {
	return d.doc
}

// Root returns the document element.
func (d *Document) Root() (dom.Element, bool) {
	root := d.doc.Root()
	if root == nil {
		return nil, false
	}
	return d.wrap(root), true
}

func (d *Document) CreateElement(tag string) dom.Element {
	return d.wrap(etree.NewElement(tag))
}

func (d *Document) ElementByID(id string) (dom.Element, bool) {
	var found *etree.Element
	if !strings.ContainsAny(id, `'"`) {
		found = d.doc.FindElement("//*[@id='" + id + "']")
	} else {
		found = findFirst(&d.doc.Element, func(el *etree.Element) bool {
			return el.SelectAttrValue("id", "") == id && el.SelectAttr("id") != nil
		})
	}
	if found == nil {
		return nil, false
	}
	return d.wrap(found), true
}

func (d *Document) Render(w io.Writer) error {
	_, err := d.doc.WriteTo(w)
	return err
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	s, err := d.doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

func (d *Document) wrap(el *etree.Element) *Element {
	return &Element{el: el, doc: d}
}

// Element wraps an etree element.
type Element struct {
	el  *etree.Element
	doc *Document
}

// Etree exposes the underlying element.
func (e *Element) Etree() *etree.Element {
	return e.el
}

func (e *Element) TagName() string {
	return e.el.FullTag()
}

func (e *Element) Attr(name string) (string, bool) {
	a := e.el.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

func (e *Element) SetAttr(name, value string) {
	e.el.CreateAttr(name, value)
}

func (e *Element) RemoveAttr(name string) {
	e.el.RemoveAttr(name)
}

func (e *Element) Attrs() []dom.Attribute {
	attrs := make([]dom.Attribute, 0, len(e.el.Attr))
	for _, a := range e.el.Attr {
		attrs = append(attrs, dom.Attribute{Name: a.FullKey(), Value: a.Value})
	}
	return attrs
}

// Parent returns nil for the document element, whose etree parent is the document itself.
func (e *Element) Parent() dom.Element {
	p := e.el.Parent()
	if p == nil || p.Tag == "" {
		return nil
	}
	return e.doc.wrap(p)
}

func (e *Element) Children() []dom.Element {
	var children []dom.Element
	for _, c := range e.el.ChildElements() {
		children = append(children, e.doc.wrap(c))
	}
	return children
}

func (e *Element) Descendants() []dom.Element {
	var out []dom.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			out = append(out, e.doc.wrap(c))
			walk(c)
		}
	}
	walk(e.el)
	return out
}

// InnerMarkup serializes a copy of the element's child tokens through a scratch document.
func (e *Element) InnerMarkup() (string, error) {
	cp := e.el.Copy()
	scratch := etree.NewDocument()
	for len(cp.Child) > 0 {
		scratch.AddChild(cp.Child[0])
	}
	s, err := scratch.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize <%s> content: %w", e.el.FullTag(), err)
	}
	return s, nil
}

func (e *Element) SetInnerMarkup(markup string) error {
	scratch := etree.NewDocument()
	if err := scratch.ReadFromString("<" + scratchRoot + ">" + markup + "</" + scratchRoot + ">"); err != nil {
		return fmt.Errorf("failed to parse markup for <%s>: %w", e.el.FullTag(), err)
	}
	root := scratch.Root()
	if root == nil {
		return fmt.Errorf("failed to parse markup for <%s>: empty document", e.el.FullTag())
	}
	for len(e.el.Child) > 0 {
		e.el.RemoveChildAt(0)
	}
	for len(root.Child) > 0 {
		e.el.AddChild(root.Child[0])
	}
	return nil
}

func (e *Element) Clone() dom.Element {
	return e.doc.wrap(e.el.Copy())
}

func (e *Element) AppendChild(child dom.Element) error {
	c, err := own(child)
	if err != nil {
		return err
	}
	e.el.AddChild(c.el)
	return nil
}

func (e *Element) PrependChild(child dom.Element) error {
	c, err := own(child)
	if err != nil {
		return err
	}
	if p := c.el.Parent(); p != nil {
		p.RemoveChild(c.el)
	}
	e.el.InsertChildAt(0, c.el)
	return nil
}

func (e *Element) RemoveChild(child dom.Element) error {
	c, err := own(child)
	if err != nil {
		return err
	}
	if e.el.RemoveChild(c.el) == nil {
		return fmt.Errorf("xmldom: <%s> is not a child of <%s>", c.el.FullTag(), e.el.FullTag())
	}
	return nil
}

func (e *Element) SetHidden(hidden bool) {
	dom.ApplyHidden(e, hidden)
}

func (e *Element) Document() dom.Document {
	return e.doc
}

func (e *Element) IsSameNode(other dom.Element) bool {
	o, ok := other.(*Element)
	return ok && o != nil && o.el == e.el
}

func own(child dom.Element) (*Element, error) {
	c, ok := child.(*Element)
	if !ok || c == nil {
		return nil, ErrForeignNode
	}
	return c, nil
}

func findFirst(el *etree.Element, match func(*etree.Element) bool) *etree.Element {
	for _, c := range el.ChildElements() {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}
