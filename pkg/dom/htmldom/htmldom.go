// Package htmldom adapts golang.org/x/net/html trees to the dom interfaces.
package htmldom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
)

// ErrForeignNode is returned when an element from another adapter is passed in.
var ErrForeignNode = errors.New("htmldom: element does not belong to this adapter")

// Document wraps a parsed HTML document.
type Document struct {
	root *html.Node
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument returns an empty document with html, head and body elements.
func NewDocument() *Document {
	doc, _ := ParseString("<!DOCTYPE html><html><head></head><body></body></html>")
	return doc
}

// Root returns the underlying document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, if any.
func (d *Document) Body() (dom.Element, bool) {
	n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	if n == nil {
		return nil, false
	}
	return d.wrap(n), true
}

// CreateElement returns a detached element owned by d.
func (d *Document) CreateElement(tag string) dom.Element {
	tag = strings.ToLower(tag)
	return d.wrap(&html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	})
}

// ElementByID finds the first element whose id attribute equals id.
func (d *Document) ElementByID(id string) (dom.Element, bool) {
	n := findFirst(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := getAttr(n, "id")
		return ok && v == id
	})
	if n == nil {
		return nil, false
	}
	return d.wrap(n), true
}

// Render serializes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{node: n, doc: d}
}

// Element wraps an element node.
type Element struct {
	node *html.Node
	doc  *Document
}

// Node exposes the wrapped node.
func (e *Element) Node() *html.Node {
	return e.node
}

func (e *Element) TagName() string {
	return e.node.Data
}

func (e *Element) Attr(name string) (string, bool) {
	return getAttr(e.node, name)
}

func (e *Element) SetAttr(name, value string) {
	for i := range e.node.Attr {
		if e.node.Attr[i].Namespace == "" && e.node.Attr[i].Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

func (e *Element) RemoveAttr(name string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		attrs = append(attrs, a)
	}
	e.node.Attr = attrs
}

func (e *Element) Attrs() []dom.Attribute {
	attrs := make([]dom.Attribute, 0, len(e.node.Attr))
	for _, a := range e.node.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		attrs = append(attrs, dom.Attribute{Name: name, Value: a.Val})
	}
	return attrs
}

func (e *Element) Parent() dom.Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

func (e *Element) Children() []dom.Element {
	var children []dom.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, e.doc.wrap(c))
		}
	}
	return children
}

func (e *Element) Descendants() []dom.Element {
	var out []dom.Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, e.doc.wrap(c))
			}
			walk(c)
		}
	}
	walk(e.node)
	return out
}

func (e *Element) InnerMarkup() (string, error) {
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render <%s> content: %w", e.node.Data, err)
		}
	}
	return buf.String(), nil
}

// SetInnerMarkup parses markup in the context of the element, so table rows and cells
// keep their structure without wrapper elements.
func (e *Element) SetInnerMarkup(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.node)
	if err != nil {
		return fmt.Errorf("failed to parse markup for <%s>: %w", e.node.Data, err)
	}
	for c := e.node.FirstChild; c != nil; c = e.node.FirstChild {
		e.node.RemoveChild(c)
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

func (e *Element) Clone() dom.Element {
	return e.doc.wrap(cloneNode(e.node))
}

func (e *Element) AppendChild(child dom.Element) error {
	c, err := e.own(child)
	if err != nil {
		return err
	}
	detach(c.node)
	e.node.AppendChild(c.node)
	return nil
}

func (e *Element) PrependChild(child dom.Element) error {
	c, err := e.own(child)
	if err != nil {
		return err
	}
	detach(c.node)
	if e.node.FirstChild == nil {
		e.node.AppendChild(c.node)
		return nil
	}
	e.node.InsertBefore(c.node, e.node.FirstChild)
	return nil
}

func (e *Element) RemoveChild(child dom.Element) error {
	c, err := e.own(child)
	if err != nil {
		return err
	}
	if c.node.Parent != e.node {
		return fmt.Errorf("htmldom: <%s> is not a child of <%s>", c.node.Data, e.node.Data)
	}
	e.node.RemoveChild(c.node)
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
	return ok && o != nil && o.node == e.node
}

// OuterMarkup renders the element itself, mostly useful in tests and logs.
func (e *Element) OuterMarkup() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, e.node); err != nil {
		return ""
	}
	return buf.String()
}

func (e *Element) own(child dom.Element) (*Element, error) {
	c, ok := child.(*Element)
	if !ok || c == nil {
		return nil, ErrForeignNode
	}
	return c, nil
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func cloneNode(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		cp.Attr = make([]html.Attribute, len(n.Attr))
		copy(cp.Attr, n.Attr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(cloneNode(c))
	}
	return cp
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}
