package tempo

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
	"github.com/rs/zerolog"
)

// Markers names the attributes that declare templates.
type Markers struct {
	// Template marks a template element. Its value is empty at the top level and names
	// the field of a nested collection otherwise.
	Template string
	// Fallback marks markup that is hidden once the container is parsed.
	Fallback string
	// GuardPrefix prefixes guard attributes such as data-if-active.
	GuardPrefix string
}

// DefaultMarkers returns data-template, data-template-fallback and data-if-.
func DefaultMarkers() Markers {
	return DefaultConfig().Markers()
}

// Predicate is a template guard: either the truthiness of a field path or the equality of
// its textual form with a literal.
type Predicate struct {
	Path    string
	Literal string
	Truthy  bool

	parsed Path
	err    error
}

// NewPredicate builds a guard from an attribute's field path and value. An empty value
// means truthiness.
func NewPredicate(path, value string) Predicate {
	p := Predicate{Path: path, Literal: value, Truthy: value == ""}
	if strings.TrimSpace(path) == "" {
		p.err = errors.New("guard has no field path")
		return p
	}
	p.parsed, p.err = ParsePath(path)
	return p
}

// Key returns the predicate in field==true or field=='literal' form.
func (p Predicate) Key() string {
	if p.Truthy {
		return p.Path + "==true"
	}
	return p.Path + "=='" + p.Literal + "'"
}

// Err returns the error found while parsing the guard path, if any.
func (p Predicate) Err() error {
	if p.err == nil {
		return nil
	}
	return NewExpressionError(p.Key(), nil, p.err)
}

// Matches evaluates the guard against item. A guard with a malformed path never matches.
func (p Predicate) Matches(item interface{}) (bool, error) {
	if p.err != nil {
		return false, NewExpressionError(p.Key(), fieldNames(item), p.err)
	}
	val, ok := p.parsed.Resolve(item)
	if p.Truthy {
		return ok && isTruthy(val), nil
	}
	return ok && FormatValue(val) == p.Literal, nil
}

type namedTemplate struct {
	predicate Predicate
	node      dom.Element
}

// Registry holds the templates found in one container. The default slot is last write
// wins; guarded templates are evaluated in the order they were first registered.
type Registry struct {
	mu sync.RWMutex

	markers         Markers
	scope           string
	defaultTemplate dom.Element
	named           []*namedTemplate
	index           map[string]int
	container       dom.Element

	logger zerolog.Logger
}

// NewRegistry creates an empty registry. scope is empty for a top-level container and the
// field name for a nested collection.
func NewRegistry(markers Markers, scope string) *Registry {
	def := DefaultMarkers()
	if markers.Template == "" {
		markers.Template = def.Template
	}
	if markers.Fallback == "" {
		markers.Fallback = def.Fallback
	}
	if markers.GuardPrefix == "" {
		markers.GuardPrefix = def.GuardPrefix
	}
	return &Registry{
		markers: markers,
		scope:   scope,
		index:   make(map[string]int),
		logger:  componentLogger("registry"),
	}
}

// Parse scans container once, registering every qualifying template and removing the
// template markup from the container afterwards. Parsing again replaces the previous
// template set. Malformed guards are reported in the returned error but do not stop the
// scan.
func (r *Registry) Parse(container dom.Element) error {
	if container == nil {
		return ErrNilContainer
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultTemplate = nil
	r.named = nil
	r.index = make(map[string]int)
	r.container = container

	errs := NewMultiError()
	for _, node := range container.Descendants() {
		switch {
		case r.qualifies(container, node):
			errs.Add(r.register(node))
		case dom.HasAttr(node, r.markers.Fallback):
			node.SetHidden(true)
		}
	}

	if r.defaultTemplate == nil && len(r.named) == 0 {
		if err := r.synthesize(container); err != nil {
			errs.Add(err)
		}
	}

	if err := clearTemplates(r.container, r.markers.Template, r.scope); err != nil {
		errs.Add(err)
	}

	r.logger.Debug().
		Str("scope", r.scope).
		Bool("default", r.defaultTemplate != nil).
		Int("guarded", len(r.named)).
		Msg("parsed templates")

	return errs.Err()
}

// qualifies reports whether node declares a template for this registry's scope. Templates
// nested inside another template belong to that template's nested registry.
func (r *Registry) qualifies(root, node dom.Element) bool {
	val, ok := node.Attr(r.markers.Template)
	if !ok || val != r.scope {
		return false
	}
	return !hasMarkedAncestor(node, root, r.markers.Template)
}

// register stores a clone of node. The container is remapped to node's parent, so a
// template placed deep in the container renders next to where it was declared.
func (r *Registry) register(node dom.Element) error {
	element := node.Clone()
	element.SetHidden(false)

	if parent := node.Parent(); parent != nil {
		r.container = parent
	}

	errs := NewMultiError()
	guarded := false
	for _, attr := range element.Attrs() {
		if !strings.HasPrefix(attr.Name, r.markers.GuardPrefix) {
			continue
		}
		pred := NewPredicate(strings.TrimPrefix(attr.Name, r.markers.GuardPrefix), attr.Value)
		errs.Add(pred.Err())
		element.RemoveAttr(attr.Name)
		r.setNamed(pred, element)
		guarded = true
	}

	if !guarded {
		if r.defaultTemplate != nil {
			r.logger.Debug().Str("scope", r.scope).Msg("replacing default template")
		}
		r.defaultTemplate = element
	}
	return errs.Err()
}

// setNamed registers node under pred's key, keeping the original position of a key that
// is registered again.
func (r *Registry) setNamed(pred Predicate, node dom.Element) {
	key := pred.Key()
	if idx, ok := r.index[key]; ok {
		r.named[idx] = &namedTemplate{predicate: pred, node: node}
		return
	}
	r.index[key] = len(r.named)
	r.named = append(r.named, &namedTemplate{predicate: pred, node: node})
}

// synthesize turns the container's own content into the default template when no template
// was declared. An empty container yields no template at all.
func (r *Registry) synthesize(container dom.Element) error {
	markup, err := container.InnerMarkup()
	if err != nil {
		return NewDocumentError("synthesize", container.TagName(), err)
	}
	if strings.TrimSpace(markup) == "" {
		return nil
	}

	el := container.Document().CreateElement("div")
	el.SetAttr(r.markers.Template, r.scope)
	if err := el.SetInnerMarkup(markup); err != nil {
		return NewDocumentError("synthesize", "div", err)
	}
	if err := container.SetInnerMarkup(""); err != nil {
		return NewDocumentError("synthesize", container.TagName(), err)
	}
	r.defaultTemplate = el
	return nil
}

// TemplateFor returns a clone of the template that applies to item: the first guarded
// template whose predicate matches, else the default. Guards that fail to evaluate are
// skipped and returned as an error alongside the result.
func (r *Registry) TemplateFor(item interface{}) (dom.Element, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := NewMultiError()
	for _, nt := range r.named {
		ok, err := nt.predicate.Matches(item)
		if err != nil {
			errs.Add(err)
			continue
		}
		if ok {
			return nt.node.Clone(), true, errs.Err()
		}
	}
	if r.defaultTemplate != nil {
		return r.defaultTemplate.Clone(), true, errs.Err()
	}
	return nil, false, errs.Err()
}

// Default returns the default template, or nil.
func (r *Registry) Default() dom.Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultTemplate
}

// GuardKeys returns the guard keys in evaluation order.
func (r *Registry) GuardKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, len(r.named))
	for i, nt := range r.named {
		keys[i] = nt.predicate.Key()
	}
	return keys
}

// Container returns the element rendered output is inserted into.
func (r *Registry) Container() dom.Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.container
}

// Scope returns the nested field name, or "" for a top-level registry.
func (r *Registry) Scope() string {
	return r.scope
}

// Markers returns the attribute names the registry recognizes.
func (r *Registry) Markers() Markers {
	return r.markers
}

// Empty reports whether the registry holds no template at all.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultTemplate == nil && len(r.named) == 0
}

// clearTemplates removes the direct children of container marked with scope. Siblings
// declared for other nested scopes are left alone.
func clearTemplates(container dom.Element, marker, scope string) error {
	if container == nil {
		return nil
	}
	children := container.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if val, ok := children[i].Attr(marker); !ok || val != scope {
			continue
		}
		if err := container.RemoveChild(children[i]); err != nil {
			return NewDocumentError("clear", children[i].TagName(), fmt.Errorf("remove child: %w", err))
		}
	}
	return nil
}
