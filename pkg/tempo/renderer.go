package tempo

import (
	"fmt"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
	"github.com/rs/zerolog"
)

// renderEnv is the engine state a renderer and its nested renderers share.
type renderEnv struct {
	cache     *ProgramCache
	filters   FilterRegistry
	sanitizer Sanitizer
	markers   Markers
	maxDepth  int
	logger    zerolog.Logger
}

// Renderer renders data items into a registry's container.
//
// A Renderer is not safe for concurrent use; callers must serialize calls on the same
// renderer.
type Renderer struct {
	registry *Registry
	env      *renderEnv
	listener Listener
	started  bool
	depth    int
	errs     *MultiError
}

func newRenderer(registry *Registry, env *renderEnv, depth int) *Renderer {
	return &Renderer{
		registry: registry,
		env:      env,
		depth:    depth,
		errs:     NewMultiError(),
	}
}

// Registry returns the registry the renderer draws templates from.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// Err returns the non-fatal errors collected by the last render, append, prepend or clear.
func (r *Renderer) Err() error {
	return r.errs.Err()
}

// Notify sets the listener that receives lifecycle events, replacing any previous one.
func (r *Renderer) Notify(listener Listener) *Renderer {
	r.listener = listener
	return r
}

// Starting emits RenderStarting now and suppresses it for the next render call. Use it
// before fetching data asynchronously.
func (r *Renderer) Starting() *Renderer {
	r.started = true
	r.notify(Event{Type: RenderStarting})
	return r
}

// Render clears previous output from the container, then appends data.
func (r *Renderer) Render(data interface{}) *Renderer {
	r.begin()
	r.clear()
	r.insert(data, false)
	r.finish()
	return r
}

// Append renders data after the container's existing content.
func (r *Renderer) Append(data interface{}) *Renderer {
	r.begin()
	r.insert(data, false)
	r.finish()
	return r
}

// Prepend renders data before the container's existing content.
func (r *Renderer) Prepend(data interface{}) *Renderer {
	r.begin()
	r.insert(data, true)
	r.finish()
	return r
}

// Clear removes rendered (template-marked) children from the container.
func (r *Renderer) Clear() *Renderer {
	r.errs = NewMultiError()
	r.clear()
	return r
}

func (r *Renderer) notify(ev Event) {
	if r.listener != nil {
		r.listener(ev)
	}
}

func (r *Renderer) begin() {
	r.errs = NewMultiError()
	if !r.started {
		r.notify(Event{Type: RenderStarting})
	}
}

func (r *Renderer) finish() {
	r.notify(Event{Type: RenderComplete})
	r.started = false

	if r.depth == 0 && r.errs.Len() > 0 {
		r.env.logger.Warn().
			Err(r.errs).
			Str("scope", r.registry.Scope()).
			Int("depth", r.depth).
			Msg("render completed with errors")
	}
}

func (r *Renderer) clear() {
	r.errs.Add(clearTemplates(r.registry.Container(), r.env.markers.Template, r.registry.Scope()))
}

func (r *Renderer) insert(data interface{}, prepend bool) {
	fragment := r.createFragment(data)
	container := r.registry.Container()
	if container == nil || fragment.Len() == 0 {
		return
	}

	var err error
	if prepend {
		err = fragment.PrependTo(container)
	} else {
		err = fragment.AppendTo(container)
	}
	r.errs.Add(NewDocumentError("insert", container.TagName(), err))
}

func (r *Renderer) createFragment(data interface{}) *dom.Fragment {
	fragment := dom.NewFragment()
	items := toItems(data)
	for _, item := range items {
		if item == nil {
			continue
		}
		r.renderItem(item, fragment)
	}
	r.env.logger.Debug().
		Str("scope", r.registry.Scope()).
		Int("items", len(items)).
		Int("rendered", fragment.Len()).
		Msg("rendered fragment")
	return fragment
}

func (r *Renderer) substitution() *SubstitutionContext {
	return &SubstitutionContext{
		Filters:   r.env.filters,
		Sanitizer: r.env.sanitizer,
		Errors:    r.errs,
		Logger:    r.env.logger,
	}
}

// renderItem renders item into a template clone and appends it to fragment. Every
// ItemRenderStarting is paired with an ItemRenderComplete, including for items whose
// output could not be materialized; those are left out of the fragment.
func (r *Renderer) renderItem(item interface{}, fragment *dom.Fragment) {
	template, ok, err := r.registry.TemplateFor(item)
	r.errs.Add(err)
	if !ok {
		return
	}

	r.notify(Event{Type: ItemRenderStarting, Item: item, Element: template})
	defer r.notify(Event{Type: ItemRenderComplete, Item: item, Element: template})

	r.renderNested(template, item)

	markup, err := template.InnerMarkup()
	if err != nil {
		r.errs.Add(NewDocumentError("serialize", template.TagName(), err))
		return
	}

	ctx := r.substitution()
	output := r.env.cache.Compile(markup).Execute(ctx, item)

	for _, name := range []string{"class", "id"} {
		if val, ok := template.Attr(name); ok && val != "" {
			template.SetAttr(name, r.env.cache.Compile(val).Execute(ctx, item))
		}
	}

	if err := template.SetInnerMarkup(output); err != nil {
		r.errs.Add(NewDocumentError("materialize", template.TagName(), err))
		return
	}
	fragment.Append(template)
}

// renderNested renders every nested collection declared directly inside template into
// its own place in the template, before the template's own placeholders are substituted.
func (r *Renderer) renderNested(template dom.Element, item interface{}) {
	for _, scope := range nestedScopes(template, r.env.markers.Template) {
		registry := NewRegistry(r.env.markers, scope)
		r.errs.Add(registry.Parse(template))

		if r.depth+1 > r.env.maxDepth {
			r.errs.Add(fmt.Errorf("nested template %q exceeds max nesting depth %d", scope, r.env.maxDepth))
			continue
		}

		value, _ := ResolvePath(item, scope)
		child := newRenderer(registry, r.env, r.depth+1)
		child.Render(value)
		r.errs.Add(child.Err())
	}
}

// nestedScopes lists, in document order and without duplicates, the scope names of the
// template declarations whose nearest template-marked ancestor is template itself.
func nestedScopes(template dom.Element, marker string) []string {
	var scopes []string
	seen := make(map[string]bool)
	for _, node := range template.Descendants() {
		scope, ok := node.Attr(marker)
		if !ok || scope == "" || seen[scope] {
			continue
		}
		if hasMarkedAncestor(node, template, marker) {
			continue
		}
		seen[scope] = true
		scopes = append(scopes, scope)
	}
	return scopes
}

// hasMarkedAncestor reports whether a template-marked element sits strictly between node
// and root.
func hasMarkedAncestor(node, root dom.Element, marker string) bool {
	for p := node.Parent(); p != nil && !p.IsSameNode(root); p = p.Parent() {
		if dom.HasAttr(p, marker) {
			return true
		}
	}
	return false
}
