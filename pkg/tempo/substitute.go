package tempo

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// SubstitutionContext carries what a Program needs while executing against an item.
type SubstitutionContext struct {
	Filters   FilterRegistry
	Sanitizer Sanitizer
	Errors    *MultiError
	Logger    zerolog.Logger
}

// NewSubstitutionContext creates a context using the built-in filters and no sanitizer.
func NewSubstitutionContext() *SubstitutionContext {
	return &SubstitutionContext{
		Filters: GetDefaultFilterRegistry(),
		Errors:  NewMultiError(),
		Logger:  componentLogger("substitute"),
	}
}

func (ctx *SubstitutionContext) report(err error) {
	if err == nil {
		return
	}
	ctx.Logger.Debug().Err(err).Msg("substitution error")
	if ctx.Errors != nil {
		ctx.Errors.Add(err)
	}
}

// Substitute compiles source and executes it against item in one step.
func Substitute(ctx *SubstitutionContext, source string, item interface{}) string {
	return Compile(source).Execute(ctx, item)
}

// Execute renders the program for item. Missing paths become empty strings, conditions that
// fail to evaluate count as false, and failing filters keep the previous value. Those
// failures are recorded in ctx.Errors.
func (p *Program) Execute(ctx *SubstitutionContext, item interface{}) string {
	if ctx == nil {
		ctx = NewSubstitutionContext()
	}
	var sb strings.Builder
	sb.Grow(len(p.source))
	executeSegments(&sb, p.segments, ctx, item)
	return sb.String()
}

func executeSegments(sb *strings.Builder, segs []segment, ctx *SubstitutionContext, item interface{}) {
	for _, s := range segs {
		switch s.kind {
		case segmentText:
			sb.WriteString(s.text)
		case segmentPlaceholder:
			sb.WriteString(s.placeholder.Render(ctx, item))
		case segmentConditional:
			ok, err := EvaluateCondition(s.conditional.Expression, item)
			ctx.report(err)
			if ok {
				executeSegments(sb, s.conditional.body, ctx, item)
			}
		}
	}
}

// Value resolves the placeholder's path against item and runs the filter pipeline.
func (ph *Placeholder) Value(ctx *SubstitutionContext, item interface{}) interface{} {
	val, _ := ph.Path.Resolve(item)

	for _, call := range ph.Filters {
		var filter Filter
		var ok bool
		if ctx.Filters != nil {
			filter, ok = ctx.Filters.GetFilter(call.Name)
		}
		if !ok {
			ctx.report(NewFilterError(call.Name, call.Args, "unknown filter"))
			continue
		}

		next, err := filter.Apply(val, call.Args)
		if err != nil {
			if !IsFilterError(err) {
				err = NewFilterError(call.Name, call.Args, err.Error())
			}
			ctx.report(fmt.Errorf("%s: %w", ph.Source, err))
			continue
		}
		val = next
	}
	return val
}

// Render returns the placeholder's textual output for item.
func (ph *Placeholder) Render(ctx *SubstitutionContext, item interface{}) string {
	out := FormatValue(ph.Value(ctx, item))
	if ctx.Sanitizer != nil && out != "" {
		out = ctx.Sanitizer.Sanitize(out)
	}
	return out
}
