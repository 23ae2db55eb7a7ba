package tempo

import (
	"html"
	"regexp"
	"strings"
)

var (
	// tagPattern matches {{...}} tags, non-greedy across lines
	tagPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

	// ifPattern matches the opening tag of a conditional block
	ifPattern = regexp.MustCompile(`(?is)^if\s+(.+)$`)

	// endifPattern matches the closing tag of a conditional block
	endifPattern = regexp.MustCompile(`(?i)^\s*endif\s*$`)

	// pathPattern is the alphabet a placeholder path may use
	pathPattern = regexp.MustCompile(`^[A-Za-z0-9._\[\]'"]+$`)

	quoteEscapes = strings.NewReplacer(`\'`, `'`, `\"`, `"`)

	encodedDelimiters = strings.NewReplacer("%7B%7B", "{{", "%7D%7D", "}}", "%7b%7b", "{{", "%7d%7d", "}}")
)

type segmentKind int

const (
	segmentText segmentKind = iota
	segmentPlaceholder
	segmentConditional
)

type segment struct {
	kind        segmentKind
	text        string
	placeholder *Placeholder
	conditional *Conditional
}

// Placeholder is a compiled {{ path | filter args }} tag.
type Placeholder struct {
	Source  string
	Path    Path
	Filters []FilterCall
}

// FilterCall is one stage of a placeholder's filter pipeline.
type FilterCall struct {
	Name string
	Args []string
}

// Conditional is a compiled {{if expr}}...{{endif}} block. Its body holds text and
// placeholders only.
type Conditional struct {
	Source     string
	Expression string
	body       []segment
}

// Program is a template body compiled once and executed per item.
type Program struct {
	source   string
	segments []segment
}

// Source returns the normalized source the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// Placeholders lists the program's placeholders in source order, including those inside
// conditional blocks.
func (p *Program) Placeholders() []*Placeholder {
	var out []*Placeholder
	var walk func(segs []segment)
	walk = func(segs []segment) {
		for _, s := range segs {
			switch s.kind {
			case segmentPlaceholder:
				out = append(out, s.placeholder)
			case segmentConditional:
				walk(s.conditional.body)
			}
		}
	}
	walk(p.segments)
	return out
}

// Conditionals lists the program's conditional blocks in source order.
func (p *Program) Conditionals() []*Conditional {
	var out []*Conditional
	for _, s := range p.segments {
		if s.kind == segmentConditional {
			out = append(out, s.conditional)
		}
	}
	return out
}

// Compile scans source into a Program. It never fails: tags that are neither a valid
// placeholder nor a closed conditional stay in the output as literal text.
func Compile(source string) *Program {
	source = encodedDelimiters.Replace(source)
	prog := &Program{source: source}

	tags := tagPattern.FindAllStringSubmatchIndex(source, -1)
	pos := 0
	for i := 0; i < len(tags); i++ {
		tag := tags[i]
		start, end := tag[0], tag[1]
		content := html.UnescapeString(source[tag[2]:tag[3]])

		if m := ifPattern.FindStringSubmatch(strings.TrimLeft(content, " ")); m != nil {
			closing := -1
			for j := i + 1; j < len(tags); j++ {
				if endifPattern.MatchString(source[tags[j][2]:tags[j][3]]) {
					closing = j
					break
				}
			}
			if closing >= 0 {
				prog.appendText(source[pos:start])
				bodyStart, bodyEnd := end, tags[closing][0]
				cond := &Conditional{
					Source:     source[start:tags[closing][1]],
					Expression: strings.TrimSpace(m[1]),
					body:       compileBody(source[bodyStart:bodyEnd], tags[i+1:closing], bodyStart),
				}
				prog.segments = append(prog.segments, segment{kind: segmentConditional, conditional: cond})
				pos = tags[closing][1]
				i = closing
				continue
			}
		}

		if ph, ok := parsePlaceholder(source[start:end], content); ok {
			prog.appendText(source[pos:start])
			prog.segments = append(prog.segments, segment{kind: segmentPlaceholder, placeholder: ph})
			pos = end
		}
	}
	prog.appendText(source[pos:])

	return prog
}

// compileBody compiles the inside of a conditional block. tags are the tag matches that
// fall inside it, with offsets relative to the whole source.
func compileBody(body string, tags [][]int, offset int) []segment {
	var segs []segment
	pos := 0
	for _, tag := range tags {
		start, end := tag[0]-offset, tag[1]-offset
		content := html.UnescapeString(body[tag[2]-offset : tag[3]-offset])
		ph, ok := parsePlaceholder(body[start:end], content)
		if !ok {
			continue
		}
		if start > pos {
			segs = append(segs, segment{kind: segmentText, text: body[pos:start]})
		}
		segs = append(segs, segment{kind: segmentPlaceholder, placeholder: ph})
		pos = end
	}
	if pos < len(body) {
		segs = append(segs, segment{kind: segmentText, text: body[pos:]})
	}
	return segs
}

func (p *Program) appendText(text string) {
	if text == "" {
		return
	}
	if n := len(p.segments); n > 0 && p.segments[n-1].kind == segmentText {
		p.segments[n-1].text += text
		return
	}
	p.segments = append(p.segments, segment{kind: segmentText, text: text})
}

// parsePlaceholder parses the content of a {{...}} tag as path | filter args | ...
func parsePlaceholder(source, content string) (*Placeholder, bool) {
	if endifPattern.MatchString(content) {
		return nil, false
	}
	parts := splitOutsideQuotes(content, '|')
	pathText := strings.TrimSpace(parts[0])
	if pathText == "" || !pathPattern.MatchString(pathText) {
		return nil, false
	}
	path, err := ParsePath(pathText)
	if err != nil {
		return nil, false
	}

	ph := &Placeholder{Source: source, Path: path}
	for _, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, false
		}
		call := FilterCall{Name: raw}
		if idx := strings.IndexAny(raw, " \t"); idx >= 0 {
			call.Name = raw[:idx]
			call.Args = parseFilterArgs(raw[idx+1:])
		}
		ph.Filters = append(ph.Filters, call)
	}
	return ph, true
}

// splitOutsideQuotes splits s on sep, ignoring separators inside single or double quotes.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	var quote byte
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}

// parseFilterArgs splits a comma separated argument list. Quoted arguments keep their
// whitespace; bare ones are trimmed.
func parseFilterArgs(s string) []string {
	var args []string
	for _, raw := range splitOutsideQuotes(s, ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if n := len(raw); n >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[n-1] == raw[0] {
			args = append(args, unescapeQuoted(raw[1:n-1]))
			continue
		}
		args = append(args, raw)
	}
	return args
}

// unescapeQuoted drops the backslash of an escaped quote. Other backslashes are kept so
// that replace patterns such as '\s+' survive.
func unescapeQuoted(s string) string {
	return quoteEscapes.Replace(s)
}
