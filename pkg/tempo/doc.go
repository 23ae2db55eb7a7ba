// Package tempo renders lists of data items into markup templates declared inside a host
// document.
//
// A container element holds one or more template elements marked with data-template. The
// engine parses the container once, keeps detached copies of its templates, and renders
// any number of items into the container afterwards, clearing previous output on each
// Render call.
//
// # Quick Start
//
//	doc, err := htmldom.ParseString(`<ul id="people">
//	    <li data-template>{{name | upper}}</li>
//	</ul>`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r, err := tempo.PrepareID(doc, "people")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Render([]tempo.Data{{"name": "Ann"}, {"name": "Bob"}})
//
//	doc.Render(os.Stdout)
//
// # Template Declarations
//
//	<li data-template>...</li>                    - Default template (last one wins)
//	<li data-template data-if-vip>...</li>        - Used when item.vip is truthy
//	<li data-template data-if-kind="a">...</li>   - Used when item.kind renders as "a"
//	<p data-template-fallback>No data</p>         - Hidden once the container is parsed
//	<ul><li data-template="tags">...</li></ul>    - Template for the nested field "tags"
//
// Guarded templates are tried in the order they were declared; the first match wins,
// then the default template applies. Items no template applies to produce no output.
//
// # Template Syntax
//
// Placeholders:
//
//	{{name}}                          - Field of the item
//	{{user.tags[0]}}                  - Nested field and index access
//	{{.}}                             - The item itself
//	{{name | upper | append '!'}}     - Filter pipeline, applied left to right
//	{{text | replace '\s+', ' '}}     - Filter with several arguments
//
// Conditionals:
//
//	{{if active && score > 3}}...{{endif}}
//
// Conditions support literals, field access, arithmetic, comparison, equality and the
// logical operators. Blocks do not nest.
//
// # Filters
//
//	upper, lower, trim          - Case conversion (locale aware) and trimming
//	replace 'pattern', 'repl'   - Regular expression replace, literal if the pattern is invalid
//	append 'x', prepend 'x'     - Concatenation
//	date 'YYYY-MM-DD HH:mm'     - Date tokens: YYYY YY MM M DD D HH H mm m ss s SSS S a
//	date 'localedate'           - Also localetime and time
//
// Custom filters are added with RegisterFilter or the WithFilter option.
//
// # Errors
//
// Rendering never stops for data problems. Missing fields render as empty strings, failing
// conditions count as false, and failing filters keep the previous value. The problems
// are collected and exposed through Renderer.Err.
//
// # Configuration
//
// Configuration is read from TEMPO_* environment variables or a TOML/YAML file through
// LoadConfig:
//
//	TEMPO_CACHE_MAX_SIZE    - Compiled program cache size (default: 100, 0 disables)
//	TEMPO_LOG_LEVEL         - Logging level: trace, debug, info, warn, error, off
//	TEMPO_LOCALE            - BCP 47 locale for filters (default: en)
//	TEMPO_TIME_ZONE         - IANA zone dates are shown in (default: Local)
//	TEMPO_SANITIZE          - Sanitizing of substituted values: none, strict, ugc
//	TEMPO_MAX_NESTING_DEPTH - Nested collection depth limit (default: 32)
package tempo
