package tempo

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
	"github.com/benjaminschreck/go-tempo/pkg/dom/htmldom"
)

// newContainer parses inner as the content of <div id="c"> and returns that element.
func newContainer(t *testing.T, inner string) dom.Element {
	t.Helper()
	doc, err := htmldom.ParseString(fmt.Sprintf(`<!DOCTYPE html><html><body><div id="c">%s</div></body></html>`, inner))
	require.NoError(t, err)
	el, ok := doc.ElementByID("c")
	require.True(t, ok)
	return el
}

// newTableContainer is like newContainer for rows of <table id="c">.
func newTableContainer(t *testing.T, rows string) dom.Element {
	t.Helper()
	doc, err := htmldom.ParseString(fmt.Sprintf(`<!DOCTYPE html><html><body><table id="c">%s</table></body></html>`, rows))
	require.NoError(t, err)
	el, ok := doc.ElementByID("c")
	require.True(t, ok)
	return el
}

func innerMarkup(t *testing.T, el dom.Element) string {
	t.Helper()
	s, err := el.InnerMarkup()
	require.NoError(t, err)
	return s
}

// testConfig renders dates in UTC and keeps the logger quiet.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.TimeZone = "UTC"
	cfg.LogLevel = "off"
	return cfg
}

func testEngine(opts ...Option) *Engine {
	opts = append([]Option{WithConfig(testConfig()), WithLogger(zerolog.Nop())}, opts...)
	return NewWithOptions(opts...)
}

// prepare parses inner into a container and prepares it with a quiet engine.
func prepare(t *testing.T, inner string, opts ...Option) (*Renderer, dom.Element) {
	t.Helper()
	container := newContainer(t, inner)
	r, err := testEngine(opts...).Prepare(container)
	require.NoError(t, err)
	return r, container
}
