package tempo

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-tempo/pkg/dom/htmldom"
)

func reverseFilter() Filter {
	return NewSimpleFilter("reverse", func(value interface{}, args []string) (interface{}, error) {
		if value == nil {
			return nil, nil
		}
		runes := []rune(FormatValue(value))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	})
}

func TestNewWithConfig(t *testing.T) {
	cfg := testConfig()
	cfg.CacheMaxSize = 7
	cfg.GuardPrefix = "data-when-"

	engine := NewWithConfig(cfg)
	assert.Equal(t, 7, engine.Config().CacheMaxSize)
	assert.Equal(t, "data-when-", engine.Config().Markers().GuardPrefix)
	assert.NotNil(t, engine.Cache())

	_, ok := engine.Filters().GetFilter("upper")
	assert.True(t, ok)
}

func TestNewWithConfigFallsBackOnInvalidSettings(t *testing.T) {
	cfg := testConfig()
	cfg.TimeZone = "Nowhere/Special"
	cfg.Sanitize = "bogus"

	engine := NewWithConfig(cfg)
	require.NotNil(t, engine)
	assert.Nil(t, engine.sanitizer)

	_, ok := engine.Filters().GetFilter("date")
	assert.True(t, ok)
}

func TestEngineOptions(t *testing.T) {
	engine := testEngine(WithCache(0), WithFilter(reverseFilter()), WithLocale("de"))

	assert.Equal(t, 0, engine.Config().CacheMaxSize)
	assert.Equal(t, "de", engine.Config().Locale)

	_, ok := engine.Filters().GetFilter("reverse")
	assert.True(t, ok, "custom filters survive a locale change")

	invalid := testEngine(WithLocale("not a locale!"))
	assert.Equal(t, "en", invalid.Config().Locale)
}

func TestEngineCustomFilter(t *testing.T) {
	engine := testEngine()
	require.NoError(t, engine.RegisterFilter(reverseFilter()))

	container := newContainer(t, `<p data-template>{{name | reverse | upper}}</p>`)
	r, err := engine.Prepare(container)
	require.NoError(t, err)

	r.Render(Data{"name": "stressed"})
	assert.Equal(t, `<p data-template="">DESSERTS</p>`, innerMarkup(t, container))
}

func TestEngineLocale(t *testing.T) {
	engine := testEngine(WithLocale("de"))
	container := newContainer(t, `<p data-template>{{d | date 'localedate'}}</p>`)
	r, err := engine.Prepare(container)
	require.NoError(t, err)

	r.Render(Data{"d": "2024-03-07"})
	assert.Equal(t, `<p data-template="">7.3.2024</p>`, innerMarkup(t, container))
}

func TestEngineCachesPrograms(t *testing.T) {
	engine := testEngine()
	container := newContainer(t, `<p data-template>{{.}}</p>`)
	r, err := engine.Prepare(container)
	require.NoError(t, err)

	r.Render([]string{"a", "b", "c"})
	stats := engine.Cache().Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(2), stats.Hits)

	engine.ClearCache()
	assert.Equal(t, 0, engine.Cache().Size())
}

func TestPrepare(t *testing.T) {
	engine := testEngine()

	_, err := engine.Prepare(nil)
	assert.True(t, errors.Is(err, ErrNilContainer))

	// Malformed guards are logged, not fatal.
	container := newContainer(t, `<p data-template data-if-a..b>x</p>`)
	r, err := engine.Prepare(container)
	require.NoError(t, err)
	assert.Equal(t, []string{"a..b==true"}, r.Registry().GuardKeys())
}

func TestPrepareID(t *testing.T) {
	doc, err := htmldom.ParseString(`<html><body><ul id="list"><li data-template>{{.}}</li></ul></body></html>`)
	require.NoError(t, err)
	engine := testEngine()

	_, err = engine.PrepareID(doc, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContainerNotFound))
	assert.Contains(t, err.Error(), "#missing")

	_, err = engine.PrepareID(nil, "list")
	assert.True(t, errors.Is(err, ErrNilContainer))

	r, err := engine.PrepareID(doc, "list")
	require.NoError(t, err)
	r.Render([]string{"x", "y"})

	assert.Contains(t, doc.String(), `<ul id="list"><li data-template="">x</li><li data-template="">y</li></ul>`)
}

func TestPackageLevelFunctions(t *testing.T) {
	require.NoError(t, RegisterFilter(NewSimpleFilter("loud", func(v interface{}, _ []string) (interface{}, error) {
		return strings.ToUpper(FormatValue(v)) + "!", nil
	})))

	doc, err := htmldom.ParseString(`<html><body><div id="c"><p data-template>{{. | loud}}</p></div></body></html>`)
	require.NoError(t, err)

	r, err := PrepareID(doc, "c")
	require.NoError(t, err)
	r.Render("hi")

	container, _ := doc.ElementByID("c")
	assert.Equal(t, `<p data-template="">HI!</p>`, innerMarkup(t, container))

	_, err = Prepare(nil)
	assert.True(t, errors.Is(err, ErrNilContainer))
}
