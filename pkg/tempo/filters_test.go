package tempo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestFilterRegistry(t *testing.T) {
	registry := NewFilterRegistry()

	err := registry.RegisterFilter(nil)
	assert.Error(t, err)

	err = registry.RegisterFilter(NewSimpleFilter("", func(v interface{}, _ []string) (interface{}, error) { return v, nil }))
	assert.Error(t, err)

	shout := NewSimpleFilter("shout", func(v interface{}, _ []string) (interface{}, error) {
		return strings.ToUpper(FormatValue(v)) + "!", nil
	})
	require.NoError(t, registry.RegisterFilter(shout))
	require.NoError(t, registry.RegisterFilter(NewSimpleFilter("a", func(v interface{}, _ []string) (interface{}, error) { return v, nil })))

	f, ok := registry.GetFilter("shout")
	require.True(t, ok)
	got, err := f.Apply("hey", nil)
	require.NoError(t, err)
	assert.Equal(t, "HEY!", got)

	_, ok = registry.GetFilter("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "shout"}, registry.ListFilters())

	// Re-registering replaces.
	require.NoError(t, registry.RegisterFilter(NewSimpleFilter("shout", func(v interface{}, _ []string) (interface{}, error) { return "quiet", nil })))
	f, _ = registry.GetFilter("shout")
	got, _ = f.Apply("hey", nil)
	assert.Equal(t, "quiet", got)
}

func TestBuiltinStringFilters(t *testing.T) {
	registry := NewBuiltinFilterRegistry(language.English, time.UTC)

	tests := []struct {
		name   string
		filter string
		value  interface{}
		args   []string
		want   interface{}
	}{
		{name: "upper", filter: "upper", value: "hello", want: "HELLO"},
		{name: "upper number", filter: "upper", value: 42, want: "42"},
		{name: "upper nil", filter: "upper", value: nil, want: nil},
		{name: "lower", filter: "lower", value: "HeLLo", want: "hello"},
		{name: "trim", filter: "trim", value: "  padded \n", want: "padded"},
		{name: "trim nil", filter: "trim", value: nil, want: nil},
		{name: "replace regex", filter: "replace", value: "a  b   c", args: []string{`\s+`, "-"}, want: "a-b-c"},
		{name: "replace literal fallback", filter: "replace", value: "1+(2)", args: []string{"(", "["}, want: "1+[2)"},
		{name: "replace wrong arity", filter: "replace", value: "abc", args: []string{"a"}, want: "abc"},
		{name: "replace nil", filter: "replace", value: nil, args: []string{"a", "b"}, want: nil},
		{name: "append", filter: "append", value: "Hi", args: []string{"!"}, want: "Hi!"},
		{name: "append number", filter: "append", value: 3, args: []string{" items"}, want: "3 items"},
		{name: "append no args", filter: "append", value: "Hi", want: "Hi"},
		{name: "append nil", filter: "append", value: nil, args: []string{"!"}, want: nil},
		{name: "prepend", filter: "prepend", value: "99", args: []string{"$"}, want: "$99"},
		{name: "prepend too many args", filter: "prepend", value: "99", args: []string{"$", "x"}, want: "99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := registry.GetFilter(tt.filter)
			require.True(t, ok)
			got, err := f.Apply(tt.value, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinFilterNames(t *testing.T) {
	registry := NewBuiltinFilterRegistry(language.English, nil)
	assert.Equal(t, []string{"append", "date", "lower", "prepend", "replace", "trim", "upper"}, registry.ListFilters())
}

func TestLocaleAwareCase(t *testing.T) {
	turkish := NewBuiltinFilterRegistry(language.Turkish, time.UTC)
	f, _ := turkish.GetFilter("upper")
	got, err := f.Apply("istanbul", nil)
	require.NoError(t, err)
	assert.Equal(t, "İSTANBUL", got)

	english := NewBuiltinFilterRegistry(language.English, time.UTC)
	f, _ = english.GetFilter("upper")
	got, _ = f.Apply("istanbul", nil)
	assert.Equal(t, "ISTANBUL", got)
}

func TestGetDefaultFilterRegistry(t *testing.T) {
	registry := GetDefaultFilterRegistry()
	require.NotNil(t, registry)
	assert.Same(t, registry, GetDefaultFilterRegistry())

	_, ok := registry.GetFilter("date")
	assert.True(t, ok)
}
