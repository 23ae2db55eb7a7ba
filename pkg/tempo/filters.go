package tempo

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter is a named value transform used in placeholder pipelines such as
// {{ name | upper | append '!' }}.
type Filter interface {
	// Name returns the name the filter is invoked by
	Name() string

	// Apply transforms value. Filters must treat a nil value as absent and
	// return the value unchanged when given the wrong number of arguments.
	Apply(value interface{}, args []string) (interface{}, error)
}

// FilterRegistry manages available filters
type FilterRegistry interface {
	// RegisterFilter adds or replaces a filter
	RegisterFilter(f Filter) error

	// GetFilter retrieves a filter by name
	GetFilter(name string) (Filter, bool)

	// ListFilters returns all registered filter names
	ListFilters() []string
}

// DefaultFilterRegistry is the default implementation of FilterRegistry
type DefaultFilterRegistry struct {
	filters map[string]Filter
	mutex   sync.RWMutex
}

// NewFilterRegistry creates an empty filter registry
func NewFilterRegistry() *DefaultFilterRegistry {
	return &DefaultFilterRegistry{
		filters: make(map[string]Filter),
	}
}

func (r *DefaultFilterRegistry) RegisterFilter(f Filter) error {
	if f == nil {
		return fmt.Errorf("filter cannot be nil")
	}
	name := f.Name()
	if name == "" {
		return fmt.Errorf("filter name cannot be empty")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.filters[name] = f
	return nil
}

func (r *DefaultFilterRegistry) GetFilter(name string) (Filter, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	f, exists := r.filters[name]
	return f, exists
}

func (r *DefaultFilterRegistry) ListFilters() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SimpleFilter adapts a function to the Filter interface
type SimpleFilter struct {
	name    string
	handler func(value interface{}, args []string) (interface{}, error)
}

// NewSimpleFilter creates a filter from a handler function
func NewSimpleFilter(name string, handler func(value interface{}, args []string) (interface{}, error)) Filter {
	return &SimpleFilter{name: name, handler: handler}
}

func (f *SimpleFilter) Name() string {
	return f.name
}

func (f *SimpleFilter) Apply(value interface{}, args []string) (interface{}, error) {
	return f.handler(value, args)
}

// NewBuiltinFilterRegistry returns a registry holding upper, lower, trim, replace, append,
// prepend and date. Case conversion follows locale; dates are shown in loc.
func NewBuiltinFilterRegistry(locale language.Tag, loc *time.Location) *DefaultFilterRegistry {
	if loc == nil {
		loc = time.Local
	}
	registry := NewFilterRegistry()
	registerStringFilters(registry, locale)
	registerDateFilter(registry, locale, loc)
	return registry
}

func registerStringFilters(registry *DefaultFilterRegistry, locale language.Tag) {
	upper := cases.Upper(locale)
	lower := cases.Lower(locale)

	_ = registry.RegisterFilter(NewSimpleFilter("upper", func(value interface{}, args []string) (interface{}, error) {
		if value == nil {
			return nil, nil
		}
		return upper.String(FormatValue(value)), nil
	}))

	_ = registry.RegisterFilter(NewSimpleFilter("lower", func(value interface{}, args []string) (interface{}, error) {
		if value == nil {
			return nil, nil
		}
		return lower.String(FormatValue(value)), nil
	}))

	_ = registry.RegisterFilter(NewSimpleFilter("trim", func(value interface{}, args []string) (interface{}, error) {
		if value == nil {
			return nil, nil
		}
		return strings.TrimSpace(FormatValue(value)), nil
	}))

	_ = registry.RegisterFilter(NewSimpleFilter("replace", func(value interface{}, args []string) (interface{}, error) {
		if value == nil || len(args) != 2 {
			return value, nil
		}
		text := FormatValue(value)
		re, err := regexp.Compile(args[0])
		if err != nil {
			return strings.ReplaceAll(text, args[0], args[1]), nil
		}
		return re.ReplaceAllString(text, args[1]), nil
	}))

	_ = registry.RegisterFilter(NewSimpleFilter("append", func(value interface{}, args []string) (interface{}, error) {
		if value == nil || len(args) != 1 {
			return value, nil
		}
		return FormatValue(value) + args[0], nil
	}))

	_ = registry.RegisterFilter(NewSimpleFilter("prepend", func(value interface{}, args []string) (interface{}, error) {
		if value == nil || len(args) != 1 {
			return value, nil
		}
		return args[0] + FormatValue(value), nil
	}))
}

var (
	defaultFilters     *DefaultFilterRegistry
	defaultFiltersOnce sync.Once
)

// GetDefaultFilterRegistry returns the built-in filters for the global configuration
func GetDefaultFilterRegistry() FilterRegistry {
	defaultFiltersOnce.Do(func() {
		config := GetGlobalConfig()
		loc, err := config.Location()
		if err != nil {
			loc = time.Local
		}
		defaultFilters = NewBuiltinFilterRegistry(config.LanguageTag(), loc)
	})
	return defaultFilters
}
