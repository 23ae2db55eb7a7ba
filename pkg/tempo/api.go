package tempo

import (
	"fmt"
	"time"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// Engine prepares containers for rendering. It owns the compiled-program cache, the
// filter registry and the sanitizer shared by every renderer it creates.
// Use New() to create a new engine instance.
type Engine struct {
	config    *Config
	cache     *ProgramCache
	filters   FilterRegistry
	sanitizer Sanitizer
	logger    zerolog.Logger
}

// New creates a new engine with the global configuration.
func New() *Engine {
	return NewWithConfig(GetGlobalConfig())
}

// NewWithConfig creates a new engine with custom configuration. Invalid settings fall back
// to their defaults and are logged.
func NewWithConfig(config *Config) *Engine {
	config = NewConfigWithDefaults(config)
	logger := componentLogger("engine")

	if err := config.Validate(); err != nil {
		logger.Warn().Err(err).Msg("invalid configuration, using defaults where needed")
	}

	loc, err := config.Location()
	if err != nil {
		loc = time.Local
	}
	sanitizer, err := newSanitizer(config.Sanitize)
	if err != nil {
		sanitizer = nil
	}

	return &Engine{
		config:    config,
		cache:     NewProgramCacheWithSize(config.CacheMaxSize),
		filters:   NewBuiltinFilterRegistry(config.LanguageTag(), loc),
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that replaces the engine configuration, rebuilding the
// cache, filters and sanitizer from it.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		fresh := NewWithConfig(config)
		fresh.logger = e.logger
		*e = *fresh
	}
}

// WithCache returns an option that sets the cache size (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		e.config.CacheMaxSize = maxSize
		e.cache = NewProgramCacheWithSize(maxSize)
	}
}

// WithFilter returns an option that registers a custom filter.
func WithFilter(f Filter) Option {
	return func(e *Engine) {
		if err := e.filters.RegisterFilter(f); err != nil {
			e.logger.Warn().Err(err).Msg("failed to register filter")
		}
	}
}

// WithLocale returns an option that rebuilds the built-in filters for locale. Custom
// filters registered earlier are kept.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		tag, err := language.Parse(locale)
		if err != nil {
			e.logger.Warn().Err(err).Str("locale", locale).Msg("invalid locale")
			return
		}
		e.config.Locale = locale
		loc, err := e.config.Location()
		if err != nil {
			loc = time.Local
		}

		builtin := NewBuiltinFilterRegistry(tag, loc)
		builtinNames := make(map[string]bool)
		for _, name := range builtin.ListFilters() {
			builtinNames[name] = true
		}
		for _, name := range e.filters.ListFilters() {
			if builtinNames[name] {
				continue
			}
			if f, ok := e.filters.GetFilter(name); ok {
				_ = builtin.RegisterFilter(f)
			}
		}
		e.filters = builtin
	}
}

// WithLogger returns an option that sets the logger used by the engine's renderers.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Prepare parses container's templates and returns a renderer for it. Malformed guards
// do not prevent preparation; they are logged and the affected guards never match.
func (e *Engine) Prepare(container dom.Element) (*Renderer, error) {
	if container == nil {
		return nil, ErrNilContainer
	}

	registry := NewRegistry(e.config.Markers(), "")
	if err := registry.Parse(container); err != nil {
		if IsDocumentError(err) {
			return nil, fmt.Errorf("failed to parse templates in <%s>: %w", container.TagName(), err)
		}
		e.logger.Warn().Err(err).Msg("ignoring malformed template guards")
	}

	return newRenderer(registry, e.env(), 0), nil
}

// PrepareID prepares the element of doc whose id is id.
func (e *Engine) PrepareID(doc dom.Document, id string) (*Renderer, error) {
	if doc == nil {
		return nil, ErrNilContainer
	}
	container, ok := doc.ElementByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: #%s", ErrContainerNotFound, id)
	}
	return e.Prepare(container)
}

// RegisterFilter adds a custom filter usable in placeholders.
func (e *Engine) RegisterFilter(f Filter) error {
	return e.filters.RegisterFilter(f)
}

// Filters returns the engine's filter registry.
func (e *Engine) Filters() FilterRegistry {
	return e.filters
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Cache returns the engine's compiled-program cache.
func (e *Engine) Cache() *ProgramCache {
	return e.cache
}

// ClearCache removes all compiled programs from the cache.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

func (e *Engine) env() *renderEnv {
	return &renderEnv{
		cache:     e.cache,
		filters:   e.filters,
		sanitizer: e.sanitizer,
		markers:   e.config.Markers(),
		maxDepth:  e.config.MaxNestingDepth,
		logger:    e.logger,
	}
}

// DefaultEngine is the global default engine instance.
// It uses the global configuration.
var DefaultEngine = New()

// Module-level convenience functions that use the default engine.

// Prepare parses container using the default engine.
func Prepare(container dom.Element) (*Renderer, error) {
	return DefaultEngine.Prepare(container)
}

// PrepareID prepares the element with the given id using the default engine.
func PrepareID(doc dom.Document, id string) (*Renderer, error) {
	return DefaultEngine.PrepareID(doc, id)
}

// RegisterFilter adds a custom filter to the default engine.
func RegisterFilter(f Filter) error {
	return DefaultEngine.RegisterFilter(f)
}
