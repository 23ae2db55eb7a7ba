package tempo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/language"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig.
const EnvPrefix = "TEMPO_"

// Config contains all configuration options for the tempo engine
type Config struct {
	// CacheMaxSize is the maximum number of compiled template programs to cache. 0 disables caching.
	CacheMaxSize int `koanf:"cache_max_size"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `koanf:"log_level"`
	// Locale drives case conversion and locale date forms, as a BCP 47 tag
	Locale string `koanf:"locale"`
	// TimeZone is the IANA zone dates are rendered in; "Local" uses the host zone
	TimeZone string `koanf:"time_zone"`
	// Sanitize selects the policy applied to substituted values (none, strict, ugc)
	Sanitize string `koanf:"sanitize"`
	// TemplateAttr marks template elements
	TemplateAttr string `koanf:"template_attr"`
	// FallbackAttr marks elements hidden at parse time
	FallbackAttr string `koanf:"fallback_attr"`
	// GuardPrefix prefixes attributes holding template guards
	GuardPrefix string `koanf:"guard_prefix"`
	// MaxNestingDepth bounds nested collection recursion
	MaxNestingDepth int `koanf:"max_nesting_depth"`
}

var (
	globalConfig      = initialConfig()
	globalConfigMutex sync.RWMutex
)

// initialConfig reads TEMPO_* variables, falling back to defaults if they do not load.
func initialConfig() *Config {
	cfg, err := ConfigFromEnvironment()
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:    100,
		LogLevel:        "info",
		Locale:          "en",
		TimeZone:        "Local",
		Sanitize:        SanitizeNone,
		TemplateAttr:    "data-template",
		FallbackAttr:    "data-template-fallback",
		GuardPrefix:     "data-if-",
		MaxNestingDepth: 32,
	}
}

func defaultConfigMap() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"cache_max_size":    d.CacheMaxSize,
		"log_level":         d.LogLevel,
		"locale":            d.Locale,
		"time_zone":         d.TimeZone,
		"sanitize":          d.Sanitize,
		"template_attr":     d.TemplateAttr,
		"fallback_attr":     d.FallbackAttr,
		"guard_prefix":      d.GuardPrefix,
		"max_nesting_depth": d.MaxNestingDepth,
	}
}

// ConfigFromEnvironment creates a configuration from defaults and TEMPO_* variables
func ConfigFromEnvironment() (*Config, error) {
	return LoadConfig("")
}

// LoadConfig layers defaults, an optional TOML or YAML file, and TEMPO_* environment
// variables, in that order.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfigMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			parser = toml.Parser()
		case ".yaml", ".yml":
			parser = yaml.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return NewConfigWithDefaults(&cfg), nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.Locale == "" {
		config.Locale = defaults.Locale
	}
	if config.TimeZone == "" {
		config.TimeZone = defaults.TimeZone
	}
	if config.Sanitize == "" {
		config.Sanitize = defaults.Sanitize
	}
	if config.TemplateAttr == "" {
		config.TemplateAttr = defaults.TemplateAttr
	}
	if config.FallbackAttr == "" {
		config.FallbackAttr = defaults.FallbackAttr
	}
	if config.GuardPrefix == "" {
		config.GuardPrefix = defaults.GuardPrefix
	}
	if config.MaxNestingDepth == 0 {
		config.MaxNestingDepth = defaults.MaxNestingDepth
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := newSanitizer(c.Sanitize); err != nil {
		return err
	}

	if c.TemplateAttr == "" || c.FallbackAttr == "" || c.GuardPrefix == "" {
		return errors.New("template, fallback and guard attribute names must be set")
	}

	if c.MaxNestingDepth <= 0 {
		return errors.New("max nesting depth must be positive")
	}

	return nil
}

// LanguageTag returns the configured locale, falling back to English.
func (c *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Markers returns the attribute names used by template registries.
func (c *Config) Markers() Markers {
	return Markers{
		Template:    c.TemplateAttr,
		Fallback:    c.FallbackAttr,
		GuardPrefix: c.GuardPrefix,
	}
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	UpdateLoggerFromConfig()
}
