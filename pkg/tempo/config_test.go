package tempo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Markers{Template: "data-template", Fallback: "data-template-fallback", GuardPrefix: "data-if-"}, cfg.Markers())
	assert.Equal(t, language.English, cfg.LanguageTag())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("TEMPO_CACHE_MAX_SIZE", "5")
	t.Setenv("TEMPO_LOG_LEVEL", "debug")
	t.Setenv("TEMPO_LOCALE", "de-DE")
	t.Setenv("TEMPO_TIME_ZONE", "UTC")
	t.Setenv("TEMPO_TEMPLATE_ATTR", "data-tpl")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.CacheMaxSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "de-DE", cfg.Locale)
	assert.Equal(t, "data-tpl", cfg.TemplateAttr)
	assert.Equal(t, "data-template-fallback", cfg.FallbackAttr)

	base, _ := cfg.LanguageTag().Base()
	assert.Equal(t, "de", base.String())
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadConfigFiles(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "tempo.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
cache_max_size = 10
sanitize = "strict"
guard_prefix = "data-when-"
`), 0o644))

	yamlPath := filepath.Join(dir, "tempo.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
locale: fr
max_nesting_depth: 4
`), 0o644))

	tests := []struct {
		name string
		path string
		env  map[string]string
		want *Config
	}{
		{
			name: "toml",
			path: tomlPath,
			want: func() *Config {
				c := DefaultConfig()
				c.CacheMaxSize = 10
				c.Sanitize = SanitizeStrict
				c.GuardPrefix = "data-when-"
				return c
			}(),
		},
		{
			name: "yaml",
			path: yamlPath,
			want: func() *Config {
				c := DefaultConfig()
				c.Locale = "fr"
				c.MaxNestingDepth = 4
				return c
			}(),
		},
		{
			name: "environment overrides file",
			path: tomlPath,
			env:  map[string]string{"TEMPO_CACHE_MAX_SIZE": "0"},
			want: func() *Config {
				c := DefaultConfig()
				c.CacheMaxSize = 0
				c.Sanitize = SanitizeStrict
				c.GuardPrefix = "data-when-"
				return c
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := LoadConfig(tt.path)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig("settings.ini")
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("cache_max_size = ["), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "negative cache", mutate: func(c *Config) { c.CacheMaxSize = -1 }, wantErr: "cache max size"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "invalid log level"},
		{name: "locale", mutate: func(c *Config) { c.Locale = "not a locale!" }, wantErr: "invalid locale"},
		{name: "time zone", mutate: func(c *Config) { c.TimeZone = "Mars/Olympus" }, wantErr: "invalid time zone"},
		{name: "sanitize", mutate: func(c *Config) { c.Sanitize = "paranoid" }, wantErr: "invalid sanitize policy"},
		{name: "empty marker", mutate: func(c *Config) { c.TemplateAttr = "" }, wantErr: "must be set"},
		{name: "depth", mutate: func(c *Config) { c.MaxNestingDepth = 0 }, wantErr: "nesting depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewConfigWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), NewConfigWithDefaults(nil))

	got := NewConfigWithDefaults(&Config{CacheMaxSize: 3, Locale: "it"})
	want := DefaultConfig()
	want.CacheMaxSize = 3
	want.Locale = "it"
	assert.Equal(t, want, got)
}

func TestGlobalConfig(t *testing.T) {
	original := GetGlobalConfig()
	t.Cleanup(func() { SetGlobalConfig(original) })

	cfg := DefaultConfig()
	cfg.LogLevel = "error"
	SetGlobalConfig(cfg)

	got := GetGlobalConfig()
	assert.Equal(t, "error", got.LogLevel)

	got.LogLevel = "trace"
	assert.Equal(t, "error", GetGlobalConfig().LogLevel, "callers receive a copy")
}
