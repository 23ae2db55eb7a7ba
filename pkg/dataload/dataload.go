// Package dataload reads render data from JSON, YAML and TOML files.
package dataload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a data file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor infers the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported data format: %s", path)
	}
}

// Decode parses data in the given format into generic maps, slices and scalars.
func Decode(data []byte, format Format) (interface{}, error) {
	var out interface{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &out)
	case FormatYAML:
		err = yaml.Unmarshal(data, &out)
	case FormatTOML:
		var doc map[string]interface{}
		err = toml.Unmarshal(data, &doc)
		out = doc
	default:
		return nil, fmt.Errorf("unsupported data format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", format, err)
	}
	return out, nil
}

// LoadFile reads and decodes one data file.
func LoadFile(path string) (interface{}, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	out, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Expand resolves glob patterns (with ** support) to a sorted, de-duplicated file list.
// A pattern without glob characters must name an existing file.
func Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			return nil, fmt.Errorf("data file not found: %s", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// LoadGlob loads every file matched by patterns into one item list. A file holding a
// sequence contributes its elements; any other file contributes itself as one item.
func LoadGlob(patterns ...string) ([]interface{}, error) {
	files, err := Expand(patterns...)
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, 0, len(files))
	for _, path := range files {
		data, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		items = appendItems(items, data)
	}
	return items, nil
}

func appendItems(items []interface{}, data interface{}) []interface{} {
	if data == nil {
		return items
	}
	if seq, ok := data.([]interface{}); ok {
		return append(items, seq...)
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
		return items
	}
	return append(items, data)
}
