package tempo

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Data is a convenience type for map-shaped items.
type Data map[string]interface{}

// Path is a parsed field path such as "user.tags[0].name". The zero Path refers to the item
// itself.
type Path struct {
	raw   string
	parts []pathPart
}

type pathPartType int

const (
	pathField pathPartType = iota
	pathIndex
)

type pathPart struct {
	Type  pathPartType
	Key   string
	Index int
}

// String returns the path as written.
func (p Path) String() string {
	return p.raw
}

// ParsePath parses a dotted/indexed path. "" and "." refer to the item itself.
func ParsePath(expression string) (Path, error) {
	expression = strings.TrimSpace(expression)
	path := Path{raw: expression}
	if expression == "" || expression == "." {
		return path, nil
	}

	remaining := expression
	if idx := strings.IndexAny(remaining, ".["); idx != 0 {
		if idx == -1 {
			idx = len(remaining)
		}
		path.parts = append(path.parts, pathPart{Type: pathField, Key: remaining[:idx]})
		remaining = remaining[idx:]
	}

	for remaining != "" {
		switch remaining[0] {
		case '.':
			remaining = remaining[1:]
			end := strings.IndexAny(remaining, ".[")
			if end == -1 {
				end = len(remaining)
			}
			if end == 0 {
				return Path{}, NewParseError("invalid dot notation", expression, len(expression)-len(remaining))
			}
			path.parts = append(path.parts, pathPart{Type: pathField, Key: remaining[:end]})
			remaining = remaining[end:]
		case '[':
			end := strings.IndexByte(remaining, ']')
			if end <= 1 {
				return Path{}, NewParseError("invalid bracket notation", expression, len(expression)-len(remaining))
			}
			path.parts = append(path.parts, bracketPart(remaining[1:end]))
			remaining = remaining[end+1:]
		default:
			return Path{}, NewParseError("unexpected character", string(remaining[0]), len(expression)-len(remaining))
		}
	}

	return path, nil
}

func bracketPart(content string) pathPart {
	content = strings.TrimSpace(content)
	if idx, err := strconv.Atoi(content); err == nil {
		return pathPart{Type: pathIndex, Index: idx, Key: content}
	}
	return pathPart{Type: pathField, Key: strings.Trim(content, `'"`)}
}

// ResolvePath parses and resolves path against item in one step. A malformed path resolves
// to absent.
func ResolvePath(item interface{}, path string) (interface{}, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return p.Resolve(item)
}

// Resolve walks the path through item. It never panics; any missing segment returns
// (nil, false).
func (p Path) Resolve(item interface{}) (interface{}, bool) {
	current := item
	for _, part := range p.parts {
		var next interface{}
		var ok bool
		switch part.Type {
		case pathField:
			next, ok = accessField(current, part.Key)
		case pathIndex:
			next, ok = accessIndex(current, part.Index)
			if !ok {
				next, ok = accessField(current, part.Key)
			}
		}
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// accessField accesses a named field in a map-like or struct value
func accessField(current interface{}, field string) (interface{}, bool) {
	if current == nil {
		return nil, false
	}

	switch v := current.(type) {
	case Data:
		val, ok := v[field]
		if !ok {
			return lengthField(v, field)
		}
		return val, true
	case map[string]interface{}:
		val, ok := v[field]
		if !ok {
			return lengthField(v, field)
		}
		return val, true
	case map[string]string:
		val, ok := v[field]
		return val, ok
	}

	rv := indirect(reflect.ValueOf(current))
	if !rv.IsValid() {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(field).Convert(rv.Type().Key()))
			if mv.IsValid() {
				return mv.Interface(), true
			}
		}
	case reflect.Struct:
		if fv, ok := structField(rv, field); ok {
			return fv.Interface(), true
		}
		return nil, false
	}

	return lengthField(current, field)
}

// lengthField mirrors the .length property of sequences and strings.
func lengthField(current interface{}, field string) (interface{}, bool) {
	if field != "length" {
		return nil, false
	}
	rv := indirect(reflect.ValueOf(current))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String, reflect.Map:
		return rv.Len(), true
	}
	return nil, false
}

// accessIndex accesses a sequence element; negative indices count from the end
func accessIndex(current interface{}, index int) (interface{}, bool) {
	if current == nil {
		return nil, false
	}

	switch v := current.(type) {
	case []interface{}:
		if index < 0 {
			index = len(v) + index
		}
		if index >= 0 && index < len(v) {
			return v[index], true
		}
		return nil, false
	case []string:
		if index < 0 {
			index = len(v) + index
		}
		if index >= 0 && index < len(v) {
			return v[index], true
		}
		return nil, false
	}

	rv := indirect(reflect.ValueOf(current))
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if index < 0 {
			index = rv.Len() + index
		}
		if index >= 0 && index < rv.Len() {
			return rv.Index(index).Interface(), true
		}
	}
	return nil, false
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

// structField matches an exported field by json tag first, then by name.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if tagName(f) == name {
			return rv.Field(i), true
		}
	}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.IsExported() && f.Name == name {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

// fieldNames lists the top-level field names an item exposes, sorted.
func fieldNames(item interface{}) []string {
	var names []string
	switch v := item.(type) {
	case Data:
		for k := range v {
			names = append(names, k)
		}
	case map[string]interface{}:
		for k := range v {
			names = append(names, k)
		}
	default:
		rv := indirect(reflect.ValueOf(item))
		if !rv.IsValid() {
			return nil
		}
		switch rv.Kind() {
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil
			}
			for _, k := range rv.MapKeys() {
				names = append(names, k.String())
			}
		case reflect.Struct:
			rt := rv.Type()
			for i := 0; i < rt.NumField(); i++ {
				f := rt.Field(i)
				if !f.IsExported() {
					continue
				}
				if tag := tagName(f); tag != "" {
					names = append(names, tag)
				} else {
					names = append(names, f.Name)
				}
			}
		}
	}
	sort.Strings(names)
	return names
}

// isSequence reports whether v is a slice or array (but not a byte string).
func isSequence(v interface{}) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case []byte:
		return false
	}
	rv := indirect(reflect.ValueOf(v))
	return rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array)
}

// toItems flattens render input into the item list: sequences iterate, anything else is a
// single item, nil is nothing.
func toItems(data interface{}) []interface{} {
	if data == nil {
		return nil
	}
	switch v := data.(type) {
	case []interface{}:
		return v
	case []map[string]interface{}:
		items := make([]interface{}, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items
	}
	if !isSequence(data) {
		return []interface{}{data}
	}
	rv := indirect(reflect.ValueOf(data))
	items := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// FormatValue converts a value to its textual form
func FormatValue(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', 10, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', 15, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case []interface{}:
		parts := make([]string, len(v))
		for i, el := range v {
			parts[i] = FormatValue(el)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
