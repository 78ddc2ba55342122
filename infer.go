package conflang

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Schema declares value paths and their typed defaults for the
// convenience entry points. Values may be nested Schemas, int/int64,
// float32/float64, string, or Vec2.
type Schema map[string]any

var (
	reInt   = regexp.MustCompile(`^-?\d+$`)
	reHex   = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	reFloat = regexp.MustCompile(`^-?\d*\.\d+$|^-?\d+\.\d*$`)
	reVec2  = regexp.MustCompile(`^-?\d+\.?\d*[\s,]+-?\d+\.?\d*$`)
	reColor = regexp.MustCompile(`^rgba?\(`)
)

// inferDefault guesses a typed default from a raw value string.
func inferDefault(raw string) any {
	v := strings.TrimSpace(raw)
	if _, ok := boolWords[strings.ToLower(v)]; ok {
		return int64(0)
	}
	if reHex.MatchString(v) || reInt.MatchString(v) || reColor.MatchString(v) {
		return int64(0)
	}
	if reFloat.MatchString(v) {
		return float32(0)
	}
	if reVec2.MatchString(v) {
		return Vec2{}
	}
	return ""
}

// inferSchema pre-scans config text and builds a flat schema keyed by
// colon path, inferring each default from the literal's shape.
func inferSchema(text string) map[string]any {
	schema := make(map[string]any)
	var stack []string

	for _, rawLine := range strings.Split(text, "\n") {
		line := rawLine
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "$") || strings.HasPrefix(line, keywordSource) {
			continue
		}
		if strings.HasSuffix(line, "{") {
			cat := strings.TrimSpace(strings.TrimSuffix(line, "{"))
			if i := strings.IndexByte(cat, '['); i >= 0 {
				cat = strings.TrimSpace(cat[:i])
			}
			if cat != "" {
				stack = append(stack, cat)
			}
			continue
		}
		if line == "}" {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if key == "" || val == "" {
			continue
		}
		full := strings.Join(append(append([]string{}, stack...), key), pathSep)
		schema[full] = inferDefault(val)
	}
	return schema
}

// flattenSchema converts a nested Schema into colon-path defaults.
func flattenSchema(schema Schema, prefix string, out map[string]any) {
	for key, value := range schema {
		full := key
		if prefix != "" {
			full = prefix + pathSep + key
		}
		if nested, ok := value.(Schema); ok {
			flattenSchema(nested, full, out)
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			flattenSchema(Schema(nested), full, out)
			continue
		}
		out[full] = value
	}
}

// defaultValue converts a schema default into a declared Value.
func defaultValue(def any) (Value, error) {
	switch d := def.(type) {
	case int:
		return NewInt(int64(d)), nil
	case int64:
		return NewInt(d), nil
	case float32:
		return NewFloat(d), nil
	case float64:
		return NewFloat(float32(d)), nil
	case string:
		return NewString(d), nil
	case Vec2:
		return NewVec2(d.X, d.Y), nil
	default:
		return Value{}, fmt.Errorf("unsupported schema default %T", def)
	}
}

// unflatten converts colon-path keys back into nested maps.
func unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, pathSep)
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return out
}

// ParseString parses config text and returns the resolved values as
// a nested map. With a nil schema the text is pre-scanned and types
// are inferred from literal shapes.
func ParseString(text string, schema Schema) (map[string]any, error) {
	var flat map[string]any
	if schema == nil {
		flat = inferSchema(text)
	} else {
		flat = make(map[string]any)
		flattenSchema(schema, "", flat)
	}

	cfg := NewFromString(text, Options{})
	if err := registerFlat(cfg, flat); err != nil {
		return nil, err
	}
	if err := cfg.Commence(); err != nil {
		return nil, err
	}
	if res := cfg.Parse(); res.Error {
		return nil, res.Err()
	}
	return collect(cfg, flat), nil
}

// ParseFileToMap parses a config file and returns the resolved
// values as a nested map, inferring the schema when nil.
func ParseFileToMap(path string, schema Schema) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	out, err := ParseString(string(data), schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func registerFlat(cfg *Config, flat map[string]any) error {
	for path, def := range flat {
		v, err := defaultValue(def)
		if err != nil {
			return fmt.Errorf("schema path %s: %w", path, err)
		}
		if err := cfg.AddValue(path, v); err != nil {
			return err
		}
	}
	return nil
}

func collect(cfg *Config, flat map[string]any) map[string]any {
	values := make(map[string]any, len(flat))
	for path := range flat {
		if v, err := cfg.GetValue(path); err == nil {
			values[path] = v
		}
	}
	return unflatten(values)
}
