// Package schema loads value registrations from TOML manifests.
//
// A manifest declares the typed values, special categories, and
// defaults of a configuration surface so an application can describe
// its options in data instead of registration calls:
//
//	[values."general:border_size"]
//	type = "int"
//	default = 1
//
//	[values."general:gaps"]
//	type = "vec2"
//	default = [5.0, 5.0]
//
//	[special.device]
//	key = "name"
//
//	[special.device.fields.sensitivity]
//	type = "float"
//	default = 1.0
//
// Load the manifest and apply it to a Config before Commence.
package schema

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	conflang "github.com/dshills/conflang"
)

// Field declares one typed value and its default.
type Field struct {
	// Type is one of "int", "float", "string", "vec2".
	Type string `toml:"type"`

	// Default is the registration default. Its TOML shape must match
	// Type: integer, float, string, or a two-element float array.
	Default any `toml:"default"`
}

// Special declares a keyed category and its per-instance fields.
type Special struct {
	// IgnoreMissing makes lookups of absent keys and fields return
	// nil instead of an error.
	IgnoreMissing bool `toml:"ignore_missing"`

	// Anonymous lets unkeyed blocks create generated-key instances.
	Anonymous bool `toml:"anonymous"`

	// Key names a field whose assignment renames the instance.
	Key string `toml:"key"`

	Fields map[string]Field `toml:"fields"`
}

// Manifest is a parsed schema document.
type Manifest struct {
	Values  map[string]Field   `toml:"values"`
	Special map[string]Special `toml:"special"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFromReader parses a manifest from an io.Reader.
func LoadFromReader(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return Parse(data)
}

// Parse parses manifest TOML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return &m, nil
}

// Apply registers every declared value and special category on cfg.
// It must run before cfg.Commence.
func (m *Manifest) Apply(cfg *conflang.Config) error {
	for _, path := range sortedKeys(m.Values) {
		def, err := fieldValue(m.Values[path])
		if err != nil {
			return fmt.Errorf("value %s: %w", path, err)
		}
		if err := cfg.AddValue(path, def); err != nil {
			return fmt.Errorf("value %s: %w", path, err)
		}
	}

	for _, name := range sortedKeys(m.Special) {
		sc := m.Special[name]
		opts := conflang.SpecialOptions{
			IgnoreMissing:     sc.IgnoreMissing,
			AnonymousKeyBased: sc.Anonymous,
			Key:               sc.Key,
		}
		if err := cfg.AddSpecialCategory(name, opts); err != nil {
			return fmt.Errorf("special %s: %w", name, err)
		}
		for _, field := range sortedKeys(sc.Fields) {
			def, err := fieldValue(sc.Fields[field])
			if err != nil {
				return fmt.Errorf("special %s:%s: %w", name, field, err)
			}
			if err := cfg.AddSpecialValue(name, field, def); err != nil {
				return fmt.Errorf("special %s:%s: %w", name, field, err)
			}
		}
	}
	return nil
}

// fieldValue converts a declared field into a registration default.
func fieldValue(f Field) (conflang.Value, error) {
	switch f.Type {
	case "int":
		n, ok := toInt64(f.Default)
		if !ok {
			return conflang.Value{}, fmt.Errorf("default %v is not an integer", f.Default)
		}
		return conflang.NewInt(n), nil
	case "float":
		n, ok := toFloat64(f.Default)
		if !ok {
			return conflang.Value{}, fmt.Errorf("default %v is not a float", f.Default)
		}
		return conflang.NewFloat(float32(n)), nil
	case "string":
		s, ok := f.Default.(string)
		if !ok {
			return conflang.Value{}, fmt.Errorf("default %v is not a string", f.Default)
		}
		return conflang.NewString(s), nil
	case "vec2":
		arr, ok := f.Default.([]any)
		if !ok || len(arr) != 2 {
			return conflang.Value{}, fmt.Errorf("default %v is not a two-element array", f.Default)
		}
		x, okX := toFloat64(arr[0])
		y, okY := toFloat64(arr[1])
		if !okX || !okY {
			return conflang.Value{}, fmt.Errorf("default %v has non-numeric components", f.Default)
		}
		return conflang.NewVec2(float32(x), float32(y)), nil
	case "":
		return conflang.Value{}, fmt.Errorf("missing type")
	default:
		return conflang.Value{}, fmt.Errorf("unknown type %q", f.Type)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// sortedKeys keeps registration order deterministic.
func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
