// Package conflang implements a declarative configuration-language
// engine: a lexer and recursive-descent parser over a brace-and-
// assignment text format, a strongly typed value store organized into
// nested categories and runtime-keyed special categories, and a
// keyword-handler dispatch layer for host applications.
//
// Hosts register every value path, special category, and handler
// before calling Commence; parsing only mutates existing entries and
// never creates new ones. All parse entry points are synchronous and
// perform no internal locking: concurrent parses against the same
// Config, or a parse racing a read, must be serialized by the caller.
package conflang

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ChangeFunc observes an applied value change. It runs synchronously
// on the parsing goroutine.
type ChangeFunc func(path string, oldValue, newValue any)

// Config owns a category tree, a special-category registry, and a
// handler registry for its lifetime. Destroying the instance discards
// all state; nothing persists across instances.
type Config struct {
	path string
	opts Options

	root     *category
	specials map[string]*specialCategory
	handlers map[string]*handlerEntry
	vars     *variables

	// rootPath anchors relative source includes.
	rootPath string

	commenced bool
	observers []ChangeFunc
}

// New creates a Config for the given path. With Options.PathIsStream
// the path is the config text itself.
func New(path string, opts Options) *Config {
	c := &Config{
		path:     path,
		opts:     opts,
		root:     newCategory("", nil),
		specials: make(map[string]*specialCategory),
		handlers: make(map[string]*handlerEntry),
		vars:     newVariables(),
	}
	if !opts.PathIsStream {
		c.rootPath = filepath.Dir(path)
	}
	return c
}

// NewFromString creates a Config parsing the given text directly.
func NewFromString(text string, opts Options) *Config {
	opts.PathIsStream = true
	return New(text, opts)
}

// AddValue registers a value path with its type and default.
// Intermediate categories are created as needed. Registration is
// rejected after Commence and for duplicate paths.
func (c *Config) AddValue(path string, def Value) error {
	if c.commenced {
		return fmt.Errorf("%w: %s", ErrAlreadyCommenced, path)
	}
	v := def
	if err := v.finalize(); err != nil {
		return fmt.Errorf("register %s: %w", path, err)
	}
	return c.root.register(path, &v)
}

// AddSpecialCategory declares a special category. Unlike plain
// values, special categories may be added and removed at runtime.
func (c *Config) AddSpecialCategory(name string, opts SpecialOptions) error {
	if _, exists := c.specials[name]; exists {
		return fmt.Errorf("%w: special category %s", ErrDuplicateRegistration, name)
	}
	c.specials[name] = newSpecialCategory(name, opts)
	return nil
}

// RemoveSpecialCategory drops a special category and all its runtime
// instances. Idempotent.
func (c *Config) RemoveSpecialCategory(name string) {
	delete(c.specials, name)
}

// AddSpecialValue registers a field on a special category. Every
// instance inherits the field schema with an independent default.
func (c *Config) AddSpecialValue(category, field string, def Value) error {
	sc, ok := c.specials[category]
	if !ok {
		return fmt.Errorf("special category %s: %w", category, ErrNotFound)
	}
	v := def
	if err := v.finalize(); err != nil {
		return fmt.Errorf("register %s:%s: %w", category, field, err)
	}
	if err := sc.registerField(field, v); err != nil {
		return fmt.Errorf("%w: %s:%s", ErrDuplicateRegistration, category, field)
	}
	return nil
}

// RemoveSpecialValue drops a field from a special category and its
// instances. Idempotent.
func (c *Config) RemoveSpecialValue(category, field string) {
	if sc, ok := c.specials[category]; ok {
		sc.removeField(field)
	}
}

// RegisterHandler installs a keyword handler. In strict mode a
// duplicate keyword is an error; in permissive mode it replaces.
func (c *Config) RegisterHandler(name string, fn Handler, opts HandlerOptions) error {
	return c.registerHandler(name, fn, opts)
}

// UnregisterHandler removes a keyword handler. Idempotent.
func (c *Config) UnregisterHandler(name string) {
	delete(c.handlers, name)
}

// OnChange subscribes to applied value changes from any parse entry
// point.
func (c *Config) OnChange(fn ChangeFunc) {
	if fn != nil {
		c.observers = append(c.observers, fn)
	}
}

// fireChange notifies observers of an applied assignment.
func (c *Config) fireChange(path string, oldValue, newValue any) {
	for _, fn := range c.observers {
		fn(path, oldValue, newValue)
	}
}

// Commence finalizes registration and enables parsing.
func (c *Config) Commence() error {
	if c.commenced {
		return errors.New("config already commenced")
	}
	c.commenced = true
	return nil
}

// Parse reads the main config and applies it. With
// AllowMissingConfig a missing file is an empty, successful parse.
func (c *Config) Parse() Result {
	if !c.commenced {
		return failResult(ParseError{Kind: ErrSyntax, Message: ErrNotCommenced.Error()})
	}
	text := c.path
	if !c.opts.PathIsStream {
		data, err := os.ReadFile(c.path)
		if err != nil {
			if os.IsNotExist(err) && c.opts.AllowMissingConfig {
				return Result{}
			}
			return failResult(ParseError{Kind: ErrMissingFile, Message: fmt.Sprintf("cannot read config %s: %v", c.path, err)})
		}
		text = string(data)
	}
	return c.runParse(text, false)
}

// ParseFile parses an additional config file against the same store.
func (c *Config) ParseFile(path string) Result {
	if !c.commenced {
		return failResult(ParseError{Kind: ErrSyntax, Message: ErrNotCommenced.Error()})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return failResult(ParseError{Kind: ErrMissingFile, Message: fmt.Sprintf("cannot read config %s: %v", path, err)})
	}
	return c.runParse(string(data), false)
}

// ParseLine applies a single line of config to the already-commenced
// store, using the full grammar rooted at the top level.
func (c *Config) ParseLine(line string) Result {
	if !c.commenced {
		return failResult(ParseError{Kind: ErrSyntax, Message: ErrNotCommenced.Error()})
	}
	return c.runParse(line, true)
}

// ParseCommandValue routes a pre-split command and value straight to
// value assignment or handler dispatch, with no tokenizing of the
// line. Useful when the caller already has the pair out-of-band.
func (c *Config) ParseCommandValue(command, value string) Result {
	if !c.commenced {
		return failResult(ParseError{Kind: ErrSyntax, Message: ErrNotCommenced.Error()})
	}
	errs := &errorCollector{abortOnFirst: c.opts.ThrowAllErrors}
	p := newParser(c, "", errs)
	p.dynamic = true
	p.applyCommand(command, value)
	return errs.result()
}

// runParse drives one parser pass over the given text.
func (c *Config) runParse(text string, dynamic bool) Result {
	errs := &errorCollector{abortOnFirst: c.opts.ThrowAllErrors}
	p := newParser(c, text, errs)
	p.dynamic = dynamic
	p.run()
	return errs.result()
}

// GetValue returns the current payload for a registered path: int64,
// float32, string, Vec2, or a custom handler's product.
func (c *Config) GetValue(path string) (any, error) {
	v := c.root.resolve(path)
	if v == nil {
		return nil, fmt.Errorf("config value %s: %w", path, ErrNotFound)
	}
	return v.Get(), nil
}

// GetValueInfo returns the payload together with the set-by-user
// flag.
func (c *Config) GetValueInfo(path string) (any, bool, error) {
	v := c.root.resolve(path)
	if v == nil {
		return nil, false, fmt.Errorf("config value %s: %w", path, ErrNotFound)
	}
	return v.Get(), v.SetByUser(), nil
}

// GetSpecialValue returns a field payload from the keyed instance of
// a special category. A missing key is ErrNotFound unless the
// category ignores missing entries, in which case it is (nil, nil).
func (c *Config) GetSpecialValue(category, field, key string) (any, error) {
	sc, ok := c.specials[category]
	if !ok {
		return nil, fmt.Errorf("special category %s: %w", category, ErrNotFound)
	}
	inst := sc.lookup(key)
	if inst == nil {
		if sc.opts.IgnoreMissing {
			return nil, nil
		}
		return nil, fmt.Errorf("special category %s key %s: %w", category, key, ErrNotFound)
	}
	v, ok := inst.values[field]
	if !ok {
		if sc.opts.IgnoreMissing {
			return nil, nil
		}
		return nil, fmt.Errorf("special category %s field %s: %w", category, field, ErrNotFound)
	}
	return v.Get(), nil
}

// SpecialCategoryExistsForKey reports whether an instance with the
// given key has been seen.
func (c *Config) SpecialCategoryExistsForKey(category, key string) bool {
	sc, ok := c.specials[category]
	if !ok {
		return false
	}
	return sc.lookup(key) != nil
}

// ListKeysForSpecialCategory returns all instantiated keys in
// first-seen order. Unknown categories list nothing.
func (c *Config) ListKeysForSpecialCategory(category string) []string {
	sc, ok := c.specials[category]
	if !ok {
		return nil
	}
	return sc.listKeys()
}

// ChangeRootPath rebases relative source-include resolution without
// resetting already-parsed values.
func (c *Config) ChangeRootPath(path string) {
	c.rootPath = path
}

// Snapshot returns every registered value as a nested map keyed by
// category names. Special-category instances appear under the
// category name keyed by instance key.
func (c *Config) Snapshot() map[string]any {
	flat := make(map[string]any)
	c.root.walk(func(path string, v *Value) {
		flat[path] = v.Get()
	})
	out := unflatten(flat)

	for name, sc := range c.specials {
		instances := make(map[string]any)
		for _, key := range sc.listKeys() {
			inst := sc.lookup(key)
			if inst == nil {
				continue
			}
			fields := make(map[string]any, len(inst.values))
			for field, v := range inst.values {
				fields[field] = v.Get()
			}
			instances[key] = fields
		}
		if len(instances) > 0 {
			out[name] = instances
		}
	}
	return out
}
