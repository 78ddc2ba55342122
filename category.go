package conflang

import (
	"fmt"
	"strings"
)

// pathSep separates category segments in a value path.
const pathSep = ":"

// category is one node of the category tree: a named grouping of
// declared value paths and child categories. The parent pointer is a
// non-owning back-reference used only for path rendering.
type category struct {
	name     string
	parent   *category
	values   map[string]*Value
	children map[string]*category
}

func newCategory(name string, parent *category) *category {
	return &category{
		name:     name,
		parent:   parent,
		values:   make(map[string]*Value),
		children: make(map[string]*category),
	}
}

// path renders the colon-joined path from the root. The root itself
// renders as "".
func (c *category) path() string {
	if c.parent == nil {
		return ""
	}
	parent := c.parent.path()
	if parent == "" {
		return c.name
	}
	return parent + pathSep + c.name
}

// fullPath renders a leaf name under this category.
func (c *category) fullPath(leaf string) string {
	p := c.path()
	if p == "" {
		return leaf
	}
	return p + pathSep + leaf
}

// register walks the path, creating intermediate categories as
// needed, and installs the value at the leaf. Duplicate leaves are a
// registration error.
func (c *category) register(path string, v *Value) error {
	segs := strings.Split(path, pathSep)
	node := c
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node.children[seg]
		if !ok {
			child = newCategory(seg, node)
			node.children[seg] = child
		}
		node = child
	}
	leaf := segs[len(segs)-1]
	if _, exists := node.values[leaf]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, path)
	}
	node.values[leaf] = v
	return nil
}

// resolve looks up a declared value relative to this category.
// Lookups never create categories; a missing segment or leaf returns
// nil.
func (c *category) resolve(path string) *Value {
	segs := strings.Split(path, pathSep)
	node := c
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node.children[seg]
		if !ok {
			return nil
		}
		node = child
	}
	return node.values[segs[len(segs)-1]]
}

// child returns the named child category, nil when absent.
func (c *category) child(name string) *category {
	return c.children[name]
}

// walk visits every declared value under this category,
// passing the full path. Order is unspecified.
func (c *category) walk(fn func(path string, v *Value)) {
	for name, v := range c.values {
		fn(c.fullPath(name), v)
	}
	for _, child := range c.children {
		child.walk(fn)
	}
}
