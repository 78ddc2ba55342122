// Package notify provides change notification for config values.
//
// It implements an observer pattern over a parsing Config: components
// subscribe globally or to a specific value path and receive a
// callback whenever dynamic parsing or a reload changes that value.
// Dispatch is synchronous on the parsing goroutine.
package notify

import (
	"sync"

	conflang "github.com/dshills/conflang"
)

// Change is one applied value change.
type Change struct {
	// Path is the colon-separated path of the changed value. For
	// special-category fields it has the form name[key]:field.
	Path string

	// Old is the previous payload.
	Old any

	// New is the applied payload.
	New any
}

// Observer is called when a value changes.
type Observer func(change Change)

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	path     string
	notifier *Notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s)
	}
}

// Notifier manages value-change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	global map[uint64]Observer
	byPath map[string]map[uint64]Observer
	nextID uint64
}

// New creates an empty notifier.
func New() *Notifier {
	return &Notifier{
		global: make(map[uint64]Observer),
		byPath: make(map[string]map[uint64]Observer),
	}
}

// Attach wires the notifier into a Config so every applied change is
// published. Call before parsing.
func (n *Notifier) Attach(cfg *conflang.Config) {
	cfg.OnChange(func(path string, oldValue, newValue any) {
		n.Publish(Change{Path: path, Old: oldValue, New: newValue})
	})
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.global[n.nextID] = fn
	return &Subscription{id: n.nextID, notifier: n}
}

// SubscribePath registers an observer for changes to one path.
func (n *Notifier) SubscribePath(path string, fn Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	observers, ok := n.byPath[path]
	if !ok {
		observers = make(map[uint64]Observer)
		n.byPath[path] = observers
	}
	observers[n.nextID] = fn
	return &Subscription{id: n.nextID, path: path, notifier: n}
}

// Publish dispatches a change to global observers and to observers of
// its path, synchronously.
func (n *Notifier) Publish(change Change) {
	n.mu.RLock()
	fns := make([]Observer, 0, len(n.global))
	for _, fn := range n.global {
		fns = append(fns, fn)
	}
	for _, fn := range n.byPath[change.Path] {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

func (n *Notifier) unsubscribe(s *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if s.path == "" {
		delete(n.global, s.id)
		return
	}
	if observers, ok := n.byPath[s.path]; ok {
		delete(observers, s.id)
		if len(observers) == 0 {
			delete(n.byPath, s.path)
		}
	}
}
