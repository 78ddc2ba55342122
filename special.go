package conflang

import (
	"github.com/google/uuid"
)

// specialInstance is one keyed instance of a special category. Each
// instance owns an independent copy of the category's field schema.
type specialInstance struct {
	key    string
	values map[string]*Value
}

// specialCategory is a category template that may have zero, one, or
// many runtime-keyed instances. Instances inherit the field schema,
// not values.
type specialCategory struct {
	name   string
	opts   SpecialOptions
	fields map[string]Value

	// order preserves first-seen instance order for key listing.
	order []*specialInstance
	byKey map[string]*specialInstance
}

func newSpecialCategory(name string, opts SpecialOptions) *specialCategory {
	return &specialCategory{
		name:   name,
		opts:   opts,
		fields: make(map[string]Value),
		byKey:  make(map[string]*specialInstance),
	}
}

// registerField adds a field to the schema. Existing instances do not
// pick it up retroactively; hosts register fields before parsing.
func (sc *specialCategory) registerField(name string, def Value) error {
	if _, exists := sc.fields[name]; exists {
		return ErrDuplicateRegistration
	}
	sc.fields[name] = def
	return nil
}

// removeField drops a field from the schema and from every live
// instance. Idempotent.
func (sc *specialCategory) removeField(name string) {
	delete(sc.fields, name)
	for _, inst := range sc.order {
		delete(inst.values, name)
	}
}

// instance returns the instance for key, creating it on first sight.
func (sc *specialCategory) instance(key string) *specialInstance {
	if inst, ok := sc.byKey[key]; ok {
		return inst
	}
	inst := sc.detached(key)
	sc.byKey[key] = inst
	sc.order = append(sc.order, inst)
	return inst
}

// detached builds an instance carrying the field schema without
// registering it. Verify-only parses validate against these so the
// live registry stays untouched.
func (sc *specialCategory) detached(key string) *specialInstance {
	inst := &specialInstance{key: key, values: make(map[string]*Value, len(sc.fields))}
	for name := range sc.fields {
		field := sc.fields[name]
		inst.values[name] = field.clone()
	}
	return inst
}

// lookup returns the instance for key without creating one.
func (sc *specialCategory) lookup(key string) *specialInstance {
	return sc.byKey[key]
}

// anonymousKey generates a synthetic instance key for anonymous
// key-based categories.
func (sc *specialCategory) anonymousKey() string {
	return uuid.NewString()
}

// rekey moves an instance to a new key, preserving first-seen order.
// When the target key already exists, user-set fields of the moved
// instance are folded into the existing one and the duplicate is
// dropped; the surviving instance is returned. onFold observes each
// folded field so change callbacks still fire for those writes.
func (sc *specialCategory) rekey(inst *specialInstance, key string, onFold func(field string, oldValue, newValue any)) *specialInstance {
	if inst.key == key {
		return inst
	}
	if existing, ok := sc.byKey[key]; ok {
		for name, v := range inst.values {
			if v.setByUser {
				if target, ok := existing.values[name]; ok {
					old := target.data
					target.set(v.data)
					if onFold != nil {
						onFold(name, old, v.data)
					}
				}
			}
		}
		sc.drop(inst)
		return existing
	}
	delete(sc.byKey, inst.key)
	inst.key = key
	sc.byKey[key] = inst
	return inst
}

// drop removes an instance entirely.
func (sc *specialCategory) drop(inst *specialInstance) {
	delete(sc.byKey, inst.key)
	for i, cur := range sc.order {
		if cur == inst {
			sc.order = append(sc.order[:i], sc.order[i+1:]...)
			return
		}
	}
}

// listKeys returns all instantiated keys in first-seen order.
func (sc *specialCategory) listKeys() []string {
	keys := make([]string, len(sc.order))
	for i, inst := range sc.order {
		keys[i] = inst.key
	}
	return keys
}
