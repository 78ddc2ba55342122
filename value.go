package conflang

import (
	"fmt"
	"strconv"
)

// DataType identifies the declared type of a config value. The type
// never changes after registration.
type DataType uint8

const (
	// TypeInt is a 64-bit signed integer.
	TypeInt DataType = iota
	// TypeFloat is a single-precision float.
	TypeFloat
	// TypeString is a string.
	TypeString
	// TypeVec2 is an ordered pair of single-precision floats.
	TypeVec2
	// TypeCustom is an opaque payload produced by a CustomHandler.
	TypeCustom
)

var dataTypeNames = map[DataType]string{
	TypeInt:    "int",
	TypeFloat:  "float",
	TypeString: "string",
	TypeVec2:   "vec2",
	TypeCustom: "custom",
}

// String returns the type's name.
func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Vec2 is an ordered pair of single-precision floats. Equality is
// exact field-wise comparison.
type Vec2 struct {
	X float32
	Y float32
}

// String renders the vector in assignment form.
func (v Vec2) String() string {
	return strconv.FormatFloat(float64(v.X), 'g', -1, 32) + ", " +
		strconv.FormatFloat(float64(v.Y), 'g', -1, 32)
}

// CustomHandler converts a raw right-hand side into a custom payload.
// It is invoked once at registration (on the default) and once per
// assignment.
type CustomHandler func(raw string) (any, error)

// Value is a typed config value: current payload, retained default,
// and the set-by-user flag.
type Value struct {
	typ       DataType
	data      any
	def       any
	setByUser bool

	// custom parses raw text for TypeCustom values.
	custom CustomHandler
	// customDefault is the raw default for TypeCustom, converted at
	// registration.
	customDefault string
}

// NewInt declares an integer value with the given default.
func NewInt(def int64) Value {
	return Value{typ: TypeInt, data: def, def: def}
}

// NewFloat declares a float value with the given default.
func NewFloat(def float32) Value {
	return Value{typ: TypeFloat, data: def, def: def}
}

// NewString declares a string value with the given default.
func NewString(def string) Value {
	return Value{typ: TypeString, data: def, def: def}
}

// NewVec2 declares a two-component vector value with the given default.
func NewVec2(x, y float32) Value {
	v := Vec2{X: x, Y: y}
	return Value{typ: TypeVec2, data: v, def: v}
}

// NewCustom declares a value parsed by handler. The default payload is
// produced by running handler on defaultRaw during registration.
func NewCustom(handler CustomHandler, defaultRaw string) Value {
	return Value{typ: TypeCustom, custom: handler, customDefault: defaultRaw}
}

// Type returns the declared type.
func (v *Value) Type() DataType {
	return v.typ
}

// Get returns the current payload: int64, float32, string, Vec2, or
// the custom handler's product.
func (v *Value) Get() any {
	return v.data
}

// Default returns the retained default payload.
func (v *Value) Default() any {
	return v.def
}

// SetByUser reports whether the value was explicitly assigned during
// parsing, as opposed to retaining its registered default.
func (v *Value) SetByUser() bool {
	return v.setByUser
}

// finalize resolves a custom value's default. Called at registration.
func (v *Value) finalize() error {
	if v.typ != TypeCustom {
		return nil
	}
	if v.custom == nil {
		return fmt.Errorf("custom value has no handler")
	}
	payload, err := v.custom(v.customDefault)
	if err != nil {
		return fmt.Errorf("custom default %q: %w", v.customDefault, err)
	}
	v.data = payload
	v.def = payload
	return nil
}

// set replaces the payload and marks the value user-set.
func (v *Value) set(payload any) {
	v.data = payload
	v.setByUser = true
}

// clone returns a fresh copy with payload reset to the default and
// the set-by-user flag cleared. Special-category instances inherit
// their field schema this way.
func (v *Value) clone() *Value {
	return &Value{
		typ:           v.typ,
		data:          v.def,
		def:           v.def,
		custom:        v.custom,
		customDefault: v.customDefault,
	}
}
