package conflang

import (
	"errors"
	"testing"
)

func TestDataType_String(t *testing.T) {
	types := map[DataType]string{
		TypeInt:    "int",
		TypeFloat:  "float",
		TypeString: "string",
		TypeVec2:   "vec2",
		TypeCustom: "custom",
	}
	for typ, want := range types {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestVec2_String(t *testing.T) {
	if got := (Vec2{1.5, 2.5}).String(); got != "1.5, 2.5" {
		t.Errorf("String() = %q", got)
	}
}

func TestValue_TypeFixedAtRegistration(t *testing.T) {
	v := NewInt(5)
	if v.Type() != TypeInt {
		t.Errorf("Type() = %v", v.Type())
	}
	if v.Get() != int64(5) || v.Default() != int64(5) {
		t.Errorf("Get() = %v, Default() = %v", v.Get(), v.Default())
	}
	if v.SetByUser() {
		t.Error("fresh value must not be set-by-user")
	}
}

func TestValue_CloneResetsState(t *testing.T) {
	v := NewFloat(1.0)
	v.set(float32(9.0))
	c := v.clone()
	if c.Get() != float32(1.0) {
		t.Errorf("clone payload = %v, want default", c.Get())
	}
	if c.SetByUser() {
		t.Error("clone must not inherit set-by-user")
	}
}

func TestValue_CustomDefaultFailure(t *testing.T) {
	bad := NewCustom(func(raw string) (any, error) {
		return nil, errors.New("cannot parse")
	}, "whatever")
	cfg := NewFromString("", Options{})
	if err := cfg.AddValue("x", bad); err == nil {
		t.Error("expected registration error for failing custom default")
	}
}

func TestCategory_RegisterAndResolve(t *testing.T) {
	root := newCategory("", nil)
	v := NewInt(1)
	if err := root.register("a:b:c", &v); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if got := root.resolve("a:b:c"); got == nil {
		t.Fatal("resolve returned nil for registered path")
	}
	// Lookups never create categories.
	if got := root.resolve("a:ghost:c"); got != nil {
		t.Error("resolve created or found a nonexistent path")
	}
	if root.child("a").child("b") == nil {
		t.Error("intermediate categories not created at registration")
	}
}

func TestCategory_FullPath(t *testing.T) {
	root := newCategory("", nil)
	v := NewInt(0)
	if err := root.register("general:colors:active", &v); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	colors := root.child("general").child("colors")
	if got := colors.fullPath("active"); got != "general:colors:active" {
		t.Errorf("fullPath = %q", got)
	}
}
