package conflang

import (
	"errors"
	"fmt"
	"testing"
)

func TestHandler_Dispatch(t *testing.T) {
	cfg := newCommenced(t, "exec swaylock -f", Options{}, nil)
	var gotCmd, gotVal string
	err := cfg.RegisterHandler("exec", func(command, value string) error {
		gotCmd, gotVal = command, value
		return nil
	}, HandlerOptions{})
	if err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if gotCmd != "exec" || gotVal != "swaylock -f" {
		t.Errorf("handler got (%q, %q), want (exec, swaylock -f)", gotCmd, gotVal)
	}
}

func TestHandler_EqualsForm(t *testing.T) {
	cfg := newCommenced(t, "bind = SUPER, K, spawn", Options{}, nil)
	var gotVal string
	if err := cfg.RegisterHandler("bind", func(command, value string) error {
		gotVal = value
		return nil
	}, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if gotVal != "SUPER, K, spawn" {
		t.Errorf("value = %q", gotVal)
	}
}

func TestHandler_ErrorSurfaced(t *testing.T) {
	cfg := newCommenced(t, "exec something", Options{}, nil)
	if err := cfg.RegisterHandler("exec", func(command, value string) error {
		return errors.New("boom")
	}, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	res := cfg.Parse()
	if !res.Error {
		t.Fatal("expected handler error")
	}
	if res.Message != "boom" {
		t.Errorf("message = %q, want boom (verbatim)", res.Message)
	}
	if res.Records()[0].Kind != ErrHandler {
		t.Errorf("kind = %v, want ErrHandler", res.Records()[0].Kind)
	}
	// The position survives on the record even though the message
	// passes through without it.
	if res.Records()[0].Line != 1 {
		t.Errorf("line = %d, want 1", res.Records()[0].Line)
	}
}

func TestHandler_ErrorDoesNotAbort(t *testing.T) {
	cfg := newCommenced(t, "exec bad\ngap = 2\n", Options{}, map[string]Value{
		"gap": NewInt(0),
	})
	if err := cfg.RegisterHandler("exec", func(command, value string) error {
		return errors.New("nope")
	}, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	res := cfg.Parse()
	if !res.Error {
		t.Fatal("expected error")
	}
	if got := mustGet(t, cfg, "gap"); got != int64(2) {
		t.Errorf("gap = %v, want 2: later statements still apply", got)
	}
}

func TestHandler_FlagForm(t *testing.T) {
	cfg := newCommenced(t, "fullscreen", Options{}, nil)
	called := false
	if err := cfg.RegisterHandler("fullscreen", func(command, value string) error {
		called = true
		if value != "" {
			return fmt.Errorf("unexpected value %q", value)
		}
		return nil
	}, HandlerOptions{AllowFlags: true}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if !called {
		t.Error("flag-form handler was not invoked")
	}
}

func TestHandler_FlagFormRejectedWithoutOption(t *testing.T) {
	cfg := newCommenced(t, "fullscreen", Options{}, nil)
	if err := cfg.RegisterHandler("fullscreen", func(command, value string) error {
		return nil
	}, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	if res := cfg.Parse(); !res.Error {
		t.Error("expected error for bare keyword without AllowFlags")
	}
}

func TestHandler_DuplicateStrict(t *testing.T) {
	cfg := NewFromString("", Options{})
	h := func(command, value string) error { return nil }
	if err := cfg.RegisterHandler("exec", h, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	if err := cfg.RegisterHandler("exec", h, HandlerOptions{}); !errors.Is(err, ErrDuplicateRegistration) {
		t.Errorf("err = %v, want ErrDuplicateRegistration", err)
	}
}

func TestHandler_DuplicatePermissiveReplaces(t *testing.T) {
	cfg := NewFromString("exec x", Options{Permissive: true})
	first, second := false, false
	cfg.RegisterHandler("exec", func(command, value string) error { first = true; return nil }, HandlerOptions{})
	if err := cfg.RegisterHandler("exec", func(command, value string) error { second = true; return nil }, HandlerOptions{}); err != nil {
		t.Fatalf("permissive duplicate failed: %v", err)
	}
	cfg.Commence()
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if first || !second {
		t.Errorf("first = %v, second = %v; want replacement to win", first, second)
	}
}

func TestHandler_Unregister(t *testing.T) {
	cfg := newCommenced(t, "exec x", Options{}, nil)
	if err := cfg.RegisterHandler("exec", func(command, value string) error { return nil }, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	cfg.UnregisterHandler("exec")
	res := cfg.Parse()
	if !res.Error {
		t.Fatal("expected unknown keyword after unregister")
	}
	if res.Records()[0].Kind != ErrUnknownKey {
		t.Errorf("kind = %v, want ErrUnknownKey", res.Records()[0].Kind)
	}
}

func TestHandler_DoesNotShadowValue(t *testing.T) {
	cfg := newCommenced(t, "gap = 3", Options{}, map[string]Value{
		"gap": NewInt(0),
	})
	called := false
	if err := cfg.RegisterHandler("gap", func(command, value string) error {
		called = true
		return nil
	}, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if called {
		t.Error("handler shadowed a declared value path")
	}
	if got := mustGet(t, cfg, "gap"); got != int64(3) {
		t.Errorf("gap = %v, want 3", got)
	}
}

func TestHandler_ParseCommandValue(t *testing.T) {
	cfg := newCommenced(t, "", Options{}, nil)
	var gotCmd, gotVal string
	if err := cfg.RegisterHandler("exec", func(command, value string) error {
		gotCmd, gotVal = command, value
		return nil
	}, HandlerOptions{}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}
	if res := cfg.ParseCommandValue("exec", "notify-send hi"); res.Error {
		t.Fatalf("ParseCommandValue failed: %s", res.Message)
	}
	if gotCmd != "exec" || gotVal != "notify-send hi" {
		t.Errorf("handler got (%q, %q)", gotCmd, gotVal)
	}
}
