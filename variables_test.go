package conflang

import "testing"

func TestVariables_Substitution(t *testing.T) {
	text := "$X = 100\nmyVal = $X\n"
	cfg := newCommenced(t, text, Options{}, map[string]Value{
		"myVal": NewInt(0),
	})
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if got := mustGet(t, cfg, "myVal"); got != int64(100) {
		t.Errorf("myVal = %v, want 100", got)
	}
}

func TestVariables_InsideText(t *testing.T) {
	text := "$NAME = world\ngreeting = hello $NAME!\n"
	cfg := newCommenced(t, text, Options{}, map[string]Value{
		"greeting": NewString(""),
	})
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if got := mustGet(t, cfg, "greeting"); got != "hello world!" {
		t.Errorf("greeting = %q", got)
	}
}

func TestVariables_ChainedDefinition(t *testing.T) {
	text := "$A = 5\n$B = $A\nv = $B\n"
	cfg := newCommenced(t, text, Options{}, map[string]Value{
		"v": NewInt(0),
	})
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if got := mustGet(t, cfg, "v"); got != int64(5) {
		t.Errorf("v = %v, want 5", got)
	}
}

func TestVariables_LongestMatch(t *testing.T) {
	vs := newVariables()
	vs.define("X", "1")
	vs.define("XY", "2")
	got, used := vs.substitute("$XY")
	if got != "2" {
		t.Errorf("substitute($XY) = %q, want 2", got)
	}
	if len(used) != 1 || used[0] != "XY" {
		t.Errorf("used = %v, want [XY]", used)
	}
}

func TestVariables_UnknownLeftVerbatim(t *testing.T) {
	vs := newVariables()
	vs.define("A", "1")
	if got, _ := vs.substitute("$GHOST and $A"); got != "$GHOST and 1" {
		t.Errorf("substitute = %q", got)
	}
}

func TestVariables_DynamicUpdateReappliesDependents(t *testing.T) {
	text := "$GAP = 4\ngap_in = $GAP\ngap_out = $GAP\n"
	cfg := newCommenced(t, text, Options{}, map[string]Value{
		"gap_in":  NewInt(0),
		"gap_out": NewInt(0),
	})
	if res := cfg.Parse(); res.Error {
		t.Fatalf("Parse failed: %s", res.Message)
	}
	if res := cfg.ParseLine("$GAP = 9"); res.Error {
		t.Fatalf("ParseLine failed: %s", res.Message)
	}
	if got := mustGet(t, cfg, "gap_in"); got != int64(9) {
		t.Errorf("gap_in = %v, want 9 after variable update", got)
	}
	if got := mustGet(t, cfg, "gap_out"); got != int64(9) {
		t.Errorf("gap_out = %v, want 9 after variable update", got)
	}
}

func TestVariables_RecordUseDeduplicates(t *testing.T) {
	vs := newVariables()
	vs.define("A", "1")
	vs.recordUse([]string{"A"}, "x = $A")
	vs.recordUse([]string{"A"}, "x = $A")
	if deps := vs.dependents("A"); len(deps) != 1 {
		t.Errorf("dependents = %v, want one entry", deps)
	}
}
