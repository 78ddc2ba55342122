package conflang

import (
	"strings"
	"testing"
)

func TestParseError_Error(t *testing.T) {
	e := &ParseError{Kind: ErrUnknownKey, Line: 3, Col: 1, Message: "unknown key foo"}
	if got := e.Error(); got != "line 3: unknown key foo" {
		t.Errorf("Error() = %q", got)
	}
	bare := &ParseError{Message: "no line"}
	if got := bare.Error(); got != "no line" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorKind_String(t *testing.T) {
	kinds := map[ErrorKind]string{
		ErrLex:          "lex error",
		ErrSyntax:       "syntax error",
		ErrUnknownKey:   "unknown key",
		ErrTypeMismatch: "type mismatch",
		ErrMissingFile:  "missing file",
		ErrHandler:      "handler error",
	}
	for kind, want := range kinds {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}

func TestErrorCollector_SingleMessage(t *testing.T) {
	c := &errorCollector{}
	c.addf(ErrSyntax, 2, 1, "missing value for x")
	res := c.result()
	if !res.Error {
		t.Fatal("expected error result")
	}
	if res.Message != "line 2: missing value for x" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestErrorCollector_MultiMessage(t *testing.T) {
	c := &errorCollector{}
	c.addf(ErrSyntax, 1, 1, "first")
	c.addf(ErrUnknownKey, 2, 1, "second")
	res := c.result()
	if !strings.HasPrefix(res.Message, "2 parse errors:") {
		t.Errorf("Message = %q", res.Message)
	}
	if len(res.Records()) != 2 {
		t.Errorf("records = %d, want 2", len(res.Records()))
	}
}

func TestErrorCollector_AbortOnFirst(t *testing.T) {
	c := &errorCollector{abortOnFirst: true}
	if c.addf(ErrSyntax, 1, 1, "boom") {
		t.Error("add should report stop with abortOnFirst")
	}
	c2 := &errorCollector{}
	if !c2.addf(ErrSyntax, 1, 1, "boom") {
		t.Error("add should allow continuation without abortOnFirst")
	}
}

func TestResult_OKAndErr(t *testing.T) {
	ok := Result{}
	if !ok.OK() || ok.Err() != nil {
		t.Error("zero Result should be success")
	}
	bad := failResult(ParseError{Kind: ErrSyntax, Line: 1, Message: "x"})
	if bad.OK() {
		t.Error("failResult should not be OK")
	}
	if bad.Err() == nil || bad.Err().Error() != "line 1: x" {
		t.Errorf("Err() = %v", bad.Err())
	}
}

func TestParser_UnmatchedBraces(t *testing.T) {
	open := newCommenced(t, "general {\n  a = 1\n", Options{}, map[string]Value{
		"general:a": NewInt(0),
	})
	res := open.Parse()
	if !res.Error {
		t.Fatal("expected error for missing '}'")
	}
	if res.Records()[0].Kind != ErrSyntax {
		t.Errorf("kind = %v, want ErrSyntax", res.Records()[0].Kind)
	}

	stray := newCommenced(t, "}\n", Options{}, nil)
	if res := stray.Parse(); !res.Error {
		t.Error("expected error for stray '}'")
	}
}

func TestParser_LexErrorPosition(t *testing.T) {
	cfg := newCommenced(t, "a = 1\n^\n", Options{}, map[string]Value{
		"a": NewInt(0),
	})
	res := cfg.Parse()
	if !res.Error {
		t.Fatal("expected lex error")
	}
	rec := res.Records()[0]
	if rec.Kind != ErrLex || rec.Line != 2 {
		t.Errorf("record = %+v, want lex error on line 2", rec)
	}
	// The valid line before it still applied.
	if got := mustGet(t, cfg, "a"); got != int64(1) {
		t.Errorf("a = %v, want 1", got)
	}
}
