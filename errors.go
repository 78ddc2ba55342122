package conflang

import (
	"errors"
	"fmt"
	"strings"
)

// Registration-time errors. Parse-time failures are reported as
// ParseError records inside a Result instead.
var (
	// ErrDuplicateRegistration is returned when a value path or
	// handler keyword is registered twice in strict mode.
	ErrDuplicateRegistration = errors.New("already registered")

	// ErrAlreadyCommenced is returned when registration is attempted
	// after Commence.
	ErrAlreadyCommenced = errors.New("cannot register after commence")

	// ErrNotCommenced is returned when a parse entry point is called
	// before Commence.
	ErrNotCommenced = errors.New("config has not been commenced")

	// ErrNotFound is returned by getters for unregistered paths,
	// undeclared special categories, or missing instance keys.
	ErrNotFound = errors.New("not found")
)

// ErrorKind classifies a parse-time failure.
type ErrorKind uint8

const (
	// ErrLex is a malformed token.
	ErrLex ErrorKind = iota
	// ErrSyntax is a grammar violation: unmatched brace, missing
	// right-hand side.
	ErrSyntax
	// ErrUnknownKey is an assignment or reference to an unregistered
	// path, keyword, or special-category field.
	ErrUnknownKey
	// ErrTypeMismatch is a right-hand side that cannot convert to the
	// declared type.
	ErrTypeMismatch
	// ErrMissingFile is a config or sourced file that does not exist.
	ErrMissingFile
	// ErrHandler is a failure reported by a handler callback; the
	// message is passed through verbatim.
	ErrHandler
)

var errorKindNames = map[ErrorKind]string{
	ErrLex:          "lex error",
	ErrSyntax:       "syntax error",
	ErrUnknownKey:   "unknown key",
	ErrTypeMismatch: "type mismatch",
	ErrMissingFile:  "missing file",
	ErrHandler:      "handler error",
}

// String returns the kind's name.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseError is a single positioned parse failure.
type ParseError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Line is the 1-based source line, 0 when not tied to a line.
	Line int

	// Col is the 1-based source column, 0 when unknown.
	Col int

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// text renders the error for result messages. Handler callback
// messages pass through verbatim; everything else carries its
// position. The position stays available on the record either way.
func (e *ParseError) text() string {
	if e.Kind == ErrHandler {
		return e.Message
	}
	return e.Error()
}

// errorCollector accumulates parse errors during a pass. With
// abortOnFirst set (the ThrowAllErrors option) the first record stops
// the parse.
type errorCollector struct {
	errs         []ParseError
	abortOnFirst bool
}

// add records an error and reports whether parsing may continue.
func (c *errorCollector) add(e ParseError) bool {
	c.errs = append(c.errs, e)
	return !c.abortOnFirst
}

// addf records a formatted error.
func (c *errorCollector) addf(kind ErrorKind, line, col int, format string, args ...any) bool {
	return c.add(ParseError{Kind: kind, Line: line, Col: col, Message: fmt.Sprintf(format, args...)})
}

// hasErrors reports whether anything was recorded.
func (c *errorCollector) hasErrors() bool {
	return len(c.errs) > 0
}

// message renders the accumulated errors as a single string.
func (c *errorCollector) message() string {
	switch len(c.errs) {
	case 0:
		return ""
	case 1:
		return c.errs[0].text()
	}
	msgs := make([]string, len(c.errs))
	for i := range c.errs {
		msgs[i] = c.errs[i].text()
	}
	return fmt.Sprintf("%d parse errors:\n  - %s", len(c.errs), strings.Join(msgs, "\n  - "))
}

// result converts the collected state into a Result.
func (c *errorCollector) result() Result {
	if !c.hasErrors() {
		return Result{}
	}
	records := make([]ParseError, len(c.errs))
	copy(records, c.errs)
	return Result{Error: true, Message: c.message(), records: records}
}
