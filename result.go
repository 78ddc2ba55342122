package conflang

import "errors"

// Result is the pass/fail outcome of a parse operation. Message is
// non-empty only when Error is true. A failed parse may still have
// applied earlier, order-preceding statements.
type Result struct {
	// Error reports whether the parse failed.
	Error bool

	// Message describes the failure. Empty on success.
	Message string

	records []ParseError
}

// OK reports whether the parse succeeded.
func (r Result) OK() bool {
	return !r.Error
}

// Records returns the individual positioned errors collected during
// the parse, in source order.
func (r Result) Records() []ParseError {
	return r.records
}

// Err returns the result as a plain error, nil on success.
func (r Result) Err() error {
	if !r.Error {
		return nil
	}
	return errors.New(r.Message)
}

// failResult builds a failed Result from a single record.
func failResult(e ParseError) Result {
	return Result{Error: true, Message: e.Error(), records: []ParseError{e}}
}
