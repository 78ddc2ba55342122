// Package lexer tokenizes conflang configuration text.
//
// The lexer scans a whole document (or a single dynamic line) left to
// right and produces tokens with 1-based line and column positions.
// Values on the right-hand side of an assignment are raw to the end of
// the physical line, so the parser switches to RestOfLine after
// consuming '='.
package lexer

// Kind identifies the type of a lexical token.
type Kind uint8

const (
	// EOF marks the end of input.
	EOF Kind = iota
	// Ident is an identifier: keyword, value name, or colon path.
	// Variable names carry their leading '$'.
	Ident
	// Number is a numeric literal. Float reports whether it has a
	// fractional or exponent part.
	Number
	// String is a quoted string literal with escapes decoded.
	String
	// LBrace is '{'.
	LBrace
	// RBrace is '}'.
	RBrace
	// Equals is '='.
	Equals
	// Comma is ','.
	Comma
	// LBracket is '['.
	LBracket
	// RBracket is ']'.
	RBracket
	// Newline separates statements.
	Newline
)

var kindNames = map[Kind]string{
	EOF:      "end of input",
	Ident:    "identifier",
	Number:   "number",
	String:   "string",
	LBrace:   "'{'",
	RBrace:   "'}'",
	Equals:   "'='",
	Comma:    "','",
	LBracket: "'['",
	RBracket: "']'",
	Newline:  "newline",
}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit with its source position.
type Token struct {
	// Kind is the token type.
	Kind Kind

	// Text is the token's text. For String tokens the quotes are
	// stripped and escapes decoded; for all others it is the raw
	// source slice.
	Text string

	// Float reports whether a Number token has a '.' or exponent.
	Float bool

	// Line is the 1-based line of the token's first character.
	Line int

	// Col is the 1-based column of the token's first character.
	Col int
}
