package lexer

import (
	"fmt"
	"strings"
)

// Error is a lexical error with its source position.
type Error struct {
	Line    int
	Col     int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("lex error at line %d col %d: %s", e.Line, e.Col, e.Message)
}

// Lexer scans configuration text into tokens.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// New creates a lexer over the given source text.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Pos returns the current 1-based line and column.
func (l *Lexer) Pos() (line, col int) {
	return l.line, l.col
}

// Next returns the next token. Comments are consumed silently.
// The final token has Kind EOF; calling Next after EOF keeps
// returning EOF.
func (l *Lexer) Next() (Token, error) {
	l.skipBlanks()

	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: line, Col: col}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '\n':
		l.advance()
		return Token{Kind: Newline, Line: line, Col: col}, nil
	case c == '{':
		l.advance()
		return Token{Kind: LBrace, Text: "{", Line: line, Col: col}, nil
	case c == '}':
		l.advance()
		return Token{Kind: RBrace, Text: "}", Line: line, Col: col}, nil
	case c == '=':
		l.advance()
		return Token{Kind: Equals, Text: "=", Line: line, Col: col}, nil
	case c == ',':
		l.advance()
		return Token{Kind: Comma, Text: ",", Line: line, Col: col}, nil
	case c == '[':
		l.advance()
		return Token{Kind: LBracket, Text: "[", Line: line, Col: col}, nil
	case c == ']':
		l.advance()
		return Token{Kind: RBracket, Text: "]", Line: line, Col: col}, nil
	case c == '"':
		return l.scanString(line, col)
	case isDigit(c), c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.scanNumber(line, col)
	case isIdentStart(c):
		return l.scanIdent(line, col)
	default:
		l.advance()
		return Token{}, &Error{Line: line, Col: col, Message: fmt.Sprintf("unrecognized character %q", c)}
	}
}

// RestOfLine consumes and returns the remainder of the current
// physical line, comment-stripped and whitespace-trimmed. Capture
// stops at an unquoted '}' so single-line blocks keep their closing
// brace, and at an unescaped '#' ("##" yields a literal hash). The
// terminator itself is left for Next.
func (l *Lexer) RestOfLine() string {
	start := l.pos
	inQuote := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\n' {
			break
		}
		if c == '"' {
			inQuote = !inQuote
		}
		if !inQuote {
			if c == '}' {
				break
			}
			if c == '#' {
				if l.pos+1 < len(l.src) && l.src[l.pos+1] == '#' {
					l.advance()
					l.advance()
					continue
				}
				break
			}
		}
		l.advance()
	}
	raw := strings.ReplaceAll(l.src[start:l.pos], "##", "#")
	return strings.TrimSpace(raw)
}

// BracketKey captures a raw instance key up to the closing ']',
// consuming it. Keys may contain spaces (device[epic mouse V1]), so
// they are not tokenized. A newline or EOF before ']' is an error.
func (l *Lexer) BracketKey() (string, error) {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ']':
			key := strings.TrimSpace(l.src[start:l.pos])
			l.advance()
			return key, nil
		case '\n':
			return "", &Error{Line: line, Col: col, Message: "missing ']' in key"}
		default:
			l.advance()
		}
	}
	return "", &Error{Line: line, Col: col, Message: "missing ']' in key"}
}

// skipBlanks consumes spaces, tabs, carriage returns, and comments.
// Newlines are significant and left alone.
func (l *Lexer) skipBlanks() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.advance()
		case '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanString(line, col int) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.advance()
			return Token{Kind: String, Text: sb.String(), Line: line, Col: col}, nil
		case '\n':
			return Token{}, &Error{Line: line, Col: col, Message: "unterminated string"}
		case '\\':
			if l.pos+1 >= len(l.src) {
				return Token{}, &Error{Line: line, Col: col, Message: "unterminated string"}
			}
			l.advance()
			switch l.src[l.pos] {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(l.src[l.pos])
			}
			l.advance()
		default:
			sb.WriteByte(c)
			l.advance()
		}
	}
	return Token{}, &Error{Line: line, Col: col, Message: "unterminated string"}
}

func (l *Lexer) scanNumber(line, col int) (Token, error) {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.advance()
	}
	// Hex integers pass through as plain Number text.
	if l.pos+1 < len(l.src) && l.src[l.pos] == '0' && (l.src[l.pos+1] == 'x' || l.src[l.pos+1] == 'X') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
			l.advance()
		}
		return Token{Kind: Number, Text: l.src[start:l.pos], Line: line, Col: col}, nil
	}
	float := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isDigit(c) {
			l.advance()
			continue
		}
		if c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			float = true
			l.advance()
			continue
		}
		if (c == 'e' || c == 'E') && l.pos+1 < len(l.src) &&
			(isDigit(l.src[l.pos+1]) || l.src[l.pos+1] == '-' || l.src[l.pos+1] == '+') {
			float = true
			l.advance()
			l.advance()
			continue
		}
		break
	}
	return Token{Kind: Number, Text: l.src[start:l.pos], Float: float, Line: line, Col: col}, nil
}

func (l *Lexer) scanIdent(line, col int) (Token, error) {
	start := l.pos
	l.advance()
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.advance()
	}
	return Token{Kind: Ident, Text: l.src[start:l.pos], Line: line, Col: col}, nil
}

// advance moves past one byte, tracking line and column.
func (l *Lexer) advance() {
	if l.pos < len(l.src) {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// isIdentStart matches the first character of an identifier. Variable
// references start with '$'. A leading ':' starts the field part of a
// keyed target such as device[kbd]:sens.
func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdentPart matches subsequent identifier characters. Colons are
// path separators and legal inside a flat assignment target
// (general:border = 5); dots and dashes appear in option names.
func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '-'
}
