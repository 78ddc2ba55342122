package conflang

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/conflang/internal/lexer"
)

// maxSourceDepth bounds nested source includes to stop cycles.
const maxSourceDepth = 16

// parseContext is one frame of the parser's block stack: either a
// plain category, a special-category instance, or a skipped block
// that is consumed for brace balance without being applied.
type parseContext struct {
	cat  *category
	sc   *specialCategory
	inst *specialInstance
	skip bool
}

// parser is the recursive-descent driver over the token stream. It
// mutates the category tree and special registry, dispatches
// handlers, and funnels every failure into the shared collector.
type parser struct {
	cfg     *Config
	lex     *lexer.Lexer
	errs    *errorCollector
	stack   []parseContext
	dynamic bool
	depth   int
}

func newParser(cfg *Config, src string, errs *errorCollector) *parser {
	return &parser{
		cfg:   cfg,
		lex:   lexer.New(src),
		errs:  errs,
		stack: []parseContext{{cat: cfg.root}},
	}
}

func (p *parser) current() *parseContext {
	return &p.stack[len(p.stack)-1]
}

// run consumes statements until EOF. It returns false when the error
// policy aborted the pass.
func (p *parser) run() bool {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			if !p.lexError(err) {
				return false
			}
			continue
		}
		switch tok.Kind {
		case lexer.EOF:
			if len(p.stack) > 1 {
				return p.errs.addf(ErrSyntax, tok.Line, tok.Col, "missing closing '}'")
			}
			return true
		case lexer.Newline:
			// Statement separator.
		case lexer.RBrace:
			if len(p.stack) == 1 {
				if !p.errs.addf(ErrSyntax, tok.Line, tok.Col, "unmatched '}'") {
					return false
				}
				continue
			}
			p.stack = p.stack[:len(p.stack)-1]
		case lexer.Ident:
			if !p.statement(tok) {
				return false
			}
		default:
			if !p.errs.addf(ErrSyntax, tok.Line, tok.Col, "unexpected %v", tok.Kind) {
				return false
			}
		}
	}
}

// statement handles one statement starting at an identifier:
// assignment, block open, keyed block open, or handler line.
func (p *parser) statement(ident lexer.Token) bool {
	mark := *p.lex
	tok, err := p.lex.Next()
	if err != nil {
		return p.lexError(err)
	}

	switch tok.Kind {
	case lexer.Equals:
		return p.assign(ident, p.lex.RestOfLine())
	case lexer.LBrace:
		return p.openBlock(ident, "", false)
	case lexer.LBracket:
		return p.keyedStatement(ident)
	default:
		// Not assignment syntax: the rest of the line (including the
		// token just read) is the handler's value argument.
		*p.lex = mark
		return p.handlerLine(ident, p.lex.RestOfLine())
	}
}

// keyedStatement handles name[key]{...} blocks and the flat
// name[key]:field = value form.
func (p *parser) keyedStatement(ident lexer.Token) bool {
	key, err := p.lex.BracketKey()
	if err != nil {
		return p.lexError(err)
	}
	tok, err := p.lex.Next()
	if err != nil {
		return p.lexError(err)
	}
	switch {
	case tok.Kind == lexer.LBrace:
		return p.openBlock(ident, key, true)
	case tok.Kind == lexer.Ident && strings.HasPrefix(tok.Text, ":"):
		field := tok.Text[1:]
		eq, err := p.lex.Next()
		if err != nil {
			return p.lexError(err)
		}
		if eq.Kind != lexer.Equals {
			return p.errs.addf(ErrSyntax, eq.Line, eq.Col, "expected '=' after %s[%s]:%s", ident.Text, key, field)
		}
		return p.flatSpecialAssign(ident, key, field, p.lex.RestOfLine())
	default:
		return p.errs.addf(ErrSyntax, tok.Line, tok.Col, "expected '{' after %s[%s]", ident.Text, key)
	}
}

// openBlock pushes a category or special-category instance context.
// Unknown names push a skip context so brace balance survives.
func (p *parser) openBlock(ident lexer.Token, key string, hasKey bool) bool {
	ctx := p.current()
	if ctx.skip {
		p.stack = append(p.stack, parseContext{skip: true})
		return true
	}

	name := ident.Text
	if sc, ok := p.cfg.specials[name]; ok {
		return p.openSpecial(ident, sc, key, hasKey)
	}
	if hasKey {
		if !p.cfg.opts.Permissive {
			if !p.errs.addf(ErrUnknownKey, ident.Line, ident.Col, "no special category named %s", name) {
				return false
			}
		}
		p.stack = append(p.stack, parseContext{skip: true})
		return true
	}
	if ctx.cat != nil {
		if child := ctx.cat.child(name); child != nil {
			p.stack = append(p.stack, parseContext{cat: child})
			return true
		}
	}
	if !p.cfg.opts.Permissive {
		if !p.errs.addf(ErrUnknownKey, ident.Line, ident.Col, "unknown category %s", ctx.pathOf(name)) {
			return false
		}
	}
	p.stack = append(p.stack, parseContext{skip: true})
	return true
}

// openSpecial resolves the instance key and pushes the instance
// context.
func (p *parser) openSpecial(ident lexer.Token, sc *specialCategory, key string, hasKey bool) bool {
	switch {
	case hasKey:
	case sc.opts.AnonymousKeyBased, sc.opts.Key != "":
		// Anonymous instances get a synthetic key; key-field based
		// ones start synthetic and are rekeyed by the field
		// assignment.
		key = sc.anonymousKey()
	default:
		if !p.errs.addf(ErrSyntax, ident.Line, ident.Col, "special category %s requires a key", sc.name) {
			return false
		}
		p.stack = append(p.stack, parseContext{skip: true})
		return true
	}
	p.stack = append(p.stack, parseContext{sc: sc, inst: p.instanceFor(sc, key)})
	return true
}

// instanceFor resolves the instance a statement targets. Verify-only
// parses get a detached copy so field names and conversions are still
// checked without touching the registry.
func (p *parser) instanceFor(sc *specialCategory, key string) *specialInstance {
	if p.cfg.opts.VerifyOnly {
		if inst := sc.lookup(key); inst != nil {
			return inst
		}
		return sc.detached(key)
	}
	return sc.instance(key)
}

// assign handles IDENT = raw in the current context.
func (p *parser) assign(ident lexer.Token, raw string) bool {
	ctx := p.current()
	if ctx.skip {
		return true
	}
	name := ident.Text

	if strings.HasPrefix(name, "$") {
		return p.defineVariable(ident, name[1:], raw)
	}
	if raw == "" {
		return p.errs.addf(ErrSyntax, ident.Line, ident.Col, "missing value for %s", name)
	}

	cooked, used := p.cfg.vars.substitute(raw)

	if ctx.inst != nil {
		inst, ok := p.specialAssign(ident, ctx.sc, ctx.inst, name, cooked)
		if ok {
			p.cfg.vars.recordUse(used, ctx.sc.name+"["+inst.key+"]"+pathSep+name+" = "+raw)
		}
		ctx.inst = inst
		return ok
	}

	if v := ctx.cat.resolve(name); v != nil {
		full := ctx.cat.fullPath(name)
		if !p.applyValue(ident, full, v, cooked) {
			return false
		}
		p.cfg.vars.recordUse(used, full+" = "+raw)
		return true
	}
	if entry, ok := p.cfg.handlers[name]; ok {
		return p.dispatch(ident, entry, cooked)
	}
	if name == keywordSource {
		return p.sourceFile(ident, cooked)
	}
	if p.cfg.opts.Permissive {
		return true
	}
	return p.errs.addf(ErrUnknownKey, ident.Line, ident.Col, "unknown key %s", ctx.pathOf(name))
}

// specialAssign applies a field assignment inside a special-category
// instance, honoring the key field and IgnoreMissing. It returns the
// surviving instance, which differs from inst when a key-field
// assignment folded it into an existing one.
func (p *parser) specialAssign(ident lexer.Token, sc *specialCategory, inst *specialInstance, field, cooked string) (*specialInstance, bool) {
	if field == "" {
		return inst, p.errs.addf(ErrSyntax, ident.Line, ident.Col, "missing field for special category %s", sc.name)
	}
	if v, ok := inst.values[field]; ok {
		full := sc.name + "[" + inst.key + "]" + pathSep + field
		if !p.applyValue(ident, full, v, cooked) {
			return inst, false
		}
		if sc.opts.Key != "" && sc.opts.Key == field && !p.cfg.opts.VerifyOnly {
			inst = sc.rekey(inst, cooked, p.foldObserver(sc, cooked))
		}
		return inst, true
	}
	if sc.opts.Key != "" && sc.opts.Key == field {
		if !p.cfg.opts.VerifyOnly {
			inst = sc.rekey(inst, cooked, p.foldObserver(sc, cooked))
		}
		return inst, true
	}
	if sc.opts.IgnoreMissing || p.cfg.opts.Permissive {
		return inst, true
	}
	return inst, p.errs.addf(ErrUnknownKey, ident.Line, ident.Col, "special category %s has no field %s", sc.name, field)
}

// foldObserver routes field writes from a rekey fold into the change
// callbacks, addressed by the surviving key.
func (p *parser) foldObserver(sc *specialCategory, key string) func(field string, oldValue, newValue any) {
	return func(field string, oldValue, newValue any) {
		p.cfg.fireChange(sc.name+"["+key+"]"+pathSep+field, oldValue, newValue)
	}
}

// flatSpecialAssign handles the dynamic name[key]:field = value form.
func (p *parser) flatSpecialAssign(ident lexer.Token, key, field, raw string) bool {
	if p.current().skip {
		return true
	}
	sc, ok := p.cfg.specials[ident.Text]
	if !ok {
		if p.cfg.opts.Permissive {
			return true
		}
		return p.errs.addf(ErrUnknownKey, ident.Line, ident.Col, "no special category named %s", ident.Text)
	}
	if raw == "" {
		return p.errs.addf(ErrSyntax, ident.Line, ident.Col, "missing value for %s[%s]:%s", ident.Text, key, field)
	}
	cooked, used := p.cfg.vars.substitute(raw)
	inst, ok := p.specialAssign(ident, sc, p.instanceFor(sc, key), field, cooked)
	if ok {
		p.cfg.vars.recordUse(used, sc.name+"["+inst.key+"]"+pathSep+field+" = "+raw)
	}
	return ok
}

// applyValue converts the cooked text into the value's declared type
// and stores it. Type failures never touch the stored payload.
func (p *parser) applyValue(ident lexer.Token, fullPath string, v *Value, cooked string) bool {
	payload, err := convert(v, cooked)
	if err != nil {
		return p.errs.addf(ErrTypeMismatch, ident.Line, ident.Col, "%s: %v", fullPath, err)
	}
	if p.cfg.opts.VerifyOnly {
		return true
	}
	old := v.data
	v.set(payload)
	p.cfg.fireChange(fullPath, old, payload)
	return true
}

// defineVariable sets $name and, on dynamic lines, re-applies every
// recorded line that referenced it.
func (p *parser) defineVariable(ident lexer.Token, name, raw string) bool {
	if raw == "" {
		return p.errs.addf(ErrSyntax, ident.Line, ident.Col, "missing value for $%s", name)
	}
	cooked, _ := p.cfg.vars.substitute(raw)
	if p.cfg.opts.VerifyOnly {
		return true
	}
	p.cfg.vars.define(name, cooked)
	if !p.dynamic {
		return true
	}
	for _, line := range p.cfg.vars.dependents(name) {
		target, value, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		if !p.applyCommand(target, value) {
			return false
		}
	}
	return true
}

// dispatch invokes a handler entry with the substituted value.
func (p *parser) dispatch(ident lexer.Token, entry *handlerEntry, value string) bool {
	if value == "" && !entry.opts.AllowFlags {
		return p.errs.addf(ErrSyntax, ident.Line, ident.Col, "keyword %s requires a value", entry.name)
	}
	if p.cfg.opts.VerifyOnly {
		return true
	}
	if err := entry.fn(entry.name, value); err != nil {
		return p.errs.add(ParseError{Kind: ErrHandler, Line: ident.Line, Col: ident.Col, Message: err.Error()})
	}
	return true
}

// handlerLine handles IDENT rest-of-line statements: the generic
// escape hatch for keyword directives that are not assignments.
func (p *parser) handlerLine(ident lexer.Token, raw string) bool {
	if p.current().skip {
		return true
	}
	entry, ok := p.cfg.handlers[ident.Text]
	if !ok {
		if p.cfg.opts.Permissive {
			return true
		}
		return p.errs.addf(ErrUnknownKey, ident.Line, ident.Col, "unknown keyword %s", ident.Text)
	}
	cooked, _ := p.cfg.vars.substitute(raw)
	return p.dispatch(ident, entry, cooked)
}

// keywordSource is the built-in include directive.
const keywordSource = "source"

// sourceFile parses the referenced file(s) inline. Relative paths
// resolve against the config's root path; glob patterns expand.
func (p *parser) sourceFile(ident lexer.Token, path string) bool {
	if p.cfg.opts.VerifyOnly {
		return true
	}
	if p.depth >= maxSourceDepth {
		return p.errs.addf(ErrSyntax, ident.Line, ident.Col, "source depth exceeded at %s", path)
	}
	if path == "" {
		return p.errs.addf(ErrSyntax, ident.Line, ident.Col, "source requires a path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.cfg.rootPath, path)
	}
	matches, err := filepath.Glob(path)
	if err != nil || len(matches) == 0 {
		return p.errs.addf(ErrMissingFile, ident.Line, ident.Col, "cannot source %s", path)
	}
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			if !p.errs.addf(ErrMissingFile, ident.Line, ident.Col, "cannot source %s: %v", match, err) {
				return false
			}
			continue
		}
		sub := newParser(p.cfg, string(data), p.errs)
		sub.depth = p.depth + 1
		if !sub.run() {
			return false
		}
	}
	return true
}

// applyCommand resolves a pre-split (command, value) pair against the
// store: the direct dynamic entry point and the re-application path
// for variable dependents. No tokenizing happens; the two strings are
// used verbatim.
func (p *parser) applyCommand(command, value string) bool {
	pos := lexer.Token{}

	if strings.HasPrefix(command, "$") {
		return p.defineVariable(pos, command[1:], value)
	}

	if open := strings.IndexByte(command, '['); open >= 0 {
		end := strings.IndexByte(command, ']')
		if end < open {
			return p.errs.addf(ErrSyntax, 0, 0, "malformed command %q", command)
		}
		name := command[:open]
		key := command[open+1 : end]
		field := strings.TrimPrefix(command[end+1:], pathSep)
		if field == "" {
			return p.errs.addf(ErrSyntax, 0, 0, "missing field in command %q", command)
		}
		sc, found := p.cfg.specials[name]
		if !found {
			if p.cfg.opts.Permissive {
				return true
			}
			return p.errs.addf(ErrUnknownKey, 0, 0, "no special category named %s", name)
		}
		cooked, used := p.cfg.vars.substitute(value)
		inst, ok := p.specialAssign(pos, sc, p.instanceFor(sc, key), field, cooked)
		if ok {
			p.cfg.vars.recordUse(used, sc.name+"["+inst.key+"]"+pathSep+field+" = "+value)
		}
		return ok
	}

	cooked, used := p.cfg.vars.substitute(value)
	if v := p.cfg.root.resolve(command); v != nil {
		if !p.applyValue(pos, command, v, cooked) {
			return false
		}
		p.cfg.vars.recordUse(used, command+" = "+value)
		return true
	}
	if entry, ok := p.cfg.handlers[command]; ok {
		return p.dispatch(pos, entry, cooked)
	}
	if command == keywordSource {
		return p.sourceFile(pos, cooked)
	}
	if p.cfg.opts.Permissive {
		return true
	}
	return p.errs.addf(ErrUnknownKey, 0, 0, "unknown key %s", command)
}

// lexError records a lexical failure with its position.
func (p *parser) lexError(err error) bool {
	if le, ok := err.(*lexer.Error); ok {
		return p.errs.add(ParseError{Kind: ErrLex, Line: le.Line, Col: le.Col, Message: le.Message})
	}
	return p.errs.add(ParseError{Kind: ErrLex, Message: err.Error()})
}

// pathOf renders a name relative to the context for error messages.
func (ctx *parseContext) pathOf(name string) string {
	if ctx.cat == nil {
		return name
	}
	return ctx.cat.fullPath(name)
}
