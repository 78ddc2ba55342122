package conflang

import "fmt"

// Handler is a keyword callback invoked during parsing with the
// command name and the raw (trimmed) value text. A nil return means
// success; a non-nil error marks that line as failed, with the
// message passed through verbatim. Handlers run synchronously on the
// parsing goroutine.
type Handler func(command, value string) error

// handlerEntry couples a registered keyword with its callback.
type handlerEntry struct {
	name string
	fn   Handler
	opts HandlerOptions
}

// registerHandler installs a keyword handler. Duplicates error in
// strict mode and silently replace in permissive mode.
func (c *Config) registerHandler(name string, fn Handler, opts HandlerOptions) error {
	if fn == nil {
		return fmt.Errorf("handler %s: nil callback", name)
	}
	if _, exists := c.handlers[name]; exists && !c.opts.Permissive {
		return fmt.Errorf("%w: handler %s", ErrDuplicateRegistration, name)
	}
	c.handlers[name] = &handlerEntry{name: name, fn: fn, opts: opts}
	return nil
}
