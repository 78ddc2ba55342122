// Package plugin hosts Lua-scripted keyword handlers.
//
// A Script loads a Lua file whose global functions implement keyword
// handlers. Each function receives the keyword name and the raw value
// and returns nil (or nothing) on success, or an error message string:
//
//	function bind(command, value)
//	    if value == "" then
//	        return "bind needs a value"
//	    end
//	end
//
// Bind connects script functions to a Config's keyword registry.
//
// gopher-lua's LState is not goroutine-safe. A Script must only be
// driven from one goroutine at a time, which matches the engine's
// single-goroutine parsing contract.
package plugin

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	conflang "github.com/dshills/conflang"
)

// ErrScriptClosed is returned when a handler runs after Close.
var ErrScriptClosed = errors.New("plugin: script closed")

// Script is a loaded Lua handler script.
type Script struct {
	state  *lua.LState
	closed bool
}

// Load compiles and runs a Lua script file.
func Load(path string) (*Script, error) {
	state := lua.NewState()
	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, fmt.Errorf("plugin: loading %s: %w", path, err)
	}
	return &Script{state: state}, nil
}

// LoadString compiles and runs Lua source text.
func LoadString(src string) (*Script, error) {
	state := lua.NewState()
	if err := state.DoString(src); err != nil {
		state.Close()
		return nil, fmt.Errorf("plugin: loading script: %w", err)
	}
	return &Script{state: state}, nil
}

// Close releases the Lua state. Handlers created from the script fail
// after Close.
func (s *Script) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.state.Close()
}

// Handler returns a keyword handler backed by the named global Lua
// function. The function's string return value, if any, becomes the
// handler error.
func (s *Script) Handler(name string) conflang.Handler {
	return func(command, value string) error {
		if s.closed {
			return ErrScriptClosed
		}
		return s.call(name, command, value)
	}
}

// Bind registers script functions as keyword handlers on cfg, one per
// keyword. Every keyword must name an existing global Lua function.
func (s *Script) Bind(cfg *conflang.Config, opts conflang.HandlerOptions, keywords ...string) error {
	for _, kw := range keywords {
		if fn := s.state.GetGlobal(kw); fn.Type() != lua.LTFunction {
			return fmt.Errorf("plugin: script has no function %q", kw)
		}
	}
	for _, kw := range keywords {
		if err := cfg.RegisterHandler(kw, s.Handler(kw), opts); err != nil {
			return err
		}
	}
	return nil
}

// call invokes the global function with panic recovery. A Lua runtime
// error or a non-empty string result becomes the returned error.
func (s *Script) call(name, command, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("plugin: %v", v)
			}
		}
	}()

	fn := s.state.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("plugin: script has no function %q", name)
	}

	if err := s.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(command), lua.LString(value)); err != nil {
		return fmt.Errorf("plugin: %s: %w", name, err)
	}

	ret := s.state.Get(-1)
	s.state.Pop(1)

	if msg, ok := ret.(lua.LString); ok && string(msg) != "" {
		return errors.New(string(msg))
	}
	return nil
}
