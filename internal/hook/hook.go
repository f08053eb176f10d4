// Package hook is the host's module hook dispatcher.
// Modules register handlers for named hooks; a call passes the arguments through every
// handler in registration order, each receiving the previous handler's result.
package hook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Well-known hook names.
const (
	// SkillDisplay lets skill modules override the label/value of a skill line.
	SkillDisplay = "skilldisplay"
)

// Args is the loosely typed hook payload.
type Args map[string]any

// Handler processes a hook call and returns the (possibly modified) arguments.
// Returning nil keeps the arguments unchanged.
type Handler func(ctx context.Context, args Args) Args

type registration struct {
	module  string
	handler Handler
}

// Dispatcher dispatches hook calls to registered module handlers.
// Thread-safe: handlers are usually registered at startup, then read-only.
type Dispatcher struct {
	mu    sync.RWMutex
	hooks map[string][]registration // hook name (lowercase) → handlers
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{hooks: make(map[string][]registration, 8)}
}

// Register adds a module handler for the hook. Hook names are case-insensitive.
func (d *Dispatcher) Register(name, module string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name = strings.ToLower(name)
	d.hooks[name] = append(d.hooks[name], registration{module: module, handler: h})
	slog.Debug("hook registered", "hook", name, "module", module)
}

// Unregister removes every handler of the module.
func (d *Dispatcher) Unregister(module string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for name, regs := range d.hooks {
		kept := regs[:0]
		for _, r := range regs {
			if r.module != module {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(d.hooks, name)
			continue
		}
		d.hooks[name] = kept
	}
}

// Modules returns the modules registered for the hook, in call order.
func (d *Dispatcher) Modules(name string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	regs := d.hooks[strings.ToLower(name)]
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.module
	}
	return out
}

// Call runs every handler of the hook in order and returns the final arguments.
// A panicking handler is logged and skipped.
func (d *Dispatcher) Call(ctx context.Context, name string, args Args) Args {
	d.mu.RLock()
	regs := append([]registration(nil), d.hooks[strings.ToLower(name)]...)
	d.mu.RUnlock()

	for _, r := range regs {
		out, err := d.invoke(ctx, r, args)
		if err != nil {
			slog.Error("hook handler failed", "hook", name, "module", r.module, "error", err)
			continue
		}
		if out != nil {
			args = out
		}
	}
	return args
}

func (d *Dispatcher) invoke(ctx context.Context, r registration, args Args) (out Args, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.handler(ctx, args), nil
}
