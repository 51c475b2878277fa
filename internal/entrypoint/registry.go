package entrypoint

import "context"

// Func is an invocable entry-point implementation. It takes no arguments
// beyond the context; its error (or nil) is the process outcome.
type Func func(ctx context.Context) error

// Registry maps targets onto implementations. The descriptor names the
// target; the registry supplies the callable behind it.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register binds an implementation to a target.
func (g *Registry) Register(t Target, fn Func) {
	g.funcs[t.String()] = fn
}

// Lookup returns the implementation bound to a target.
func (g *Registry) Lookup(t Target) (Func, bool) {
	fn, ok := g.funcs[t.String()]
	return fn, ok
}

// Dispatch resolves a command name and invokes its implementation. A
// resolvable target with no registered implementation is a TargetError;
// nothing is invoked on any resolution failure.
func (g *Registry) Dispatch(ctx context.Context, r *Resolver, command string) error {
	t, err := r.Resolve(command)
	if err != nil {
		return err
	}
	fn, ok := g.Lookup(t)
	if !ok {
		return &TargetError{Command: command, Target: t.String(), Reason: "no registered implementation"}
	}
	return fn(ctx)
}
