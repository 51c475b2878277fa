package entrypoint

import (
	"fmt"
	"strings"
)

// Target is a module:callable reference from the descriptor's script
// table, e.g. "graphrag.app:main".
type Target struct {
	Module   string
	Callable string
}

func (t Target) String() string { return t.Module + ":" + t.Callable }

// UnresolvedError reports a command name with no entry in the descriptor.
type UnresolvedError struct {
	Command string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("no entry point declared for command %q", e.Command)
}

// TargetError reports a target reference that cannot be used: it does not
// split into exactly one module path and one callable name, or no
// implementation is registered for it. Both are configuration faults that
// abort before any business logic runs.
type TargetError struct {
	Command string
	Target  string
	Reason  string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("command %q: target %q: %s", e.Command, e.Target, e.Reason)
}

// ParseTarget splits a module:callable reference. The reference must
// contain exactly one ":" with non-empty halves.
func ParseTarget(ref string) (Target, error) {
	if strings.Count(ref, ":") != 1 {
		return Target{}, fmt.Errorf("reference %q must contain exactly one \":\"", ref)
	}
	mod, callable, _ := strings.Cut(ref, ":")
	mod = strings.TrimSpace(mod)
	callable = strings.TrimSpace(callable)
	if mod == "" {
		return Target{}, fmt.Errorf("reference %q has an empty module path", ref)
	}
	if callable == "" {
		return Target{}, fmt.Errorf("reference %q has an empty callable name", ref)
	}
	return Target{Module: mod, Callable: callable}, nil
}

// Resolver maps command names onto entry-point targets, using the script
// table of a parsed descriptor as the sole source of truth.
type Resolver struct {
	scripts map[string]string
}

// NewResolver creates a resolver over a descriptor's script table.
func NewResolver(scripts map[string]string) *Resolver {
	return &Resolver{scripts: scripts}
}

// Commands returns the declared command names.
func (r *Resolver) Commands() []string {
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	return names
}

// Resolve returns the target for a command name. Resolution is
// deterministic and has no side effects.
func (r *Resolver) Resolve(command string) (Target, error) {
	ref, ok := r.scripts[command]
	if !ok {
		return Target{}, &UnresolvedError{Command: command}
	}
	t, err := ParseTarget(ref)
	if err != nil {
		return Target{}, &TargetError{Command: command, Target: ref, Reason: err.Error()}
	}
	return t, nil
}
