package entrypoint

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// scripts mirrors the [project.scripts] table of the repository's own
// descriptor.
var scripts = map[string]string{
	"start": "graphrag.app:main",
	"test":  "pytest:main",
	"lint":  "pylint:run_pylint",
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    Target
		wantErr bool
	}{
		{"simple", "pytest:main", Target{Module: "pytest", Callable: "main"}, false},
		{"dotted module", "graphrag.app:main", Target{Module: "graphrag.app", Callable: "main"}, false},
		{"no colon", "graphrag.app.main", Target{}, true},
		{"two colons", "graphrag:app:main", Target{}, true},
		{"empty module", ":main", Target{}, true},
		{"empty callable", "pytest:", Target{}, true},
		{"whitespace only callable", "pytest:   ", Target{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTarget(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTarget(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(scripts)

	tests := []struct {
		command string
		want    Target
	}{
		{"start", Target{Module: "graphrag.app", Callable: "main"}},
		{"test", Target{Module: "pytest", Callable: "main"}},
		{"lint", Target{Module: "pylint", Callable: "run_pylint"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, err := r.Resolve(tt.command)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.command, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.command, got, tt.want)
			}
		})
	}
}

func TestResolver_Resolve_Unknown(t *testing.T) {
	r := NewResolver(scripts)

	_, err := r.Resolve("deploy")
	var uerr *UnresolvedError
	if !errors.As(err, &uerr) {
		t.Fatalf("Resolve(deploy) = %v, want *UnresolvedError", err)
	}
	if uerr.Command != "deploy" {
		t.Errorf("Command = %q, want %q", uerr.Command, "deploy")
	}
}

func TestResolver_Resolve_BadTarget(t *testing.T) {
	r := NewResolver(map[string]string{"broken": "no-colon-here"})

	_, err := r.Resolve("broken")
	var terr *TargetError
	if !errors.As(err, &terr) {
		t.Fatalf("Resolve(broken) = %v, want *TargetError", err)
	}
	if terr.Target != "no-colon-here" {
		t.Errorf("Target = %q", terr.Target)
	}
}

func TestResolver_Deterministic(t *testing.T) {
	r := NewResolver(scripts)
	a, err := r.Resolve("start")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Resolve("start")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("resolving the same command twice produced different targets")
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewResolver(scripts)
	reg := NewRegistry()

	invoked := false
	reg.Register(Target{Module: "pytest", Callable: "main"}, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	if err := reg.Dispatch(context.Background(), r, "test"); err != nil {
		t.Fatalf("Dispatch(test) error = %v", err)
	}
	if !invoked {
		t.Error("registered callable was not invoked")
	}
}

func TestRegistry_Dispatch_UnknownCommand(t *testing.T) {
	r := NewResolver(scripts)
	reg := NewRegistry()

	invoked := false
	reg.Register(Target{Module: "pytest", Callable: "main"}, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	err := reg.Dispatch(context.Background(), r, "deploy")
	var uerr *UnresolvedError
	if !errors.As(err, &uerr) {
		t.Fatalf("Dispatch(deploy) = %v, want *UnresolvedError", err)
	}
	if invoked {
		t.Error("no callable may be invoked when resolution fails")
	}
}

func TestRegistry_Dispatch_Unregistered(t *testing.T) {
	r := NewResolver(scripts)
	reg := NewRegistry()

	err := reg.Dispatch(context.Background(), r, "lint")
	var terr *TargetError
	if !errors.As(err, &terr) {
		t.Fatalf("Dispatch(lint) = %v, want *TargetError", err)
	}
}

func TestRegistry_Dispatch_PropagatesError(t *testing.T) {
	r := NewResolver(scripts)
	reg := NewRegistry()

	want := errors.New("runner exited 2")
	reg.Register(Target{Module: "pylint", Callable: "run_pylint"}, func(ctx context.Context) error {
		return want
	})

	if err := reg.Dispatch(context.Background(), r, "lint"); !errors.Is(err, want) {
		t.Errorf("Dispatch(lint) = %v, want %v", err, want)
	}
}
