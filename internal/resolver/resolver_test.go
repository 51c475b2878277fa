package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/leiwang-ml/ragctl/internal/constraint"
	"github.com/leiwang-ml/ragctl/internal/index"
)

// pkg describes a fake index record for tests.
type pkg struct {
	latest   string
	versions []string
	requires []string
}

// serveIndex returns an httptest server speaking the JSON API for the
// given package set.
func serveIndex(t *testing.T, packages map[string]pkg) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "pypi" || parts[2] != "json" {
			http.NotFound(w, r)
			return
		}
		p, ok := packages[parts[1]]
		if !ok {
			http.NotFound(w, r)
			return
		}

		releases := make(map[string][]map[string]any)
		for _, v := range p.versions {
			releases[v] = []map[string]any{{
				"url":         fmt.Sprintf("https://files.example/%s-%s.tar.gz", parts[1], v),
				"filename":    fmt.Sprintf("%s-%s.tar.gz", parts[1], v),
				"packagetype": "sdist",
			}}
		}
		resp := map[string]any{
			"info": map[string]any{
				"name":          parts[1],
				"version":       p.latest,
				"requires_dist": p.requires,
			},
			"releases": releases,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func mustReqs(t *testing.T, specs ...string) []constraint.Requirement {
	t.Helper()
	reqs := make([]constraint.Requirement, 0, len(specs))
	for _, s := range specs {
		req, err := constraint.ParseRequirement(s)
		if err != nil {
			t.Fatalf("parsing %q: %v", s, err)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func names(dists []*Resolved) []string {
	out := make([]string, 0, len(dists))
	for _, d := range dists {
		out = append(out, d.Name)
	}
	sort.Strings(out)
	return out
}

func TestResolver_Resolve_Transitive(t *testing.T) {
	server := serveIndex(t, map[string]pkg{
		"graphrag": {latest: "2.1.0", versions: []string{"2.0.0", "2.1.0"}, requires: []string{"pandas>=2.0", "httpx>=0.28"}},
		"pandas":   {latest: "2.2.3", versions: []string{"2.2.3"}},
		"httpx":    {latest: "0.28.1", versions: []string{"0.28.1"}, requires: []string{"idna"}},
		"idna":     {latest: "3.10", versions: []string{"3.10"}},
	})

	r := New(index.New(server.URL, t.TempDir()), nil, "3.12", false)
	dists, err := r.Resolve(mustReqs(t, "graphrag==2.1.0"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"graphrag", "httpx", "idna", "pandas"}
	if got := names(dists); !equalStrings(got, want) {
		t.Errorf("resolved = %v, want %v", got, want)
	}

	for _, d := range dists {
		if d.Name == "graphrag" && d.Version != "2.1.0" {
			t.Errorf("graphrag pinned to %s, want 2.1.0", d.Version)
		}
		if d.SdistURL == "" {
			t.Errorf("%s has no sdist URL", d.Name)
		}
		if d.Source != "index" {
			t.Errorf("%s source = %q, want index", d.Name, d.Source)
		}
	}
}

func TestResolver_Resolve_PinnedOverLatest(t *testing.T) {
	server := serveIndex(t, map[string]pkg{
		"graphrag": {latest: "2.2.0", versions: []string{"2.1.0", "2.2.0"}},
	})

	r := New(index.New(server.URL, t.TempDir()), nil, "3.12", false)
	dists, err := r.Resolve(mustReqs(t, "graphrag==2.1.0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(dists) != 1 || dists[0].Version != "2.1.0" {
		t.Errorf("resolved = %+v, want graphrag 2.1.0", dists)
	}
}

func TestResolver_Resolve_MirrorFallback(t *testing.T) {
	primary := serveIndex(t, map[string]pkg{
		"httpx": {latest: "0.28.1", versions: []string{"0.28.1"}},
	})
	mirror := serveIndex(t, map[string]pkg{
		"internal-pkg": {latest: "1.0.0", versions: []string{"1.0.0"}},
	})

	r := New(index.New(primary.URL, t.TempDir()), index.NewMirror(mirror.URL), "3.12", false)
	dists, err := r.Resolve(mustReqs(t, "internal-pkg>=1.0"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(dists) != 1 {
		t.Fatalf("resolved %d packages, want 1", len(dists))
	}
	if dists[0].Source != "mirror" {
		t.Errorf("source = %q, want mirror", dists[0].Source)
	}
}

func TestResolver_Resolve_Unsatisfiable(t *testing.T) {
	server := serveIndex(t, map[string]pkg{
		"httpx": {latest: "0.28.1", versions: []string{"0.28.1"}},
	})

	r := New(index.New(server.URL, t.TempDir()), nil, "3.12", false)
	_, err := r.Resolve(mustReqs(t, "httpx>=99.0"))

	var uerr *constraint.UnsatisfiedError
	if !errors.As(err, &uerr) {
		t.Fatalf("Resolve() = %v, want *UnsatisfiedError", err)
	}
	if uerr.Package != "httpx" {
		t.Errorf("Package = %q", uerr.Package)
	}
}

func TestResolver_Resolve_Conflict(t *testing.T) {
	server := serveIndex(t, map[string]pkg{
		"shared": {latest: "2.0.0", versions: []string{"1.0.0", "2.0.0"}},
	})

	r := New(index.New(server.URL, t.TempDir()), nil, "3.12", false)
	_, err := r.Resolve(mustReqs(t, "shared==2.0.0", "shared==1.0.0"))
	if err == nil {
		t.Fatal("Resolve() expected conflict error")
	}
	if !strings.Contains(err.Error(), "conflicts") {
		t.Errorf("error = %v", err)
	}
}

func TestResolver_Resolve_Cycle(t *testing.T) {
	server := serveIndex(t, map[string]pkg{
		"a": {latest: "1.0.0", versions: []string{"1.0.0"}, requires: []string{"b"}},
		"b": {latest: "1.0.0", versions: []string{"1.0.0"}, requires: []string{"a"}},
	})

	r := New(index.New(server.URL, t.TempDir()), nil, "3.12", false)
	dists, err := r.Resolve(mustReqs(t, "a"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(dists) != 2 {
		t.Errorf("resolved %d packages, want 2", len(dists))
	}
}

func TestResolver_Resolve_SkipsExtrasMarker(t *testing.T) {
	server := serveIndex(t, map[string]pkg{
		"mcp": {latest: "1.6.0", versions: []string{"1.6.0"},
			requires: []string{"anyio>=4.5", `typer>=0.12; extra == "cli"`}},
		"anyio": {latest: "4.6.0", versions: []string{"4.6.0"}},
	})

	r := New(index.New(server.URL, t.TempDir()), nil, "3.12", false)
	dists, err := r.Resolve(mustReqs(t, "mcp>=1.6.0"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"anyio", "mcp"}
	if got := names(dists); !equalStrings(got, want) {
		t.Errorf("resolved = %v, want %v", got, want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
