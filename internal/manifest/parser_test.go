package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const descriptor = `[project]
name = "mcp-graphrag"
version = "0.1.0"
description = "GraphRAG retrieval as an MCP tool server"
authors = [{ name = "Lei Wang" }]
readme = "README.md"
requires-python = ">=3.10,<3.13"
dependencies = [
    "graphrag==2.1.0",
    "httpx>=0.28.1",
    "mcp[cli]>=1.6.0",
]

[project.optional-dependencies]
dev = ["pytest>=8.3.5", "pylint>=3.3.6"]

[project.scripts]
start = "graphrag.app:main"
test = "pytest:main"
lint = "pylint:run_pylint"

[build-system]
requires = ["setuptools>=68"]
build-backend = "setuptools.build_meta"

[tool.setuptools]
packages = ["graphrag"]

[tool.ragctl]
index-url = "https://mirror.example.com"
`

func TestParse(t *testing.T) {
	m, err := Parse("pyproject.toml", []byte(descriptor))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Project.Name != "mcp-graphrag" {
		t.Errorf("name = %q, want %q", m.Project.Name, "mcp-graphrag")
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("version = %q, want %q", m.Project.Version, "0.1.0")
	}
	if m.Project.RequiresPython != ">=3.10,<3.13" {
		t.Errorf("requires-python = %q", m.Project.RequiresPython)
	}
	if len(m.Project.Authors) != 1 || m.Project.Authors[0].Name != "Lei Wang" {
		t.Errorf("authors = %+v", m.Project.Authors)
	}

	wantDeps := []string{"graphrag==2.1.0", "httpx>=0.28.1", "mcp[cli]>=1.6.0"}
	if !reflect.DeepEqual(m.Project.Dependencies, wantDeps) {
		t.Errorf("dependencies = %v, want %v", m.Project.Dependencies, wantDeps)
	}

	wantScripts := map[string]string{
		"start": "graphrag.app:main",
		"test":  "pytest:main",
		"lint":  "pylint:run_pylint",
	}
	if !reflect.DeepEqual(m.Project.Scripts, wantScripts) {
		t.Errorf("scripts = %v, want %v", m.Project.Scripts, wantScripts)
	}

	if m.BuildSystem.BuildBackend != "setuptools.build_meta" {
		t.Errorf("build-backend = %q", m.BuildSystem.BuildBackend)
	}
	if !reflect.DeepEqual(m.Tool.Setuptools.Packages, []string{"graphrag"}) {
		t.Errorf("packages = %v", m.Tool.Setuptools.Packages)
	}
}

func TestParse_Deterministic(t *testing.T) {
	a, err := Parse("pyproject.toml", []byte(descriptor))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("pyproject.toml", []byte(descriptor))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("re-parsing the same descriptor produced different results")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", `[project` + "\n"},
		{"missing name", "[project]\nversion = \"1.0\"\n"},
		{"missing version", "[project]\nname = \"x\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("pyproject.toml", []byte(tt.content))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error type = %T, want *ParseError", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "pyproject.toml")
	if err := os.WriteFile(path, []byte(descriptor), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Project.Name != "mcp-graphrag" {
		t.Errorf("name = %q", m.Project.Name)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestIndexURL(t *testing.T) {
	m, err := Parse("pyproject.toml", []byte(descriptor))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.IndexURL("https://pypi.org"); got != "https://mirror.example.com" {
		t.Errorf("IndexURL() = %q", got)
	}

	m.Tool.Ragctl.IndexURL = ""
	if got := m.IndexURL("https://pypi.org"); got != "https://pypi.org" {
		t.Errorf("IndexURL() default = %q", got)
	}
}

func TestAllDependencies(t *testing.T) {
	m, err := Parse("pyproject.toml", []byte(descriptor))
	if err != nil {
		t.Fatal(err)
	}

	runtime := m.AllDependencies()
	if len(runtime) != 3 {
		t.Errorf("runtime deps = %d, want 3", len(runtime))
	}

	withDev := m.AllDependencies("dev")
	if len(withDev) != 5 {
		t.Errorf("runtime+dev deps = %d, want 5", len(withDev))
	}
	if withDev[3] != "pytest>=8.3.5" {
		t.Errorf("first dev dep = %q", withDev[3])
	}
}
