package manifest

// Manifest is a parsed pyproject.toml project descriptor. It is read once
// at invocation time and never mutated afterwards.
type Manifest struct {
	Project     Project     `toml:"project"`
	BuildSystem BuildSystem `toml:"build-system"`
	Tool        Tool        `toml:"tool"`
}

// Project is the [project] table: metadata, dependency declarations,
// optional dependency groups and script entry points.
type Project struct {
	Name                 string              `toml:"name"`
	Version              string              `toml:"version"`
	Description          string              `toml:"description"`
	Authors              []Author            `toml:"authors"`
	Readme               string              `toml:"readme"`
	RequiresPython       string              `toml:"requires-python"`
	Dependencies         []string            `toml:"dependencies"`
	OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	Scripts              map[string]string   `toml:"scripts"`
}

// Author is a single entry of the [project] authors list.
type Author struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// BuildSystem is the [build-system] table.
type BuildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
}

// Tool holds the [tool.*] tables this program understands.
type Tool struct {
	Ragctl     RagctlTool     `toml:"ragctl"`
	Setuptools SetuptoolsTool `toml:"setuptools"`
}

// RagctlTool is the [tool.ragctl] table.
type RagctlTool struct {
	// IndexURL overrides the package index base URL (mirror support).
	IndexURL string `toml:"index-url"`
}

// SetuptoolsTool carries the backend package-inclusion rules.
type SetuptoolsTool struct {
	Packages []string `toml:"packages"`
}

// IndexURL returns the configured index mirror, or def when the manifest
// does not override it.
func (m *Manifest) IndexURL(def string) string {
	if m.Tool.Ragctl.IndexURL != "" {
		return m.Tool.Ragctl.IndexURL
	}
	return def
}

// AllDependencies returns the runtime dependencies followed by the
// declarations of the named optional groups, in declaration order.
func (m *Manifest) AllDependencies(groups ...string) []string {
	deps := make([]string, 0, len(m.Project.Dependencies))
	deps = append(deps, m.Project.Dependencies...)
	for _, g := range groups {
		deps = append(deps, m.Project.OptionalDependencies[g]...)
	}
	return deps
}
