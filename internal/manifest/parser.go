package manifest

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ParseError reports a descriptor that could not be read or decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads and decodes a pyproject.toml descriptor. Parsing is
// deterministic: loading the same file twice yields identical manifests.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes descriptor data. The path is used for error reporting only.
func Parse(path string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if m.Project.Name == "" {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("missing project.name")}
	}
	if m.Project.Version == "" {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("missing project.version")}
	}
	return &m, nil
}
