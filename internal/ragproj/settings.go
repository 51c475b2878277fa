package ragproj

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const settingsFile = "settings.yaml"

// Settings is the subset of a GraphRAG project's settings.yaml that the
// tool server needs. The retrieval engine itself reads the full file; we
// only need enough to locate artifacts and describe the project.
type Settings struct {
	Root string `yaml:"-"`

	Models map[string]ModelConfig `yaml:"models"`
	Input  DirConfig              `yaml:"input"`
	Output DirConfig              `yaml:"output"`
}

// ModelConfig describes one model entry of the settings file.
type ModelConfig struct {
	Type    string `yaml:"type"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	APIBase string `yaml:"api_base"`
}

// DirConfig is a settings section that names a base directory.
type DirConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// Load reads a GraphRAG project rooted at root. A .env file in the
// project root is loaded first (if present), and ${VAR} references in the
// settings file are expanded from the environment, matching the engine's
// own config loading.
func Load(root string) (*Settings, error) {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(root, settingsFile))
	if err != nil {
		return nil, fmt.Errorf("reading project settings: %w", err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	var s Settings
	if err := yaml.Unmarshal([]byte(expanded), &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", settingsFile, err)
	}
	s.Root = root
	return &s, nil
}

// OutputDir returns the absolute path of the project's output directory,
// defaulting to <root>/output when the settings do not name one.
func (s *Settings) OutputDir() string {
	dir := s.Output.BaseDir
	if dir == "" {
		dir = "output"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.Root, dir)
}

// Name returns a short display name for the project.
func (s *Settings) Name() string {
	return filepath.Base(s.Root)
}
