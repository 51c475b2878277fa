package freeze

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leiwang-ml/ragctl/internal/index"
)

// Snapshot maps normalised package names to installed versions. It is the
// in-memory form of a pip-freeze style listing.
type Snapshot map[string]string

// Parse reads a freeze-format listing: one "name==version" per line.
// Comments, blank lines, editable installs ("-e ...") and direct
// references ("name @ url") are skipped.
func Parse(r io.Reader) (Snapshot, error) {
	snap := make(Snapshot)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "-e ") || strings.HasPrefix(line, "-e=") {
			continue
		}
		if strings.Contains(line, " @ ") {
			continue
		}

		name, version, ok := strings.Cut(line, "==")
		if !ok {
			return nil, fmt.Errorf("malformed freeze line %q", line)
		}
		name = strings.TrimSpace(name)
		version = strings.TrimSpace(version)
		if name == "" || version == "" {
			return nil, fmt.Errorf("malformed freeze line %q", line)
		}
		snap[index.NormalizeName(name)] = version
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading freeze listing: %w", err)
	}
	return snap, nil
}

// Load parses a freeze listing from a file.
func Load(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening freeze listing: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Version returns the installed version of a package, looked up under its
// normalised name.
func (s Snapshot) Version(name string) (string, bool) {
	v, ok := s[index.NormalizeName(name)]
	return v, ok
}
