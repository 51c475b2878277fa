package metadata

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leiwang-ml/ragctl/internal/index"
)

// Dist is the metadata recovered from a source distribution's PKG-INFO.
type Dist struct {
	Name         string
	Version      string
	RequiresDist []string
}

// FromSdist reads PKG-INFO out of an sdist tarball. The file lives at the
// top of the distribution directory, i.e. at depth two inside the archive
// ("pkg-1.0/PKG-INFO").
func FromSdist(path string) (*Dist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sdist: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing sdist: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading sdist: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		parts := strings.Split(strings.Trim(hdr.Name, "/"), "/")
		if len(parts) != 2 || parts[1] != "PKG-INFO" {
			continue
		}
		return parsePKGInfo(tr)
	}
	return nil, fmt.Errorf("no PKG-INFO found in %s", path)
}

// parsePKGInfo reads the RFC 822 style headers of a PKG-INFO file. Only
// the headers matter; the optional long-description body after the first
// blank line is ignored.
func parsePKGInfo(r io.Reader) (*Dist, error) {
	d := &Dist{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Name":
			d.Name = value
		case "Version":
			d.Version = value
		case "Requires-Dist":
			d.RequiresDist = append(d.RequiresDist, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PKG-INFO: %w", err)
	}
	if d.Name == "" || d.Version == "" {
		return nil, fmt.Errorf("PKG-INFO missing Name or Version")
	}
	return d, nil
}

// Verify checks that the recovered metadata matches the resolved pin.
func (d *Dist) Verify(wantName, wantVersion string) error {
	if index.NormalizeName(d.Name) != index.NormalizeName(wantName) {
		return fmt.Errorf("sdist is %q, expected %q", d.Name, wantName)
	}
	if d.Version != wantVersion {
		return fmt.Errorf("sdist %s is version %s, expected %s", d.Name, d.Version, wantVersion)
	}
	return nil
}
