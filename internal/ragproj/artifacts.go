package ragproj

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// requiredArtifacts are the index outputs the global search pipeline
// reads: entities, communities and community reports.
var requiredArtifacts = []string{
	"entities.parquet",
	"communities.parquet",
	"community_reports.parquet",
}

// Artifact describes one output file of the indexing pipeline.
type Artifact struct {
	Name string
	Path string
	Size int64
}

// Artifacts lists the parquet files in the project's output directory,
// sorted by name.
func (s *Settings) Artifacts() ([]Artifact, error) {
	dir := s.OutputDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading output dir: %w", err)
	}

	var arts []Artifact
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		arts = append(arts, Artifact{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(arts, func(i, j int) bool { return arts[i].Name < arts[j].Name })
	return arts, nil
}

// CheckArtifacts verifies that every artifact the query pipeline needs is
// present. Missing artifacts mean the project has not been indexed yet;
// serving without them would fail on the first query.
func (s *Settings) CheckArtifacts() error {
	dir := s.OutputDir()
	var missing []string
	for _, name := range requiredArtifacts {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("project %s is missing artifacts (run the indexer first): %s",
			s.Name(), strings.Join(missing, ", "))
	}
	return nil
}
