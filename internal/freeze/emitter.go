package freeze

import (
	"fmt"
	"io"
	"sort"

	"github.com/leiwang-ml/ragctl/internal/resolver"
)

const header = "# ragctl lock format: version 1\n"

// Emitter writes lock files in freeze format.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates a lock file emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes resolved packages as a deterministic, name-sorted lock
// file. Emitting the same resolution twice produces identical output.
func (e *Emitter) Emit(dists []*resolver.Resolved) error {
	sorted := make([]*resolver.Resolved, len(dists))
	copy(sorted, dists)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	if _, err := fmt.Fprint(e.w, header); err != nil {
		return err
	}

	for _, d := range sorted {
		if _, err := fmt.Fprintf(e.w, "%s==%s\n", d.Name, d.Version); err != nil {
			return err
		}
	}
	return nil
}
