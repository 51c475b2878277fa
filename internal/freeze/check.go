package freeze

import (
	"github.com/leiwang-ml/ragctl/internal/constraint"
)

// Check verifies the snapshot against a set of declared requirements. It
// returns one error per unsatisfied requirement; an empty slice means the
// installed environment satisfies every declaration. Marker-gated
// requirements that do not apply to pyVersion are skipped.
func (s Snapshot) Check(reqs []constraint.Requirement, pyVersion string) []error {
	var errs []error
	for _, req := range reqs {
		if !constraint.MarkerApplies(req.Marker, pyVersion) {
			continue
		}
		installed, _ := s.Version(req.Name)
		if err := req.Check(installed); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
