package constraint

import (
	"regexp"
	"strings"
)

var pythonMarkerRe = regexp.MustCompile(`python(?:_full)?_version\s*(==|!=|>=|<=|>|<|~=)\s*['"]([^'"]+)['"]`)

// MarkerApplies evaluates an environment marker against the target Python
// version. Only two marker families are interpreted: "extra == ..." never
// applies (extras are opted into explicitly), and python_version
// comparisons are evaluated. Anything else is assumed to apply, which errs
// on the side of resolving too much rather than too little.
func MarkerApplies(marker, pythonVersion string) bool {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return true
	}
	if strings.Contains(marker, "extra") {
		return false
	}
	m := pythonMarkerRe.FindStringSubmatch(marker)
	if m == nil {
		return true
	}
	if pythonVersion == "" {
		return true
	}
	clause := Clause{Op: Op(m[1]), Version: m[2]}
	r := Requirement{Name: "python", Clauses: []Clause{clause}}
	return r.Satisfied(pythonVersion)
}
