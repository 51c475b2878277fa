package constraint

import "fmt"

// UnsatisfiedError reports an installed environment that does not satisfy
// a declared version constraint.
type UnsatisfiedError struct {
	Package    string
	Installed  string // empty when the package is not installed at all
	Constraint string
}

func (e *UnsatisfiedError) Error() string {
	if e.Installed == "" {
		if e.Constraint == "" {
			return fmt.Sprintf("%s is not installed", e.Package)
		}
		return fmt.Sprintf("%s is not installed (required %s)", e.Package, e.Constraint)
	}
	return fmt.Sprintf("%s %s does not satisfy %s", e.Package, e.Installed, e.Constraint)
}
