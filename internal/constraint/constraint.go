package constraint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Op is a version comparison operator.
type Op string

const (
	OpExact      Op = "=="
	OpNotEqual   Op = "!="
	OpGTE        Op = ">="
	OpLTE        Op = "<="
	OpGT         Op = ">"
	OpLT         Op = "<"
	OpCompatible Op = "~="
)

// ops must be checked longest-prefix first.
var ops = []Op{OpGTE, OpLTE, OpExact, OpNotEqual, OpCompatible, OpGT, OpLT}

// Clause is a single operator/version pair of a constraint expression.
type Clause struct {
	Op      Op
	Version string
}

func (c Clause) String() string { return string(c.Op) + c.Version }

// Requirement is one parsed dependency declaration, e.g.
// "mcp[cli]>=1.6.0" or "graphrag==2.1.0".
type Requirement struct {
	Name    string
	Extras  []string
	Clauses []Clause
	// Marker is the raw environment marker after ";", if any. Markers are
	// carried verbatim; only python_version and extra markers are
	// interpreted by callers.
	Marker string
}

// String reassembles the requirement in canonical form.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	for i, c := range r.Clauses {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.String())
	}
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// IsPin reports whether the requirement pins an exact version, as opposed
// to a lower bound or range.
func (r Requirement) IsPin() bool {
	return len(r.Clauses) == 1 && r.Clauses[0].Op == OpExact
}

// Specifier returns the constraint expression without name and marker.
func (r Requirement) Specifier() string {
	parts := make([]string, len(r.Clauses))
	for i, c := range r.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

var nameRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[([^\]]*)\])?\s*(.*)$`)

// ParseRequirement parses a dependency declaration string.
func ParseRequirement(s string) (Requirement, error) {
	var r Requirement

	spec := s
	if i := strings.Index(spec, ";"); i >= 0 {
		r.Marker = strings.TrimSpace(spec[i+1:])
		spec = spec[:i]
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return r, fmt.Errorf("empty requirement %q", s)
	}

	m := nameRe.FindStringSubmatch(spec)
	if m == nil {
		return r, fmt.Errorf("malformed requirement %q", s)
	}
	r.Name = m[1]
	if m[2] != "" {
		for _, e := range strings.Split(m[2], ",") {
			if e = strings.TrimSpace(e); e != "" {
				r.Extras = append(r.Extras, e)
			}
		}
	}

	if rest := strings.TrimSpace(m[3]); rest != "" {
		clauses, err := ParseSpecifier(rest)
		if err != nil {
			return r, fmt.Errorf("requirement %q: %w", s, err)
		}
		r.Clauses = clauses
	}
	return r, nil
}

// ParseSpecifier parses a bare constraint expression such as
// ">=3.10,<4.0" into clauses.
func ParseSpecifier(s string) ([]Clause, error) {
	var clauses []Clause
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clause, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("empty constraint expression %q", s)
	}
	return clauses, nil
}

func parseClause(s string) (Clause, error) {
	for _, op := range ops {
		if strings.HasPrefix(s, string(op)) {
			v := strings.TrimSpace(s[len(op):])
			if v == "" {
				return Clause{}, fmt.Errorf("constraint %q has no version", s)
			}
			return Clause{Op: op, Version: v}, nil
		}
	}
	return Clause{}, fmt.Errorf("constraint %q has no recognised operator", s)
}

// Satisfied reports whether the given concrete version satisfies every
// clause of the requirement. An unparseable candidate version never
// satisfies a constrained requirement.
func (r Requirement) Satisfied(version string) bool {
	if len(r.Clauses) == 0 {
		return true
	}
	v, err := semver.NewVersion(normalize(version))
	if err != nil {
		return false
	}
	c, err := semverConstraint(r.Clauses)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// Check returns an UnsatisfiedError when installed does not satisfy the
// requirement. An empty installed version means the package is absent.
func (r Requirement) Check(installed string) error {
	if installed == "" {
		return &UnsatisfiedError{Package: r.Name, Constraint: r.Specifier()}
	}
	if !r.Satisfied(installed) {
		return &UnsatisfiedError{Package: r.Name, Installed: installed, Constraint: r.Specifier()}
	}
	return nil
}

// CheckSpecifier verifies a bare range expression (e.g. requires-python
// ">=3.10") against a concrete version.
func CheckSpecifier(spec, version string) (bool, error) {
	clauses, err := ParseSpecifier(spec)
	if err != nil {
		return false, err
	}
	v, err := semver.NewVersion(normalize(version))
	if err != nil {
		return false, fmt.Errorf("version %q: %w", version, err)
	}
	c, err := semverConstraint(clauses)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

func semverConstraint(clauses []Clause) (*semver.Constraints, error) {
	parts := make([]string, 0, len(clauses))
	for _, cl := range clauses {
		ver := normalize(cl.Version)
		switch cl.Op {
		case OpExact:
			parts = append(parts, "= "+ver)
		case OpCompatible:
			lower, upper := compatibleBounds(ver)
			parts = append(parts, ">= "+lower, "< "+upper)
		default:
			parts = append(parts, string(cl.Op)+" "+ver)
		}
	}
	return semver.NewConstraint(strings.Join(parts, ", "))
}

// compatibleBounds expands a "~=" clause: ~=1.4 means >=1.4,<2.0 and
// ~=1.4.5 means >=1.4.5,<1.5.0.
func compatibleBounds(v string) (lower, upper string) {
	segs := strings.Split(v, ".")
	if len(segs) < 2 {
		return v, bump(segs[0]) + ".0"
	}
	upperSegs := make([]string, len(segs)-1)
	copy(upperSegs, segs[:len(segs)-1])
	upperSegs[len(upperSegs)-1] = bump(upperSegs[len(upperSegs)-1])
	return v, strings.Join(upperSegs, ".") + ".0"
}

func bump(seg string) string {
	n := 0
	fmt.Sscanf(seg, "%d", &n)
	return fmt.Sprintf("%d", n+1)
}

var pyVersionRe = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)(?:(a|b|rc)(\d+))?`)

// normalize maps Python version spellings onto something the semver
// library accepts: at most three numeric segments, with alpha/beta/rc
// markers as pre-release tags. Post and dev suffixes are truncated, which
// treats them as equal to the base release.
func normalize(v string) string {
	v = strings.TrimSpace(v)
	m := pyVersionRe.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	segs := strings.Split(m[1], ".")
	if len(segs) > 3 {
		segs = segs[:3]
	}
	out := strings.Join(segs, ".")
	if m[2] != "" {
		switch m[2] {
		case "a":
			out += "-alpha." + m[3]
		case "b":
			out += "-beta." + m[3]
		case "rc":
			out += "-rc." + m[3]
		}
	}
	return out
}
