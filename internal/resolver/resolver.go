package resolver

import (
	"errors"
	"fmt"

	"github.com/leiwang-ml/ragctl/internal/constraint"
	"github.com/leiwang-ml/ragctl/internal/index"
)

// Resolved is one package pinned by dependency resolution.
type Resolved struct {
	Name         string
	Version      string
	SdistURL     string
	Filename     string
	RequiresDist []string
	Source       string // "index" or "mirror"
}

// Resolver resolves dependency declarations recursively against a package
// index, with a mirror as fallback.
type Resolver struct {
	idx       *index.Index
	mirror    *index.Mirror
	pyVersion string
	resolved  map[string]*Resolved
	resolving map[string]bool
	logFn     func(string, ...interface{})
}

// New creates a resolver. mirror may be nil when no fallback index is
// configured. pyVersion is the target interpreter version used to
// evaluate python_version environment markers.
func New(idx *index.Index, mirror *index.Mirror, pyVersion string, verbose bool) *Resolver {
	return &Resolver{
		idx:       idx,
		mirror:    mirror,
		pyVersion: pyVersion,
		resolved:  make(map[string]*Resolved),
		resolving: make(map[string]bool),
		logFn: func(format string, args ...interface{}) {
			if verbose {
				fmt.Printf(format+"\n", args...)
			}
		},
	}
}

// Resolve resolves all requirements and their transitive dependencies.
func (r *Resolver) Resolve(reqs []constraint.Requirement) ([]*Resolved, error) {
	for _, req := range reqs {
		if err := r.resolveOne(req); err != nil {
			return nil, err
		}
	}

	out := make([]*Resolved, 0, len(r.resolved))
	for _, d := range r.resolved {
		out = append(out, d)
	}
	return out, nil
}

func (r *Resolver) resolveOne(req constraint.Requirement) error {
	if !constraint.MarkerApplies(req.Marker, r.pyVersion) {
		r.logFn("Skipping %s (marker %q does not apply)", req.Name, req.Marker)
		return nil
	}

	key := index.NormalizeName(req.Name)

	// Already pinned with a compatible version?
	if d, ok := r.resolved[key]; ok {
		if req.Satisfied(d.Version) {
			return nil
		}
		return fmt.Errorf("resolving %s: pinned %s conflicts with %s",
			req.Name, d.Version, req.Specifier())
	}

	// Circular dependency: the package is already being resolved further
	// up the stack; whatever version it pins will be checked there.
	if r.resolving[key] {
		r.logFn("Skipping circular dependency: %s", req.Name)
		return nil
	}
	r.resolving[key] = true
	defer func() { delete(r.resolving, key) }()

	r.logFn("Resolving: %s %s", req.Name, req.Specifier())

	d, err := r.pick(req, key)
	if err != nil {
		return err
	}
	r.logFn("  Pinned %s==%s (%s)", d.Name, d.Version, d.Source)

	// Pin before recursing so cycles terminate.
	r.resolved[key] = d

	for _, dep := range d.RequiresDist {
		depReq, err := constraint.ParseRequirement(dep)
		if err != nil {
			// Index metadata carries the occasional unparsable entry;
			// skip it rather than failing the whole resolution.
			r.logFn("  Warning: skipping dependency %q: %v", dep, err)
			continue
		}
		if err := r.resolveOne(depReq); err != nil {
			return err
		}
	}
	return nil
}

// pick selects the newest release satisfying the requirement, trying the
// primary index first and the mirror second.
func (r *Resolver) pick(req constraint.Requirement, key string) (*Resolved, error) {
	info, err := r.idx.Lookup(key)
	if err == nil {
		if d := selectRelease(info, req, "index"); d != nil {
			return d, nil
		}
	} else if !errors.Is(err, index.ErrNotFound) {
		return nil, fmt.Errorf("resolving %s: %w", req.Name, err)
	}

	if r.mirror != nil {
		r.logFn("  Trying mirror for %s %s", req.Name, req.Specifier())
		info, merr := r.mirror.Lookup(key)
		if merr == nil {
			if d := selectRelease(info, req, "mirror"); d != nil {
				return d, nil
			}
		} else if !errors.Is(merr, index.ErrNotFound) {
			return nil, fmt.Errorf("resolving %s: %w", req.Name, merr)
		}
	}

	return nil, fmt.Errorf("resolving %s: %w", req.Name,
		&constraint.UnsatisfiedError{Package: req.Name, Constraint: req.Specifier()})
}

func selectRelease(info *index.PackageInfo, req constraint.Requirement, source string) *Resolved {
	for _, rel := range info.Releases {
		if rel.Yanked {
			continue
		}
		if !req.Satisfied(rel.Version) {
			continue
		}
		return &Resolved{
			Name:         index.NormalizeName(info.Name),
			Version:      rel.Version,
			SdistURL:     rel.SdistURL,
			Filename:     rel.Filename,
			RequiresDist: requiresFor(info, rel.Version),
			Source:       source,
		}
	}
	return nil
}

// requiresFor returns the dependency metadata for a selected release. The
// JSON API only carries requires_dist for the latest release; older
// releases resolve without transitive metadata until their sdist is
// fetched and inspected.
func requiresFor(info *index.PackageInfo, version string) []string {
	if version == info.Latest {
		return info.RequiresDist
	}
	return nil
}
