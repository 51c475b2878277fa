package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leiwang-ml/ragctl/internal/constraint"
	"github.com/leiwang-ml/ragctl/internal/fetcher"
	"github.com/leiwang-ml/ragctl/internal/freeze"
	"github.com/leiwang-ml/ragctl/internal/index"
	"github.com/leiwang-ml/ragctl/internal/manifest"
	"github.com/leiwang-ml/ragctl/internal/metadata"
	"github.com/leiwang-ml/ragctl/internal/resolver"
)

var (
	installedPath string
	lockOutput    string
	mirrorFlag    string
	pythonVersion string
	workers       int
	depGroups     []string
	verifyFetch   bool
)

func newDepsCmd() *cobra.Command {
	depsCmd := &cobra.Command{
		Use:   "deps",
		Short: "Dependency operations against the package index",
	}

	depsCmd.PersistentFlags().StringVar(&pythonVersion, "python", "3.12", "Target interpreter version for marker evaluation")
	depsCmd.PersistentFlags().StringVarP(&mirrorFlag, "mirror", "m", "", "Fallback index base URL (defaults to the manifest's index-url)")
	depsCmd.PersistentFlags().StringSliceVarP(&depGroups, "group", "g", nil, "Optional dependency groups to include (e.g. dev)")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Verify an installed environment against the manifest constraints",
		RunE:  runDepsCheck,
	}
	checkCmd.Flags().StringVar(&installedPath, "installed", "", "pip-freeze style listing of the installed environment")

	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Resolve the dependency closure and write a lock file",
		RunE:  runDepsLock,
	}
	lockCmd.Flags().StringVarP(&lockOutput, "output", "o", "./ragctl.lock", "Output lock file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download resolved source distributions into the cache",
		RunE:  runDepsFetch,
	}
	fetchCmd.Flags().IntVarP(&workers, "workers", "w", 5, "Parallel download workers")
	fetchCmd.Flags().BoolVar(&verifyFetch, "verify", false, "Cross-check downloaded sdist metadata against the resolution")

	depsCmd.AddCommand(checkCmd, lockCmd, fetchCmd)
	return depsCmd
}

// collectRequirements parses the manifest's dependency declarations,
// warning about duplicate package names (expected unique, not enforced).
func collectRequirements(m *manifest.Manifest) ([]constraint.Requirement, error) {
	declared := m.AllDependencies(depGroups...)
	if len(declared) == 0 {
		return nil, fmt.Errorf("no dependencies declared in %s", manifestPath)
	}

	seen := make(map[string]bool)
	reqs := make([]constraint.Requirement, 0, len(declared))
	for _, d := range declared {
		req, err := constraint.ParseRequirement(d)
		if err != nil {
			return nil, err
		}
		key := index.NormalizeName(req.Name)
		if seen[key] {
			fmt.Fprintf(os.Stderr, "Warning: %s is declared more than once\n", req.Name)
		}
		seen[key] = true
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func checkRequiresPython(m *manifest.Manifest) error {
	if m.Project.RequiresPython == "" || pythonVersion == "" {
		return nil
	}
	ok, err := constraint.CheckSpecifier(m.Project.RequiresPython, pythonVersion)
	if err != nil {
		return fmt.Errorf("checking requires-python: %w", err)
	}
	if !ok {
		return fmt.Errorf("python %s does not satisfy requires-python %q",
			pythonVersion, m.Project.RequiresPython)
	}
	return nil
}

func runDepsCheck(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	if err := checkRequiresPython(m); err != nil {
		return err
	}

	reqs, err := collectRequirements(m)
	if err != nil {
		return err
	}

	if installedPath == "" {
		return fmt.Errorf("--installed listing is required")
	}
	snap, err := freeze.Load(installedPath)
	if err != nil {
		return err
	}

	errs := snap.Check(reqs, pythonVersion)
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "unsatisfied: %v\n", e)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d constraints unsatisfied", len(errs), len(reqs))
	}

	fmt.Printf("All %d constraints satisfied\n", len(reqs))
	return nil
}

// newResolver wires index, mirror and resolver from the manifest and
// flags.
func newResolver(m *manifest.Manifest) (*resolver.Resolver, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	cacheDir := filepath.Join(homeDir, ".ragctl", "cache")

	logf("Loading package index from %s", index.DefaultBaseURL)
	idx := index.New(index.DefaultBaseURL, cacheDir)

	mirrorURL := mirrorFlag
	if mirrorURL == "" {
		mirrorURL = m.IndexURL("")
	}
	var mirror *index.Mirror
	if mirrorURL != "" {
		logf("Using mirror: %s", mirrorURL)
		mirror = index.NewMirror(mirrorURL)
	}

	return resolver.New(idx, mirror, pythonVersion, verbose), nil
}

func resolveAll(m *manifest.Manifest) ([]*resolver.Resolved, error) {
	reqs, err := collectRequirements(m)
	if err != nil {
		return nil, err
	}
	res, err := newResolver(m)
	if err != nil {
		return nil, err
	}
	logf("Resolving dependencies...")
	dists, err := res.Resolve(reqs)
	if err != nil {
		return nil, fmt.Errorf("resolving dependencies: %w", err)
	}
	logf("Resolved %d packages", len(dists))
	return dists, nil
}

func runDepsLock(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	if err := checkRequiresPython(m); err != nil {
		return err
	}

	dists, err := resolveAll(m)
	if err != nil {
		return err
	}

	logf("Writing lock file: %s", lockOutput)
	out, err := os.Create(lockOutput)
	if err != nil {
		return fmt.Errorf("creating lock file: %w", err)
	}
	defer out.Close()

	if err := freeze.NewEmitter(out).Emit(dists); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}

	fmt.Printf("Generated %s with %d packages\n", lockOutput, len(dists))
	return nil
}

func runDepsFetch(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	dists, err := resolveAll(m)
	if err != nil {
		return err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}
	f := fetcher.New(workers, filepath.Join(homeDir, ".ragctl", "dists"))

	var jobs []fetcher.Job
	for _, d := range dists {
		if d.SdistURL == "" {
			logf("Skipping %s==%s: no source distribution published", d.Name, d.Version)
			continue
		}
		jobs = append(jobs, fetcher.Job{
			Package:  d.Name,
			Version:  d.Version,
			URL:      d.SdistURL,
			DestPath: f.CachePath(d.Filename),
			Source:   d.Source,
		})
	}

	logf("Fetching %d distributions...", len(jobs))
	failed := 0
	for _, r := range f.Fetch(jobs) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "fetch %s: %v\n", r.Job.Package, r.Error)
			failed++
			continue
		}
		if verifyFetch {
			if err := verifySdist(r.Job); err != nil {
				fmt.Fprintf(os.Stderr, "verify %s: %v\n", r.Job.Package, err)
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d distributions failed", failed, len(jobs))
	}

	fmt.Printf("Fetched %d distributions into %s\n", len(jobs), f.CacheDir())
	return nil
}

func verifySdist(job fetcher.Job) error {
	d, err := metadata.FromSdist(job.DestPath)
	if err != nil {
		return err
	}
	return d.Verify(job.Package, job.Version)
}
