package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	// DefaultBaseURL is the canonical package index.
	DefaultBaseURL = "https://pypi.org"

	cacheTTL = 24 * time.Hour
)

// ErrNotFound is returned when the index has no record of a package.
var ErrNotFound = errors.New("package not found in index")

// Release is one published version of a package.
type Release struct {
	Version  string
	SdistURL string
	Filename string
	Yanked   bool
}

// PackageInfo is the index record for one package.
type PackageInfo struct {
	Name         string
	Latest       string
	RequiresDist []string
	Releases     []Release // sorted newest first
}

// Index queries a PyPI-compatible JSON API, caching responses on disk.
type Index struct {
	baseURL  string
	cacheDir string
	client   *http.Client
	memo     map[string]*PackageInfo
}

// New creates an index client. Responses are cached under cacheDir with a
// 24h TTL.
func New(baseURL, cacheDir string) *Index {
	return &Index{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		cacheDir: cacheDir,
		client:   &http.Client{},
		memo:     make(map[string]*PackageInfo),
	}
}

// BaseURL returns the configured index base URL.
func (idx *Index) BaseURL() string {
	return idx.baseURL
}

// Lookup fetches the index record for a package.
func (idx *Index) Lookup(name string) (*PackageInfo, error) {
	key := NormalizeName(name)
	if info, ok := idx.memo[key]; ok {
		return info, nil
	}

	cacheFile := filepath.Join(idx.cacheDir, key+".json")
	if !idx.isCacheValid(cacheFile) {
		if err := idx.download(key, cacheFile); err != nil {
			return nil, err
		}
	}

	info, err := idx.parseCache(key, cacheFile)
	if err != nil {
		return nil, err
	}
	idx.memo[key] = info
	return info, nil
}

func (idx *Index) isCacheValid(cacheFile string) bool {
	fi, err := os.Stat(cacheFile)
	if err != nil {
		return false
	}
	return time.Since(fi.ModTime()) < cacheTTL
}

func (idx *Index) download(name, cacheFile string) error {
	if err := os.MkdirAll(idx.cacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	u := fmt.Sprintf("%s/pypi/%s/json", idx.baseURL, url.PathEscape(name))
	resp, err := idx.client.Get(u)
	if err != nil {
		return fmt.Errorf("querying index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("package %s: %w", name, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("querying index for %s: HTTP %d", name, resp.StatusCode)
	}

	out, err := os.Create(cacheFile)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

func (idx *Index) parseCache(name, cacheFile string) (*PackageInfo, error) {
	f, err := os.Open(cacheFile)
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	var resp apiResponse
	if err := json.NewDecoder(f).Decode(&resp); err != nil {
		return nil, fmt.Errorf("parsing index record for %s: %w", name, err)
	}
	return resp.toPackageInfo(), nil
}

// apiResponse mirrors the subset of the JSON API response we consume.
type apiResponse struct {
	Info struct {
		Name         string   `json:"name"`
		Version      string   `json:"version"`
		RequiresDist []string `json:"requires_dist"`
	} `json:"info"`
	Releases map[string][]apiFile `json:"releases"`
}

type apiFile struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	PackageType string `json:"packagetype"`
	Yanked      bool   `json:"yanked"`
}

func (r *apiResponse) toPackageInfo() *PackageInfo {
	info := &PackageInfo{
		Name:         r.Info.Name,
		Latest:       r.Info.Version,
		RequiresDist: r.Info.RequiresDist,
	}
	for version, files := range r.Releases {
		rel := Release{Version: version}
		for _, f := range files {
			if f.PackageType == "sdist" {
				rel.SdistURL = f.URL
				rel.Filename = f.Filename
				rel.Yanked = f.Yanked
				break
			}
		}
		// Releases with no sdist still count as published versions.
		if rel.SdistURL == "" && len(files) > 0 {
			rel.Filename = files[0].Filename
			rel.Yanked = files[0].Yanked
		}
		info.Releases = append(info.Releases, rel)
	}
	sortReleases(info.Releases)
	return info
}

// sortReleases orders releases newest first. Versions that the semver
// shim cannot parse sort last, in lexical order.
func sortReleases(rels []Release) {
	sort.SliceStable(rels, func(i, j int) bool {
		vi, erri := semver.NewVersion(rels[i].Version)
		vj, errj := semver.NewVersion(rels[j].Version)
		if erri != nil && errj != nil {
			return rels[i].Version > rels[j].Version
		}
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return vi.GreaterThan(vj)
	})
}

// NormalizeName canonicalises a package name the way the index does:
// lower case with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	var b strings.Builder
	prevSep := false
	for _, c := range strings.ToLower(strings.TrimSpace(name)) {
		if c == '-' || c == '_' || c == '.' {
			if !prevSep {
				b.WriteByte('-')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(c)
	}
	return b.String()
}
