package index

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Mirror is a fallback PyPI-compatible index, queried live (no cache)
// when the primary index has no satisfying release. The mirror base URL
// comes from the manifest's [tool.ragctl] index-url setting.
type Mirror struct {
	baseURL string
	client  *http.Client
}

// NewMirror creates a mirror client.
func NewMirror(baseURL string) *Mirror {
	return &Mirror{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// BaseURL returns the mirror base URL.
func (m *Mirror) BaseURL() string {
	return m.baseURL
}

// Lookup queries the mirror for a package record.
func (m *Mirror) Lookup(name string) (*PackageInfo, error) {
	key := NormalizeName(name)
	u := fmt.Sprintf("%s/pypi/%s/json", m.baseURL, url.PathEscape(key))

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying mirror: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("package %s: %w", key, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mirror error for %s: HTTP %d", key, resp.StatusCode)
	}

	var r apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("parsing mirror response: %w", err)
	}
	return r.toPackageInfo(), nil
}
