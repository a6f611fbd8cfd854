// Package npm provides the registry collaborator: it resolves base package
// metadata (name, concrete version, description, repository and docs URLs)
// from the npm registry JSON API. It never yields documentation content,
// only facts later cascade sources build on.
package npm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skilldhq/skilld"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// DefaultTimeout bounds one registry request.
const DefaultTimeout = 10 * time.Second

// Ensure Client implements skilld.RegistryClient at compile time.
var _ skilld.RegistryClient = (*Client)(nil)

// Client resolves package metadata from an npm-compatible registry.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different registry.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithTimeout sets the per-request timeout.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a registry client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// packument is the registry's per-package JSON document, trimmed to the
// fields the cascade consumes.
type packument struct {
	Name     string            `json:"name"`
	DistTags map[string]string `json:"dist-tags"`
	Time     map[string]string `json:"time"`
	Versions map[string]struct {
		Description string `json:"description"`
		Homepage    string `json:"homepage"`
		Repository  struct {
			URL string `json:"url"`
		} `json:"repository"`
		Dependencies map[string]string `json:"dependencies"`
	} `json:"versions"`
}

// ResolvePackage resolves name at version. Empty version or a dist-tag name
// resolves through dist-tags; the returned version is always concrete.
func (c *Client) ResolvePackage(ctx context.Context, name, version string) (*skilld.ResolvedPackage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "registry request for %q failed: %v", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, skilld.Errorf(skilld.ENOTFOUND, "package %q not found on registry", name)
	case resp.StatusCode != http.StatusOK:
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "registry returned HTTP %d for %q", resp.StatusCode, name)
	}

	var doc packument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "malformed registry response for %q: %v", name, err)
	}

	resolved := version
	if resolved == "" {
		resolved = doc.DistTags["latest"]
	} else if tagged, ok := doc.DistTags[resolved]; ok {
		resolved = tagged
	}

	v, ok := doc.Versions[resolved]
	if !ok {
		return nil, skilld.Errorf(skilld.ENOTFOUND, "version %q of %q not found on registry", version, name)
	}

	pkg := &skilld.ResolvedPackage{
		Name:         name,
		Version:      resolved,
		Description:  v.Description,
		RepoURL:      normalizeRepoURL(v.Repository.URL),
		DocsURL:      filterDocsURL(v.Homepage),
		Dependencies: v.Dependencies,
		DistTags:     doc.DistTags,
	}
	if released, ok := doc.Time[resolved]; ok {
		if ts, err := time.Parse(time.RFC3339, released); err == nil {
			pkg.ReleasedAt = ts
		}
	}

	return pkg, nil
}

// normalizeRepoURL strips VCS prefixes and suffixes from a manifest
// repository URL (git+https://host/o/r.git -> https://host/o/r).
func normalizeRepoURL(raw string) string {
	u := strings.TrimPrefix(raw, "git+")
	u = strings.TrimSuffix(u, ".git")
	if strings.HasPrefix(u, "git://") {
		u = "https://" + strings.TrimPrefix(u, "git://")
	}
	if u != "" && !strings.HasPrefix(u, "http") {
		return ""
	}
	return u
}

// docsURLDenylist holds hosts that never serve documentation: social media
// profiles and registry package pages that manifests commonly put in
// homepage.
var docsURLDenylist = []string{
	"npmjs.com",
	"npmjs.org",
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"twitter.com",
	"x.com",
	"facebook.com",
	"youtube.com",
	"discord.gg",
	"discord.com",
}

// filterDocsURL returns homepage unless its host is denylisted.
func filterDocsURL(homepage string) string {
	if homepage == "" {
		return ""
	}
	u, err := url.Parse(homepage)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, denied := range docsURLDenylist {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return ""
		}
	}
	return homepage
}
