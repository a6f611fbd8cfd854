// Package github provides the GitHub collaborator: versioned docs folders,
// READMEs, and auxiliary resources (issues, discussions, releases) fetched
// through the REST API and the raw content host.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/skilldhq/skilld"
)

// Defaults for the public GitHub endpoints.
const (
	DefaultAPIBaseURL = "https://api.github.com"
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	DefaultTimeout    = 15 * time.Second

	// DefaultResourceLimit bounds how many issues, discussions, or releases
	// one fetch materializes.
	DefaultResourceLimit = 30

	// DefaultHostRPS is the per-host request rate. The REST API allows 5000
	// authenticated requests per hour; 5 rps keeps bursts polite.
	DefaultHostRPS = 5.0
)

// Ensure Client implements the collaborator interfaces at compile time.
var (
	_ skilld.GitDocsFetcher  = (*Client)(nil)
	_ skilld.ReadmeFetcher   = (*Client)(nil)
	_ skilld.ResourceFetcher = (*Client)(nil)
)

// Client talks to GitHub with per-host rate limiting and optional token auth.
type Client struct {
	apiBase       string
	rawBase       string
	token         string
	resourceLimit int
	client        *http.Client
	limiter       *HostLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithAPIBaseURL overrides the REST API endpoint.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) { c.apiBase = strings.TrimSuffix(u, "/") }
}

// WithRawBaseURL overrides the raw content endpoint.
func WithRawBaseURL(u string) Option {
	return func(c *Client) { c.rawBase = strings.TrimSuffix(u, "/") }
}

// WithToken sets the bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithResourceLimit bounds auxiliary resource fetches.
func WithResourceLimit(n int) Option {
	return func(c *Client) { c.resourceLimit = n }
}

// NewClient creates a GitHub client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase:       DefaultAPIBaseURL,
		rawBase:       DefaultRawBaseURL,
		resourceLimit: DefaultResourceLimit,
		limiter:       NewHostLimiter(DefaultHostRPS),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	return c
}

// ParseRepo extracts owner and repo from a normalized repository URL.
// Returns EINVALID for URLs that are not GitHub repositories.
func ParseRepo(repoURL string) (owner, repo string, err error) {
	u, parseErr := url.Parse(repoURL)
	if parseErr != nil {
		return "", "", skilld.Errorf(skilld.EINVALID, "invalid repository URL %q", repoURL)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "github.com" {
		return "", "", skilld.Errorf(skilld.EINVALID, "%q is not a GitHub repository", repoURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", skilld.Errorf(skilld.EINVALID, "repository URL %q lacks owner/repo", repoURL)
	}
	return parts[0], parts[1], nil
}

// get performs one rate-limited request and returns the body.
// Status codes map onto the error taxonomy: 404 is ENOTFOUND, everything
// else non-200 is EUNAVAILABLE.
func (c *Client) get(ctx context.Context, rawURL string, accept string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "request to %s failed: %v", u.Host, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, skilld.Errorf(skilld.ENOTFOUND, "HTTP 404 for %s", rawURL)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "rate limited by %s (HTTP %d)", u.Host, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(resp.Body)
}

// FetchGitDocs enumerates dir in the repository tree at ref and fetches
// every markdown file, keyed "docs/<path relative to dir>".
func (c *Client) FetchGitDocs(ctx context.Context, repoURL, ref, dir string) ([]skilld.Doc, error) {
	owner, repo, err := ParseRepo(repoURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		c.apiBase, owner, repo, url.PathEscape(ref)), "application/vnd.github+json")
	if err != nil {
		return nil, err
	}

	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
	}
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "malformed tree response for %s/%s@%s: %v", owner, repo, ref, err)
	}

	prefix := strings.TrimSuffix(dir, "/") + "/"
	var docs []skilld.Doc
	for _, entry := range tree.Tree {
		if entry.Type != "blob" || !strings.HasPrefix(entry.Path, prefix) {
			continue
		}
		ext := path.Ext(entry.Path)
		if ext != ".md" && ext != ".mdx" {
			continue
		}
		content, err := c.get(ctx, fmt.Sprintf("%s/%s/%s/%s/%s",
			c.rawBase, owner, repo, url.PathEscape(ref), entry.Path), "")
		if err != nil {
			// A file listed in the tree but missing from raw is a transient
			// inconsistency; skip it rather than failing the whole folder.
			continue
		}
		docs = append(docs, skilld.Doc{
			Path:    "docs/" + strings.TrimPrefix(entry.Path, prefix),
			Content: string(content),
		})
	}

	if len(docs) == 0 {
		return nil, skilld.Errorf(skilld.ENOTFOUND, "no docs under %s/ in %s/%s@%s", dir, owner, repo, ref)
	}

	return docs, nil
}

// FetchReadme fetches the repository README as raw markdown.
func (c *Client) FetchReadme(ctx context.Context, pkg *skilld.ResolvedPackage) (skilld.Doc, error) {
	if pkg == nil || pkg.RepoURL == "" {
		return skilld.Doc{}, skilld.Errorf(skilld.ENOTFOUND, "no repository to fetch a README from")
	}
	owner, repo, err := ParseRepo(pkg.RepoURL)
	if err != nil {
		return skilld.Doc{}, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s/readme", c.apiBase, owner, repo),
		"application/vnd.github.raw+json")
	if err != nil {
		return skilld.Doc{}, err
	}

	return skilld.Doc{Path: "docs/README.md", Content: string(body)}, nil
}

// FetchIssues fetches recent issues, one markdown file each under issues/.
func (c *Client) FetchIssues(ctx context.Context, repoURL string) ([]skilld.Doc, error) {
	owner, repo, err := ParseRepo(repoURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s/issues?state=all&per_page=%d",
		c.apiBase, owner, repo, c.resourceLimit), "application/vnd.github+json")
	if err != nil {
		return nil, err
	}

	var issues []struct {
		Number      int    `json:"number"`
		Title       string `json:"title"`
		State       string `json:"state"`
		Body        string `json:"body"`
		HTMLURL     string `json:"html_url"`
		PullRequest *struct {
			URL string `json:"url"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(body, &issues); err != nil {
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "malformed issues response for %s/%s: %v", owner, repo, err)
	}

	var docs []skilld.Doc
	for _, issue := range issues {
		// The issues endpoint also returns pull requests.
		if issue.PullRequest != nil {
			continue
		}
		docs = append(docs, skilld.Doc{
			Path:    fmt.Sprintf("issues/%d.md", issue.Number),
			Content: formatResource(issue.Title, issue.HTMLURL, "state: "+issue.State, issue.Body),
		})
	}

	return docs, nil
}

// FetchDiscussions fetches recent discussions under discussions/.
func (c *Client) FetchDiscussions(ctx context.Context, repoURL string) ([]skilld.Doc, error) {
	owner, repo, err := ParseRepo(repoURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s/discussions?per_page=%d",
		c.apiBase, owner, repo, c.resourceLimit), "application/vnd.github+json")
	if err != nil {
		return nil, err
	}

	var discussions []struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(body, &discussions); err != nil {
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "malformed discussions response for %s/%s: %v", owner, repo, err)
	}

	var docs []skilld.Doc
	for _, d := range discussions {
		docs = append(docs, skilld.Doc{
			Path:    fmt.Sprintf("discussions/%d.md", d.Number),
			Content: formatResource(d.Title, d.HTMLURL, "", d.Body),
		})
	}

	return docs, nil
}

// FetchReleases fetches recent release notes under releases/.
func (c *Client) FetchReleases(ctx context.Context, repoURL string) ([]skilld.Doc, error) {
	owner, repo, err := ParseRepo(repoURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d",
		c.apiBase, owner, repo, c.resourceLimit), "application/vnd.github+json")
	if err != nil {
		return nil, err
	}

	var releases []struct {
		TagName     string `json:"tag_name"`
		Name        string `json:"name"`
		Body        string `json:"body"`
		HTMLURL     string `json:"html_url"`
		PublishedAt string `json:"published_at"`
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, skilld.Errorf(skilld.EUNAVAILABLE, "malformed releases response for %s/%s: %v", owner, repo, err)
	}

	var docs []skilld.Doc
	for _, rel := range releases {
		title := rel.Name
		if title == "" {
			title = rel.TagName
		}
		docs = append(docs, skilld.Doc{
			Path:    "releases/" + sanitizeFilename(rel.TagName) + ".md",
			Content: formatResource(title, rel.HTMLURL, "published: "+rel.PublishedAt, rel.Body),
		})
	}

	return docs, nil
}

// formatResource renders a resource with YAML frontmatter, mirroring the
// shape cached docs use.
func formatResource(title, sourceURL, extra, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: ")
	b.WriteString(title)
	b.WriteString("\nsource: ")
	b.WriteString(sourceURL)
	if extra != "" {
		b.WriteString("\n")
		b.WriteString(extra)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}

// sanitizeFilename keeps tag names filesystem-safe.
func sanitizeFilename(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_', r == '+':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	if sb.Len() == 0 {
		return "untitled"
	}
	return sb.String()
}
