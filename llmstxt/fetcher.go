// Package llmstxt fetches llms.txt manifests and the documentation files
// they link. Linked files are fetched in bounded batches, deduplicated, and
// converted to markdown when an upstream serves HTML.
package llmstxt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds simultaneous outbound requests from one package's
// pipeline while fetching linked files.
const DefaultBatchSize = 20

// DefaultTimeout bounds one file fetch.
const DefaultTimeout = 10 * time.Second

// Bloom filter sizing for linked-URL deduplication.
const (
	dedupeExpectedURLs      = 10000
	dedupeFalsePositiveRate = 0.01
)

// Ensure Fetcher implements skilld.LlmsTxtFetcher at compile time.
var _ skilld.LlmsTxtFetcher = (*Fetcher)(nil)

// Fetcher retrieves llms.txt manifests and their linked files.
type Fetcher struct {
	client      *http.Client
	batchSize   int
	retryDelays []time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) { f.client = hc }
}

// WithBatchSize sets how many linked files are fetched concurrently.
func WithBatchSize(n int) Option {
	return func(f *Fetcher) { f.batchSize = n }
}

// WithRetryDelays sets the backoff delays for transient fetch failures.
// Useful for testing without waiting for real delays.
func WithRetryDelays(delays []time.Duration) Option {
	return func(f *Fetcher) { f.retryDelays = delays }
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		batchSize:   DefaultBatchSize,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: DefaultTimeout}
	}
	return f
}

// linkRe matches markdown links with absolute or relative targets.
var linkRe = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)

// FetchLlmsTxt fetches the manifest at manifestURL and every file it links.
// The manifest itself is returned first under the path "llms.txt"; linked
// files follow under docs/. A manifest whose links all fail still succeeds
// with the manifest alone.
func (f *Fetcher) FetchLlmsTxt(ctx context.Context, manifestURL string) ([]skilld.Doc, error) {
	manifest, _, err := f.fetchWithRetry(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	docs := []skilld.Doc{{Path: "llms.txt", Content: manifest}}

	links := parseLinks(manifest, manifestURL)
	for _, batch := range chunk(links, f.batchSize) {
		results := make([]skilld.Doc, len(batch))
		ok := make([]bool, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.batchSize)
		for i, link := range batch {
			g.Go(func() error {
				content, contentType, err := f.fetchWithRetry(gctx, link)
				if err != nil {
					return nil // failed links are skipped, not fatal
				}
				if isHTML(contentType, content) {
					md, err := htmlToMarkdown(content)
					if err != nil {
						return nil
					}
					content = md
				}
				results[i] = skilld.Doc{Path: urlToDocPath(link), Content: content}
				ok[i] = true
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, doc := range results {
			if ok[i] {
				docs = append(docs, doc)
			}
		}
	}

	return docs, nil
}

// parseLinks extracts deduplicated absolute URLs from the manifest, in
// manifest order. Relative targets resolve against the manifest URL.
func parseLinks(manifest, manifestURL string) []string {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil
	}

	seen := bloom.NewFilter(dedupeExpectedURLs, dedupeFalsePositiveRate)
	var links []string
	for _, match := range linkRe.FindAllStringSubmatch(manifest, -1) {
		target := match[2]
		ref, err := url.Parse(target)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		abs.Fragment = ""
		u := abs.String()
		if u == manifestURL || seen.Seen(u) {
			continue
		}
		links = append(links, u)
	}
	return links
}

// chunk splits items into batches of at most size.
func chunk(items []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]string
	for len(items) > 0 {
		n := min(size, len(items))
		batches = append(batches, items[:n])
		items = items[n:]
	}
	return batches
}

// fetchWithRetry fetches a URL with backoff on transient failures.
// ENOTFOUND is terminal and never retried.
func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string) (content, contentType string, err error) {
	maxAttempts := len(f.retryDelays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		content, contentType, err = f.fetchOne(ctx, rawURL)
		if err == nil {
			return content, contentType, nil
		}
		if skilld.ErrorCode(err) == skilld.ENOTFOUND {
			return "", "", err
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(f.retryDelays[attempt]):
		}
	}

	return "", "", lastErr
}

func (f *Fetcher) fetchOne(ctx context.Context, rawURL string) (content, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", skilld.Errorf(skilld.EUNAVAILABLE, "fetch %s: %v", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", "", skilld.Errorf(skilld.ENOTFOUND, "HTTP 404 for %s", rawURL)
	case resp.StatusCode != http.StatusOK:
		return "", "", skilld.Errorf(skilld.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}

	return string(body), resp.Header.Get("Content-Type"), nil
}

// isHTML detects HTML payloads by content type or document prefix.
func isHTML(contentType, content string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	trimmed := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(trimmed, "<!doctype html") || strings.HasPrefix(trimmed, "<html")
}

// urlToDocPath converts a linked URL to a cache-relative path under docs/.
// Example: https://example.com/guide/hooks.md -> docs/guide/hooks.md
func urlToDocPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "docs/index.md"
	}

	p := strings.Trim(u.Path, "/")
	if p == "" {
		p = "index"
	}
	p = strings.TrimSuffix(p, ".mdx")
	p = strings.TrimSuffix(p, ".md")
	p = strings.TrimSuffix(p, ".html")
	p = strings.TrimSuffix(p, ".txt")

	// Collapse anything the cache path guard would reject.
	var sb strings.Builder
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("/")
		}
		sb.WriteString(seg)
	}
	if sb.Len() == 0 {
		return "docs/index.md"
	}

	return fmt.Sprintf("docs/%s.md", sb.String())
}
