package llmstxt_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/llmstxt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocsSite(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/llms.txt":
			_, _ = w.Write([]byte(`# Acme Docs

- [Getting Started](/docs/start.md)
- [Hooks](/docs/hooks.md)
- [Hooks again](/docs/hooks.md)
- [API](/docs/api.html)
- [mail us](mailto:docs@acme.dev)
`))
		case "/docs/start.md":
			_, _ = w.Write([]byte("# Getting Started"))
		case "/docs/hooks.md":
			_, _ = w.Write([]byte("# Hooks"))
		case "/docs/api.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><nav>skip me</nav><main><h1>API</h1><p>The API.</p></main></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestFetcher_FetchesManifestAndLinkedFiles(t *testing.T) {
	t.Parallel()

	srv, _ := newDocsSite(t)
	fetcher := llmstxt.NewFetcher(llmstxt.WithRetryDelays(nil))

	docs, err := fetcher.FetchLlmsTxt(context.Background(), srv.URL+"/llms.txt")
	require.NoError(t, err)

	// Manifest first, then linked files; the duplicate hooks link and the
	// mailto link are dropped.
	require.Len(t, docs, 4)
	assert.Equal(t, "llms.txt", docs[0].Path)
	assert.Contains(t, docs[0].Content, "# Acme Docs")

	paths := []string{docs[1].Path, docs[2].Path, docs[3].Path}
	assert.Contains(t, paths, "docs/docs/start.md")
	assert.Contains(t, paths, "docs/docs/hooks.md")
	assert.Contains(t, paths, "docs/docs/api.md")
}

func TestFetcher_ConvertsHTMLToMarkdown(t *testing.T) {
	t.Parallel()

	srv, _ := newDocsSite(t)
	fetcher := llmstxt.NewFetcher(llmstxt.WithRetryDelays(nil))

	docs, err := fetcher.FetchLlmsTxt(context.Background(), srv.URL+"/llms.txt")
	require.NoError(t, err)

	var api skilld.Doc
	for _, doc := range docs {
		if doc.Path == "docs/docs/api.md" {
			api = doc
		}
	}
	require.NotEmpty(t, api.Path, "HTML page should be cached as markdown")
	assert.Contains(t, api.Content, "# API")
	assert.Contains(t, api.Content, "The API.")
	assert.NotContains(t, api.Content, "<main>")
	assert.NotContains(t, api.Content, "skip me", "navigation chrome is dropped")
}

func TestFetcher_ManifestNotFound(t *testing.T) {
	t.Parallel()

	srv, _ := newDocsSite(t)
	fetcher := llmstxt.NewFetcher(llmstxt.WithRetryDelays(nil))

	_, err := fetcher.FetchLlmsTxt(context.Background(), srv.URL+"/missing/llms.txt")
	require.Error(t, err)
	assert.Equal(t, skilld.ENOTFOUND, skilld.ErrorCode(err))
}

func TestFetcher_BrokenLinksAreSkipped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/llms.txt":
			_, _ = w.Write([]byte("- [Gone](/docs/gone.md)\n- [Here](/docs/here.md)\n"))
		case "/docs/here.md":
			_, _ = w.Write([]byte("# Here"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	fetcher := llmstxt.NewFetcher(llmstxt.WithRetryDelays(nil))
	docs, err := fetcher.FetchLlmsTxt(context.Background(), srv.URL+"/llms.txt")
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "llms.txt", docs[0].Path)
	assert.Equal(t, "docs/docs/here.md", docs[1].Path)
}

func TestFetcher_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("# manifest\n"))
	}))
	t.Cleanup(srv.Close)

	fetcher := llmstxt.NewFetcher(llmstxt.WithRetryDelays([]time.Duration{time.Millisecond}))
	docs, err := fetcher.FetchLlmsTxt(context.Background(), srv.URL+"/llms.txt")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}
