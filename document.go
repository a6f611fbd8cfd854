package skilld

import "context"

// Doc is a single cached file: a path relative to the package's cache
// directory and its content.
type Doc struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// DocType tags an indexable document for search-time filtering.
type DocType string

// Indexable document types.
const (
	DocTypeDoc        DocType = "doc"
	DocTypeIssue      DocType = "issue"
	DocTypeDiscussion DocType = "discussion"
	DocTypeRelease    DocType = "release"
)

// IndexableDoc is a document eligible for the search index.
type IndexableDoc struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Type     DocType           `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchOptions filters and bounds a search.
type SearchOptions struct {
	// Types restricts hits to these document types. Empty means all.
	Types []DocType

	// Limit bounds the number of hits. Zero means the indexer's default.
	Limit int
}

// SearchHit is one ranked search result.
type SearchHit struct {
	ID      string  `json:"id"`
	Type    DocType `json:"type"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"`
}

// Indexer maintains one search index per (package, version), located at a
// deterministic path derived identically to the cache store's key scheme.
type Indexer interface {
	// CreateIndex rebuilds the index at dbPath wholesale from docs.
	CreateIndex(ctx context.Context, docs []IndexableDoc, dbPath string) error

	// Search returns ranked hits for query against the index at dbPath.
	Search(ctx context.Context, dbPath, query string, opts SearchOptions) ([]SearchHit, error)

	// RemoveIndex deletes the index at dbPath. Reports whether it existed.
	RemoveIndex(dbPath string) (bool, error)
}

// LinkResult reports the outcome of a filesystem projection. Projection is
// idempotent and explicitly fallible; the caller decides whether a skipped
// link is fatal.
type LinkResult string

// Projection outcomes.
const (
	// LinkCreated means a symlink was created at the target.
	LinkCreated LinkResult = "created"
	// LinkCopied means symlinking failed and the subdir was copied instead.
	LinkCopied LinkResult = "copied"
	// LinkSkipped means the cached subdir does not exist; no target was left.
	LinkSkipped LinkResult = "skipped"
)

// CacheStore persists documentation material under one cache root, keyed by
// (name, version). At most one entry exists per package name: writing a new
// version evicts all sibling versions of the same name.
type CacheStore interface {
	// IsCached reports whether an entry exists for (name, version).
	IsCached(name, version string) bool

	// HasSubdir reports whether the entry has the given subdirectory.
	HasSubdir(name, version, subdir string) bool

	// Write persists docs into the entry, then evicts stale sibling
	// versions. Returns the entry's directory.
	Write(ctx context.Context, name, version string, docs []Doc) (string, error)

	// Read returns every cached .md/.mdx file, keyed by relative path.
	// Returns ENOTFOUND when the entry does not exist.
	Read(ctx context.Context, name, version string) ([]Doc, error)

	// Clear deletes the entry. Reports whether it existed.
	Clear(name, version string) (bool, error)

	// LinkInto projects the entry's subdir into targetDir/subdir.
	LinkInto(targetDir, name, version, subdir string) (LinkResult, error)
}
