// Package pipeline orchestrates fetch-and-cache runs: resolution through the
// cascade, cache writes, auxiliary resources, search indexing, section
// generation and lockfile updates for one package, and parallel fan-out over
// many.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/fs"
	"github.com/skilldhq/skilld/lockfile"
	"github.com/skilldhq/skilld/resolve"
)

// Generator is the tool identity written into lockfile records.
const Generator = "skilld"

// FetchOptions configures one fetch-and-cache run.
type FetchOptions struct {
	// Version pins a concrete version or dist-tag. Empty means latest.
	Version string

	// CWD enables the local link: fallback.
	CWD string

	// Force refetches even when the requested version is already cached,
	// clearing the cache entry and its search index first.
	Force bool

	// Auxiliary repository resources, each fetched only when enabled.
	WithIssues      bool
	WithDiscussions bool
	WithReleases    bool

	// GenerateSections produces summarized section files when a summarizer
	// is configured.
	GenerateSections bool
}

// FetchResult reports what one run produced.
type FetchResult struct {
	Package   *skilld.ResolvedPackage
	Attempts  []skilld.ResolveAttempt
	DocsType  skilld.DocsType
	DocSource skilld.Source

	// CacheDir is the entry's directory on disk.
	CacheDir string

	// Cached is true when the requested version was already present and the
	// documentation fetch was skipped.
	Cached bool

	// Indexed is the number of documents written to the search index.
	Indexed int

	// Preview holds the opening lines of the primary document.
	Preview string

	HasIssues      bool
	HasDiscussions bool
	HasReleases    bool
}

// Fetcher runs the fetch-and-cache pipeline for a single package.
type Fetcher struct {
	Resolver  skilld.Resolver
	Store     skilld.CacheStore
	Indexer   skilld.Indexer
	Resources skilld.ResourceFetcher

	// Summarizer is optional; section generation is skipped when nil.
	Summarizer skilld.Summarizer

	// CacheRoot is the directory search-index paths are derived under. It
	// must match the store's root.
	CacheRoot string

	// SkillsDir is where the lockfile lives.
	SkillsDir string

	// Now is the clock used for lockfile dates. Defaults to time.Now.
	Now func() time.Time

	// lockMu serializes lockfile read-modify-write cycles across
	// concurrently syncing packages.
	lockMu sync.Mutex
}

// FetchAndCache resolves, caches and indexes documentation for name. The
// progress callback may be nil. The returned error carries the most
// actionable upstream message when no source succeeded.
func (f *Fetcher) FetchAndCache(ctx context.Context, name string, opts FetchOptions, progress skilld.ProgressFunc) (*FetchResult, error) {
	emit := func(phase skilld.SyncStatus, message, version string) {
		if progress != nil {
			progress(skilld.ProgressEvent{Package: name, Phase: phase, Message: message, Version: version})
		}
	}

	emit(skilld.StatusResolving, "", "")

	ropts := skilld.ResolveOptions{Version: opts.Version, CWD: opts.CWD}
	if !opts.Force {
		// Stop the cascade before any source downloads content when the
		// resolved version is already on disk.
		ropts.SkipDocs = f.Store.IsCached
	}

	resolved, err := f.Resolver.Resolve(ctx, name, ropts)
	if err != nil {
		return nil, err
	}
	if resolved.Package == nil {
		return nil, skilld.Errorf(skilld.ENOTFOUND, "%s", resolve.FailureReason(resolved.Attempts))
	}

	pkg := resolved.Package
	result := &FetchResult{
		Package:   pkg,
		Attempts:  resolved.Attempts,
		DocsType:  resolved.DocsType,
		DocSource: resolved.DocSource,
	}

	if !opts.Force && (resolved.DocsSkipped || f.Store.IsCached(pkg.Name, pkg.Version)) {
		return f.finishCached(ctx, pkg, opts, result, emit)
	}

	if len(resolved.Docs) == 0 {
		return nil, skilld.Errorf(skilld.ENOTFOUND, "no documentation found for %s@%s", pkg.Name, pkg.Version)
	}

	if opts.Force {
		if _, err := f.Store.Clear(pkg.Name, pkg.Version); err != nil {
			return nil, err
		}
		indexPath, err := fs.ResolveIndexPath(f.CacheRoot, pkg.Name, pkg.Version)
		if err != nil {
			return nil, err
		}
		if _, err := f.Indexer.RemoveIndex(indexPath); err != nil {
			return nil, err
		}
	}

	emit(skilld.StatusDownloading, "", pkg.Version)

	docs := resolved.Docs
	docs = append(docs, f.fetchResources(ctx, pkg, opts, result)...)

	dir, err := f.Store.Write(ctx, pkg.Name, pkg.Version, docs)
	if err != nil {
		return nil, err
	}
	result.CacheDir = dir
	result.Preview = docPreview(resolved.Docs)

	emit(skilld.StatusEmbedding, "", pkg.Version)

	indexPath, err := fs.ResolveIndexPath(f.CacheRoot, pkg.Name, pkg.Version)
	if err != nil {
		return nil, err
	}
	indexable := indexableDocs(docs)
	if err := f.Indexer.CreateIndex(ctx, indexable, indexPath); err != nil {
		return nil, err
	}
	result.Indexed = len(indexable)

	if opts.GenerateSections && f.Summarizer != nil {
		emit(skilld.StatusGenerating, "", pkg.Version)
		sections, err := f.Summarizer.Summarize(ctx, pkg, resolved.Docs)
		if err != nil {
			// Sections are an enhancement, not part of the contract.
			emit(skilld.StatusGenerating, "section generation failed: "+skilld.ErrorMessage(err), pkg.Version)
		} else if len(sections) > 0 {
			if _, err := f.Store.Write(ctx, pkg.Name, pkg.Version, sections); err != nil {
				return nil, err
			}
		}
	}

	if err := f.writeLock(pkg, result); err != nil {
		return nil, err
	}

	emit(skilld.StatusDone, "", pkg.Version)
	return result, nil
}

// finishCached completes a run whose documentation fetch was skipped because
// the resolved version is already on disk. Auxiliary resources are still
// fetched when enabled and not yet cached, and the lockfile entry is still
// written so a fresh skills directory records the shared-cache package.
func (f *Fetcher) finishCached(ctx context.Context, pkg *skilld.ResolvedPackage, opts FetchOptions, result *FetchResult, emit func(phase skilld.SyncStatus, message, version string)) (*FetchResult, error) {
	result.Cached = true

	dir, err := fs.ResolveCacheDir(f.CacheRoot, pkg.Name, pkg.Version)
	if err != nil {
		return nil, err
	}
	result.CacheDir = dir

	extra := f.fetchResources(ctx, pkg, opts, result)
	if len(extra) > 0 {
		emit(skilld.StatusDownloading, "", pkg.Version)
		if _, err := f.Store.Write(ctx, pkg.Name, pkg.Version, extra); err != nil {
			return nil, err
		}
	}

	cached, err := f.Store.Read(ctx, pkg.Name, pkg.Version)
	if err != nil {
		return nil, err
	}
	result.Preview = docPreview(cached)
	if result.DocsType == "" {
		result.DocsType, result.DocSource = describeEntry(cached)
	}

	if len(extra) > 0 {
		emit(skilld.StatusEmbedding, "", pkg.Version)
		indexPath, err := fs.ResolveIndexPath(f.CacheRoot, pkg.Name, pkg.Version)
		if err != nil {
			return nil, err
		}
		indexable := indexableDocs(cached)
		if err := f.Indexer.CreateIndex(ctx, indexable, indexPath); err != nil {
			return nil, err
		}
		result.Indexed = len(indexable)
	}

	if err := f.writeLock(pkg, result); err != nil {
		return nil, err
	}

	emit(skilld.StatusDone, "already cached", pkg.Version)
	return result, nil
}

// fetchResources gathers the enabled auxiliary resources, skipping any whose
// cache subdirectory already exists. A resource failure is silently dropped;
// auxiliary material never fails a run.
func (f *Fetcher) fetchResources(ctx context.Context, pkg *skilld.ResolvedPackage, opts FetchOptions, result *FetchResult) []skilld.Doc {
	if f.Resources == nil || pkg.RepoURL == "" {
		return nil
	}

	var extra []skilld.Doc
	add := func(docs []skilld.Doc, err error, kind string, flag *bool) {
		if err != nil || len(docs) == 0 {
			return
		}
		extra = append(extra, docs...)
		extra = append(extra, resourceIndex(kind, docs))
		*flag = true
	}

	if opts.WithIssues {
		if f.Store.HasSubdir(pkg.Name, pkg.Version, "issues") {
			result.HasIssues = true
		} else {
			docs, err := f.Resources.FetchIssues(ctx, pkg.RepoURL)
			add(docs, err, "issues", &result.HasIssues)
		}
	}
	if opts.WithDiscussions {
		if f.Store.HasSubdir(pkg.Name, pkg.Version, "discussions") {
			result.HasDiscussions = true
		} else {
			docs, err := f.Resources.FetchDiscussions(ctx, pkg.RepoURL)
			add(docs, err, "discussions", &result.HasDiscussions)
		}
	}
	if opts.WithReleases {
		if f.Store.HasSubdir(pkg.Name, pkg.Version, "releases") {
			result.HasReleases = true
		} else {
			docs, err := f.Resources.FetchReleases(ctx, pkg.RepoURL)
			add(docs, err, "releases", &result.HasReleases)
		}
	}
	return extra
}

// describeEntry infers the documentation kind and primary source of an
// existing cache entry from its file layout. Used when the cascade stopped
// before the documentation sources ran.
func describeEntry(docs []skilld.Doc) (skilld.DocsType, skilld.Source) {
	var manifest, linked, gitDocs, readme bool
	for _, doc := range docs {
		switch {
		case doc.Path == "llms.txt":
			manifest = true
		case doc.Path == "docs/README.md":
			readme = true
		case strings.HasPrefix(doc.Path, "docs/"):
			gitDocs = true
		case strings.HasPrefix(doc.Path, "issues/"),
			strings.HasPrefix(doc.Path, "discussions/"),
			strings.HasPrefix(doc.Path, "releases/"),
			strings.HasPrefix(doc.Path, "sections/"):
		default:
			linked = true
		}
	}

	switch {
	case gitDocs:
		return skilld.DocsTypeDocs, skilld.SourceGitHubDocs
	case linked:
		return skilld.DocsTypeDocs, skilld.SourceLlmsTxt
	case manifest:
		return skilld.DocsTypeLlmsTxt, skilld.SourceLlmsTxt
	case readme:
		return skilld.DocsTypeReadme, skilld.SourceReadme
	default:
		return "", ""
	}
}

// docPreview returns the opening lines of the first document, bounded for
// display in sync summaries.
func docPreview(docs []skilld.Doc) string {
	if len(docs) == 0 {
		return ""
	}
	content := strings.TrimSpace(docs[0].Content)
	if i := strings.Index(content, "\n\n"); i > 0 {
		content = content[:i]
	}
	const maxRunes = 200
	if runes := []rune(content); len(runes) > maxRunes {
		content = strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return content
}

// resourceIndex builds the _INDEX.md listing for one resource subdirectory.
func resourceIndex(kind string, docs []skilld.Doc) skilld.Doc {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.ToUpper(kind[:1])+kind[1:])
	for _, doc := range docs {
		fmt.Fprintf(&b, "- %s\n", doc.Path)
	}
	return skilld.Doc{Path: kind + "/_INDEX.md", Content: b.String()}
}

// indexableDocs converts cached files to index entries. IDs are content
// hashes so a rebuilt index for identical material is identical.
func indexableDocs(docs []skilld.Doc) []skilld.IndexableDoc {
	out := make([]skilld.IndexableDoc, 0, len(docs))
	for _, doc := range docs {
		if strings.HasSuffix(doc.Path, "_INDEX.md") {
			continue
		}
		out = append(out, skilld.IndexableDoc{
			ID:      fmt.Sprintf("%016x", xxhash.Sum64String(doc.Path+"\x00"+doc.Content)),
			Content: doc.Content,
			Type:    docTypeForPath(doc.Path),
			Metadata: map[string]string{
				"path": doc.Path,
			},
		})
	}
	return out
}

func docTypeForPath(path string) skilld.DocType {
	switch {
	case strings.HasPrefix(path, "issues/"):
		return skilld.DocTypeIssue
	case strings.HasPrefix(path, "discussions/"):
		return skilld.DocTypeDiscussion
	case strings.HasPrefix(path, "releases/"):
		return skilld.DocTypeRelease
	default:
		return skilld.DocTypeDoc
	}
}

func (f *Fetcher) writeLock(pkg *skilld.ResolvedPackage, result *FetchResult) error {
	if f.SkillsDir == "" {
		return nil
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	f.lockMu.Lock()
	defer f.lockMu.Unlock()
	return lockfile.Write(f.SkillsDir, ArtifactName(pkg.Name), skilld.SkillInfo{
		PackageName: pkg.Name,
		Version:     pkg.Version,
		Repo:        pkg.RepoURL,
		Source:      string(result.DocSource),
		SyncedAt:    now().UTC().Format("2006-01-02"),
		Generator:   Generator,
		Path:        result.CacheDir,
		Ref:         pkg.GitRef,
	})
}

// ArtifactName derives the lockfile artifact name from a package name.
// Scoped names flatten to "scope-base".
func ArtifactName(name string) string {
	name = strings.TrimPrefix(name, "@")
	return strings.ReplaceAll(name, "/", "-")
}
