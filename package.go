package skilld

import (
	"context"
	"time"
)

// ResolvedPackage holds the metadata discovered for one package during a
// single pipeline run. It is immutable once produced by the cascade.
type ResolvedPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"` // concrete version, never a range
	Description string `json:"description,omitempty"`

	// RepoURL is the normalized source repository URL.
	RepoURL string `json:"repoUrl,omitempty"`

	// DocsURL is the documentation homepage, filtered to exclude
	// social-media and registry URLs.
	DocsURL string `json:"docsUrl,omitempty"`

	// LlmsURL points at an llms.txt manifest, when known.
	LlmsURL string `json:"llmsUrl,omitempty"`

	ReadmeURL string `json:"readmeUrl,omitempty"`

	// GitDocsURL and GitRef identify a versioned docs folder inside the
	// source repository at a specific tag. Set by the cascade after a
	// successful git-docs fetch.
	GitDocsURL string `json:"gitDocsUrl,omitempty"`
	GitRef     string `json:"gitRef,omitempty"`

	ReleasedAt   time.Time         `json:"releasedAt,omitzero"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	DistTags     map[string]string `json:"distTags,omitempty"`
}

// Source identifies one upstream documentation source in the cascade.
type Source string

// Cascade sources in priority order.
const (
	SourceNPM          Source = "npm"
	SourceGitHubDocs   Source = "github-docs"
	SourceGitHubMeta   Source = "github-meta"
	SourceGitHubSearch Source = "github-search"
	SourceReadme       Source = "readme"
	SourceLlmsTxt      Source = "llms.txt"
	SourceLocal        Source = "local"
)

// AttemptStatus is the outcome of querying one source.
type AttemptStatus string

// Attempt outcomes.
const (
	AttemptSuccess  AttemptStatus = "success"
	AttemptNotFound AttemptStatus = "not-found"
	AttemptError    AttemptStatus = "error"
)

// ResolveAttempt records the outcome of querying one source. The cascade
// appends exactly one attempt per source tried; attempts are never discarded,
// even on overall success, so operators can see why a lower-priority source
// was skipped.
type ResolveAttempt struct {
	Source  Source        `json:"source"`
	Status  AttemptStatus `json:"status"`
	Message string        `json:"message,omitempty"`
}

// DocsType reports which kind of material the cascade materialized.
type DocsType string

// Materialized documentation kinds.
const (
	// DocsTypeDocs means git docs or llms.txt-linked files were materialized.
	DocsTypeDocs DocsType = "docs"
	// DocsTypeLlmsTxt means only the manifest itself was resolved.
	DocsTypeLlmsTxt DocsType = "llms.txt"
	// DocsTypeReadme means the README fallback was used.
	DocsTypeReadme DocsType = "readme"
)

// ResolveOptions configures a single resolution.
type ResolveOptions struct {
	// Version pins a concrete version or dist-tag. Empty means latest.
	Version string

	// CWD enables the local link: fallback for packages declared as
	// filesystem symlink dependencies in the consumer's manifest.
	CWD string

	// SkipDocs, when set, is consulted once the registry has identified the
	// concrete version. Returning true stops the cascade before any
	// documentation source fetches content; the result then carries
	// metadata only, with DocsSkipped set.
	SkipDocs func(name, version string) bool
}

// ResolveResult is the outcome of running the cascade for one package.
// Package is nil when no source could identify the package; Attempts always
// records every source tried.
type ResolveResult struct {
	Package  *ResolvedPackage
	Attempts []ResolveAttempt

	// DocsType reports the effective documentation source. Unset when no
	// source produced material.
	DocsType DocsType

	// DocSource is the source that produced the primary material.
	DocSource Source

	// Docs is the material from the chosen source, keyed by cache-relative
	// path. Supplementary llms.txt material is included when git docs won.
	Docs []Doc

	// DocsSkipped is true when SkipDocs stopped the cascade after the
	// registry step. Docs is empty and DocsType unset in that case.
	DocsSkipped bool
}

// Resolver discovers documentation material for a package.
type Resolver interface {
	Resolve(ctx context.Context, name string, opts ResolveOptions) (*ResolveResult, error)
}

// RegistryClient resolves base package metadata from a package registry.
// It never yields documentation content, only facts used by later sources.
type RegistryClient interface {
	// ResolvePackage resolves name at version (empty or a dist-tag means
	// latest). Returns ENOTFOUND when the package or version does not exist.
	ResolvePackage(ctx context.Context, name, version string) (*ResolvedPackage, error)
}

// GitDocsFetcher enumerates and fetches a docs folder in a source repository
// at a specific ref.
type GitDocsFetcher interface {
	// FetchGitDocs returns every markdown file under dir at ref, keyed by
	// cache-relative path. Returns ENOTFOUND when the ref or folder is absent.
	FetchGitDocs(ctx context.Context, repoURL, ref, dir string) ([]Doc, error)
}

// LlmsTxtFetcher fetches an llms.txt manifest and the files it links.
type LlmsTxtFetcher interface {
	// FetchLlmsTxt returns the manifest (path "llms.txt") followed by every
	// linked file that could be fetched, keyed by cache-relative path.
	FetchLlmsTxt(ctx context.Context, url string) ([]Doc, error)
}

// ReadmeFetcher fetches a package README as a last-resort source.
type ReadmeFetcher interface {
	FetchReadme(ctx context.Context, pkg *ResolvedPackage) (Doc, error)
}

// LocalResolver resolves a package declared as a link: dependency in the
// consumer's manifest directly from the local package directory.
type LocalResolver interface {
	ResolveLocal(ctx context.Context, name, cwd string) (*ResolvedPackage, []Doc, error)
}

// ResourceFetcher fetches auxiliary repository resources. Each method
// returns files keyed by cache-relative path under the resource's own
// subdirectory (issues/, discussions/, releases/).
type ResourceFetcher interface {
	FetchIssues(ctx context.Context, repoURL string) ([]Doc, error)
	FetchDiscussions(ctx context.Context, repoURL string) ([]Doc, error)
	FetchReleases(ctx context.Context, repoURL string) ([]Doc, error)
}

// Summarizer generates reusable section summaries from cached documentation.
type Summarizer interface {
	// Summarize returns generated files keyed by cache-relative path under
	// sections/.
	Summarize(ctx context.Context, pkg *ResolvedPackage, docs []Doc) ([]Doc, error)
}
