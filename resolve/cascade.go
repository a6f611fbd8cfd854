// Package resolve implements the documentation source cascade: a fixed,
// priority-ordered sequence of upstream sources tried for one package, with
// an append-only attempt log explaining every decision.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/skilldhq/skilld"
)

// DefaultShallowThreshold is the quality bar for a git-hosted docs folder:
// fewer files than this, with an llms.txt alternative known, and the folder
// is treated as failed so the cascade falls through.
const DefaultShallowThreshold = 5

// DefaultGitDocsDir is the repository folder probed for versioned docs.
const DefaultGitDocsDir = "docs"

// Ensure Cascade implements skilld.Resolver at compile time.
var _ skilld.Resolver = (*Cascade)(nil)

// Cascade resolves documentation for one package by querying upstream
// sources in strict priority order, short-circuiting on the first source
// that yields usable material. A single source's failure is recorded and
// never aborts the cascade; only a registry miss is terminal.
type Cascade struct {
	Registry skilld.RegistryClient
	GitDocs  skilld.GitDocsFetcher
	LlmsTxt  skilld.LlmsTxtFetcher
	Readme   skilld.ReadmeFetcher
	Local    skilld.LocalResolver

	// ShallowThreshold overrides DefaultShallowThreshold when positive.
	ShallowThreshold int

	// GitDocsDir overrides DefaultGitDocsDir when set.
	GitDocsDir string
}

// Resolve runs the cascade for name. The returned result always carries the
// full attempt log; Package is nil when no source could identify the
// package at all.
func (c *Cascade) Resolve(ctx context.Context, name string, opts skilld.ResolveOptions) (*skilld.ResolveResult, error) {
	if name == "" {
		return nil, skilld.Errorf(skilld.EINVALID, "package name required")
	}

	result := &skilld.ResolveResult{}

	// Registry lookup always comes first; it yields facts, never content.
	pkg, err := c.Registry.ResolvePackage(ctx, name, opts.Version)
	switch {
	case err == nil:
		result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
			Source: skilld.SourceNPM,
			Status: skilld.AttemptSuccess,
		})
	case skilld.ErrorCode(err) == skilld.ENOTFOUND:
		result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
			Source:  skilld.SourceNPM,
			Status:  skilld.AttemptNotFound,
			Message: skilld.ErrorMessage(err),
		})
		// Registry miss is terminal for remote sources. The local link:
		// path is the one lower-priority fallback, available only when the
		// caller supplied a consumer directory.
		c.resolveLocal(ctx, name, opts, result)
		return result, nil
	default:
		result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
			Source:  skilld.SourceNPM,
			Status:  skilld.AttemptError,
			Message: skilld.ErrorMessage(err),
		})
		return result, nil
	}

	result.Package = pkg

	// The caller can stop the cascade here, before any source downloads
	// content. Used to avoid refetching material that is already cached at
	// the resolved version.
	if opts.SkipDocs != nil && opts.SkipDocs(pkg.Name, pkg.Version) {
		result.DocsSkipped = true
		return result, nil
	}

	llmsURL := c.candidateLlmsURL(pkg)

	// Versioned git docs.
	gitDocs := c.resolveGitDocs(ctx, pkg, llmsURL, result)
	if len(gitDocs) > 0 {
		result.Docs = gitDocs
		result.DocsType = skilld.DocsTypeDocs
		result.DocSource = skilld.SourceGitHubDocs
	}

	// llms.txt manifest: primary when git docs did not win, supplementary
	// (both kept, docsType stays "docs") when they did.
	if llmsURL != "" && c.LlmsTxt != nil {
		llmsDocs, err := c.LlmsTxt.FetchLlmsTxt(ctx, llmsURL)
		switch {
		case err == nil:
			result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
				Source: skilld.SourceLlmsTxt,
				Status: skilld.AttemptSuccess,
			})
			pkg.LlmsURL = llmsURL
			result.Docs = append(result.Docs, llmsDocs...)
			if result.DocsType == "" {
				result.DocSource = skilld.SourceLlmsTxt
				if len(llmsDocs) > 1 {
					result.DocsType = skilld.DocsTypeDocs
				} else {
					result.DocsType = skilld.DocsTypeLlmsTxt
				}
			}
		case skilld.ErrorCode(err) == skilld.ENOTFOUND:
			result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
				Source:  skilld.SourceLlmsTxt,
				Status:  skilld.AttemptNotFound,
				Message: skilld.ErrorMessage(err),
			})
		default:
			result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
				Source:  skilld.SourceLlmsTxt,
				Status:  skilld.AttemptError,
				Message: skilld.ErrorMessage(err),
			})
		}
	}

	// README fallback: only when no prior source produced any document.
	if len(result.Docs) == 0 && c.Readme != nil {
		readme, err := c.Readme.FetchReadme(ctx, pkg)
		if err == nil {
			result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
				Source: skilld.SourceReadme,
				Status: skilld.AttemptSuccess,
			})
			result.Docs = []skilld.Doc{readme}
			result.DocsType = skilld.DocsTypeReadme
			result.DocSource = skilld.SourceReadme
		} else {
			status := skilld.AttemptError
			if skilld.ErrorCode(err) == skilld.ENOTFOUND {
				status = skilld.AttemptNotFound
			}
			result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
				Source:  skilld.SourceReadme,
				Status:  status,
				Message: skilld.ErrorMessage(err),
			})
		}
	}

	return result, nil
}

// resolveGitDocs probes the repository docs folder at refs derived from the
// resolved version, applying the shallow quality gate.
func (c *Cascade) resolveGitDocs(ctx context.Context, pkg *skilld.ResolvedPackage, llmsURL string, result *skilld.ResolveResult) []skilld.Doc {
	if c.GitDocs == nil || pkg.RepoURL == "" {
		return nil
	}

	dir := c.GitDocsDir
	if dir == "" {
		dir = DefaultGitDocsDir
	}

	var lastErr error
	for _, ref := range []string{"v" + pkg.Version, pkg.Version} {
		docs, err := c.GitDocs.FetchGitDocs(ctx, pkg.RepoURL, ref, dir)
		if err != nil {
			lastErr = err
			continue
		}

		threshold := c.ShallowThreshold
		if threshold <= 0 {
			threshold = DefaultShallowThreshold
		}
		if len(docs) < threshold && llmsURL != "" {
			// A few stray files from a git folder are worse than a complete
			// llms.txt tree: discard the partial result and fall through.
			result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
				Source:  skilld.SourceGitHubDocs,
				Status:  skilld.AttemptError,
				Message: fmt.Sprintf("shallow docs folder (%d files) at %s, deferring to llms.txt", len(docs), ref),
			})
			return nil
		}

		result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
			Source: skilld.SourceGitHubDocs,
			Status: skilld.AttemptSuccess,
		})
		pkg.GitRef = ref
		pkg.GitDocsURL = strings.TrimSuffix(pkg.RepoURL, "/") + "/tree/" + ref + "/" + dir
		return docs
	}

	status := skilld.AttemptError
	if skilld.ErrorCode(lastErr) == skilld.ENOTFOUND {
		status = skilld.AttemptNotFound
	}
	result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
		Source:  skilld.SourceGitHubDocs,
		Status:  status,
		Message: skilld.ErrorMessage(lastErr),
	})
	return nil
}

// resolveLocal tries the link: protocol fallback after a registry miss.
func (c *Cascade) resolveLocal(ctx context.Context, name string, opts skilld.ResolveOptions, result *skilld.ResolveResult) {
	if c.Local == nil || opts.CWD == "" {
		return
	}

	pkg, docs, err := c.Local.ResolveLocal(ctx, name, opts.CWD)
	if err != nil {
		status := skilld.AttemptError
		if skilld.ErrorCode(err) == skilld.ENOTFOUND {
			status = skilld.AttemptNotFound
		}
		result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
			Source:  skilld.SourceLocal,
			Status:  status,
			Message: skilld.ErrorMessage(err),
		})
		return
	}

	result.Attempts = append(result.Attempts, skilld.ResolveAttempt{
		Source: skilld.SourceLocal,
		Status: skilld.AttemptSuccess,
	})
	result.Package = pkg
	result.Docs = docs
	result.DocSource = skilld.SourceLocal
	if len(docs) > 0 {
		result.DocsType = skilld.DocsTypeReadme
	}
}

// candidateLlmsURL returns the llms.txt location to probe: an explicitly
// known URL, or one derived from the docs homepage.
func (c *Cascade) candidateLlmsURL(pkg *skilld.ResolvedPackage) string {
	if pkg.LlmsURL != "" {
		return pkg.LlmsURL
	}
	if pkg.DocsURL != "" {
		return strings.TrimSuffix(pkg.DocsURL, "/") + "/llms.txt"
	}
	return ""
}

// FailureReason returns the most actionable message for a total miss:
// the registry attempt's message when present, otherwise every non-success
// message joined.
func FailureReason(attempts []skilld.ResolveAttempt) string {
	var messages []string
	for _, attempt := range attempts {
		if attempt.Source == skilld.SourceNPM && attempt.Status != skilld.AttemptSuccess && attempt.Message != "" {
			return attempt.Message
		}
		if attempt.Status != skilld.AttemptSuccess && attempt.Message != "" {
			messages = append(messages, attempt.Message)
		}
	}
	if len(messages) == 0 {
		return "no documentation source succeeded"
	}
	return strings.Join(messages, "; ")
}
