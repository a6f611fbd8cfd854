package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/lockfile"
	"github.com/skilldhq/skilld/mock"
	"github.com/skilldhq/skilld/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverWith(result *skilld.ResolveResult) *mock.Resolver {
	return &mock.Resolver{
		ResolveFn: func(_ context.Context, _ string, _ skilld.ResolveOptions) (*skilld.ResolveResult, error) {
			return result, nil
		},
	}
}

func resolvedReact() *skilld.ResolveResult {
	return &skilld.ResolveResult{
		Package: &skilld.ResolvedPackage{
			Name:    "react",
			Version: "19.0.0",
			RepoURL: "https://github.com/facebook/react",
			GitRef:  "v19.0.0",
		},
		Attempts: []skilld.ResolveAttempt{
			{Source: skilld.SourceNPM, Status: skilld.AttemptSuccess},
			{Source: skilld.SourceGitHubDocs, Status: skilld.AttemptSuccess},
		},
		DocsType:  skilld.DocsTypeDocs,
		DocSource: skilld.SourceGitHubDocs,
		Docs: []skilld.Doc{
			{Path: "docs/hooks.md", Content: "# Hooks"},
			{Path: "docs/components.md", Content: "# Components"},
		},
	}
}

func passiveStore() *mock.CacheStore {
	return &mock.CacheStore{
		IsCachedFn:  func(_, _ string) bool { return false },
		HasSubdirFn: func(_, _, _ string) bool { return false },
		WriteFn: func(_ context.Context, name, version string, _ []skilld.Doc) (string, error) {
			return "/cache/" + name + "@" + version, nil
		},
	}
}

// cachedReact simulates the files on disk for an already cached react entry.
func cachedReact() []skilld.Doc {
	return []skilld.Doc{
		{Path: "docs/hooks.md", Content: "# Hooks"},
		{Path: "docs/components.md", Content: "# Components"},
	}
}

func passiveIndexer() *mock.Indexer {
	return &mock.Indexer{
		CreateIndexFn: func(_ context.Context, _ []skilld.IndexableDoc, _ string) error { return nil },
		RemoveIndexFn: func(_ string) (bool, error) { return false, nil },
	}
}

func TestFetcher_FetchAndCache(t *testing.T) {
	t.Parallel()

	t.Run("writes docs, index and lockfile on success", func(t *testing.T) {
		t.Parallel()

		skillsDir := t.TempDir()
		var written []skilld.Doc
		var indexed []skilld.IndexableDoc

		f := &pipeline.Fetcher{
			Resolver: resolverWith(resolvedReact()),
			Store: &mock.CacheStore{
				IsCachedFn: func(_, _ string) bool { return false },
				WriteFn: func(_ context.Context, name, version string, docs []skilld.Doc) (string, error) {
					written = docs
					return "/cache/" + name + "@" + version, nil
				},
			},
			Indexer: &mock.Indexer{
				CreateIndexFn: func(_ context.Context, docs []skilld.IndexableDoc, dbPath string) error {
					indexed = docs
					assert.Contains(t, dbPath, "react@19.0.0.db")
					return nil
				},
			},
			CacheRoot: t.TempDir(),
			SkillsDir: skillsDir,
			Now: func() time.Time {
				return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
			},
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{}, nil)

		require.NoError(t, err)
		assert.False(t, result.Cached)
		assert.Equal(t, "/cache/react@19.0.0", result.CacheDir)
		assert.Equal(t, "# Hooks", result.Preview)
		assert.Len(t, written, 2)
		require.Len(t, indexed, 2)
		assert.Equal(t, skilld.DocTypeDoc, indexed[0].Type)
		assert.NotEmpty(t, indexed[0].ID)
		assert.NotEqual(t, indexed[0].ID, indexed[1].ID)

		lock, err := lockfile.Read(skillsDir)
		require.NoError(t, err)
		info, ok := lock.Get("react")
		require.True(t, ok)
		assert.Equal(t, "react", info.PackageName)
		assert.Equal(t, "19.0.0", info.Version)
		assert.Equal(t, "github-docs", info.Source)
		assert.Equal(t, "2026-08-30", info.SyncedAt)
		assert.Equal(t, "v19.0.0", info.Ref)
		assert.Equal(t, "skilld", info.Generator)
	})

	t.Run("skips fetching when the version is already cached", func(t *testing.T) {
		t.Parallel()

		f := &pipeline.Fetcher{
			Resolver: resolverWith(resolvedReact()),
			Store: &mock.CacheStore{
				IsCachedFn: func(name, version string) bool {
					return name == "react" && version == "19.0.0"
				},
				WriteFn: func(_ context.Context, _, _ string, _ []skilld.Doc) (string, error) {
					t.Fatal("cached package must not be written")
					return "", nil
				},
				ReadFn: func(_ context.Context, _, _ string) ([]skilld.Doc, error) {
					return cachedReact(), nil
				},
			},
			Indexer:   passiveIndexer(),
			CacheRoot: t.TempDir(),
		}

		var phases []skilld.SyncStatus
		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{}, func(e skilld.ProgressEvent) {
			phases = append(phases, e.Phase)
		})

		require.NoError(t, err)
		assert.True(t, result.Cached)
		assert.Equal(t, []skilld.SyncStatus{skilld.StatusResolving, skilld.StatusDone}, phases)
	})

	t.Run("cascade is stopped before fetching for cached versions", func(t *testing.T) {
		t.Parallel()

		f := &pipeline.Fetcher{
			Resolver: &mock.Resolver{
				ResolveFn: func(_ context.Context, _ string, opts skilld.ResolveOptions) (*skilld.ResolveResult, error) {
					require.NotNil(t, opts.SkipDocs)
					require.True(t, opts.SkipDocs("react", "19.0.0"))
					return &skilld.ResolveResult{
						Package:     &skilld.ResolvedPackage{Name: "react", Version: "19.0.0"},
						Attempts:    []skilld.ResolveAttempt{{Source: skilld.SourceNPM, Status: skilld.AttemptSuccess}},
						DocsSkipped: true,
					}, nil
				},
			},
			Store: &mock.CacheStore{
				IsCachedFn: func(name, version string) bool {
					return name == "react" && version == "19.0.0"
				},
				ReadFn: func(_ context.Context, _, _ string) ([]skilld.Doc, error) {
					return cachedReact(), nil
				},
			},
			Indexer:   passiveIndexer(),
			CacheRoot: t.TempDir(),
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{}, nil)

		require.NoError(t, err)
		assert.True(t, result.Cached)
		assert.Equal(t, skilld.DocsTypeDocs, result.DocsType)
		assert.Equal(t, skilld.SourceGitHubDocs, result.DocSource)
	})

	t.Run("force never asks the cascade to skip docs", func(t *testing.T) {
		t.Parallel()

		f := &pipeline.Fetcher{
			Resolver: &mock.Resolver{
				ResolveFn: func(_ context.Context, _ string, opts skilld.ResolveOptions) (*skilld.ResolveResult, error) {
					assert.Nil(t, opts.SkipDocs)
					return resolvedReact(), nil
				},
			},
			Store: &mock.CacheStore{
				IsCachedFn: func(_, _ string) bool { return true },
				ClearFn:    func(_, _ string) (bool, error) { return true, nil },
				WriteFn: func(_ context.Context, name, version string, _ []skilld.Doc) (string, error) {
					return "/cache/" + name + "@" + version, nil
				},
			},
			Indexer:   passiveIndexer(),
			CacheRoot: t.TempDir(),
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{Force: true}, nil)

		require.NoError(t, err)
		assert.False(t, result.Cached)
	})

	t.Run("cached package still gets missing resources", func(t *testing.T) {
		t.Parallel()

		var written []skilld.Doc
		var indexed []skilld.IndexableDoc
		f := &pipeline.Fetcher{
			Resolver: resolverWith(&skilld.ResolveResult{
				Package: &skilld.ResolvedPackage{
					Name:    "react",
					Version: "19.0.0",
					RepoURL: "https://github.com/facebook/react",
				},
				DocsSkipped: true,
			}),
			Store: &mock.CacheStore{
				IsCachedFn:  func(_, _ string) bool { return true },
				HasSubdirFn: func(_, _, _ string) bool { return false },
				WriteFn: func(_ context.Context, _, _ string, docs []skilld.Doc) (string, error) {
					written = docs
					return "/cache/react@19.0.0", nil
				},
				ReadFn: func(_ context.Context, _, _ string) ([]skilld.Doc, error) {
					return append(cachedReact(),
						skilld.Doc{Path: "issues/42.md", Content: "# Issue 42"},
						skilld.Doc{Path: "issues/_INDEX.md", Content: "# Issues"},
					), nil
				},
			},
			Indexer: &mock.Indexer{
				CreateIndexFn: func(_ context.Context, docs []skilld.IndexableDoc, _ string) error {
					indexed = docs
					return nil
				},
			},
			Resources: &mock.ResourceFetcher{
				FetchIssuesFn: func(_ context.Context, _ string) ([]skilld.Doc, error) {
					return []skilld.Doc{{Path: "issues/42.md", Content: "# Issue 42"}}, nil
				},
			},
			CacheRoot: t.TempDir(),
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{WithIssues: true}, nil)

		require.NoError(t, err)
		assert.True(t, result.Cached)
		assert.True(t, result.HasIssues)

		paths := make([]string, 0, len(written))
		for _, doc := range written {
			paths = append(paths, doc.Path)
		}
		assert.Contains(t, paths, "issues/42.md")
		assert.Contains(t, paths, "issues/_INDEX.md")

		// The index is rebuilt over the whole entry, docs included.
		require.Len(t, indexed, 3)
	})

	t.Run("cached resources are not refetched", func(t *testing.T) {
		t.Parallel()

		f := &pipeline.Fetcher{
			Resolver: resolverWith(&skilld.ResolveResult{
				Package: &skilld.ResolvedPackage{
					Name:    "react",
					Version: "19.0.0",
					RepoURL: "https://github.com/facebook/react",
				},
				DocsSkipped: true,
			}),
			Store: &mock.CacheStore{
				IsCachedFn:  func(_, _ string) bool { return true },
				HasSubdirFn: func(_, _, subdir string) bool { return subdir == "issues" },
				WriteFn: func(_ context.Context, _, _ string, _ []skilld.Doc) (string, error) {
					t.Fatal("nothing new to write")
					return "", nil
				},
				ReadFn: func(_ context.Context, _, _ string) ([]skilld.Doc, error) {
					return cachedReact(), nil
				},
			},
			Indexer: passiveIndexer(),
			Resources: &mock.ResourceFetcher{
				FetchIssuesFn: func(_ context.Context, _ string) ([]skilld.Doc, error) {
					t.Fatal("cached issues must not be refetched")
					return nil, nil
				},
			},
			CacheRoot: t.TempDir(),
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{WithIssues: true}, nil)

		require.NoError(t, err)
		assert.True(t, result.HasIssues)
	})

	t.Run("cached package is recorded in a fresh lockfile", func(t *testing.T) {
		t.Parallel()

		skillsDir := t.TempDir()
		f := &pipeline.Fetcher{
			Resolver: resolverWith(&skilld.ResolveResult{
				Package: &skilld.ResolvedPackage{
					Name:    "react",
					Version: "19.0.0",
					RepoURL: "https://github.com/facebook/react",
				},
				DocsSkipped: true,
			}),
			Store: &mock.CacheStore{
				IsCachedFn: func(_, _ string) bool { return true },
				ReadFn: func(_ context.Context, _, _ string) ([]skilld.Doc, error) {
					return cachedReact(), nil
				},
			},
			Indexer:   passiveIndexer(),
			CacheRoot: t.TempDir(),
			SkillsDir: skillsDir,
		}

		_, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{}, nil)

		require.NoError(t, err)
		lock, err := lockfile.Read(skillsDir)
		require.NoError(t, err)
		info, ok := lock.Get("react")
		require.True(t, ok)
		assert.Equal(t, "19.0.0", info.Version)
		assert.Equal(t, "github-docs", info.Source)
	})

	t.Run("force clears the entry and its index before refetching", func(t *testing.T) {
		t.Parallel()

		var cleared, indexRemoved bool
		f := &pipeline.Fetcher{
			Resolver: resolverWith(resolvedReact()),
			Store: &mock.CacheStore{
				IsCachedFn: func(_, _ string) bool { return true },
				ClearFn: func(_, _ string) (bool, error) {
					cleared = true
					return true, nil
				},
				WriteFn: func(_ context.Context, name, version string, _ []skilld.Doc) (string, error) {
					return "/cache/" + name + "@" + version, nil
				},
			},
			Indexer: &mock.Indexer{
				CreateIndexFn: func(_ context.Context, _ []skilld.IndexableDoc, _ string) error { return nil },
				RemoveIndexFn: func(_ string) (bool, error) {
					indexRemoved = true
					return true, nil
				},
			},
			CacheRoot: t.TempDir(),
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{Force: true}, nil)

		require.NoError(t, err)
		assert.False(t, result.Cached)
		assert.True(t, cleared)
		assert.True(t, indexRemoved)
	})

	t.Run("total miss surfaces the registry message", func(t *testing.T) {
		t.Parallel()

		f := &pipeline.Fetcher{
			Resolver: resolverWith(&skilld.ResolveResult{
				Attempts: []skilld.ResolveAttempt{
					{Source: skilld.SourceNPM, Status: skilld.AttemptNotFound, Message: `package "nope" not found on registry`},
				},
			}),
			Store:     passiveStore(),
			Indexer:   passiveIndexer(),
			CacheRoot: t.TempDir(),
		}

		_, err := f.FetchAndCache(context.Background(), "nope", pipeline.FetchOptions{}, nil)

		assert.Equal(t, skilld.ENOTFOUND, skilld.ErrorCode(err))
		assert.Equal(t, `package "nope" not found on registry`, skilld.ErrorMessage(err))
	})

	t.Run("issues are fetched only when enabled and get an index file", func(t *testing.T) {
		t.Parallel()

		var written []skilld.Doc
		var indexed []skilld.IndexableDoc
		f := &pipeline.Fetcher{
			Resolver: resolverWith(resolvedReact()),
			Store: &mock.CacheStore{
				IsCachedFn:  func(_, _ string) bool { return false },
				HasSubdirFn: func(_, _, _ string) bool { return false },
				WriteFn: func(_ context.Context, _, _ string, docs []skilld.Doc) (string, error) {
					written = docs
					return "/cache/react@19.0.0", nil
				},
			},
			Indexer: &mock.Indexer{
				CreateIndexFn: func(_ context.Context, docs []skilld.IndexableDoc, _ string) error {
					indexed = docs
					return nil
				},
			},
			Resources: &mock.ResourceFetcher{
				FetchIssuesFn: func(_ context.Context, repoURL string) ([]skilld.Doc, error) {
					assert.Equal(t, "https://github.com/facebook/react", repoURL)
					return []skilld.Doc{{Path: "issues/42.md", Content: "# Issue 42"}}, nil
				},
				FetchDiscussionsFn: func(_ context.Context, _ string) ([]skilld.Doc, error) {
					t.Fatal("discussions are not enabled")
					return nil, nil
				},
			},
			CacheRoot: t.TempDir(),
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{WithIssues: true}, nil)

		require.NoError(t, err)
		assert.True(t, result.HasIssues)
		assert.False(t, result.HasDiscussions)

		paths := make([]string, 0, len(written))
		for _, doc := range written {
			paths = append(paths, doc.Path)
		}
		assert.Contains(t, paths, "issues/42.md")
		assert.Contains(t, paths, "issues/_INDEX.md")

		// The listing file never enters the search index.
		require.Len(t, indexed, 3)
		types := map[skilld.DocType]int{}
		for _, doc := range indexed {
			types[doc.Type]++
		}
		assert.Equal(t, 2, types[skilld.DocTypeDoc])
		assert.Equal(t, 1, types[skilld.DocTypeIssue])
	})

	t.Run("resource failure never fails the run", func(t *testing.T) {
		t.Parallel()

		f := &pipeline.Fetcher{
			Resolver: resolverWith(resolvedReact()),
			Store:    passiveStore(),
			Indexer:  passiveIndexer(),
			Resources: &mock.ResourceFetcher{
				FetchReleasesFn: func(_ context.Context, _ string) ([]skilld.Doc, error) {
					return nil, skilld.Errorf(skilld.EUNAVAILABLE, "rate limited")
				},
			},
			CacheRoot: t.TempDir(),
		}

		result, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{WithReleases: true}, nil)

		require.NoError(t, err)
		assert.False(t, result.HasReleases)
	})

	t.Run("summarizer failure never fails the run", func(t *testing.T) {
		t.Parallel()

		f := &pipeline.Fetcher{
			Resolver: resolverWith(resolvedReact()),
			Store:    passiveStore(),
			Indexer:  passiveIndexer(),
			Summarizer: &mock.Summarizer{
				SummarizeFn: func(_ context.Context, _ *skilld.ResolvedPackage, _ []skilld.Doc) ([]skilld.Doc, error) {
					return nil, skilld.Errorf(skilld.EUNAVAILABLE, "model unavailable")
				},
			},
			CacheRoot: t.TempDir(),
		}

		_, err := f.FetchAndCache(context.Background(), "react", pipeline.FetchOptions{GenerateSections: true}, nil)

		require.NoError(t, err)
	})
}

func TestArtifactName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "react", pipeline.ArtifactName("react"))
	assert.Equal(t, "tanstack-react-query", pipeline.ArtifactName("@tanstack/react-query"))
}
