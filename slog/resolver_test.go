package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/mock"
	skilldslog "github.com/skilldhq/skilld/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("logs outcome with source and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Resolver{
			ResolveFn: func(_ context.Context, name string, _ skilld.ResolveOptions) (*skilld.ResolveResult, error) {
				return &skilld.ResolveResult{
					Package:   &skilld.ResolvedPackage{Name: name, Version: "19.0.0"},
					DocSource: skilld.SourceGitHubDocs,
					DocsType:  skilld.DocsTypeDocs,
					Docs:      []skilld.Doc{{Path: "docs/hooks.md"}},
				}, nil
			},
		}

		resolver := skilldslog.NewLoggingResolver(inner, logger)
		result, err := resolver.Resolve(context.Background(), "react", skilld.ResolveOptions{})

		require.NoError(t, err)
		require.NotNil(t, result.Package)
		output := buf.String()
		assert.Contains(t, output, "resolve")
		assert.Contains(t, output, "package=react")
		assert.Contains(t, output, "version=19.0.0")
		assert.Contains(t, output, "source=github-docs")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Resolver{
			ResolveFn: func(_ context.Context, _ string, _ skilld.ResolveOptions) (*skilld.ResolveResult, error) {
				return nil, skilld.Errorf(skilld.EUNAVAILABLE, "registry returned status 502")
			},
		}

		resolver := skilldslog.NewLoggingResolver(inner, logger)
		_, err := resolver.Resolve(context.Background(), "react", skilld.ResolveOptions{})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "err=\"registry returned status 502\"")
	})
}

func TestLoggingStore_Write(t *testing.T) {
	t.Parallel()

	t.Run("logs doc count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.CacheStore{
			WriteFn: func(_ context.Context, _, _ string, _ []skilld.Doc) (string, error) {
				return "/cache/react@19.0.0", nil
			},
		}

		store := skilldslog.NewLoggingStore(inner, logger)
		dir, err := store.Write(context.Background(), "react", "19.0.0", []skilld.Doc{{Path: "docs/a.md"}, {Path: "docs/b.md"}})

		require.NoError(t, err)
		assert.Equal(t, "/cache/react@19.0.0", dir)
		output := buf.String()
		assert.Contains(t, output, "cache write")
		assert.Contains(t, output, "docs=2")
	})

	t.Run("logs projection result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.CacheStore{
			LinkIntoFn: func(_, _, _, _ string) (skilld.LinkResult, error) {
				return skilld.LinkSkipped, nil
			},
		}

		store := skilldslog.NewLoggingStore(inner, logger)
		result, err := store.LinkInto("/skills/react", "react", "19.0.0", "issues")

		require.NoError(t, err)
		assert.Equal(t, skilld.LinkSkipped, result)
		assert.Contains(t, buf.String(), "result=skipped")
	})
}
