package mock

import (
	"context"

	"github.com/skilldhq/skilld"
)

var _ skilld.GitDocsFetcher = (*GitDocsFetcher)(nil)

// GitDocsFetcher is a mock implementation of skilld.GitDocsFetcher.
type GitDocsFetcher struct {
	FetchGitDocsFn func(ctx context.Context, repoURL, ref, dir string) ([]skilld.Doc, error)
}

func (f *GitDocsFetcher) FetchGitDocs(ctx context.Context, repoURL, ref, dir string) ([]skilld.Doc, error) {
	return f.FetchGitDocsFn(ctx, repoURL, ref, dir)
}

var _ skilld.LlmsTxtFetcher = (*LlmsTxtFetcher)(nil)

// LlmsTxtFetcher is a mock implementation of skilld.LlmsTxtFetcher.
type LlmsTxtFetcher struct {
	FetchLlmsTxtFn func(ctx context.Context, url string) ([]skilld.Doc, error)
}

func (f *LlmsTxtFetcher) FetchLlmsTxt(ctx context.Context, url string) ([]skilld.Doc, error) {
	return f.FetchLlmsTxtFn(ctx, url)
}

var _ skilld.ReadmeFetcher = (*ReadmeFetcher)(nil)

// ReadmeFetcher is a mock implementation of skilld.ReadmeFetcher.
type ReadmeFetcher struct {
	FetchReadmeFn func(ctx context.Context, pkg *skilld.ResolvedPackage) (skilld.Doc, error)
}

func (f *ReadmeFetcher) FetchReadme(ctx context.Context, pkg *skilld.ResolvedPackage) (skilld.Doc, error) {
	return f.FetchReadmeFn(ctx, pkg)
}

var _ skilld.LocalResolver = (*LocalResolver)(nil)

// LocalResolver is a mock implementation of skilld.LocalResolver.
type LocalResolver struct {
	ResolveLocalFn func(ctx context.Context, name, cwd string) (*skilld.ResolvedPackage, []skilld.Doc, error)
}

func (r *LocalResolver) ResolveLocal(ctx context.Context, name, cwd string) (*skilld.ResolvedPackage, []skilld.Doc, error) {
	return r.ResolveLocalFn(ctx, name, cwd)
}
