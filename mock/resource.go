package mock

import (
	"context"

	"github.com/skilldhq/skilld"
)

var _ skilld.ResourceFetcher = (*ResourceFetcher)(nil)

// ResourceFetcher is a mock implementation of skilld.ResourceFetcher.
type ResourceFetcher struct {
	FetchIssuesFn      func(ctx context.Context, repoURL string) ([]skilld.Doc, error)
	FetchDiscussionsFn func(ctx context.Context, repoURL string) ([]skilld.Doc, error)
	FetchReleasesFn    func(ctx context.Context, repoURL string) ([]skilld.Doc, error)
}

func (f *ResourceFetcher) FetchIssues(ctx context.Context, repoURL string) ([]skilld.Doc, error) {
	return f.FetchIssuesFn(ctx, repoURL)
}

func (f *ResourceFetcher) FetchDiscussions(ctx context.Context, repoURL string) ([]skilld.Doc, error) {
	return f.FetchDiscussionsFn(ctx, repoURL)
}

func (f *ResourceFetcher) FetchReleases(ctx context.Context, repoURL string) ([]skilld.Doc, error) {
	return f.FetchReleasesFn(ctx, repoURL)
}
