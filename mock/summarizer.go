package mock

import (
	"context"

	"github.com/skilldhq/skilld"
)

var _ skilld.Summarizer = (*Summarizer)(nil)

// Summarizer is a mock implementation of skilld.Summarizer.
type Summarizer struct {
	SummarizeFn func(ctx context.Context, pkg *skilld.ResolvedPackage, docs []skilld.Doc) ([]skilld.Doc, error)
}

func (s *Summarizer) Summarize(ctx context.Context, pkg *skilld.ResolvedPackage, docs []skilld.Doc) ([]skilld.Doc, error) {
	return s.SummarizeFn(ctx, pkg, docs)
}
