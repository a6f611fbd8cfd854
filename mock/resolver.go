package mock

import (
	"context"

	"github.com/skilldhq/skilld"
)

var _ skilld.Resolver = (*Resolver)(nil)

// Resolver is a mock implementation of skilld.Resolver.
type Resolver struct {
	ResolveFn func(ctx context.Context, name string, opts skilld.ResolveOptions) (*skilld.ResolveResult, error)
}

func (r *Resolver) Resolve(ctx context.Context, name string, opts skilld.ResolveOptions) (*skilld.ResolveResult, error) {
	return r.ResolveFn(ctx, name, opts)
}
