package mock

import (
	"context"

	"github.com/skilldhq/skilld"
)

var _ skilld.RegistryClient = (*RegistryClient)(nil)

// RegistryClient is a mock implementation of skilld.RegistryClient.
type RegistryClient struct {
	ResolvePackageFn func(ctx context.Context, name, version string) (*skilld.ResolvedPackage, error)
}

func (c *RegistryClient) ResolvePackage(ctx context.Context, name, version string) (*skilld.ResolvedPackage, error) {
	return c.ResolvePackageFn(ctx, name, version)
}
