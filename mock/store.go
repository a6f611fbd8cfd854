package mock

import (
	"context"

	"github.com/skilldhq/skilld"
)

var _ skilld.CacheStore = (*CacheStore)(nil)

// CacheStore is a mock implementation of skilld.CacheStore.
type CacheStore struct {
	IsCachedFn  func(name, version string) bool
	HasSubdirFn func(name, version, subdir string) bool
	WriteFn     func(ctx context.Context, name, version string, docs []skilld.Doc) (string, error)
	ReadFn      func(ctx context.Context, name, version string) ([]skilld.Doc, error)
	ClearFn     func(name, version string) (bool, error)
	LinkIntoFn  func(targetDir, name, version, subdir string) (skilld.LinkResult, error)
}

func (s *CacheStore) IsCached(name, version string) bool {
	return s.IsCachedFn(name, version)
}

func (s *CacheStore) HasSubdir(name, version, subdir string) bool {
	return s.HasSubdirFn(name, version, subdir)
}

func (s *CacheStore) Write(ctx context.Context, name, version string, docs []skilld.Doc) (string, error) {
	return s.WriteFn(ctx, name, version, docs)
}

func (s *CacheStore) Read(ctx context.Context, name, version string) ([]skilld.Doc, error) {
	return s.ReadFn(ctx, name, version)
}

func (s *CacheStore) Clear(name, version string) (bool, error) {
	return s.ClearFn(name, version)
}

func (s *CacheStore) LinkInto(targetDir, name, version, subdir string) (skilld.LinkResult, error) {
	return s.LinkIntoFn(targetDir, name, version, subdir)
}
