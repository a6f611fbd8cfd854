package mock

import (
	"context"

	"github.com/skilldhq/skilld"
)

var _ skilld.Indexer = (*Indexer)(nil)

// Indexer is a mock implementation of skilld.Indexer.
type Indexer struct {
	CreateIndexFn func(ctx context.Context, docs []skilld.IndexableDoc, dbPath string) error
	SearchFn      func(ctx context.Context, dbPath, query string, opts skilld.SearchOptions) ([]skilld.SearchHit, error)
	RemoveIndexFn func(dbPath string) (bool, error)
}

func (i *Indexer) CreateIndex(ctx context.Context, docs []skilld.IndexableDoc, dbPath string) error {
	return i.CreateIndexFn(ctx, docs, dbPath)
}

func (i *Indexer) Search(ctx context.Context, dbPath, query string, opts skilld.SearchOptions) ([]skilld.SearchHit, error) {
	return i.SearchFn(ctx, dbPath, query, opts)
}

func (i *Indexer) RemoveIndex(dbPath string) (bool, error) {
	return i.RemoveIndexFn(dbPath)
}
