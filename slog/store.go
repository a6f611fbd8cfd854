package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/skilldhq/skilld"
)

// Ensure LoggingStore implements skilld.CacheStore.
var _ skilld.CacheStore = (*LoggingStore)(nil)

// LoggingStore wraps a CacheStore with logging for writes, clears and
// projections. Read-only probes delegate silently.
type LoggingStore struct {
	next   skilld.CacheStore
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next skilld.CacheStore, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

// IsCached delegates to the wrapped store.
func (s *LoggingStore) IsCached(name, version string) bool {
	return s.next.IsCached(name, version)
}

// HasSubdir delegates to the wrapped store.
func (s *LoggingStore) HasSubdir(name, version, subdir string) bool {
	return s.next.HasSubdir(name, version, subdir)
}

// Write delegates to the wrapped store and logs the write.
func (s *LoggingStore) Write(ctx context.Context, name, version string, docs []skilld.Doc) (string, error) {
	begin := time.Now()
	dir, err := s.next.Write(ctx, name, version, docs)
	if err != nil {
		s.logger.Error("cache write",
			"package", name,
			"version", version,
			"err", skilld.ErrorMessage(err),
		)
		return "", err
	}
	s.logger.Info("cache write",
		"package", name,
		"version", version,
		"docs", len(docs),
		"duration", time.Since(begin),
	)
	return dir, nil
}

// Read delegates to the wrapped store.
func (s *LoggingStore) Read(ctx context.Context, name, version string) ([]skilld.Doc, error) {
	return s.next.Read(ctx, name, version)
}

// Clear delegates to the wrapped store and logs the deletion.
func (s *LoggingStore) Clear(name, version string) (bool, error) {
	existed, err := s.next.Clear(name, version)
	if err != nil {
		s.logger.Error("cache clear",
			"package", name,
			"version", version,
			"err", skilld.ErrorMessage(err),
		)
		return false, err
	}
	s.logger.Info("cache clear",
		"package", name,
		"version", version,
		"existed", existed,
	)
	return existed, nil
}

// LinkInto delegates to the wrapped store and logs the projection outcome.
func (s *LoggingStore) LinkInto(targetDir, name, version, subdir string) (skilld.LinkResult, error) {
	result, err := s.next.LinkInto(targetDir, name, version, subdir)
	if err != nil {
		s.logger.Error("cache link",
			"package", name,
			"version", version,
			"subdir", subdir,
			"err", skilld.ErrorMessage(err),
		)
		return result, err
	}
	s.logger.Info("cache link",
		"package", name,
		"version", version,
		"subdir", subdir,
		"result", string(result),
	)
	return result, nil
}
