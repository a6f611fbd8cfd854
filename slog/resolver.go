// Package slog provides logging decorators for the core service interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/skilldhq/skilld"
)

// Ensure LoggingResolver implements skilld.Resolver.
var _ skilld.Resolver = (*LoggingResolver)(nil)

// LoggingResolver wraps a Resolver with logging of the cascade outcome and
// every attempt it made.
type LoggingResolver struct {
	next   skilld.Resolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next skilld.Resolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the outcome.
func (r *LoggingResolver) Resolve(ctx context.Context, name string, opts skilld.ResolveOptions) (*skilld.ResolveResult, error) {
	begin := time.Now()
	result, err := r.next.Resolve(ctx, name, opts)
	if err != nil {
		r.logger.Error("resolve",
			"package", name,
			"err", skilld.ErrorMessage(err),
			"duration", time.Since(begin),
		)
		return nil, err
	}

	for _, attempt := range result.Attempts {
		r.logger.Debug("resolve attempt",
			"package", name,
			"source", string(attempt.Source),
			"status", string(attempt.Status),
			"message", attempt.Message,
		)
	}

	version := ""
	if result.Package != nil {
		version = result.Package.Version
	}
	r.logger.Info("resolve",
		"package", name,
		"version", version,
		"source", string(result.DocSource),
		"docsType", string(result.DocsType),
		"docs", len(result.Docs),
		"duration", time.Since(begin),
	)
	return result, nil
}
