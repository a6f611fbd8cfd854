package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/skilldhq/skilld"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps how many packages sync at once.
const DefaultConcurrency = 5

// SyncResult aggregates the outcome of one orchestrator run. A run settles
// every requested package; one package's failure never interrupts the rest.
type SyncResult struct {
	RunID     string
	Total     int
	Succeeded int

	// Failures maps package name to failure message for every package that
	// did not complete.
	Failures map[string]string

	// States holds the terminal state of every package, in request order.
	States []skilld.PackageSyncState
}

// Syncer fans a fetch-and-cache run out over many packages with bounded
// concurrency.
type Syncer struct {
	Fetcher *Fetcher

	// Concurrency overrides DefaultConcurrency when positive.
	Concurrency int

	// Progress receives every package's events, stamped with the run ID.
	// May be nil.
	Progress skilld.ProgressFunc
}

// SyncMany runs the pipeline for every name. Requested names are
// deduplicated; duplicates sync once. The returned error is non-nil only for
// setup failures, never for individual package failures.
func (s *Syncer) SyncMany(ctx context.Context, names []string, opts FetchOptions) (*SyncResult, error) {
	if len(names) == 0 {
		return nil, skilld.Errorf(skilld.EINVALID, "no packages to sync")
	}

	names = dedupe(names)
	runID := uuid.NewString()

	result := &SyncResult{
		RunID:    runID,
		Total:    len(names),
		Failures: make(map[string]string),
	}

	states := make(map[string]*skilld.PackageSyncState, len(names))
	var mu sync.Mutex
	for _, name := range names {
		states[name] = &skilld.PackageSyncState{Name: name, Status: skilld.StatusPending}
	}

	progress := func(event skilld.ProgressEvent) {
		event.RunID = runID

		mu.Lock()
		if state := states[event.Package]; state != nil && !state.Status.Terminal() {
			state.Status = event.Phase
			state.Message = event.Message
			if event.Version != "" {
				state.Version = event.Version
			}
		}
		mu.Unlock()

		if s.Progress != nil {
			s.Progress(event)
		}
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// Failures are settled per package, so the group context must not be
	// canceled by a sibling's error: goroutines always return nil.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, name := range names {
		g.Go(func() error {
			res, err := s.Fetcher.FetchAndCache(gctx, name, opts, progress)

			mu.Lock()
			state := states[name]
			var version string
			if err != nil {
				state.Status = skilld.StatusError
				state.Message = skilld.ErrorMessage(err)
				result.Failures[name] = skilld.ErrorMessage(err)
				version = state.Version
			} else {
				state.Status = skilld.StatusDone
				state.Version = res.Package.Version
				state.Preview = res.Preview
				result.Succeeded++
			}
			mu.Unlock()

			if err != nil {
				progressTerminal(s.Progress, runID, name, skilld.StatusError, skilld.ErrorMessage(err), version)
			}
			return nil
		})
	}

	// Goroutines never error; Wait only observes context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, name := range names {
		result.States = append(result.States, *states[name])
	}
	return result, nil
}

func progressTerminal(fn skilld.ProgressFunc, runID, name string, phase skilld.SyncStatus, message, version string) {
	if fn == nil {
		return
	}
	fn(skilld.ProgressEvent{RunID: runID, Package: name, Phase: phase, Message: message, Version: version})
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0:0]
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
