package skilld

// SyncStatus is one phase of a package's sync pipeline.
type SyncStatus string

// Pipeline phases. Within one package they advance strictly in order;
// StatusError is reachable from any non-terminal phase.
const (
	StatusPending     SyncStatus = "pending"
	StatusResolving   SyncStatus = "resolving"
	StatusDownloading SyncStatus = "downloading"
	StatusEmbedding   SyncStatus = "embedding"
	StatusGenerating  SyncStatus = "generating"
	StatusDone        SyncStatus = "done"
	StatusError       SyncStatus = "error"
)

// Terminal reports whether no further transitions are possible from s.
func (s SyncStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// PackageSyncState tracks one package's progress through the pipeline.
// It lives only for the duration of an orchestrator run.
type PackageSyncState struct {
	Name    string     `json:"name"`
	Status  SyncStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	Version string     `json:"version,omitempty"`

	// Preview holds the opening lines of the package's primary document,
	// set when the pipeline reaches StatusDone.
	Preview string `json:"preview,omitempty"`
}

// ProgressEvent is the typed event emitted as a package moves through the
// pipeline. Renderers subscribe to these events and never inspect pipeline
// internals.
type ProgressEvent struct {
	// RunID identifies the orchestrator run the event belongs to.
	RunID string `json:"runId,omitempty"`

	Package string     `json:"package"`
	Phase   SyncStatus `json:"phase"`
	Message string     `json:"message,omitempty"`
	Version string     `json:"version,omitempty"`
}

// ProgressFunc receives progress events as a pipeline advances.
type ProgressFunc func(ProgressEvent)
