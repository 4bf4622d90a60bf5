package tasks

import (
	"context"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/services"
)

// DefaultTimeout bounds a single download session end to end.
const DefaultTimeout = 10 * time.Minute

// DefaultFallbackDelay is the pause between a failed progress channel and the
// direct retrieval attempt.
const DefaultFallbackDelay = 3 * time.Second

// Backend is the download surface of the transcode backend.
type Backend interface {
	OpenProgress(ctx context.Context, itemID, quality, token string) (services.EventStream, error)
	FetchArtifact(ctx context.Context, token, itemID, quality string) (*services.Artifact, error)
	FetchWithMetadata(ctx context.Context, token, itemID, quality string, opts models.MetadataOptions) (*services.Artifact, error)
}

// TokenSource supplies the bearer token for the current session.
type TokenSource interface {
	Token() string
}

// ArtifactStore persists a retrieved artifact and reports its final path.
type ArtifactStore interface {
	SaveArtifact(artifact *services.Artifact, fallbackName string) (string, error)
}

// HistoryMarker records completed downloads in the local store.
type HistoryMarker interface {
	Mark(record models.DownloadRecord) error
}

// DownloadOpts configures a single download session.
type DownloadOpts struct {
	Quality  string                 // Format/quality id (default: best)
	Title    string                 // Display title, used for the saved filename fallback
	Metadata models.MetadataOptions // Extra assets bundled with the artifact
	Timeout  time.Duration          // Session bound (default: DefaultTimeout)
	Delay    time.Duration          // Degradation pause (default: DefaultFallbackDelay)
}

// DownloadResult contains the outcome of a single download session.
type DownloadResult struct {
	ItemID   string              `json:"item_id"`
	Title    string              `json:"title,omitempty"`
	State    models.SessionState `json:"state"`
	Path     string              `json:"path,omitempty"`
	Filename string              `json:"filename,omitempty"`
	Fallback bool                `json:"fallback,omitempty"`  // Artifact came from direct retrieval
	WatchURL string              `json:"watch_url,omitempty"` // Manual retrieval hint on failure
	Err      error               `json:"-"`
	Error    string              `json:"error,omitempty"`
}

// BatchOpts contains configuration for concurrent multi-item downloads.
type BatchOpts struct {
	Quality     string                 // Format/quality id applied to every item
	Metadata    models.MetadataOptions // Extra assets applied to every item
	NumWorkers  int                    // Concurrent workers (default: 4)
	RateLimit   float64                // Session starts per second (default: 2)
	SkipMarked  bool                   // Skip items already in download history
	ManifestDir string                 // When set, a JSON manifest is written here
}

// BatchResult summarizes a concurrent multi-item download.
type BatchResult struct {
	ID           string           `json:"id"`
	Total        int              `json:"total"`
	Succeeded    int              `json:"succeeded"`
	Failed       int              `json:"failed"`
	Skipped      int              `json:"skipped"`
	Results      []DownloadResult `json:"results"`
	ManifestPath string           `json:"manifest_path,omitempty"`
}

// Engine defines the download session operations.
type Engine interface {
	// Download runs a single download session through the state machine and
	// saves the resulting artifact.
	Download(ctx context.Context, progress chan<- ProgressUpdate, itemID string, opts DownloadOpts) *DownloadResult

	// Batch downloads multiple items concurrently with per-item isolation.
	Batch(ctx context.Context, progress chan<- ProgressUpdate, items []models.Video, opts BatchOpts) (*BatchResult, error)
}

// DownloadEngine implements [Engine] against the transcode backend.
type DownloadEngine struct {
	backend Backend
	tokens  TokenSource
	store   ArtifactStore
	history HistoryMarker
	marked  func(itemID string) (bool, error)
}

// NewDownloadEngine creates an engine. The history marker may be nil to skip
// download-history bookkeeping.
func NewDownloadEngine(backend Backend, tokens TokenSource, store ArtifactStore, history HistoryMarker) *DownloadEngine {
	return &DownloadEngine{
		backend: backend,
		tokens:  tokens,
		store:   store,
		history: history,
	}
}

// SetMarkedChecker installs the already-downloaded lookup used by
// [BatchOpts.SkipMarked].
func (e *DownloadEngine) SetMarkedChecker(fn func(itemID string) (bool, error)) {
	e.marked = fn
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *DownloadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
