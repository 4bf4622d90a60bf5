// package services defines interfaces and clients for the remote HTTP APIs
//
// Catalog search (YouTube Data API) and the download backend
package services

import (
	"context"
	"io"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
)

// SearchService defines the catalog search provider consumed by the pagination layer.
type SearchService interface {
	// Search runs one page of a video or channel search. The cursor is the
	// opaque page token from a previous response; empty means the first page.
	Search(ctx context.Context, params models.SearchParams, cursor string) (*models.SearchPage, error)

	// ResolveChannel turns a channel URL, @handle, UC id, or search term into
	// a channel ID usable in [models.SearchParams].
	ResolveChannel(ctx context.Context, urlOrID string) (string, error)

	// Name returns the name of the provider (e.g., "YouTube")
	Name() string
}

// Artifact is a finished binary payload retrieved from the backend.
// The caller owns Body and must close it.
type Artifact struct {
	Filename string // from Content-Disposition, may be empty
	Body     io.ReadCloser
	Length   int64 // -1 when unknown
}

// EventStream is a server-push channel of download progress events.
//
// Events are delivered in server-emission order. The channel returned by
// Events is closed when a terminal event arrives, the stream is closed, or
// the underlying transport fails; Err distinguishes the latter. Close is the
// cancellation primitive and is idempotent.
type EventStream interface {
	Events() <-chan models.ProgressEvent
	Err() error
	Close() error
}
