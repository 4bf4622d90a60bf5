package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/services"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

// downloadSession tracks the state machine for one download.
type downloadSession struct {
	state    models.SessionState
	percent  float64
	filename string
}

// advance moves the session forward, never backward. Returns false when the
// transition would regress or the session is already terminal.
func (s *downloadSession) advance(next models.SessionState) bool {
	if s.state.Terminal() {
		return false
	}
	if rank(next) < rank(s.state) && !next.Terminal() {
		return false
	}
	s.state = next
	return true
}

func rank(state models.SessionState) int {
	switch state {
	case models.StateIdle:
		return 0
	case models.StateStarting:
		return 1
	case models.StateTransferring:
		return 2
	case models.StateFinalizing:
		return 3
	case models.StateCompleted, models.StateFailed:
		return 4
	default:
		return 0
	}
}

// observePercent clamps and keeps the transfer position monotonic.
func (s *downloadSession) observePercent(percent float64) float64 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > s.percent {
		s.percent = percent
	}
	return s.percent
}

// Download runs one download session end to end.
//
// The happy path opens the server-push progress channel and walks the session
// through starting, transferring and finalizing until the completed event,
// then retrieves and saves the artifact. When the progress channel fails the
// engine waits briefly and retries once with direct retrieval, then once more
// at default quality. An authentication rejection aborts immediately with no
// retries, and the whole session is bounded by the configured timeout.
func (e *DownloadEngine) Download(ctx context.Context, progress chan<- ProgressUpdate, itemID string, opts DownloadOpts) *DownloadResult {
	result := &DownloadResult{ItemID: itemID, Title: opts.Title, State: models.StateIdle}

	if e.tokens.Token() == "" {
		return e.fail(progress, result, shared.ErrNotAuthenticated)
	}
	if itemID == "" {
		return e.fail(progress, result, fmt.Errorf("%w: item id is required", shared.ErrInvalidArgument))
	}

	if opts.Quality == "" {
		opts.Quality = "best"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultFallbackDelay
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	session := &downloadSession{state: models.StateIdle}
	session.advance(models.StateStarting)
	result.State = session.state
	e.sendProgress(progress, startingUpdate(itemID, opts.Title))

	artifact, fellBack, err := e.retrieve(ctx, progress, itemID, opts, session, result)
	if err != nil {
		return e.fail(progress, result, err)
	}
	defer artifact.Body.Close()
	result.Fallback = fellBack

	session.advance(models.StateFinalizing)
	result.State = session.state

	filename := pickFilename(session.filename, artifact.Filename, opts)
	result.Filename = filename
	e.sendProgress(progress, savingUpdate(itemID, filename))

	path, err := e.store.SaveArtifact(artifact, filename)
	if err != nil {
		return e.fail(progress, result, fmt.Errorf("failed to save artifact: %w", err))
	}
	result.Path = path

	if e.history != nil {
		record := models.DownloadRecord{
			ItemID:  itemID,
			Title:   opts.Title,
			Quality: opts.Quality,
			Path:    path,
		}
		if err := e.history.Mark(record); err != nil {
			// History is bookkeeping; the artifact is already on disk.
			e.sendProgress(progress, ProgressUpdate{
				Phase:   PhaseSaving,
				ItemID:  itemID,
				Message: fmt.Sprintf("Download saved but history update failed: %v", err),
			})
		}
	}

	session.advance(models.StateCompleted)
	result.State = session.state
	e.sendProgress(progress, completedUpdate(itemID, path))
	return result
}

// retrieve obtains the artifact, preferring the progress channel and
// degrading to direct retrieval when it fails.
func (e *DownloadEngine) retrieve(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	itemID string,
	opts DownloadOpts,
	session *downloadSession,
	result *DownloadResult,
) (*services.Artifact, bool, error) {
	streamErr := e.followStream(ctx, progress, itemID, opts, session)
	if streamErr == nil {
		artifact, err := e.fetch(ctx, itemID, opts.Quality, opts.Metadata)
		if err == nil {
			return artifact, false, nil
		}
		streamErr = err
	}

	if abortErr := e.checkAbort(ctx, streamErr); abortErr != nil {
		return nil, false, abortErr
	}

	// Degradation: pause, then one direct attempt at the requested quality
	// and one last attempt at default quality.
	e.sendProgress(progress, fallbackUpdate(itemID))
	select {
	case <-time.After(opts.Delay):
	case <-ctx.Done():
		return nil, false, e.ctxErr(ctx)
	}

	artifact, err := e.fetch(ctx, itemID, opts.Quality, opts.Metadata)
	if err == nil {
		return artifact, true, nil
	}
	if abortErr := e.checkAbort(ctx, err); abortErr != nil {
		return nil, false, abortErr
	}

	if opts.Quality != "best" {
		artifact, err = e.fetch(ctx, itemID, "best", opts.Metadata)
		if err == nil {
			return artifact, true, nil
		}
		if abortErr := e.checkAbort(ctx, err); abortErr != nil {
			return nil, false, abortErr
		}
	}

	if errors.Is(err, shared.ErrConnectivity) || errors.Is(streamErr, shared.ErrConnectivity) {
		result.WatchURL = services.WatchURL(itemID)
	}
	return nil, false, fmt.Errorf("download failed after fallback: %w", err)
}

// followStream consumes the progress channel until the completed event.
// A nil return means the server reported the artifact ready for retrieval.
func (e *DownloadEngine) followStream(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	itemID string,
	opts DownloadOpts,
	session *downloadSession,
) error {
	token, err := e.currentToken()
	if err != nil {
		return err
	}
	stream, err := e.backend.OpenProgress(ctx, itemID, opts.Quality, token)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return e.ctxErr(ctx)
		case event, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					return fmt.Errorf("%w: progress channel failed: %v", shared.ErrConnectivity, err)
				}
				return fmt.Errorf("%w: progress channel closed before completion", shared.ErrServer)
			}

			switch event.Status {
			case models.EventStarting:
				session.advance(models.StateStarting)
			case models.EventDownloading:
				session.advance(models.StateTransferring)
				percent := session.observePercent(event.Percent)
				e.sendProgress(progress, transferUpdate(itemID, percent, event.DownloadedMB, event.TotalMB, event.SpeedMBps))
			case models.EventFinished, models.EventProcessing:
				session.advance(models.StateFinalizing)
				session.observePercent(100)
				e.sendProgress(progress, finalizingUpdate(itemID))
			case models.EventCompleted:
				session.advance(models.StateFinalizing)
				if event.Filename != "" {
					session.filename = event.Filename
				}
				return nil
			case models.EventError:
				reason := event.Error
				if reason == "" {
					reason = event.Message
				}
				if reason == "" {
					reason = "unspecified server error"
				}
				return fmt.Errorf("%w: %s", shared.ErrServer, reason)
			}
		}
	}
}

// currentToken reads the session token at request time, so a logout while a
// download is in flight fails the session's next request.
func (e *DownloadEngine) currentToken() (string, error) {
	token := e.tokens.Token()
	if token == "" {
		return "", fmt.Errorf("%w: session ended", shared.ErrNotAuthenticated)
	}
	return token, nil
}

// fetch retrieves the artifact, choosing the archive endpoint when metadata
// assets were requested.
func (e *DownloadEngine) fetch(ctx context.Context, itemID, quality string, opts models.MetadataOptions) (*services.Artifact, error) {
	token, err := e.currentToken()
	if err != nil {
		return nil, err
	}
	if opts.WantsArchive() {
		return e.backend.FetchWithMetadata(ctx, token, itemID, quality, opts)
	}
	return e.backend.FetchArtifact(ctx, token, itemID, quality)
}

// checkAbort returns a non-nil error for failures that end the session with
// no degradation: credential rejection, a session ended mid-flight, and
// timeout.
func (e *DownloadEngine) checkAbort(ctx context.Context, err error) error {
	if errors.Is(err, shared.ErrAuthRejected) || errors.Is(err, shared.ErrNotAuthenticated) {
		return err
	}
	if ctxErr := e.ctxErr(ctx); ctxErr != nil {
		return ctxErr
	}
	return nil
}

func (e *DownloadEngine) ctxErr(ctx context.Context) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: download did not finish in time", shared.ErrTimeout)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return nil
	}
}

func (e *DownloadEngine) fail(progress chan<- ProgressUpdate, result *DownloadResult, err error) *DownloadResult {
	result.State = models.StateFailed
	result.Err = err
	result.Error = err.Error()
	e.sendProgress(progress, failedUpdate(result.ItemID, err))
	return result
}

// pickFilename chooses the saved name: the server-suggested name from the
// completed event wins, then the attachment header, then a slug of the title.
func pickFilename(suggested, fromHeader string, opts DownloadOpts) string {
	if suggested != "" {
		return suggested
	}
	if fromHeader != "" {
		return fromHeader
	}
	ext := ".mp4"
	if opts.Metadata.WantsArchive() {
		ext = ".zip"
	}
	return shared.Slugify(opts.Title) + ext
}
