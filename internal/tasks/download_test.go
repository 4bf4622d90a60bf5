package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/services"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

type fakeStream struct {
	events chan models.ProgressEvent
	err    error
	closed bool
}

func newFakeStream(events ...models.ProgressEvent) *fakeStream {
	ch := make(chan models.ProgressEvent, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &fakeStream{events: ch}
}

func (f *fakeStream) Events() <-chan models.ProgressEvent { return f.events }
func (f *fakeStream) Err() error                          { return f.err }
func (f *fakeStream) Close() error                        { f.closed = true; return nil }

type fakeBackend struct {
	mu sync.Mutex

	stream    services.EventStream
	streamErr error

	artifact  *services.Artifact
	fetchErrs []error // consumed per call; nil entry means success

	openCalls     int
	fetchCalls    int
	metadataCalls int
	qualities     []string
	fetchTokens   []string

	onOpen func() // runs while the progress channel is being opened
}

func (f *fakeBackend) OpenProgress(ctx context.Context, itemID, quality, token string) (services.EventStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	if f.onOpen != nil {
		f.onOpen()
	}
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

func (f *fakeBackend) fetch(quality string) (*services.Artifact, error) {
	f.fetchCalls++
	f.qualities = append(f.qualities, quality)
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.artifact != nil {
		return f.artifact, nil
	}
	return &services.Artifact{
		Filename: "header.mp4",
		Body:     io.NopCloser(strings.NewReader("media")),
	}, nil
}

func (f *fakeBackend) FetchArtifact(ctx context.Context, token, itemID, quality string) (*services.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchTokens = append(f.fetchTokens, token)
	return f.fetch(quality)
}

func (f *fakeBackend) FetchWithMetadata(ctx context.Context, token, itemID, quality string, opts models.MetadataOptions) (*services.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadataCalls++
	f.fetchTokens = append(f.fetchTokens, token)
	return f.fetch(quality)
}

type fakeTokens struct{ token string }

func (f *fakeTokens) Token() string { return f.token }

type fakeStore struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (f *fakeStore) SaveArtifact(artifact *services.Artifact, fallbackName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	name := artifact.Filename
	if name == "" {
		name = fallbackName
	}
	f.saved = append(f.saved, name)
	return "/downloads/" + fallbackName, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []models.DownloadRecord
	err     error
}

func (f *fakeHistory) Mark(record models.DownloadRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func happyEvents() []models.ProgressEvent {
	return []models.ProgressEvent{
		{Status: models.EventStarting},
		{Status: models.EventDownloading, Percent: 30, DownloadedMB: 0.9, TotalMB: 3, SpeedMBps: 1.5},
		{Status: models.EventDownloading, Percent: 80, DownloadedMB: 2.4, TotalMB: 3, SpeedMBps: 1.5},
		{Status: models.EventFinished},
		{Status: models.EventProcessing},
		{Status: models.EventCompleted, Filename: "x.mp4"},
	}
}

func newTestEngine(backend *fakeBackend) (*DownloadEngine, *fakeStore, *fakeHistory) {
	store := &fakeStore{}
	history := &fakeHistory{}
	engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, store, history)
	return engine, store, history
}

func drainUpdates(ch chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestDownload(t *testing.T) {
	t.Run("Happy Path", func(t *testing.T) {
		backend := &fakeBackend{stream: newFakeStream(happyEvents()...)}
		engine, store, history := newTestEngine(backend)

		progress := make(chan ProgressUpdate, 64)
		result := engine.Download(context.Background(), progress, "vid1", DownloadOpts{Title: "My Short"})

		if result.Err != nil {
			t.Fatalf("expected no error, got %v", result.Err)
		}
		if result.State != models.StateCompleted {
			t.Errorf("expected completed state, got %s", result.State)
		}
		if result.Filename != "x.mp4" {
			t.Errorf("expected server-suggested filename x.mp4, got %s", result.Filename)
		}
		if result.Fallback {
			t.Error("expected no fallback on the happy path")
		}
		if backend.fetchCalls != 1 {
			t.Errorf("expected one artifact fetch, got %d", backend.fetchCalls)
		}
		if len(store.saved) != 1 {
			t.Errorf("expected one saved artifact, got %d", len(store.saved))
		}
		if len(history.records) != 1 || history.records[0].ItemID != "vid1" {
			t.Errorf("expected history record for vid1, got %+v", history.records)
		}

		updates := drainUpdates(progress)
		var phases []Phase
		for _, u := range updates {
			phases = append(phases, u.Phase)
		}
		sawTransfer := false
		for i, p := range phases {
			if p == PhaseTransferring {
				sawTransfer = true
			}
			if p == PhaseCompleted && i != len(phases)-1 {
				t.Error("expected completed to be the final update")
			}
		}
		if !sawTransfer {
			t.Error("expected transfer updates")
		}
	})

	t.Run("Progress Is Monotonic", func(t *testing.T) {
		backend := &fakeBackend{stream: newFakeStream(
			models.ProgressEvent{Status: models.EventDownloading, Percent: 50},
			models.ProgressEvent{Status: models.EventDownloading, Percent: 20},
			models.ProgressEvent{Status: models.EventDownloading, Percent: 130},
			models.ProgressEvent{Status: models.EventCompleted, Filename: "x.mp4"},
		)}
		engine, _, _ := newTestEngine(backend)

		progress := make(chan ProgressUpdate, 64)
		result := engine.Download(context.Background(), progress, "vid1", DownloadOpts{Title: "t"})
		if result.Err != nil {
			t.Fatalf("expected no error, got %v", result.Err)
		}

		last := -1.0
		for _, u := range drainUpdates(progress) {
			if u.Phase != PhaseTransferring {
				continue
			}
			if u.Percent < last {
				t.Errorf("percent regressed from %f to %f", last, u.Percent)
			}
			if u.Percent > 100 {
				t.Errorf("percent exceeded 100: %f", u.Percent)
			}
			last = u.Percent
		}
	})

	t.Run("Without Token", func(t *testing.T) {
		engine := NewDownloadEngine(&fakeBackend{}, &fakeTokens{}, &fakeStore{}, nil)
		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{})
		if !errors.Is(result.Err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", result.Err)
		}
		if result.State != models.StateFailed {
			t.Errorf("expected failed state, got %s", result.State)
		}
	})

	t.Run("Logout During Download Fails The Next Request", func(t *testing.T) {
		tokens := &fakeTokens{token: "tok123"}
		backend := &fakeBackend{stream: newFakeStream(happyEvents()...)}
		backend.onOpen = func() { tokens.token = "" }
		engine := NewDownloadEngine(backend, tokens, &fakeStore{}, nil)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{
			Title: "My Short",
			Delay: time.Millisecond,
		})

		if !errors.Is(result.Err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", result.Err)
		}
		if backend.fetchCalls != 0 {
			t.Errorf("expected no artifact fetch with a stale token, got %d calls with tokens %v",
				backend.fetchCalls, backend.fetchTokens)
		}
	})

	t.Run("Stream Error Falls Back To Direct Fetch", func(t *testing.T) {
		backend := &fakeBackend{stream: newFakeStream(
			models.ProgressEvent{Status: models.EventDownloading, Percent: 10},
			models.ProgressEvent{Status: models.EventError, Error: "yt-dlp crashed"},
		)}
		engine, _, _ := newTestEngine(backend)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{
			Title: "My Short",
			Delay: time.Millisecond,
		})

		if result.Err != nil {
			t.Fatalf("expected fallback to succeed, got %v", result.Err)
		}
		if !result.Fallback {
			t.Error("expected result flagged as fallback")
		}
		if backend.fetchCalls != 1 {
			t.Errorf("expected exactly one direct fetch, got %d", backend.fetchCalls)
		}
	})

	t.Run("Fallback Retries At Default Quality", func(t *testing.T) {
		backend := &fakeBackend{
			streamErr: fmt.Errorf("%w: refused", shared.ErrConnectivity),
			fetchErrs: []error{fmt.Errorf("%w: bad quality", shared.ErrServer), nil},
		}
		engine, _, _ := newTestEngine(backend)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{
			Title:   "My Short",
			Quality: "720p",
			Delay:   time.Millisecond,
		})

		if result.Err != nil {
			t.Fatalf("expected second fallback to succeed, got %v", result.Err)
		}
		if backend.fetchCalls != 2 {
			t.Fatalf("expected two fetch attempts, got %d", backend.fetchCalls)
		}
		if backend.qualities[0] != "720p" || backend.qualities[1] != "best" {
			t.Errorf("expected 720p then best, got %v", backend.qualities)
		}
	})

	t.Run("Auth Rejection Aborts Without Fallback", func(t *testing.T) {
		backend := &fakeBackend{streamErr: fmt.Errorf("%w: token expired", shared.ErrAuthRejected)}
		engine, _, _ := newTestEngine(backend)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{
			Title: "My Short",
			Delay: time.Millisecond,
		})

		if !errors.Is(result.Err, shared.ErrAuthRejected) {
			t.Fatalf("expected ErrAuthRejected, got %v", result.Err)
		}
		if backend.fetchCalls != 0 {
			t.Errorf("expected no fallback attempts after rejection, got %d", backend.fetchCalls)
		}
	})

	t.Run("Connectivity Failure Carries Watch Hint", func(t *testing.T) {
		connErr := fmt.Errorf("%w: refused", shared.ErrConnectivity)
		backend := &fakeBackend{
			streamErr: connErr,
			fetchErrs: []error{connErr, connErr},
		}
		engine, _, _ := newTestEngine(backend)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{
			Title:   "My Short",
			Quality: "720p",
			Delay:   time.Millisecond,
		})

		if result.Err == nil {
			t.Fatal("expected failure")
		}
		if result.WatchURL == "" {
			t.Error("expected a manual retrieval hint for connectivity failures")
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		stream := &fakeStream{events: make(chan models.ProgressEvent)}
		backend := &fakeBackend{stream: stream}
		engine, _, _ := newTestEngine(backend)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{
			Title:   "My Short",
			Timeout: 20 * time.Millisecond,
			Delay:   time.Millisecond,
		})

		if !errors.Is(result.Err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", result.Err)
		}
		if !stream.closed {
			t.Error("expected the stream closed on timeout")
		}
	})

	t.Run("Metadata Options Use Archive Endpoint", func(t *testing.T) {
		backend := &fakeBackend{
			stream: newFakeStream(models.ProgressEvent{Status: models.EventCompleted}),
			artifact: &services.Artifact{
				Filename: "bundle.zip",
				Body:     io.NopCloser(strings.NewReader("zip")),
			},
		}
		engine, _, _ := newTestEngine(backend)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{
			Title:    "My Short",
			Metadata: models.MetadataOptions{SaveVideo: true, SaveDescription: true},
		})

		if result.Err != nil {
			t.Fatalf("expected no error, got %v", result.Err)
		}
		if backend.metadataCalls != 1 {
			t.Errorf("expected archive endpoint, got %d metadata calls", backend.metadataCalls)
		}
		if result.Filename != "bundle.zip" {
			t.Errorf("expected bundle.zip, got %s", result.Filename)
		}
	})

	t.Run("Filename Falls Back To Slugged Title", func(t *testing.T) {
		backend := &fakeBackend{
			stream: newFakeStream(models.ProgressEvent{Status: models.EventCompleted}),
			artifact: &services.Artifact{
				Body: io.NopCloser(strings.NewReader("media")),
			},
		}
		engine, _, _ := newTestEngine(backend)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{Title: "Cats & Dogs!"})
		if result.Err != nil {
			t.Fatalf("expected no error, got %v", result.Err)
		}
		if result.Filename != "Cats_Dogs.mp4" {
			t.Errorf("expected slugged title, got %s", result.Filename)
		}
	})

	t.Run("History Failure Does Not Fail The Download", func(t *testing.T) {
		backend := &fakeBackend{stream: newFakeStream(happyEvents()...)}
		store := &fakeStore{}
		history := &fakeHistory{err: errors.New("disk full")}
		engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, store, history)

		result := engine.Download(context.Background(), nil, "vid1", DownloadOpts{Title: "t"})
		if result.Err != nil {
			t.Errorf("expected download to succeed despite history failure, got %v", result.Err)
		}
		if result.State != models.StateCompleted {
			t.Errorf("expected completed state, got %s", result.State)
		}
	})
}

func TestDownloadSession(t *testing.T) {
	t.Run("Never Regresses", func(t *testing.T) {
		s := &downloadSession{state: models.StateIdle}
		s.advance(models.StateStarting)
		s.advance(models.StateTransferring)
		if s.advance(models.StateStarting) {
			t.Error("expected regression to be rejected")
		}
		if s.state != models.StateTransferring {
			t.Errorf("expected transferring, got %s", s.state)
		}
	})

	t.Run("Terminal Is Final", func(t *testing.T) {
		s := &downloadSession{state: models.StateCompleted}
		if s.advance(models.StateTransferring) {
			t.Error("expected no transition out of a terminal state")
		}
	})
}
