package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/services"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
	tu "github.com/Jakson-Almeida/shortsgrab/internal/testing"
)

// batchBackend routes per-item behavior so sibling isolation can be asserted.
type batchBackend struct {
	mu        sync.Mutex
	failItems map[string]error
	calls     []string
}

func (b *batchBackend) OpenProgress(ctx context.Context, itemID, quality, token string) (services.EventStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, itemID)
	if err, ok := b.failItems[itemID]; ok {
		return nil, err
	}
	return newFakeStream(
		models.ProgressEvent{Status: models.EventDownloading, Percent: 100},
		models.ProgressEvent{Status: models.EventCompleted, Filename: itemID + ".mp4"},
	), nil
}

func (b *batchBackend) FetchArtifact(ctx context.Context, token, itemID, quality string) (*services.Artifact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.failItems[itemID]; ok {
		return nil, err
	}
	return &services.Artifact{
		Filename: itemID + ".mp4",
		Body:     io.NopCloser(strings.NewReader("media")),
	}, nil
}

func (b *batchBackend) FetchWithMetadata(ctx context.Context, token, itemID, quality string, opts models.MetadataOptions) (*services.Artifact, error) {
	return b.FetchArtifact(ctx, token, itemID, quality)
}

func batchItems(ids ...string) []models.Video {
	items := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.Video{ID: id, Title: "Video " + id})
	}
	return items
}

func resultFor(t *testing.T, result *BatchResult, itemID string) DownloadResult {
	t.Helper()
	for _, r := range result.Results {
		if r.ItemID == itemID {
			return r
		}
	}
	t.Fatalf("no result for %s", itemID)
	return DownloadResult{}
}

func TestBatch(t *testing.T) {
	t.Run("All Items Succeed", func(t *testing.T) {
		backend := &batchBackend{}
		engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, &fakeStore{}, &fakeHistory{})

		progress := make(chan ProgressUpdate, 64)
		result, err := engine.Batch(context.Background(), progress, batchItems("a", "b", "c"), BatchOpts{
			NumWorkers: 2,
			RateLimit:  100,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Total != 3 || result.Succeeded != 3 || result.Failed != 0 {
			t.Errorf("expected 3/3 succeeded, got %+v", result)
		}
		if len(result.Results) != 3 {
			t.Errorf("expected 3 item results, got %d", len(result.Results))
		}
	})

	t.Run("Item Failure Is Isolated", func(t *testing.T) {
		backend := &batchBackend{failItems: map[string]error{
			"b": fmt.Errorf("%w: token expired", shared.ErrAuthRejected),
		}}
		engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, &fakeStore{}, &fakeHistory{})

		result, err := engine.Batch(context.Background(), nil, batchItems("a", "b", "c"), BatchOpts{
			NumWorkers: 1,
			RateLimit:  100,
		})
		if err != nil {
			t.Fatalf("expected no batch-level error, got %v", err)
		}

		if result.Succeeded != 2 || result.Failed != 1 {
			t.Errorf("expected 2 succeeded and 1 failed, got %+v", result)
		}
		if res := resultFor(t, result, "b"); !errors.Is(res.Err, shared.ErrAuthRejected) {
			t.Errorf("expected ErrAuthRejected for item b, got %v", res.Err)
		}
		for _, id := range []string{"a", "c"} {
			if res := resultFor(t, result, id); res.Err != nil {
				t.Errorf("expected item %s unaffected, got %v", id, res.Err)
			}
		}
	})

	t.Run("Requires Authentication", func(t *testing.T) {
		engine := NewDownloadEngine(&batchBackend{}, &fakeTokens{}, &fakeStore{}, nil)
		_, err := engine.Batch(context.Background(), nil, batchItems("a"), BatchOpts{})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Requires Items", func(t *testing.T) {
		engine := NewDownloadEngine(&batchBackend{}, &fakeTokens{token: "tok123"}, &fakeStore{}, nil)
		_, err := engine.Batch(context.Background(), nil, nil, BatchOpts{})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Skips Marked Items", func(t *testing.T) {
		backend := &batchBackend{}
		engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, &fakeStore{}, &fakeHistory{})
		engine.SetMarkedChecker(func(itemID string) (bool, error) {
			return itemID == "b", nil
		})

		result, err := engine.Batch(context.Background(), nil, batchItems("a", "b"), BatchOpts{
			NumWorkers: 1,
			RateLimit:  100,
			SkipMarked: true,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Succeeded != 1 || result.Skipped != 1 {
			t.Errorf("expected 1 succeeded and 1 skipped, got %+v", result)
		}
		for _, id := range backend.calls {
			if id == "b" {
				t.Error("expected no backend call for the skipped item")
			}
		}
	})

	t.Run("Cancellation Stops New Items", func(t *testing.T) {
		backend := &batchBackend{}
		engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, &fakeStore{}, &fakeHistory{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := engine.Batch(ctx, nil, batchItems("a", "b", "c"), BatchOpts{
			NumWorkers: 1,
			RateLimit:  100,
		})
		if err != nil {
			t.Fatalf("expected no batch-level error, got %v", err)
		}
		if result.Succeeded != 0 {
			t.Errorf("expected no items to start after cancellation, got %d succeeded", result.Succeeded)
		}
		if result.Total != 3 || result.Failed != 3 || len(result.Results) != 3 {
			t.Errorf("expected all 3 unstarted items recorded as failed, got %+v", result)
		}
		for _, id := range []string{"a", "b", "c"} {
			res := resultFor(t, result, id)
			if !errors.Is(res.Err, context.Canceled) {
				t.Errorf("expected context.Canceled for item %s, got %v", id, res.Err)
			}
			if res.State != models.StateFailed {
				t.Errorf("expected item %s in failed state, got %s", id, res.State)
			}
		}
	})

	t.Run("Writes Manifest", func(t *testing.T) {
		dir := t.TempDir()
		backend := &batchBackend{}
		engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, &fakeStore{}, &fakeHistory{})

		result, err := engine.Batch(context.Background(), nil, batchItems("a"), BatchOpts{
			NumWorkers:  1,
			RateLimit:   100,
			ManifestDir: dir,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.ManifestPath == "" {
			t.Fatal("expected a manifest path")
		}
		if filepath.Dir(result.ManifestPath) != dir {
			t.Errorf("expected manifest in %s, got %s", dir, result.ManifestPath)
		}
		tu.AssertFileExists(t, result.ManifestPath)

		content := tu.MustReadFile(t, result.ManifestPath)
		if !strings.Contains(content, `"total"`) || !strings.Contains(content, `"a"`) {
			t.Errorf("manifest missing expected fields: %s", content)
		}
	})

	t.Run("Caps Workers", func(t *testing.T) {
		backend := &batchBackend{}
		engine := NewDownloadEngine(backend, &fakeTokens{token: "tok123"}, &fakeStore{}, &fakeHistory{})

		start := time.Now()
		result, err := engine.Batch(context.Background(), nil, batchItems("a", "b", "c", "d"), BatchOpts{
			NumWorkers: 100,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Succeeded != 4 {
			t.Errorf("expected 4 succeeded, got %d", result.Succeeded)
		}
		if time.Since(start) > 5*time.Second {
			t.Error("batch took unexpectedly long")
		}
	})
}
