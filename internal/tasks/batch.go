package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/time/rate"

	"github.com/Jakson-Almeida/shortsgrab/internal/formatter"
	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

type downloadJob struct {
	step int
	item models.Video
}

// Batch downloads multiple items concurrently with rate limiting and progress tracking.
//
// This method implements a worker pool pattern so a large selection downloads
// efficiently without hammering the backend. Item failures are isolated: a
// failed or rejected item is recorded in the result while its siblings keep
// running. Cancellation is honored between item starts; items already in
// flight run to their own completion, and items that never started are
// recorded as failed so the tally still covers every selected item.
func (e *DownloadEngine) Batch(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	items []models.Video,
	opts BatchOpts,
) (*BatchResult, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items selected", shared.ErrInvalidArgument)
	}
	if e.tokens.Token() == "" {
		return nil, shared.ErrNotAuthenticated
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	result := &BatchResult{
		ID:      shared.GenerateID(),
		Total:   len(items),
		Results: make([]DownloadResult, 0, len(items)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan downloadJob, len(items))
	results := make(chan DownloadResult, len(items))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.downloadWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			if ctx.Err() != nil {
				failRemaining(results, items[i:], ctx.Err())
				return
			}

			if opts.SkipMarked && e.marked != nil {
				if marked, err := e.marked(item.ID); err == nil && marked {
					results <- DownloadResult{
						ItemID: item.ID,
						Title:  item.Title,
						State:  models.StateCompleted,
						Error:  "already downloaded, skipped",
					}
					continue
				}
			}

			if err := limiter.Wait(ctx); err != nil {
				failRemaining(results, items[i:], err)
				return
			}

			e.sendProgress(progress, batchItemUpdate(i+1, len(items), item.ID, item.Title))
			jobs <- downloadJob{step: i + 1, item: item}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		switch {
		case res.Err == nil && res.Error != "":
			result.Skipped++
		case res.Err == nil:
			result.Succeeded++
		default:
			result.Failed++
		}
		e.sendProgress(progress, batchDoneUpdate(completed, len(items), res.ItemID, res.Err))
	}

	if opts.ManifestDir != "" {
		manifestPath := filepath.Join(opts.ManifestDir, fmt.Sprintf("batch_manifest_%s.json", result.ID))
		if err := formatter.WriteBatchManifest(result, manifestPath); err != nil {
			return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = manifestPath
	}
	return result, nil
}

// failRemaining records items the producer never enqueued, so the batch tally
// still accounts for the whole selection after cancellation.
func failRemaining(results chan<- DownloadResult, items []models.Video, err error) {
	for _, item := range items {
		results <- DownloadResult{
			ItemID: item.ID,
			Title:  item.Title,
			State:  models.StateFailed,
			Err:    err,
			Error:  err.Error(),
		}
	}
}

// downloadWorker is a worker goroutine that downloads items from the jobs channel.
func (e *DownloadEngine) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan downloadJob,
	results chan<- DownloadResult,
	opts BatchOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- DownloadResult{
				ItemID: job.item.ID,
				Title:  job.item.Title,
				State:  models.StateFailed,
				Err:    ctx.Err(),
				Error:  ctx.Err().Error(),
			}
			continue
		default:
		}

		res := e.Download(ctx, nil, job.item.ID, DownloadOpts{
			Quality:  opts.Quality,
			Title:    job.item.Title,
			Metadata: opts.Metadata,
		})
		if res.Title == "" {
			res.Title = job.item.Title
		}
		results <- *res
	}
}
