package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Jakson-Almeida/shortsgrab/internal/formatter"
	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
	"github.com/Jakson-Almeida/shortsgrab/internal/tasks"
)

func (r *Runner) requireEngine() error {
	if r.engine == nil {
		return fmt.Errorf("%w: download engine not initialized, run 'shortsgrab setup' first", shared.ErrServiceUnavailable)
	}
	return nil
}

// printProgress drains a progress channel onto the output writer, returning a
// channel closed once the drain is finished.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Message != "" {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return done
}

// Formats lists the quality descriptors available for an item.
func (r *Runner) Formats(ctx context.Context, cmd *cli.Command) error {
	itemID := cmd.StringArg("id")
	if itemID == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	if r.backend == nil {
		return fmt.Errorf("%w: backend service not initialized", shared.ErrServiceUnavailable)
	}

	formats, err := r.backend.Formats(ctx, itemID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formats, true)
	}

	return r.writePlain("%s", formatter.FormatTable(itemID, formats))
}

// Download runs a single download session, printing progress as it arrives.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	itemID := cmd.StringArg("id")
	if itemID == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	if err := r.requireEngine(); err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	opts := tasks.DownloadOpts{
		Quality: cmd.String("quality"),
		Title:   cmd.String("title"),
		Metadata: models.MetadataOptions{
			SaveVideo:       true,
			SaveDescription: cmd.Bool("save-description"),
			SaveLinks:       cmd.Bool("save-links"),
			LinkFilter:      cmd.String("link-filter"),
		},
		Timeout: downloadTimeout(r.config),
		Delay:   fallbackDelay(r.config),
	}

	r.logger.Info("starting download", "item", itemID, "quality", opts.Quality)

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.printProgress(progress)

	result := r.engine.Download(ctx, progress, itemID, opts)
	close(progress)
	<-done

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if result.Err != nil {
		if result.WatchURL != "" {
			r.writePlain("Watch it manually: %s\n", result.WatchURL)
		}
		return result.Err
	}

	return nil
}

// Batch downloads multiple items concurrently with per-item isolation.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one video id", shared.ErrMissingArgument)
	}
	if err := r.requireEngine(); err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	items := make([]models.Video, len(ids))
	for i, id := range ids {
		items[i] = models.Video{ID: id}
	}

	opts := tasks.BatchOpts{
		Quality:     cmd.String("quality"),
		NumWorkers:  int(cmd.Int("workers")),
		RateLimit:   cmd.Float("rate"),
		SkipMarked:  cmd.Bool("skip-downloaded"),
		ManifestDir: cmd.String("manifest-dir"),
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Downloads.Workers
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Downloads.RateLimit
	}

	r.logger.Info("starting batch download", "items", len(items), "workers", opts.NumWorkers)

	progress := make(chan tasks.ProgressUpdate, 100)
	done := r.printProgress(progress)

	result, err := r.engine.Batch(ctx, progress, items, opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainln("Batch complete: %d succeeded, %d failed, %d skipped of %d",
		result.Succeeded, result.Failed, result.Skipped, result.Total)
	for _, item := range result.Results {
		if item.Err != nil {
			r.writePlain("  ✗ %s: %v\n", item.ItemID, item.Err)
			if item.WatchURL != "" {
				r.writePlain("    Watch it manually: %s\n", item.WatchURL)
			}
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest written to %s\n", result.ManifestPath)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", result.Failed, result.Total)
	}
	return nil
}

// HistoryList shows download history records, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: database not initialized, run 'shortsgrab setup' first", shared.ErrServiceUnavailable)
	}

	records, err := r.history.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	return r.writePlain("%s", formatter.HistoryTable(records))
}

// HistoryPrune removes download markers older than the given age.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: database not initialized, run 'shortsgrab setup' first", shared.ErrServiceUnavailable)
	}

	maxAge := time.Duration(cmd.Int("days")) * 24 * time.Hour
	removed, err := r.history.Prune(maxAge)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Removed %d download markers\n", removed)
}
