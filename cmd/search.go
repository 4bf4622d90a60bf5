package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Jakson-Almeida/shortsgrab/internal/formatter"
	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog service not initialized, set a YouTube API key in config.toml", shared.ErrServiceUnavailable)
	}
	return nil
}

// SearchVideos searches for short-form videos and prints the requested page.
func (r *Runner) SearchVideos(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	params := models.SearchParams{
		Kind:      models.SearchVideos,
		Term:      cmd.StringArg("query"),
		ChannelID: cmd.String("channel"),
		Order:     cmd.String("order"),
		PageSize:  int(cmd.Int("limit")),
	}

	searcher := r.newSearcher()
	page, err := searcher.Start(ctx, params)
	if err != nil {
		return err
	}

	target := int(cmd.Int("page"))
	for searcher.Page() < target {
		if !searcher.HasNext() {
			return fmt.Errorf("%w: no page %d, results end at page %d", shared.ErrInvalidArgument, target, searcher.Page())
		}
		if page, err = searcher.Next(ctx); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.VideoTable(page.Videos, searcher.Page()))
}

// SearchChannels searches for channels matching a term.
func (r *Runner) SearchChannels(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	params := models.SearchParams{
		Kind:     models.SearchChannels,
		Term:     cmd.StringArg("query"),
		PageSize: int(cmd.Int("limit")),
	}

	searcher := r.newSearcher()
	page, err := searcher.Start(ctx, params)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.ChannelTable(page.Channels))
}

// SearchHistory lists recent searches, newest first.
func (r *Runner) SearchHistory(ctx context.Context, cmd *cli.Command) error {
	if r.searches == nil {
		return fmt.Errorf("%w: database not initialized, run 'shortsgrab setup' first", shared.ErrServiceUnavailable)
	}

	records, err := r.searches.History()
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.SearchHistoryList(records))
}

// SearchHistoryClear removes all retained searches.
func (r *Runner) SearchHistoryClear(ctx context.Context, cmd *cli.Command) error {
	if r.searches == nil {
		return fmt.Errorf("%w: database not initialized, run 'shortsgrab setup' first", shared.ErrServiceUnavailable)
	}

	if err := r.searches.Clear(); err != nil {
		return err
	}

	return r.writePlain("✓ Search history cleared\n")
}
