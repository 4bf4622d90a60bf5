package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
	"github.com/Jakson-Almeida/shortsgrab/internal/ui"
)

// Browse launches the interactive search-and-download TUI.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.requireEngine(); err != nil {
		return err
	}

	params := models.SearchParams{
		Kind:      models.SearchVideos,
		Term:      cmd.StringArg("query"),
		ChannelID: cmd.String("channel"),
		Order:     cmd.String("order"),
	}

	searcher := r.newSearcher()
	firstPage, err := searcher.Start(ctx, params)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/shortsgrab-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, searcher, r.engine, firstPage, cmd.String("quality"))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
