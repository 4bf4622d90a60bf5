// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database and configuration initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles account and session operations.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "confirm",
						Usage:    "Password confirmation",
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session without contacting the server",
				Action: r.AuthStatus,
			},
			{
				Name:   "verify",
				Usage:  "Check the stored session against the server",
				Action: r.AuthVerify,
			},
		},
	}
}

// searchCommand handles catalog search operations.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the shorts catalog",
		Commands: []*cli.Command{
			{
				Name:  "videos",
				Usage: "Search for short-form videos",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "channel",
						Usage: "Restrict results to a channel (ID, URL, or @handle)",
					},
					&cli.StringFlag{
						Name:  "order",
						Usage: "Result order: date (newest first) or date:asc",
						Value: "date",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Results per page (max 50)",
						Value:   25,
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number to show",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SearchVideos,
			},
			{
				Name:  "channels",
				Usage: "Search for channels",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Results per page (max 50)",
						Value:   25,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SearchChannels,
			},
			{
				Name:   "history",
				Usage:  "Show recent searches",
				Action: r.SearchHistory,
			},
			{
				Name:   "clear",
				Usage:  "Clear the search history",
				Action: r.SearchHistoryClear,
			},
		},
	}
}

// formatsCommand lists the available quality descriptors for an item.
func formatsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "List available formats for a video",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Formats,
	}
}

// downloadCommand handles single-item downloads.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download a video",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Format/quality id",
				Value:   "best",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Display title used for the saved filename",
			},
			&cli.BoolFlag{
				Name:  "save-description",
				Usage: "Bundle the video description",
			},
			&cli.BoolFlag{
				Name:  "save-links",
				Usage: "Bundle links extracted from the description",
			},
			&cli.StringFlag{
				Name:  "link-filter",
				Usage: "Substring filter applied to extracted links",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Download,
	}
}

// batchCommand handles concurrent multi-item downloads.
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Download multiple videos concurrently",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Format/quality id applied to every item",
				Value:   "best",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent workers",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Download starts per second",
			},
			&cli.BoolFlag{
				Name:  "skip-downloaded",
				Usage: "Skip items already in download history",
			},
			&cli.StringFlag{
				Name:  "manifest-dir",
				Usage: "Write a JSON manifest of the batch outcome here",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Batch,
	}
}

// historyCommand handles the local download history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage download history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show downloaded items, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "prune",
				Usage: "Remove old download markers",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Remove markers older than this many days",
						Value: 90,
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

// browseCommand launches the interactive search-and-download TUI.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "interactive"},
		Usage:   "Interactively search and download videos",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "channel",
				Usage: "Restrict results to a channel (ID, URL, or @handle)",
			},
			&cli.StringFlag{
				Name:  "order",
				Usage: "Result order: date (newest first) or date:asc",
				Value: "date",
			},
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Format/quality id used when downloading",
				Value:   "best",
			},
		},
		Action: r.Browse,
	}
}
