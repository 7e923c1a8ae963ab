// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// queryFlags select where the queries of a run come from.
func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read queries from a file, one per line (\"-\" for stdin)",
		},
		&cli.StringFlag{
			Name:  "from-dir",
			Usage: "Build queries from the tags of the audio files in a directory",
		},
	}
}

// resolveFlags control how multiple-candidate results are settled and what is stored.
func resolveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "auto-select",
			Aliases: []string{"a"},
			Usage:   "Pick a candidate without asking when a query has several matches",
		},
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Auto-select policy: first or similarity",
		},
		&cli.BoolFlag{
			Name:  "remember",
			Usage: "Answer repeated prompts from remembered choices and remember new ones",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Do not store the run in the history database",
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "migrations",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupMigrations,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// matchCommand runs a search and resolves ambiguous results at the terminal.
func matchCommand(r *Runner) *cli.Command {
	flags := append(queryFlags(), resolveFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "export",
			Usage: "Export the session as json, csv, markdown, txt or yaml",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Export file path (default: ndx_<run id>.<ext>)",
		},
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Create a playlist with this name from the matched songs",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the session as JSON instead of progress lines",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	)

	return &cli.Command{
		Name:      "match",
		Aliases:   []string{"m"},
		Usage:     "Search queries on the server and reconcile the results",
		ArgsUsage: "[query...]",
		Flags:     flags,
		Action:    r.Match,
	}
}

// tuiCommand returns the top-level TUI command for interactive matching.
func tuiCommand(r *Runner) *cli.Command {
	flags := append(queryFlags(), resolveFlags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Search again whenever the query file is saved",
	})

	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch interactive TUI for matching",
		ArgsUsage: "[query...]",
		Flags:     flags,
		Action:    r.TUI,
	}
}

// generateCommand submits a stored run or a list of song ids as a playlist.
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Create a playlist from a stored run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Playlist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Run id or sequence number (default: latest)",
			},
			&cli.StringFlag{
				Name:  "ids",
				Usage: "Read song ids from a file, one per line, instead of a run",
			},
		},
		Action: r.Generate,
	}
}

// serveCommand runs the HTTP backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search and playlist API over a Navidrome library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port",
			},
			&cli.StringFlag{
				Name:  "web-dir",
				Usage: "Directory of static files served at /",
			},
		},
		Action: r.Serve,
	}
}

// historyCommand inspects stored runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect stored runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "complete",
						Usage: "Only show runs that finished",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a run's outcomes",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "json, csv, markdown, txt or yaml",
						Value: "txt",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// choicesCommand manages remembered choices.
func choicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "choices",
		Usage: "Manage remembered choices",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List remembered choices",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ChoicesList,
			},
			{
				Name:  "forget",
				Usage: "Forget the choice stored for a query",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Action: r.ChoicesForget,
			},
		},
	}
}

// pingCommand checks the server and its catalog.
func pingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check that the server can reach its Navidrome library",
		Action: r.Ping,
	}
}
