package main

import (
	"context"
	"database/sql"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ndx/internal/query"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/desertthunder/ndx/internal/tasks"
	"github.com/desertthunder/ndx/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/ndx-tui.log"

// TUI launches the interactive terminal UI for matching.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	if path == "-" {
		return fmt.Errorf("%w: the TUI cannot read queries from stdin", shared.ErrInvalidFlag)
	}
	if cmd.Bool("watch") && path == "" {
		return fmt.Errorf("%w: --watch needs --file", shared.ErrMissingArgument)
	}

	queries, err := r.loadQueries(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = tuiLogPath
	}
	fileLogger, logFile, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	var db *sql.DB
	if r.needsDB(cmd) {
		if db, err = r.openDB(); err != nil {
			return err
		}
		defer db.Close()
	}

	gate := tasks.NewPromptGate(1)
	setup, err := r.newMatchSetup(cmd, db, gate)
	if err != nil {
		return err
	}

	coordinator := tasks.NewCoordinator(tasks.CoordinatorOpts{
		Searcher:   r.client,
		Reconciler: setup.reconciler,
		Recorder:   setup.recorder,
		Logger:     r.logger,
	})
	defer coordinator.Stop()

	opts := ui.Options{
		Coordinator: coordinator,
		Gate:        gate,
		Submitter:   r.client,
		AutoSelect:  setup.autoSelect,
		Queries:     queries,
		Logger:      r.logger,
	}

	if path != "" && cmd.String("from-dir") == "" && cmd.Args().Len() == 0 {
		opts.Reload = func() ([]string, error) { return query.FromFile(path) }
	}

	if cmd.Bool("watch") {
		watcher, err := ui.Watch(path)
		if err != nil {
			return err
		}
		defer watcher.Close()
		opts.Watcher = watcher
		opts.WatchPath = path
	}

	if setup.runs != nil {
		opts.OnGenerate = setup.runs.SetPlaylistName
	}

	p := tea.NewProgram(ui.NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
