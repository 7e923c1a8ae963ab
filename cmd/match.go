package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"

	"github.com/desertthunder/ndx/internal/formatter"
	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/desertthunder/ndx/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// matchResult is what `ndx match --json` prints.
type matchResult struct {
	Summary  *tasks.Summary         `json:"summary"`
	Session  models.SessionSnapshot `json:"session"`
	Playlist string                 `json:"playlist,omitempty"`
	Export   string                 `json:"export,omitempty"`
}

// Match searches the queries on the server and settles each result, asking at the terminal when a query
// has several candidates and auto-select is off.
//
// A run the server cut short, or whose stream failed mid-read, still prints, exports and stores what it
// has and then returns the run's error ([shared.ErrIncompleteRun] or [shared.ErrTransport]). A failed
// stream does not become a playlist.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	queries, err := r.loadQueries(cmd)
	if err != nil {
		return err
	}

	var format formatter.Format
	if v := cmd.String("export"); v != "" {
		if format, err = formatter.ParseFormat(v); err != nil {
			return err
		}
	}

	var db *sql.DB
	if r.needsDB(cmd) {
		if db, err = r.openDB(); err != nil {
			if r.remember(cmd) {
				return err
			}
			r.logger.Warn("run history disabled", "error", err)
		} else {
			defer db.Close()
		}
	}

	jsonOut := cmd.Bool("json")
	var promptOut io.Writer = syncWriter{mu: &r.mu, w: r.output}
	if jsonOut {
		promptOut = os.Stderr
	}

	setup, err := r.newMatchSetup(cmd, db, tasks.NewTerminalGate(r.input, promptOut))
	if err != nil {
		return err
	}

	coordinator := tasks.NewCoordinator(tasks.CoordinatorOpts{
		Searcher:   r.client,
		Reconciler: setup.reconciler,
		Recorder:   setup.recorder,
		Logger:     r.logger,
	})

	updates := make(chan tasks.Update, 16)
	run, err := coordinator.Start(ctx, queries, updates)
	if err != nil {
		return err
	}
	r.logger.Debug("run started", "run", run.ID, "queries", len(queries), "server", r.client.BaseURL())

	var (
		summary *tasks.Summary
		runErr  error
		g       errgroup.Group
	)
	g.Go(func() error {
		defer close(updates)
		summary, runErr = run.Wait()
		return nil
	})
	g.Go(func() error {
		var err error
		for u := range updates {
			if jsonOut || err != nil {
				continue
			}
			err = r.printUpdate(u)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	partial := errors.Is(runErr, shared.ErrIncompleteRun) || errors.Is(runErr, shared.ErrTransport)
	if runErr != nil && !partial {
		return runErr
	}

	snap := run.Session.Snapshot()
	result := matchResult{Summary: summary, Session: snap}

	if format != "" {
		path, err := formatter.WriteExport(snap, format, cmd.String("output"))
		if err != nil {
			return err
		}
		result.Export = path
		r.logger.Info("session exported", "path", path, "format", format)
	}

	switch name := cmd.String("playlist"); {
	case name == "":
	case errors.Is(runErr, shared.ErrTransport):
		r.logger.Warn("playlist not created, the search stream failed", "name", name)
	default:
		msg, err := r.client.Generate(ctx, name, snap.Matched)
		if err != nil {
			return err
		}
		result.Playlist = name
		r.savePlaylistName(setup, run.ID, name)
		r.logger.Info("playlist created", "name", name, "songs", len(snap.Matched), "message", msg)
	}

	if jsonOut {
		if err := r.writeJSON(result, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.printResult(result)
	}

	return runErr
}

func (r *Runner) printUpdate(u tasks.Update) error {
	switch u.Phase {
	case tasks.Progress:
		r.logger.Debug(u.Message)
	case tasks.Matched, tasks.Missing:
		return r.writePlain("[%d/%d] %s\n", u.Step, u.Total, u.Message)
	}
	return nil
}

func (r *Runner) printResult(res matchResult) {
	if res.Summary != nil {
		r.writePlainln("%s", res.Summary)
	}
	if len(res.Session.Missing) > 0 {
		r.writePlain("Not found:\n")
		for _, q := range res.Session.Missing {
			r.writePlain("  - %s\n", q)
		}
	}
	if res.Export != "" {
		r.writePlain("Exported to %s\n", res.Export)
	}
	if res.Playlist != "" {
		r.writePlain("✓ Created playlist %q with %d songs\n", res.Playlist, len(res.Session.Matched))
	}
}

// savePlaylistName records the playlist on the stored run. Runs that were not stored are ignored.
func (r *Runner) savePlaylistName(setup *matchSetup, runID, name string) {
	if setup.runs == nil {
		return
	}
	if err := setup.runs.SetPlaylistName(runID, name); err != nil {
		r.logger.Warn("failed to record playlist name", "run", runID, "error", err)
	}
}
