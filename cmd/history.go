package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ndx/internal/formatter"
	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/repositories"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/urfave/cli/v3"
)

// runSummary is one line of `ndx history list --json`.
type runSummary struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	ServerURL string    `json:"server_url,omitempty"`
	Queries   int       `json:"queries"`
	Matched   int       `json:"matched"`
	Missing   int       `json:"missing"`
	Complete  bool      `json:"complete"`
	Playlist  string    `json:"playlist,omitempty"`
}

func newRunSummary(run *models.RunRecord) runSummary {
	return runSummary{
		ID:        run.ID(),
		Sequence:  run.Sequence,
		CreatedAt: run.CreatedAt(),
		ServerURL: run.ServerURL,
		Queries:   run.QueryCount,
		Matched:   run.MatchedCount,
		Missing:   run.MissingCount,
		Complete:  run.Complete,
		Playlist:  run.PlaylistName,
	}
}

// HistoryList prints stored runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if cmd.Bool("complete") {
		criteria["complete"] = true
	}

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]runSummary, len(runs))
		for i, run := range runs {
			out[i] = newRunSummary(run)
		}
		return r.writeJSON(out, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs stored yet. Run `ndx match` first.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Runs (%d)", len(runs)))
	for _, run := range runs {
		state := "complete"
		if !run.Complete {
			state = "incomplete"
		}
		r.writePlain("#%-4d %s  %s  %3d/%-3d %-10s %s\n",
			run.Sequence, shortRunID(run.ID()), run.CreatedAt().Local().Format("2006-01-02 15:04"),
			run.MatchedCount, run.QueryCount, state, run.PlaylistName)
	}
	return nil
}

// HistoryShow renders one run in any export format.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := findRun(repositories.NewRunRepository(db), cmd.StringArg("run"))
	if err != nil {
		return err
	}

	data, err := formatter.Render(format, run.Snapshot())
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// HistoryDelete removes a run from the history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("run")
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: run id or sequence number", shared.ErrMissingArgument)
	}

	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs := repositories.NewRunRepository(db)
	run, err := findRun(runs, ref)
	if err != nil {
		return err
	}
	if err := runs.Delete(run.ID()); err != nil {
		return err
	}

	r.logger.Info("run deleted", "run", run.ID(), "sequence", run.Sequence)
	r.writePlain("✓ Deleted run #%d\n", run.Sequence)
	return nil
}

// ChoicesList prints the remembered choices.
func (r *Runner) ChoicesList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	choices, err := repositories.NewChoiceRepository(db).List(nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type entry struct {
			Query string      `json:"query"`
			Song  models.Song `json:"song"`
			Hits  int         `json:"hits"`
		}
		out := make([]entry, len(choices))
		for i, c := range choices {
			out[i] = entry{Query: c.Query, Song: c.Song, Hits: c.Hits}
		}
		return r.writeJSON(out, true)
	}

	if len(choices) == 0 {
		r.writePlain("No remembered choices.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Remembered choices (%d)", len(choices)))
	for _, c := range choices {
		r.writePlain("%s\n  → %s (used %d times)\n", c.Query, c.Song, c.Hits)
	}
	return nil
}

// ChoicesForget deletes the choice stored for a query. The query is matched the same way prompts are.
func (r *Runner) ChoicesForget(ctx context.Context, cmd *cli.Command) error {
	key := shared.NormalizeQueryKey(cmd.StringArg("query"))
	if key == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewChoiceRepository(db).Delete(key); err != nil {
		return err
	}

	r.writePlain("✓ Forgot the choice for %q\n", key)
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
