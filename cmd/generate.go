package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/query"
	"github.com/desertthunder/ndx/internal/repositories"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Generate creates a playlist from the matched songs of a stored run, or from a file of song ids.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")

	if path := cmd.String("ids"); path != "" {
		ids, err := query.FromFile(path)
		if err != nil {
			return err
		}
		songs := make([]models.Song, len(ids))
		for i, id := range ids {
			songs[i] = models.Song{ID: id}
		}
		return r.submit(ctx, name, songs)
	}

	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs := repositories.NewRunRepository(db)
	run, err := findRun(runs, cmd.String("run"))
	if err != nil {
		return err
	}

	songs := run.Songs()
	if len(songs) == 0 {
		return fmt.Errorf("%w: run #%d has no matched songs", shared.ErrValidation, run.Sequence)
	}
	if !run.Complete {
		r.logger.Warn("run did not finish, submitting the songs it matched", "run", run.ID(), "songs", len(songs))
	}

	if err := r.submit(ctx, name, songs); err != nil {
		return err
	}

	run.PlaylistName = name
	if err := runs.Update(run); err != nil {
		r.logger.Warn("failed to record playlist name", "run", run.ID(), "error", err)
	}
	return nil
}

func (r *Runner) submit(ctx context.Context, name string, songs []models.Song) error {
	r.logger.Info("creating playlist", "name", name, "songs", len(songs), "server", r.client.BaseURL())

	msg, err := r.client.Generate(ctx, name, songs)
	if err != nil {
		return err
	}

	r.writePlain("✓ %s (%q, %d songs)\n", msg, name, len(songs))
	return nil
}
