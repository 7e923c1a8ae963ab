package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

var (
	songA = models.Song{ID: "a", Title: "Song A", Artist: "Artist A", Album: "Album A", Path: "A/a.flac"}
	songB = models.Song{ID: "b", Title: "Song B", Artist: "Artist B"}
)

func testSnapshot(t *testing.T, id string, finalize bool) models.SessionSnapshot {
	t.Helper()
	s := models.NewSession(id, []string{"Song A", "Song X", "Song B"})
	s.Record(models.MatchedOutcome("Song A", songA))
	s.Record(models.MissingOutcome("Song X"))
	s.Record(models.MatchedOutcome("Song B", songB))
	if finalize {
		s.Finalize()
	} else {
		s.MarkIncomplete()
	}
	return s.Snapshot()
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "runs")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "nothing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewRunRecord(testSnapshot(t, "run-1", true), "http://localhost:8080")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence)
		}

		got, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.MatchedCount != 2 || got.MissingCount != 1 || got.QueryCount != 3 || !got.Complete {
			t.Errorf("unexpected counts: %+v", got)
		}
		if got.ServerURL != "http://localhost:8080" {
			t.Errorf("expected server url, got %q", got.ServerURL)
		}
		if len(got.Outcomes) != 3 {
			t.Fatalf("expected 3 outcomes, got %d", len(got.Outcomes))
		}
		if got.Outcomes[0].Song == nil || *got.Outcomes[0].Song != songA {
			t.Errorf("expected %v, got %v", songA, got.Outcomes[0].Song)
		}
		if got.Outcomes[1].Status != models.OutcomeMissing || got.Outcomes[1].Song != nil {
			t.Errorf("expected missing outcome, got %+v", got.Outcomes[1])
		}
		songs := got.Songs()
		if len(songs) != 2 || songs[1] != songB {
			t.Errorf("unexpected songs: %v", songs)
		}
	})

	t.Run("GetBySequence and Latest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		for _, id := range []string{"run-1", "run-2"} {
			if err := repo.Create(models.NewRunRecord(testSnapshot(t, id, true), "")); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		got, err := repo.GetBySequence(1)
		if err != nil {
			t.Fatalf("failed to get run by sequence: %v", err)
		}
		if got.ID() != "run-1" {
			t.Errorf("expected run-1, got %s", got.ID())
		}

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if latest.ID() != "run-2" || len(latest.Outcomes) != 3 {
			t.Errorf("unexpected latest run: %s with %d outcomes", latest.ID(), len(latest.Outcomes))
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewRunRecord(testSnapshot(t, "run-1", true), "")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.PlaylistName = "Mix"
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.PlaylistName != "Mix" {
			t.Errorf("expected playlist name Mix, got %q", got.PlaylistName)
		}
	})

	t.Run("SetPlaylistName", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if err := repo.Create(models.NewRunRecord(testSnapshot(t, "run-1", true), "")); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.SetPlaylistName("run-1", "Road trip"); err != nil {
			t.Fatalf("failed to set playlist name: %v", err)
		}
		got, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.PlaylistName != "Road trip" {
			t.Errorf("expected playlist name Road trip, got %q", got.PlaylistName)
		}

		if err := repo.SetPlaylistName("missing", "x"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if err := repo.Create(models.NewRunRecord(testSnapshot(t, "run-1", true), "")); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete("run-1"); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get("run-1"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		if err := repo.Delete("run-1"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound on second delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		runs := []struct {
			id       string
			complete bool
		}{
			{"run-1", true},
			{"run-2", false},
			{"run-3", true},
		}
		for _, r := range runs {
			if err := repo.Create(models.NewRunRecord(testSnapshot(t, r.id, r.complete), "")); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 || all[0].ID() != "run-3" {
			t.Errorf("expected newest first, got %d runs", len(all))
		}

		complete, err := repo.List(map[string]any{"complete": true})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(complete) != 2 {
			t.Errorf("expected 2 complete runs, got %d", len(complete))
		}

		limited, err := repo.List(map[string]any{"limit": 1})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 run, got %d", len(limited))
		}
	})

	t.Run("Errors", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)

		t.Run("NotFound", func(t *testing.T) {
			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrRunNotFound) {
				t.Errorf("expected ErrRunNotFound, got %v", err)
			}
			if _, err := repo.GetBySequence(99); !errors.Is(err, shared.ErrRunNotFound) {
				t.Errorf("expected ErrRunNotFound, got %v", err)
			}
			if _, err := repo.Latest(); !errors.Is(err, shared.ErrRunNotFound) {
				t.Errorf("expected ErrRunNotFound, got %v", err)
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			run := models.NewRunRecord(testSnapshot(t, "run-1", true), "")
			run.MatchedCount = 7
			if err := repo.Create(run); err == nil {
				t.Fatal("expected validation error for inconsistent counts")
			}
		})

		t.Run("DuplicateID", func(t *testing.T) {
			if err := repo.Create(models.NewRunRecord(testSnapshot(t, "dup", true), "")); err != nil {
				t.Fatalf("failed to create first run: %v", err)
			}
			if err := repo.Create(models.NewRunRecord(testSnapshot(t, "dup", true), "")); err == nil {
				t.Fatal("expected error when creating run with duplicate id")
			}

			var count int
			if err := db.QueryRow("SELECT COUNT(*) FROM run_outcomes WHERE run_id = 'dup'").Scan(&count); err != nil {
				t.Fatalf("failed to count outcomes: %v", err)
			}
			if count != 3 {
				t.Errorf("expected the failed insert to roll back, got %d outcomes", count)
			}
		})
	})
}

func TestChoiceRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewChoiceRepository(db)
		if err := repo.Create(models.NewChoice("song a", "Song A", songA)); err != nil {
			t.Fatalf("failed to create choice: %v", err)
		}

		got, err := repo.Get("song a")
		if err != nil {
			t.Fatalf("failed to get choice: %v", err)
		}
		if got.Song != songA || got.Query != "Song A" || got.Hits != 0 {
			t.Errorf("unexpected choice: %+v", got)
		}

		if err := repo.Create(models.NewChoice("song a", "Song A", songB)); err == nil {
			t.Error("expected error when creating duplicate key")
		}
	})

	t.Run("Upsert replaces the song and keeps hits", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewChoiceRepository(db)
		if err := repo.Upsert(models.NewChoice("song a", "Song A", songA)); err != nil {
			t.Fatalf("failed to upsert choice: %v", err)
		}
		if err := repo.Hit("song a"); err != nil {
			t.Fatalf("failed to record hit: %v", err)
		}
		if err := repo.Upsert(models.NewChoice("song a", "song a", songB)); err != nil {
			t.Fatalf("failed to upsert choice: %v", err)
		}

		got, err := repo.Get("song a")
		if err != nil {
			t.Fatalf("failed to get choice: %v", err)
		}
		if got.Song.ID != "b" || got.Hits != 1 {
			t.Errorf("unexpected choice: %+v", got)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewChoiceRepository(db)
		c := models.NewChoice("song a", "Song A", songA)
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create choice: %v", err)
		}

		c.Song = songB
		c.Hits = 5
		if err := repo.Update(c); err != nil {
			t.Fatalf("failed to update choice: %v", err)
		}

		got, _ := repo.Get("song a")
		if got.Song != songB || got.Hits != 5 {
			t.Errorf("unexpected choice: %+v", got)
		}

		if err := repo.Update(models.NewChoice("missing", "missing", songA)); !errors.Is(err, shared.ErrChoiceNotFound) {
			t.Errorf("expected ErrChoiceNotFound, got %v", err)
		}
	})

	t.Run("Delete and List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewChoiceRepository(db)
		for key, song := range map[string]models.Song{"song a": songA, "song b": songB, "song b live": songB} {
			if err := repo.Create(models.NewChoice(key, key, song)); err != nil {
				t.Fatalf("failed to create choice: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list choices: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 choices, got %d", len(all))
		}

		bs, err := repo.List(map[string]any{"song_id": "b"})
		if err != nil {
			t.Fatalf("failed to list choices: %v", err)
		}
		if len(bs) != 2 {
			t.Errorf("expected 2 choices for song b, got %d", len(bs))
		}

		if err := repo.Delete("song a"); err != nil {
			t.Fatalf("failed to delete choice: %v", err)
		}
		if _, err := repo.Get("song a"); !errors.Is(err, shared.ErrChoiceNotFound) {
			t.Errorf("expected ErrChoiceNotFound, got %v", err)
		}
		if err := repo.Delete("song a"); !errors.Is(err, shared.ErrChoiceNotFound) {
			t.Errorf("expected ErrChoiceNotFound, got %v", err)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewChoiceRepository(db)
		if err := repo.Create(models.NewChoice("", "q", songA)); err == nil {
			t.Error("expected error for empty key")
		}
		if err := repo.Upsert(models.NewChoice("q", "q", models.Song{Title: "no id"})); err == nil {
			t.Error("expected error for missing song id")
		}
	})
}

func TestChoiceStoreAdapter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewChoiceRepository(db)
	store := NewChoiceStoreAdapter(repo)

	t.Run("nothing stored", func(t *testing.T) {
		song, err := store.Lookup("Song A")
		if err != nil || song != nil {
			t.Errorf("expected nil, nil; got %v, %v", song, err)
		}
	})

	t.Run("remember then look up with a different spelling", func(t *testing.T) {
		if err := store.Remember("Song A", songA); err != nil {
			t.Fatalf("failed to remember: %v", err)
		}

		song, err := store.Lookup("  song   A ")
		if err != nil {
			t.Fatalf("failed to look up: %v", err)
		}
		if song == nil || *song != songA {
			t.Errorf("expected %v, got %v", songA, song)
		}

		c, err := repo.Get("song a")
		if err != nil {
			t.Fatalf("failed to get choice: %v", err)
		}
		if c.Hits != 1 {
			t.Errorf("expected 1 hit, got %d", c.Hits)
		}
	})

	t.Run("blank query", func(t *testing.T) {
		if err := store.Remember("   ", songA); err != nil {
			t.Errorf("expected blank query to be ignored, got %v", err)
		}
		if song, err := store.Lookup(""); err != nil || song != nil {
			t.Errorf("expected nil, nil; got %v, %v", song, err)
		}
	})
}

func TestRunRecorderAdapter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRunRepository(db)
	recorder := NewRunRecorderAdapter(repo, "http://ndx.test")

	if err := recorder.SaveRun(testSnapshot(t, "run-1", false)); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := repo.Get("run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Complete || got.ServerURL != "http://ndx.test" {
		t.Errorf("unexpected run: %+v", got)
	}

	if err := recorder.SaveRun(testSnapshot(t, "run-1", false)); err == nil {
		t.Error("expected error saving the same run twice")
	}
}
