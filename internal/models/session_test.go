package models

import (
	"sync"
	"testing"
)

func TestSession(t *testing.T) {
	songA := Song{ID: "1", Title: "Song A", Artist: "Artist"}

	t.Run("Record", func(t *testing.T) {
		s := NewSession("run-1", []string{"Song A - Artist", "Song B - Artist"})

		first, ok := s.Record(MatchedOutcome("Song A - Artist", songA))
		if !ok || first.Position != 0 {
			t.Fatalf("expected first outcome at position 0, got %+v (ok=%v)", first, ok)
		}
		second, _ := s.Record(MissingOutcome("Song B - Artist"))
		if second.Position != 1 {
			t.Errorf("expected position 1, got %d", second.Position)
		}

		snap := s.Snapshot()
		if len(snap.Matched) != 1 || snap.Matched[0].ID != "1" {
			t.Errorf("expected matched [1], got %+v", snap.Matched)
		}
		if len(snap.Missing) != 1 || snap.Missing[0] != "Song B - Artist" {
			t.Errorf("expected missing [Song B - Artist], got %+v", snap.Missing)
		}
	})

	t.Run("Matched Without Song Is Missing", func(t *testing.T) {
		s := NewSession("run-2", nil)
		o, _ := s.Record(Outcome{Query: "x", Status: OutcomeMatched})
		if o.Status != OutcomeMissing {
			t.Errorf("expected missing status, got %s", o.Status)
		}
	})

	t.Run("Finalize Refuses Records", func(t *testing.T) {
		s := NewSession("run-3", nil)
		s.Finalize()
		if _, ok := s.Record(MissingOutcome("late")); ok {
			t.Error("expected record after finalize to be refused")
		}
		s.MarkIncomplete()
		if snap := s.Snapshot(); snap.Incomplete || !snap.Finalized {
			t.Errorf("expected finalized complete session, got %+v", snap)
		}
	})

	t.Run("Snapshot Is A Copy", func(t *testing.T) {
		s := NewSession("run-4", []string{"q"})
		s.Record(MatchedOutcome("q", songA))

		snap := s.Snapshot()
		snap.Matched[0].Title = "changed"
		snap.Outcomes[0].Song.Title = "changed"
		snap.Queries[0] = "changed"

		again := s.Snapshot()
		if again.Matched[0].Title != "Song A" || again.Outcomes[0].Song.Title != "Song A" || again.Queries[0] != "q" {
			t.Errorf("snapshot mutation leaked into session: %+v", again)
		}
	})

	t.Run("Concurrent Readers", func(t *testing.T) {
		s := NewSession("run-5", nil)
		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 50 {
					_ = s.Snapshot()
				}
			}()
		}
		for range 50 {
			s.Record(MissingOutcome("q"))
		}
		wg.Wait()

		if got := len(s.Snapshot().Outcomes); got != 50 {
			t.Errorf("expected 50 outcomes, got %d", got)
		}
	})
}

func TestRunRecord(t *testing.T) {
	s := NewSession("run-9", []string{"a", "b"})
	s.Record(MatchedOutcome("a", Song{ID: "7", Title: "A"}))
	s.Record(MissingOutcome("b"))
	s.Finalize()

	rec := NewRunRecord(s.Snapshot(), "http://localhost:8080")
	if err := rec.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	if rec.ID() != "run-9" || rec.MatchedCount != 1 || rec.MissingCount != 1 || !rec.Complete {
		t.Errorf("unexpected record %+v", rec)
	}
	if songs := rec.Songs(); len(songs) != 1 || songs[0].ID != "7" {
		t.Errorf("expected songs [7], got %+v", songs)
	}

	snap := rec.Snapshot()
	if len(snap.Queries) != 2 || snap.Missing[0] != "b" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	rec.MatchedCount = 2
	if err := rec.Validate(); err == nil {
		t.Error("expected count mismatch to fail validation")
	}
}
