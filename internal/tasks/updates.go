package tasks

import (
	"fmt"

	"github.com/desertthunder/ndx/internal/models"
)

// Update is a state change reported to the rendering layer during a run.
//
// Snapshot is set on outcome and summary updates and is a copy the receiver may keep.
type Update struct {
	RunID    string                  // Run that produced the update
	Phase    Phase                   // Kind of update
	Step     int                     // 1-based position of the query being processed
	Total    int                     // Total number of queries in the run
	Message  string                  // Human-readable message for display
	Query    string                  // Query the update is about, if any
	Outcome  *models.Outcome         // Set for Matched and Missing
	Snapshot *models.SessionSnapshot // Set for Matched, Missing and Summary
	Summary  *Summary                // Set for Summary
}

// Phase enumerates update kinds.
type Phase int

const (
	Progress Phase = iota
	Matched
	Missing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Progress:
		return "progress"
	case Matched:
		return "matched"
	case Missing:
		return "missing"
	case Finished:
		return "summary"
	default:
		return ""
	}
}

// Summary reports the counts of a run.
type Summary struct {
	RunID    string `json:"run_id"`
	Matched  int    `json:"matched"`
	Missing  int    `json:"missing"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
}

func (s Summary) String() string {
	state := "complete"
	if !s.Complete {
		state = "incomplete"
	}
	return fmt.Sprintf("%d matched, %d missing of %d (%s)", s.Matched, s.Missing, s.Total, state)
}

func summarize(snap models.SessionSnapshot) *Summary {
	return &Summary{
		RunID:    snap.ID,
		Matched:  len(snap.Matched),
		Missing:  len(snap.Missing),
		Total:    len(snap.Queries),
		Complete: snap.Finalized,
	}
}

func progressUpdate(runID string, ev models.Event) Update {
	return Update{
		RunID:   runID,
		Phase:   Progress,
		Step:    ev.Index + 1,
		Total:   ev.Total,
		Query:   ev.Query,
		Message: fmt.Sprintf("Searching (%d/%d): %s", ev.Index+1, ev.Total, ev.Query),
	}
}

func outcomeUpdate(o models.Outcome, snap models.SessionSnapshot) Update {
	u := Update{
		RunID:    snap.ID,
		Phase:    Missing,
		Step:     o.Position + 1,
		Total:    len(snap.Queries),
		Query:    o.Query,
		Outcome:  &o,
		Snapshot: &snap,
		Message:  fmt.Sprintf("✗ %s", o.Query),
	}
	if o.Matched() {
		u.Phase = Matched
		u.Message = fmt.Sprintf("✓ %s → %s", o.Query, o.Song)
	}
	return u
}

func summaryUpdate(s *Summary, snap models.SessionSnapshot) Update {
	return Update{
		RunID:    s.RunID,
		Phase:    Finished,
		Step:     s.Matched + s.Missing,
		Total:    s.Total,
		Summary:  s,
		Snapshot: &snap,
		Message:  fmt.Sprintf("Done: %d matched, %d missing", s.Matched, s.Missing),
	}
}
