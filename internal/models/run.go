package models

import (
	"fmt"
	"time"
)

// RunRecord is the stored form of a finished search run.
type RunRecord struct {
	id           string
	Sequence     int
	ServerURL    string
	QueryCount   int
	MatchedCount int
	MissingCount int
	Complete     bool
	PlaylistName string
	Outcomes     []Outcome
	createdAt    time.Time
	updatedAt    time.Time
	DeletedAt    *time.Time
}

// NewRunRecord builds a record from a session snapshot.
func NewRunRecord(snap SessionSnapshot, serverURL string) *RunRecord {
	now := time.Now()
	return &RunRecord{
		id:           snap.ID,
		ServerURL:    serverURL,
		QueryCount:   len(snap.Queries),
		MatchedCount: len(snap.Matched),
		MissingCount: len(snap.Missing),
		Complete:     snap.Finalized,
		Outcomes:     snap.Outcomes,
		createdAt:    now,
		updatedAt:    now,
	}
}

// RestoreRunRecord rebuilds a record read from storage.
func RestoreRunRecord(id string, createdAt, updatedAt time.Time) *RunRecord {
	return &RunRecord{id: id, createdAt: createdAt, updatedAt: updatedAt}
}

func (r *RunRecord) ID() string           { return r.id }
func (r *RunRecord) CreatedAt() time.Time { return r.createdAt }
func (r *RunRecord) UpdatedAt() time.Time { return r.updatedAt }

// Touch bumps the update timestamp.
func (r *RunRecord) Touch() { r.updatedAt = time.Now() }

func (r *RunRecord) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if r.MatchedCount+r.MissingCount != len(r.Outcomes) {
		return fmt.Errorf("run %s: %d outcomes do not add up to %d matched and %d missing",
			r.id, len(r.Outcomes), r.MatchedCount, r.MissingCount)
	}
	return nil
}

// Songs returns the matched songs in outcome order.
func (r *RunRecord) Songs() []Song {
	songs := make([]Song, 0, r.MatchedCount)
	for _, o := range r.Outcomes {
		if o.Matched() {
			songs = append(songs, *o.Song)
		}
	}
	return songs
}

// Snapshot converts the record back into the shape used by exporters.
func (r *RunRecord) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		ID:         r.id,
		StartedAt:  r.createdAt,
		Matched:    []Song{},
		Missing:    []string{},
		Outcomes:   r.Outcomes,
		Finalized:  r.Complete,
		Incomplete: !r.Complete,
	}
	for _, o := range r.Outcomes {
		snap.Queries = append(snap.Queries, o.Query)
		if o.Matched() {
			snap.Matched = append(snap.Matched, *o.Song)
		} else {
			snap.Missing = append(snap.Missing, o.Query)
		}
	}
	return snap
}
