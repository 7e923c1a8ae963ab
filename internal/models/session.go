package models

import (
	"slices"
	"sync"
	"time"
)

// Session accumulates the outcomes of one search run.
//
// It is written by a single reconciler goroutine and read through [Session.Snapshot].
// Outcomes are append-only; after Finalize further records are refused.
type Session struct {
	mu         sync.RWMutex
	id         string
	queries    []string
	startedAt  time.Time
	matched    []Song
	missing    []string
	outcomes   []Outcome
	finalized  bool
	incomplete bool
}

// SessionSnapshot is an immutable copy of a session's state.
type SessionSnapshot struct {
	ID         string    `json:"id" yaml:"id"`
	Queries    []string  `json:"queries" yaml:"queries"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	Matched    []Song    `json:"matched" yaml:"matched"`
	Missing    []string  `json:"missing" yaml:"missing"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`
	Finalized  bool      `json:"finalized" yaml:"finalized"`
	Incomplete bool      `json:"incomplete" yaml:"incomplete"`
}

// NewSession creates an empty session for the given queries.
func NewSession(id string, queries []string) *Session {
	return &Session{
		id:        id,
		queries:   slices.Clone(queries),
		startedAt: time.Now(),
		matched:   []Song{},
		missing:   []string{},
		outcomes:  []Outcome{},
	}
}

// ID returns the run id the session belongs to.
func (s *Session) ID() string { return s.id }

// Record appends an outcome, assigning its position. It reports false once the session is finalized.
func (s *Session) Record(o Outcome) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return o, false
	}

	o.Position = len(s.outcomes)
	if o.Matched() {
		song := *o.Song
		o.Song = &song
		s.matched = append(s.matched, song)
	} else {
		o.Status = OutcomeMissing
		o.Song = nil
		s.missing = append(s.missing, o.Query)
	}
	s.outcomes = append(s.outcomes, o)
	return o, true
}

// Finalize marks the run as completed by a done event.
func (s *Session) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = true
	s.incomplete = false
}

// MarkIncomplete flags a run that ended without a done event. Recorded outcomes stay usable.
func (s *Session) MarkIncomplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finalized {
		s.incomplete = true
	}
}

// Finalized reports whether a done event was processed.
func (s *Session) Finalized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalized
}

// Snapshot copies the current state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcomes := make([]Outcome, len(s.outcomes))
	for i, o := range s.outcomes {
		if o.Song != nil {
			song := *o.Song
			o.Song = &song
		}
		outcomes[i] = o
	}

	return SessionSnapshot{
		ID:         s.id,
		Queries:    slices.Clone(s.queries),
		StartedAt:  s.startedAt,
		Matched:    slices.Clone(s.matched),
		Missing:    slices.Clone(s.missing),
		Outcomes:   outcomes,
		Finalized:  s.finalized,
		Incomplete: s.incomplete,
	}
}

// SongIDs returns the ids of the matched songs in resolution order.
func (s SessionSnapshot) SongIDs() []string {
	ids := make([]string, len(s.Matched))
	for i, song := range s.Matched {
		ids[i] = song.ID
	}
	return ids
}
