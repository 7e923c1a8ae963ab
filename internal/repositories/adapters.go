package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

// ChoiceStoreAdapter implements tasks.ChoiceStore using ChoiceRepository.
//
// Queries are keyed by [shared.NormalizeQueryKey], so "Song A" and "song  a" share a choice.
type ChoiceStoreAdapter struct {
	repo *ChoiceRepository
}

// NewChoiceStoreAdapter creates a new ChoiceStoreAdapter with the given repository
func NewChoiceStoreAdapter(repo *ChoiceRepository) *ChoiceStoreAdapter {
	return &ChoiceStoreAdapter{repo: repo}
}

// Lookup returns the remembered song for query, or nil when there is none.
// A found choice has its hit count bumped.
func (a *ChoiceStoreAdapter) Lookup(query string) (*models.Song, error) {
	key := shared.NormalizeQueryKey(query)
	if key == "" {
		return nil, nil
	}

	c, err := a.repo.Get(key)
	if errors.Is(err, shared.ErrChoiceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := a.repo.Hit(key); err != nil {
		return nil, fmt.Errorf("failed to record hit: %w", err)
	}

	song := c.Song
	return &song, nil
}

// Remember stores song as the answer for query, replacing any earlier choice.
func (a *ChoiceStoreAdapter) Remember(query string, song models.Song) error {
	key := shared.NormalizeQueryKey(query)
	if key == "" {
		return nil
	}
	return a.repo.Upsert(models.NewChoice(key, query, song))
}

// RunRecorderAdapter implements tasks.RunRecorder using RunRepository.
type RunRecorderAdapter struct {
	repo      *RunRepository
	serverURL string
}

// NewRunRecorderAdapter records runs searched against serverURL.
func NewRunRecorderAdapter(repo *RunRepository, serverURL string) *RunRecorderAdapter {
	return &RunRecorderAdapter{repo: repo, serverURL: serverURL}
}

// SaveRun stores a snapshot as a run record.
func (a *RunRecorderAdapter) SaveRun(snap models.SessionSnapshot) error {
	if err := a.repo.Create(models.NewRunRecord(snap, a.serverURL)); err != nil {
		return fmt.Errorf("failed to save run %s: %w", snap.ID, err)
	}
	return nil
}
