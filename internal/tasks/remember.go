package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/models"
)

// ChoiceStore persists disambiguation decisions by query.
//
// Lookup returns nil without error when nothing is stored.
type ChoiceStore interface {
	Lookup(query string) (*models.Song, error)
	Remember(query string, song models.Song) error
}

// RememberingGate answers from a [ChoiceStore] when the stored song is among the candidates and
// otherwise delegates, storing whatever the delegate picks. Store failures are logged and ignored.
type RememberingGate struct {
	store  ChoiceStore
	next   Gate
	logger *log.Logger
}

// NewRememberingGate wraps next with store lookups.
func NewRememberingGate(store ChoiceStore, next Gate, logger *log.Logger) *RememberingGate {
	return &RememberingGate{store: store, next: next, logger: logger}
}

func (g *RememberingGate) Decide(ctx context.Context, d Decision) (Choice, error) {
	song, err := g.store.Lookup(d.Query)
	if err != nil {
		g.warn("failed to look up remembered choice", "query", d.Query, "error", err)
	}
	if song != nil {
		for i, c := range d.Candidates {
			if c.ID == song.ID {
				g.debug("answered from remembered choice", "query", d.Query, "song", song.ID)
				return Pick(i), nil
			}
		}
	}

	choice, err := g.next.Decide(ctx, d)
	if err != nil || choice.Skip || choice.Index < 0 || choice.Index >= len(d.Candidates) {
		return choice, err
	}

	if err := g.store.Remember(d.Query, d.Candidates[choice.Index]); err != nil {
		g.warn("failed to remember choice", "query", d.Query, "error", err)
	}
	return choice, nil
}

func (g *RememberingGate) warn(msg string, kv ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, kv...)
	}
}

func (g *RememberingGate) debug(msg string, kv ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, kv...)
	}
}
