package tasks

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Policy picks a candidate without user involvement. It must return an index into candidates,
// which always holds at least two songs.
type Policy interface {
	Choose(query string, candidates []models.Song) int
}

// PolicyFunc adapts a function to [Policy].
type PolicyFunc func(query string, candidates []models.Song) int

func (f PolicyFunc) Choose(query string, candidates []models.Song) int { return f(query, candidates) }

// FirstCandidate picks the song the server ranked first.
var FirstCandidate = PolicyFunc(func(string, []models.Song) int { return 0 })

// SimilarityPolicy ranks candidates by fuzzy distance between the query and "Title - Artist",
// then by title alone. Ties keep server order; when nothing ranks it picks the first candidate.
type SimilarityPolicy struct{}

func (SimilarityPolicy) Choose(query string, candidates []models.Song) int {
	full := make([]string, len(candidates))
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		full[i] = c.Title + " - " + c.Artist
		titles[i] = c.Title
	}

	if i, ok := best(query, full); ok {
		return i
	}

	title, _, _ := strings.Cut(query, " - ")
	if i, ok := best(strings.TrimSpace(title), titles); ok {
		return i
	}
	return 0
}

func best(source string, targets []string) (int, bool) {
	ranks := fuzzy.RankFindNormalizedFold(source, targets)
	if len(ranks) == 0 {
		return 0, false
	}
	sort.Stable(ranks)
	return ranks[0].OriginalIndex, true
}

// PolicyByName resolves the policy names accepted in configuration.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first":
		return FirstCandidate, nil
	case "similarity", "fuzzy":
		return SimilarityPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", name)
	}
}

// Switch is the auto-select toggle. It may be flipped from any goroutine; the reconciler reads it
// once per multiple-candidate result.
type Switch struct {
	on atomic.Bool
}

// NewSwitch returns a switch in the given state.
func NewSwitch(on bool) *Switch {
	s := &Switch{}
	s.on.Store(on)
	return s
}

func (s *Switch) Enabled() bool { return s != nil && s.on.Load() }

func (s *Switch) Set(on bool) { s.on.Store(on) }

// Toggle flips the switch and returns the new state.
func (s *Switch) Toggle() bool {
	for {
		old := s.on.Load()
		if s.on.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
