package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

// EventSource yields stream events in order. Next returns [io.EOF] when the stream ends.
// [*stream.Decoder] implements it.
type EventSource interface {
	Next() (models.Event, error)
}

// AutoSelector reports whether ambiguous results are resolved by policy. [*Switch] implements it.
type AutoSelector interface {
	Enabled() bool
}

// Reconciler drives search events through the match state machine, one event at a time.
type Reconciler struct {
	policy Policy
	auto   AutoSelector
	gate   Gate
	logger *log.Logger
}

// ReconcilerOpts contains the collaborators of a [Reconciler]. Nil fields get defaults:
// [FirstCandidate], auto-select off and [SkipGate].
type ReconcilerOpts struct {
	Policy     Policy
	AutoSelect AutoSelector
	Gate       Gate
	Logger     *log.Logger
}

// NewReconciler creates a reconciler from opts.
func NewReconciler(opts ReconcilerOpts) *Reconciler {
	if opts.Policy == nil {
		opts.Policy = FirstCandidate
	}
	if opts.AutoSelect == nil {
		opts.AutoSelect = NewSwitch(false)
	}
	if opts.Gate == nil {
		opts.Gate = SkipGate
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Reconciler{policy: opts.Policy, auto: opts.AutoSelect, gate: opts.Gate, logger: opts.Logger}
}

// sendProgress sends a progress update without blocking; a slow reader misses progress, never outcomes.
func (r *Reconciler) sendProgress(updates chan<- Update, u Update) {
	if updates == nil {
		return
	}
	select {
	case updates <- u:
	default:
	}
}

// deliver sends an outcome or summary update, waiting for the reader unless ctx ends first.
func (r *Reconciler) deliver(ctx context.Context, updates chan<- Update, u Update) error {
	if updates == nil {
		return nil
	}
	select {
	case updates <- u:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Run consumes events until a done event, the end of the stream, a read failure or cancellation.
//
// Every processed result is recorded in session before the next event is read. The summary is
// returned in all cases. The stream ending without done yields [shared.ErrIncompleteRun]; a read
// failure yields an error wrapping [shared.ErrTransport]; cancellation yields the context's cause.
// In each of those cases the session is marked incomplete and keeps its outcomes.
func (r *Reconciler) Run(ctx context.Context, events EventSource, session *models.Session, updates chan<- Update) (*Summary, error) {
	logger := shared.WithLogger(r.logger, "run", session.ID())

	abort := func(err error) (*Summary, error) {
		session.MarkIncomplete()
		return summarize(session.Snapshot()), err
	}

	total := len(session.Snapshot().Queries)
	for {
		if err := ctx.Err(); err != nil {
			return abort(context.Cause(ctx))
		}

		ev, err := events.Next()
		if errors.Is(err, io.EOF) {
			snap := session.Snapshot()
			logger.Warn("search stream ended without done", "outcomes", len(snap.Outcomes))
			return abort(fmt.Errorf("%w: stream ended after %d of %d results", shared.ErrIncompleteRun, len(snap.Outcomes), len(snap.Queries)))
		}
		if err != nil {
			if ctx.Err() != nil {
				return abort(context.Cause(ctx))
			}
			if !errors.Is(err, shared.ErrTransport) {
				err = fmt.Errorf("%w: %v", shared.ErrTransport, err)
			}
			logger.Error("search stream failed", "error", err)
			return abort(err)
		}

		switch ev.Type {
		case models.EventProgress:
			if ev.Total > 0 {
				total = ev.Total
			}
			r.sendProgress(updates, progressUpdate(session.ID(), ev))

		case models.EventResult:
			if ev.Total == 0 {
				ev.Total = total
			}
			outcome, err := r.resolve(ctx, session.ID(), ev)
			if err != nil {
				return abort(err)
			}

			recorded, ok := session.Record(outcome)
			if !ok {
				continue
			}
			logger.Debug("recorded outcome", "position", recorded.Position, "query", recorded.Query, "status", recorded.Status)
			if err := r.deliver(ctx, updates, outcomeUpdate(recorded, session.Snapshot())); err != nil {
				return abort(err)
			}

		case models.EventDone:
			session.Finalize()
			snap := session.Snapshot()
			summary := summarize(snap)
			logger.Info("search finished", "matched", summary.Matched, "missing", summary.Missing)
			if err := r.deliver(ctx, updates, summaryUpdate(summary, snap)); err != nil {
				return summary, err
			}
			return summary, nil

		default:
			logger.Debug("ignoring stream event", "type", ev.Type)
		}
	}
}

// resolve maps one result event to an outcome, consulting the policy or the gate for ambiguous results.
// It only returns an error when the run is canceled while the gate is pending.
func (r *Reconciler) resolve(ctx context.Context, runID string, ev models.Event) (models.Outcome, error) {
	switch {
	case ev.Status == models.StatusUnique && len(ev.Songs) == 1:
		return models.MatchedOutcome(ev.Query, ev.Songs[0]), nil

	case ev.Status == models.StatusMultiple && len(ev.Songs) > 1:
		if r.auto.Enabled() {
			i := r.policy.Choose(ev.Query, ev.Songs)
			if i < 0 || i >= len(ev.Songs) {
				r.logger.Warn("selection policy returned an invalid index", "query", ev.Query, "index", i)
				i = 0
			}
			return models.MatchedOutcome(ev.Query, ev.Songs[i]), nil
		}

		choice, err := r.gate.Decide(ctx, Decision{
			RunID:      runID,
			Query:      ev.Query,
			Step:       ev.Index + 1,
			Total:      ev.Total,
			Candidates: ev.Songs,
		})
		if err != nil {
			if ctx.Err() != nil {
				return models.Outcome{}, context.Cause(ctx)
			}
			r.logger.Warn("disambiguation failed, marking missing", "query", ev.Query, "error", err)
			return models.MissingOutcome(ev.Query), nil
		}
		if choice.Skip || choice.Index < 0 || choice.Index >= len(ev.Songs) {
			return models.MissingOutcome(ev.Query), nil
		}
		return models.MatchedOutcome(ev.Query, ev.Songs[choice.Index]), nil

	default:
		return models.MissingOutcome(ev.Query), nil
	}
}
