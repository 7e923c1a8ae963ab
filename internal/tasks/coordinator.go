package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/desertthunder/ndx/internal/stream"
)

// Searcher opens the search event stream for a list of queries. The stream must stop when ctx ends.
type Searcher interface {
	Search(ctx context.Context, queries []string) (io.ReadCloser, error)
}

// RunRecorder stores finished runs. Canceled runs and runs without outcomes are not recorded.
type RunRecorder interface {
	SaveRun(snap models.SessionSnapshot) error
}

// ErrSuperseded is the cancellation cause of a run replaced by a newer one.
var ErrSuperseded = errors.New("superseded by a newer run")

// Run is one search run started by a [Coordinator].
type Run struct {
	ID      string
	Session *models.Session

	cancel  context.CancelCauseFunc
	done    chan struct{}
	summary *Summary
	err     error
}

// Done is closed when the run's goroutine has exited.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run exits and returns its summary and error.
func (r *Run) Wait() (*Summary, error) {
	<-r.done
	return r.summary, r.err
}

// Cancel stops the run. Pending prompts become stale.
func (r *Run) Cancel() { r.cancel(context.Canceled) }

// Coordinator owns the single active search run. Starting a run cancels and waits for the previous one,
// so outcomes of an old run can never land in a new session.
type Coordinator struct {
	searcher   Searcher
	reconciler *Reconciler
	recorder   RunRecorder
	logger     *log.Logger

	mu      sync.Mutex
	current *Run
}

// CoordinatorOpts configures a [Coordinator]. Recorder is optional.
type CoordinatorOpts struct {
	Searcher   Searcher
	Reconciler *Reconciler
	Recorder   RunRecorder
	Logger     *log.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(opts CoordinatorOpts) *Coordinator {
	if opts.Reconciler == nil {
		opts.Reconciler = NewReconciler(ReconcilerOpts{Logger: opts.Logger})
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Coordinator{
		searcher:   opts.Searcher,
		reconciler: opts.Reconciler,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}
}

// Start begins a run over queries, reporting to updates. Any run still in flight is canceled first and
// Start returns only after it has exited.
func (c *Coordinator) Start(ctx context.Context, queries []string, updates chan<- Update) (*Run, error) {
	if len(queries) == 0 {
		return nil, shared.ErrEmptyInput
	}
	if c.searcher == nil {
		return nil, fmt.Errorf("%w: no searcher configured", shared.ErrServiceUnavailable)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.current; prev != nil {
		prev.cancel(ErrSuperseded)
		<-prev.done
		c.logger.Debug("previous run stopped", "run", prev.ID)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	id := shared.GenerateID()
	run := &Run{
		ID:      id,
		Session: models.NewSession(id, queries),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	c.current = run

	go c.execute(runCtx, run, queries, updates)
	return run, nil
}

// Current returns the most recently started run, or nil.
func (c *Coordinator) Current() *Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop cancels the current run and waits for it.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel(context.Canceled)
		<-c.current.done
	}
}

func (c *Coordinator) execute(ctx context.Context, run *Run, queries []string, updates chan<- Update) {
	defer close(run.done)
	defer run.cancel(nil)

	logger := shared.WithLogger(c.logger, "run", run.ID)
	logger.Info("search started", "queries", len(queries))

	body, err := c.searcher.Search(ctx, queries)
	if err != nil {
		run.Session.MarkIncomplete()
		run.summary = summarize(run.Session.Snapshot())
		if ctx.Err() != nil {
			run.err = context.Cause(ctx)
		} else {
			run.err = err
		}
		c.record(logger, run)
		return
	}
	defer body.Close()

	dec := stream.NewDecoder(body, stream.WithLogger(logger))
	run.summary, run.err = c.reconciler.Run(ctx, dec, run.Session, updates)
	c.record(logger, run)
}

func (c *Coordinator) record(logger *log.Logger, run *Run) {
	if c.recorder == nil || errors.Is(run.err, ErrSuperseded) || errors.Is(run.err, context.Canceled) {
		return
	}
	snap := run.Session.Snapshot()
	if len(snap.Outcomes) == 0 {
		return
	}
	if err := c.recorder.SaveRun(snap); err != nil {
		logger.Warn("failed to save run history", "error", err)
	}
}
