package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

// Decision is what the gate is asked to resolve: one query with two or more candidates in server order.
type Decision struct {
	RunID      string
	Query      string
	Step       int
	Total      int
	Candidates []models.Song
}

// Choice is the gate's answer: a candidate index, or a skip.
type Choice struct {
	Index int
	Skip  bool
}

// Pick chooses candidate i.
func Pick(i int) Choice { return Choice{Index: i} }

// Skip leaves the query unmatched.
func Skip() Choice { return Choice{Skip: true} }

// Gate resolves ambiguous results. Decide blocks until the choice is made or ctx is done;
// cancellation returns an error wrapping [shared.ErrGateCanceled].
type Gate interface {
	Decide(ctx context.Context, d Decision) (Choice, error)
}

// GateFunc adapts a function to [Gate].
type GateFunc func(ctx context.Context, d Decision) (Choice, error)

func (f GateFunc) Decide(ctx context.Context, d Decision) (Choice, error) { return f(ctx, d) }

// SkipGate marks every ambiguous result missing. Used when nobody can answer.
var SkipGate = GateFunc(func(context.Context, Decision) (Choice, error) { return Skip(), nil })

func gateCanceled(ctx context.Context) error {
	return fmt.Errorf("%w: %v", shared.ErrGateCanceled, context.Cause(ctx))
}

// Prompt is one pending decision handed to an interactive collaborator.
//
// It resolves at most once. Once its run is canceled every resolution returns [shared.ErrStalePrompt].
type Prompt struct {
	Decision
	once   sync.Once
	result chan Choice
	done   <-chan struct{}
}

func newPrompt(ctx context.Context, d Decision) *Prompt {
	d.Candidates = slices.Clone(d.Candidates)
	return &Prompt{Decision: d, result: make(chan Choice, 1), done: ctx.Done()}
}

// Choose resolves the prompt with candidate i.
func (p *Prompt) Choose(i int) error {
	if i < 0 || i >= len(p.Candidates) {
		return fmt.Errorf("%w: candidate %d of %d", shared.ErrInvalidArgument, i+1, len(p.Candidates))
	}
	return p.resolve(Pick(i))
}

// Skip resolves the prompt as missing.
func (p *Prompt) Skip() error { return p.resolve(Skip()) }

// Done is closed when the prompt's run is canceled.
func (p *Prompt) Done() <-chan struct{} { return p.done }

// Stale reports whether the prompt's run was canceled.
func (p *Prompt) Stale() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Prompt) resolve(c Choice) error {
	if p.Stale() {
		return shared.ErrStalePrompt
	}

	err := shared.ErrAlreadyResolved
	p.once.Do(func() {
		if p.Stale() {
			err = shared.ErrStalePrompt
			return
		}
		p.result <- c
		err = nil
	})
	return err
}

// wait blocks until the prompt is resolved or ctx ends. A resolution that races the
// cancellation loses to it.
func (p *Prompt) wait(ctx context.Context) (Choice, error) {
	select {
	case c := <-p.result:
		if ctx.Err() != nil {
			return Choice{}, gateCanceled(ctx)
		}
		return c, nil
	case <-ctx.Done():
		return Choice{}, gateCanceled(ctx)
	}
}

// PromptGate publishes each decision as a [*Prompt] and waits for it to be resolved.
type PromptGate struct {
	prompts chan *Prompt
}

// NewPromptGate creates a gate whose prompt channel holds up to buffer pending prompts.
func NewPromptGate(buffer int) *PromptGate {
	return &PromptGate{prompts: make(chan *Prompt, buffer)}
}

// Prompts is read by the interactive collaborator.
func (g *PromptGate) Prompts() <-chan *Prompt { return g.prompts }

func (g *PromptGate) Decide(ctx context.Context, d Decision) (Choice, error) {
	p := newPrompt(ctx, d)

	select {
	case g.prompts <- p:
	case <-ctx.Done():
		return Choice{}, gateCanceled(ctx)
	}

	return p.wait(ctx)
}
