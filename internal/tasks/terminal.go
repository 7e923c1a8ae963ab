package tasks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// TerminalGate asks on a line-oriented terminal: it prints the numbered candidates and reads the answer.
//
// A number selects, "s", "skip" or an empty line skips, anything else asks again. End of input skips.
// Input is read by one background goroutine so a canceled run does not hang on a blocked read.
type TerminalGate struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan string
}

// NewTerminalGate creates a gate reading answers from in and writing prompts to out.
func NewTerminalGate(in io.Reader, out io.Writer) *TerminalGate {
	return &TerminalGate{in: in, out: out, lines: make(chan string)}
}

func (g *TerminalGate) start() {
	go func() {
		defer close(g.lines)
		scanner := bufio.NewScanner(g.in)
		for scanner.Scan() {
			g.lines <- scanner.Text()
		}
	}()
}

func (g *TerminalGate) Decide(ctx context.Context, d Decision) (Choice, error) {
	g.once.Do(g.start)

	fmt.Fprintf(g.out, "\nMultiple matches for %q", d.Query)
	if d.Total > 0 {
		fmt.Fprintf(g.out, " (%d/%d)", d.Step, d.Total)
	}
	fmt.Fprintln(g.out, ":")
	for i, song := range d.Candidates {
		fmt.Fprintf(g.out, "  %d) %s\n", i+1, song)
	}

	for {
		fmt.Fprintf(g.out, "Choose 1-%d, or s to skip: ", len(d.Candidates))

		select {
		case <-ctx.Done():
			fmt.Fprintln(g.out)
			return Choice{}, gateCanceled(ctx)
		case line, ok := <-g.lines:
			if !ok {
				fmt.Fprintln(g.out)
				return Skip(), nil
			}
			if c, valid := parseAnswer(line, len(d.Candidates)); valid {
				return c, nil
			}
			fmt.Fprintf(g.out, "%q is not a candidate number.\n", strings.TrimSpace(line))
		}
	}
}

func parseAnswer(line string, n int) (Choice, bool) {
	answer := strings.ToLower(strings.TrimSpace(line))
	switch answer {
	case "", "s", "skip":
		return Skip(), true
	}

	i, err := strconv.Atoi(answer)
	if err != nil || i < 1 || i > n {
		return Choice{}, false
	}
	return Pick(i - 1), true
}
