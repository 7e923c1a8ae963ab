// Package stream decodes the newline-delimited JSON event stream produced by the search endpoint.
//
// Bytes are buffered until a full line is available, so events survive arbitrary chunk boundaries,
// including ones that fall inside a multi-byte character. Lines that do not parse are dropped and the
// stream continues; an unterminated fragment left at end of stream is discarded.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

const defaultChunkSize = 4096

var errBlankLine = errors.New("blank line")

// Decoder reads events from an [io.Reader] one at a time. It is not safe for concurrent use.
type Decoder struct {
	r       io.Reader
	chunk   []byte
	carry   []byte
	pending []models.Event
	err     error
	logger  *log.Logger
	dropped int
}

// Option configures a [Decoder].
type Option func(*Decoder)

// WithLogger sends dropped-line diagnostics to l at debug level.
func WithLogger(l *log.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithChunkSize sets the size of each read from the underlying reader.
func WithChunkSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.chunk = make([]byte, n)
		}
	}
}

// NewDecoder creates a decoder over r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{r: r, chunk: make([]byte, defaultChunkSize), logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed appends chunk to the carry-over buffer and returns the events of every line it completes,
// in order. Bytes after the last newline are kept for the next call.
func (d *Decoder) Feed(chunk []byte) []models.Event {
	d.carry = append(d.carry, chunk...)

	var events []models.Event
	rest := d.carry
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			break
		}
		ev, err := ParseLine(rest[:i])
		switch {
		case err == nil:
			events = append(events, ev)
		case !errors.Is(err, errBlankLine):
			d.dropped++
			d.logger.Debug("dropping malformed stream line", "line", string(rest[:i]), "error", err)
		}
		rest = rest[i+1:]
	}

	if len(rest) == 0 {
		d.carry = d.carry[:0]
	} else if len(rest) != len(d.carry) {
		d.carry = append(d.carry[:0], rest...)
	}
	return events
}

// Next returns the next event. It returns [io.EOF] once the stream is exhausted, and an error wrapping
// [shared.ErrTransport] when the underlying read fails. Events decoded before a read error are still
// returned first.
func (d *Decoder) Next() (models.Event, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return models.Event{}, d.err
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.pending = append(d.pending, d.Feed(d.chunk[:n])...)
		}

		switch {
		case errors.Is(err, io.EOF):
			if len(bytes.TrimSpace(d.carry)) > 0 {
				d.logger.Debug("discarding unterminated stream line", "bytes", len(d.carry))
			}
			d.carry = nil
			d.err = io.EOF
		case err != nil:
			d.err = fmt.Errorf("%w: reading search stream: %v", shared.ErrTransport, err)
		}
	}

	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

// All yields events until the stream ends. A read failure is yielded once as a non-nil error,
// after which iteration stops.
func (d *Decoder) All() iter.Seq2[models.Event, error] {
	return func(yield func(models.Event, error) bool) {
		for {
			ev, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(models.Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Dropped returns how many non-blank lines failed to parse so far.
func (d *Decoder) Dropped() int { return d.dropped }

// ParseLine decodes a single line. Blank lines and anything that is not a JSON object are errors.
func ParseLine(line []byte) (models.Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return models.Event{}, errBlankLine
	}

	var ev models.Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return models.Event{}, fmt.Errorf("%w: %v", shared.ErrMalformedEvent, err)
	}
	return ev, nil
}
