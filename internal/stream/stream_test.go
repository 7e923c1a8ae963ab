package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
	tu "github.com/desertthunder/ndx/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, d *Decoder) []models.Event {
	t.Helper()
	var events []models.Event
	for ev, err := range d.All() {
		require.NoError(t, err)
		events = append(events, ev)
	}
	return events
}

func TestDecoder(t *testing.T) {
	songs := []models.Song{{ID: "1", Title: "Song A", Artist: "Artist"}, {ID: "2", Title: "Sóng B", Artist: "Ärtist"}}
	payload := tu.NDJSON(t,
		models.Event{Type: models.EventProgress, Index: 0, Total: 2, Query: "Song A - Artist"},
		models.Event{Type: models.EventResult, Index: 0, Query: "Song A - Artist", Status: models.StatusMultiple, Songs: songs},
		models.Event{Type: models.EventResult, Index: 1, Query: "日本語 - 歌手", Status: models.StatusNone},
		models.Event{Type: models.EventDone},
	)

	t.Run("Chunking Is Transparent", func(t *testing.T) {
		whole := collect(t, NewDecoder(strings.NewReader(payload)))
		require.Len(t, whole, 4)

		for _, size := range []int{1, 2, 3, 7, 64, len(payload)} {
			got := collect(t, NewDecoder(tu.NewChunkReader(payload, size), WithChunkSize(size)))
			assert.Equal(t, whole, got, "chunk size %d", size)
		}
	})

	t.Run("Trailing Fragment Is Dropped At Every Chunk Size", func(t *testing.T) {
		input := payload + `{"type":"result","index":1,"query":"cut`
		whole := collect(t, NewDecoder(strings.NewReader(input)))
		require.Len(t, whole, 4)

		for _, size := range []int{1, 2, 3, 7, 64, len(input)} {
			d := NewDecoder(tu.NewChunkReader(input, size), WithChunkSize(size))
			got := collect(t, d)
			assert.Equal(t, whole, got, "chunk size %d", size)
			assert.Zero(t, d.Dropped(), "chunk size %d", size)
		}
	})

	t.Run("Malformed Lines Are Skipped", func(t *testing.T) {
		input := `{"type":"progress","index":0,"total":1,"query":"x"}` + "\nNOT_JSON\n" + `{"type":"done"}` + "\n"
		d := NewDecoder(strings.NewReader(input))

		events := collect(t, d)
		require.Len(t, events, 2)
		assert.Equal(t, models.EventProgress, events[0].Type)
		assert.Equal(t, models.EventDone, events[1].Type)
		assert.Equal(t, 1, d.Dropped())
	})

	t.Run("Blank Lines Are Not Errors", func(t *testing.T) {
		d := NewDecoder(strings.NewReader("\n\r\n  \n" + `{"type":"done"}` + "\n"))
		events := collect(t, d)
		assert.Len(t, events, 1)
		assert.Zero(t, d.Dropped())
	})

	t.Run("Trailing Fragment Is Discarded", func(t *testing.T) {
		input := `{"type":"result","index":0,"query":"a","status":"none"}` + "\n" + `{"type":"done"}`
		events := collect(t, NewDecoder(strings.NewReader(input)))
		require.Len(t, events, 1)
		assert.Equal(t, models.EventResult, events[0].Type)
	})

	t.Run("CRLF Lines", func(t *testing.T) {
		events := collect(t, NewDecoder(strings.NewReader(`{"type":"done"}`+"\r\n")))
		require.Len(t, events, 1)
		assert.Equal(t, models.EventDone, events[0].Type)
	})

	t.Run("Unknown Types Pass Through", func(t *testing.T) {
		events := collect(t, NewDecoder(strings.NewReader(`{"type":"heartbeat"}`+"\n")))
		require.Len(t, events, 1)
		assert.Equal(t, models.EventType("heartbeat"), events[0].Type)
	})

	t.Run("Read Failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		r := &tu.FailAfterReader{Data: strings.NewReader(`{"type":"progress","query":"a"}` + "\n"), Err: boom}
		d := NewDecoder(r)

		ev, err := d.Next()
		require.NoError(t, err)
		assert.Equal(t, "a", ev.Query)

		_, err = d.Next()
		assert.ErrorIs(t, err, shared.ErrTransport)

		_, again := d.Next()
		assert.Equal(t, err, again)
	})

	t.Run("All Stops On Failure", func(t *testing.T) {
		d := NewDecoder(&tu.FCloser{})
		var errs int
		for _, err := range d.All() {
			if err != nil {
				errs++
			}
		}
		assert.Equal(t, 1, errs)
	})

	t.Run("Next After EOF", func(t *testing.T) {
		d := NewDecoder(strings.NewReader(""))
		_, err := d.Next()
		assert.ErrorIs(t, err, io.EOF)
		_, err = d.Next()
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestFeed(t *testing.T) {
	d := NewDecoder(nil)

	assert.Empty(t, d.Feed([]byte(`{"type":"pro`)))
	assert.Empty(t, d.Feed([]byte(`gress","query":"Café`)))

	events := d.Feed([]byte("\"}\n{\"type\":\"done\"}\n{\"ty"))
	require.Len(t, events, 2)
	assert.Equal(t, "Café", events[0].Query)
	assert.Equal(t, models.EventDone, events[1].Type)

	// a multi-byte rune split across chunks
	line := []byte(`{"type":"progress","query":"é"}` + "\n")
	i := bytes.IndexByte(line, 0xC3)
	d = NewDecoder(nil)
	assert.Empty(t, d.Feed(line[:i+1]))
	events = d.Feed(line[i+1:])
	require.Len(t, events, 1)
	assert.Equal(t, "é", events[0].Query)
}

func TestParseLine(t *testing.T) {
	tt := []struct {
		name    string
		line    string
		wantErr error
	}{
		{name: "object", line: `{"type":"done"}`},
		{name: "padded", line: "  {\"type\":\"done\"}\t"},
		{name: "scalar", line: `42`, wantErr: shared.ErrMalformedEvent},
		{name: "truncated", line: `{"type":`, wantErr: shared.ErrMalformedEvent},
		{name: "wrong field type", line: `{"type":"result","index":"zero"}`, wantErr: shared.ErrMalformedEvent},
		{name: "blank", line: "   ", wantErr: errBlankLine},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLine([]byte(tc.line))
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
