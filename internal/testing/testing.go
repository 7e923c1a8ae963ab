// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ndx/internal/models"
)

// MockCatalog is a test double for services.Catalog keyed by search term.
type MockCatalog struct {
	mu        sync.Mutex
	Results   map[string][]models.Song
	SearchErr error
	CreateErr error
	PingErr   error
	Searches  []string
	Created   []CreatedPlaylist
}

// CreatedPlaylist records one CreatePlaylist call.
type CreatedPlaylist struct {
	Name    string
	SongIDs []string
}

func (m *MockCatalog) Search(ctx context.Context, query string) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Results[query], nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name string, songIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, CreatedPlaylist{Name: name, SongIDs: songIDs})
	return nil
}

func (m *MockCatalog) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockCatalog) Name() string { return "mock" }

// NDJSON encodes events one per line, the way the search endpoint streams them.
func NDJSON(t *testing.T, events ...models.Event) string {
	t.Helper()
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("failed to encode event: %v", err)
		}
	}
	return b.String()
}

// ChunkReader returns data in reads of at most size bytes, to exercise chunk boundaries.
type ChunkReader struct {
	data []byte
	size int
}

func NewChunkReader(data string, size int) *ChunkReader {
	return &ChunkReader{data: []byte(data), size: size}
}

func (c *ChunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := min(c.size, len(p), len(c.data))
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

// FailAfterReader returns data and then fails with Err instead of io.EOF.
type FailAfterReader struct {
	Data io.Reader
	Err  error
}

func (f *FailAfterReader) Read(p []byte) (int, error) {
	n, err := f.Data.Read(p)
	if errors.Is(err, io.EOF) {
		return n, f.Err
	}
	return n, err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Requests++
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
