package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestNormalizeQueryKey(t *testing.T) {
	tc := []struct {
		name  string
		query string
		want  string
	}{
		{name: "basic normalization", query: "Song Title - Artist Name", want: "song title - artist name"},
		{name: "extra whitespace", query: "  Song   Title -\tArtist  ", want: "song title - artist"},
		{name: "mixed case", query: "SoNg TiTlE", want: "song title"},
		{name: "blank", query: "   ", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQueryKey(tt.query)
			if got != tt.want {
				t.Errorf("NormalizeQueryKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Errorf("expected distinct ids, got %s twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ndx.log")

	logger, f, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	logger.Info("hello", "run", "abc")
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}
