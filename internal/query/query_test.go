package query

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/ndx/internal/shared"
	tu "github.com/desertthunder/ndx/internal/testing"
)

func TestExtract(t *testing.T) {
	tt := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "blank lines and padding",
			text: "Song A - Artist\n\n  Song B - Artist  \n",
			want: []string{"Song A - Artist", "Song B - Artist"},
		},
		{
			name: "duplicates and case kept",
			text: "song a\nSONG A\nsong a",
			want: []string{"song a", "SONG A", "song a"},
		},
		{
			name: "windows and old mac line endings",
			text: "one\r\ntwo\rthree",
			want: []string{"one", "two", "three"},
		},
		{
			name: "tabs are whitespace",
			text: "\tTitle - Artist\t",
			want: []string{"Title - Artist"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract(tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}

	t.Run("Empty Input", func(t *testing.T) {
		for _, text := range []string{"", "\n\n", "   \n\t\n"} {
			if _, err := Extract(text); !errors.Is(err, shared.ErrEmptyInput) {
				t.Errorf("expected ErrEmptyInput for %q, got %v", text, err)
			}
		}
	})
}

func TestSources(t *testing.T) {
	t.Run("FromReader", func(t *testing.T) {
		got, err := FromReader(strings.NewReader("a\nb\n"))
		if err != nil || !slices.Equal(got, []string{"a", "b"}) {
			t.Errorf("expected [a b], got %q (%v)", got, err)
		}

		if _, err := FromReader(&tu.FCloser{}); err == nil {
			t.Error("expected read failure to surface")
		}
	})

	t.Run("FromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs.txt")
		if err := os.WriteFile(path, []byte("x - y\n\nz - w\n"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		got, err := FromFile(path)
		if err != nil || len(got) != 2 {
			t.Errorf("expected 2 queries, got %q (%v)", got, err)
		}

		if _, err := FromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("FromArgs", func(t *testing.T) {
		got, err := FromArgs([]string{"a - b", "c - d\ne - f", " "})
		if err != nil || !slices.Equal(got, []string{"a - b", "c - d", "e - f"}) {
			t.Errorf("unexpected queries %q (%v)", got, err)
		}
	})

	t.Run("FromAudioFiles", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"b/02 Second.flac", "a/01 First.mp3", "notes.txt"} {
			path := filepath.Join(dir, name)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("failed to create dir: %v", err)
			}
			if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
		}

		got, err := FromAudioFiles(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"01 First", "02 Second"}) {
			t.Errorf("expected file name fallbacks in path order, got %q", got)
		}

		t.Run("No Audio", func(t *testing.T) {
			if _, err := FromAudioFiles(t.TempDir()); !errors.Is(err, shared.ErrEmptyInput) {
				t.Errorf("expected ErrEmptyInput, got %v", err)
			}
		})
	})
}
