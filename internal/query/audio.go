package query

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// AudioExtensions lists the file types scanned by [FromAudioFiles].
var AudioExtensions = []string{".mp3", ".flac", ".m4a", ".mp4", ".ogg", ".opus", ".aiff"}

// FromAudioFiles walks dir and builds one "Title - Artist" query per audio file, in lexical path order.
//
// Files whose tags cannot be read fall back to the file name without extension.
func FromAudioFiles(dir string) ([]string, error) {
	var lines []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isAudio(path) {
			return nil
		}
		lines = append(lines, describeFile(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	return Extract(strings.Join(lines, "\n"))
}

func isAudio(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range AudioExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func describeFile(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	file, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer func() { _ = file.Close() }()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return fallback
	}

	title := strings.TrimSpace(metadata.Title())
	artist := strings.TrimSpace(metadata.Artist())
	if artist == "" {
		artist = strings.TrimSpace(metadata.AlbumArtist())
	}

	switch {
	case title == "":
		return fallback
	case artist == "":
		return title
	default:
		return title + " - " + artist
	}
}
