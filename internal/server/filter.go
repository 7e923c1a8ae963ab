package server

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// songSeparators split "Title - Artist" lines: hyphen, en dash, em dash, full-width hyphen.
var songSeparators = []string{" - ", " – ", " — ", " － "}

var (
	reParen      = regexp.MustCompile(`\([^()]*\)`)
	reBracket    = regexp.MustCompile(`\[[^\[\]]*\]`)
	reLenticular = regexp.MustCompile(`【[^【】]*】`)
)

// ParseSongLine splits a query into title and artist at the first separator.
// Without a separator the whole line is the title and the artist is empty.
func ParseSongLine(s string) (title, artist string) {
	s = strings.TrimSpace(s)
	for _, sep := range songSeparators {
		if i := strings.Index(s, sep); i >= 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
		}
	}
	return s, ""
}

// fold normalizes compatibility forms and width, case-folds and removes all whitespace.
func fold(s string) string {
	s = width.Fold.String(norm.NFKC.String(s))
	s = cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// normalizeTitle drops everything after '#' and any bracketed annotations such as "(Live)" or "[Remaster]",
// then folds.
func normalizeTitle(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	for _, re := range []*regexp.Regexp{reParen, reBracket, reLenticular} {
		for re.MatchString(s) {
			s = re.ReplaceAllString(s, "")
		}
	}
	return fold(s)
}

// artistMatches reports whether the catalog artist contains the requested one. An empty request matches all.
func artistMatches(songArtist, inputArtist string) bool {
	if inputArtist == "" {
		return true
	}
	return strings.Contains(fold(songArtist), fold(inputArtist))
}

// titleMatches reports whether either normalized title contains the other.
func titleMatches(songTitle, inputTitle string) bool {
	a, b := normalizeTitle(songTitle), normalizeTitle(inputTitle)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// FilterSongs keeps the songs whose title and artist match the request, in catalog order.
// Rejections are logged at debug level.
func FilterSongs(songs []models.Song, title, artist string, logger *log.Logger) []models.Song {
	out := make([]models.Song, 0, len(songs))
	for _, s := range songs {
		artistOk := artistMatches(s.Artist, artist)
		titleOk := titleMatches(s.Title, title)
		if artistOk && titleOk {
			out = append(out, s)
			continue
		}
		if logger != nil {
			logger.Debug("candidate rejected", "id", s.ID, "title", s.Title, "artist", s.Artist,
				"title_ok", titleOk, "artist_ok", artistOk)
		}
	}
	return out
}
