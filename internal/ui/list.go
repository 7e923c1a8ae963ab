package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ndx/internal/models"
)

var _ list.Item = candidateItem{}

// candidateItem wraps a [models.Song] offered by a prompt to implement [list.Item].
type candidateItem struct {
	n    int
	song models.Song
}

func (i candidateItem) FilterValue() string { return i.song.Title }
func (i candidateItem) Title() string       { return fmt.Sprintf("%d. %s", i.n, i.song.Title) }
func (i candidateItem) Description() string {
	desc := i.song.Artist
	if i.song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Album)
	}
	if i.song.Path != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Path)
	}
	return desc
}

func candidateItems(songs []models.Song) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = candidateItem{n: i + 1, song: s}
	}
	return items
}
