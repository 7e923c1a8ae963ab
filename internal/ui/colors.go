package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette(Colors{
	Accent: "#7D56F4",
	OK:     "#04B575",
	Error:  "#FF0000",
	Warn:   "#FFA500",
	Muted:  "#626262",
})

// Colors names the hex colors a [Palette] is built from.
type Colors struct {
	Accent, OK, Error, Warn, Muted string
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	pane  lipgloss.Style // matched and missing columns
	modal lipgloss.Style // disambiguation prompt
}

func NewPalette(c Colors) *Palette {
	return &Palette{
		title: NewBold(c.Accent).MarginBottom(1),
		ok:    NewBold(c.OK),
		err:   NewBold(c.Error),
		warn:  NewStyle(c.Warn),
		help:  NewEm(c.Muted),
		pane:  bordered(lipgloss.RoundedBorder(), c.Muted),
		modal: bordered(lipgloss.DoubleBorder(), c.Accent),
	}
}

func bordered(b lipgloss.Border, color string) lipgloss.Style {
	return lipgloss.NewStyle().Border(b).BorderForeground(lipgloss.Color(color)).Padding(0, 1)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
