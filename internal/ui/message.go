package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ndx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRunStarted MsgKind = iota
	MsgUpdate
	MsgPrompt
	MsgGenerated
	MsgFileChanged
	MsgClosed
)

type runStarted struct {
	runID string
	err   error
}

type generated struct {
	name    string
	message string
	err     error
}

// runStartedMsg is the constructor for [MsgRunStarted]
func runStartedMsg(runID string, err error) Msg {
	return Msg{kind: MsgRunStarted, data: runStarted{runID, err}}
}

// updateMsg is the constructor for [MsgUpdate]
func updateMsg(u tasks.Update) Msg {
	return Msg{kind: MsgUpdate, data: u}
}

// promptMsg is the constructor for [MsgPrompt]
func promptMsg(p *tasks.Prompt) Msg {
	return Msg{kind: MsgPrompt, data: p}
}

// generatedMsg is the constructor for [MsgGenerated]
func generatedMsg(name, message string, err error) Msg {
	return Msg{kind: MsgGenerated, data: generated{name, message, err}}
}

// fileChangedMsg is the constructor for [MsgFileChanged]
func fileChangedMsg(path string) Msg {
	return Msg{kind: MsgFileChanged, data: path}
}

// closedMsg reports that a source channel was closed and needs no more listening.
func closedMsg() Msg {
	return Msg{kind: MsgClosed}
}
