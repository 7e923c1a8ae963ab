// Package ui implements the interactive matcher using bubbletea's Elm architecture.
//
// One screen shows the run in progress: the current query, a pane of matched songs and a pane of missing
// queries. When the reconciler needs a decision, the [tasks.PromptGate] hands over a prompt and the TUI
// shows its candidates in a modal list ([PromptView]). A third view ([NameView]) asks for the playlist name
// before submitting.
//
// Updates and prompts arrive on channels and are turned into messages by waitForUpdate and waitForPrompt.
// Both are filtered by run id, so nothing from a replaced run reaches the screen; prompts of a replaced run
// are stale and dropped.
//
// With a watched query file ([Watch]), saving the file starts a new run, which cancels the old one.
//
// Keys: enter choose, s/esc skip, 1-9 pick directly, a toggle auto-select, r rerun, g generate, q quit.
package ui
