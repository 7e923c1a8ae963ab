package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/desertthunder/ndx/internal/tasks"
	"github.com/fsnotify/fsnotify"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	PromptView
	NameView
)

// Submitter creates a playlist from the matched songs.
type Submitter interface {
	Generate(ctx context.Context, name string, songs []models.Song) (string, error)
}

// Options holds the TUI's dependencies. Reload, Watcher and OnGenerate are optional.
type Options struct {
	Coordinator *tasks.Coordinator
	Gate        *tasks.PromptGate
	Submitter   Submitter
	AutoSelect  *tasks.Switch
	Queries     []string
	// Reload re-reads the queries for a rerun. Without it the initial queries are searched again.
	Reload func() ([]string, error)
	// Watcher and WatchPath restart the run when the query file is saved.
	Watcher   *fsnotify.Watcher
	WatchPath string
	// OnGenerate is called after a playlist was created from a run.
	OnGenerate func(runID, name string) error
	Logger     *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	opts    Options
	updates chan tasks.Update
	view    ViewState
	width   int
	height  int

	runID    string
	progress tasks.Update
	snapshot models.SessionSnapshot
	summary  *tasks.Summary

	prompt     *tasks.Prompt
	candidates list.Model
	nameInput  textinput.Model

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.AutoSelect == nil {
		opts.AutoSelect = tasks.NewSwitch(false)
	}

	input := textinput.New()
	input.Placeholder = "Playlist name"
	input.CharLimit = 120

	candidates := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	candidates.SetShowStatusBar(false)
	candidates.SetFilteringEnabled(false)
	candidates.SetShowHelp(false)

	return &Model{
		ctx:        ctx,
		opts:       opts,
		updates:    make(chan tasks.Update, 64),
		view:       RunView,
		candidates: candidates,
		nameInput:  input,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the first run and begins listening for updates, prompts and file changes.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.startRun(false),
		waitForUpdate(m.updates),
		waitForPrompt(m.opts.Gate),
	}
	if m.opts.Watcher != nil {
		cmds = append(cmds, waitForFileChange(m.opts.Watcher, m.opts.WatchPath, m.opts.Logger))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.candidates.SetSize(msg.Width-6, max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case NameView:
			return m.handleNameKeys(msg)
		default:
			return m.handleRunKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRunStarted:
		data := msg.data.(runStarted)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.adopt(data.runID)
		return m, nil

	case MsgUpdate:
		m.applyUpdate(msg.data.(tasks.Update))
		return m, waitForUpdate(m.updates)

	case MsgPrompt:
		p := msg.data.(*tasks.Prompt)
		if p.Stale() || !m.accept(p.RunID) {
			m.opts.Logger.Debug("dropping stale prompt", "run", p.RunID, "query", p.Query)
			return m, waitForPrompt(m.opts.Gate)
		}
		m.showPrompt(p)
		return m, waitForPrompt(m.opts.Gate)

	case MsgGenerated:
		data := msg.data.(generated)
		m.view = RunView
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Generate failed: %v", data.err))
			return m, nil
		}
		m.status = styles.ok.Render("✓ " + data.message)
		if m.opts.OnGenerate != nil {
			if err := m.opts.OnGenerate(m.runID, data.name); err != nil {
				m.opts.Logger.Warn("failed to record playlist name", "run", m.runID, "error", err)
			}
		}
		return m, nil

	case MsgFileChanged:
		m.opts.Logger.Info("query file changed, restarting run", "path", msg.data)
		m.status = styles.warn.Render("Query file changed, searching again")
		return m, tea.Batch(m.startRun(true), waitForFileChange(m.opts.Watcher, m.opts.WatchPath, m.opts.Logger))
	}

	return m, nil
}

// accept reports whether runID belongs to the run on screen, switching to it when it is the newest run.
func (m *Model) accept(runID string) bool {
	if runID == m.runID {
		return true
	}
	if m.opts.Coordinator == nil {
		return false
	}
	if cur := m.opts.Coordinator.Current(); cur != nil && cur.ID == runID {
		m.adopt(runID)
		return true
	}
	return false
}

// adopt resets the screen for a new run.
func (m *Model) adopt(runID string) {
	if runID == m.runID {
		return
	}
	m.runID = runID
	m.progress = tasks.Update{}
	m.snapshot = models.SessionSnapshot{ID: runID}
	m.summary = nil
	if m.prompt != nil {
		m.prompt = nil
		m.view = RunView
	}
}

func (m *Model) applyUpdate(u tasks.Update) {
	if !m.accept(u.RunID) {
		return
	}

	switch u.Phase {
	case tasks.Progress:
		m.progress = u
	case tasks.Matched, tasks.Missing:
		m.snapshot = *u.Snapshot
	case tasks.Finished:
		m.summary = u.Summary
		if u.Snapshot != nil {
			m.snapshot = *u.Snapshot
		}
	}
}

func (m *Model) showPrompt(p *tasks.Prompt) {
	m.prompt = p
	m.candidates.Title = fmt.Sprintf("Multiple matches for %q (%d/%d)", p.Query, p.Step, p.Total)
	m.candidates.SetItems(candidateItems(p.Candidates))
	m.candidates.Select(0)
	m.view = PromptView
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.auto):
		m.toggleAuto()
	case key.Matches(msg, m.keys.rerun):
		m.status = "Searching again"
		return m, m.startRun(true)
	case key.Matches(msg, m.keys.generate):
		if len(m.snapshot.Matched) == 0 {
			m.status = styles.warn.Render("Nothing matched yet")
			return m, nil
		}
		m.view = NameView
		m.nameInput.SetValue("")
		return m, m.nameInput.Focus()
	}
	return m, nil
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.auto):
		m.toggleAuto()
		return m, nil
	case key.Matches(msg, m.keys.choose):
		return m.resolve(m.prompt.Choose(m.candidates.Index()))
	case key.Matches(msg, m.keys.skip), key.Matches(msg, m.keys.back):
		return m.resolve(m.prompt.Skip())
	}

	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		if i := int(s[0] - '1'); i < len(m.prompt.Candidates) {
			return m.resolve(m.prompt.Choose(i))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

func (m *Model) resolve(err error) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(err, shared.ErrStalePrompt):
		m.status = styles.warn.Render("That prompt belonged to an older run")
	case err != nil && !errors.Is(err, shared.ErrAlreadyResolved):
		m.status = styles.err.Render(err.Error())
		return m, nil
	}
	m.prompt = nil
	m.view = RunView
	return m, nil
}

func (m *Model) handleNameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.nameInput.Blur()
		m.view = RunView
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.status = styles.warn.Render("Playlist name is required")
			return m, nil
		}
		m.nameInput.Blur()
		m.status = fmt.Sprintf("Creating %q", name)
		return m, m.generate(name)
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) toggleAuto() {
	if m.opts.AutoSelect.Toggle() {
		m.status = "Auto-select on"
	} else {
		m.status = "Auto-select off"
	}
}

// startRun starts a search through the coordinator, which cancels the previous run first.
func (m *Model) startRun(reload bool) tea.Cmd {
	queries := m.opts.Queries
	loader := m.opts.Reload
	coordinator := m.opts.Coordinator
	ctx := m.ctx
	updates := m.updates

	return func() tea.Msg {
		if reload && loader != nil {
			q, err := loader()
			if err != nil {
				return runStartedMsg("", err)
			}
			queries = q
		}
		if coordinator == nil {
			return runStartedMsg("", shared.ErrServiceUnavailable)
		}
		run, err := coordinator.Start(ctx, queries, updates)
		if err != nil {
			return runStartedMsg("", err)
		}
		return runStartedMsg(run.ID, nil)
	}
}

func (m *Model) generate(name string) tea.Cmd {
	songs := append([]models.Song(nil), m.snapshot.Matched...)
	submitter := m.opts.Submitter
	ctx := m.ctx

	return func() tea.Msg {
		if submitter == nil {
			return generatedMsg(name, "", shared.ErrServiceUnavailable)
		}
		message, err := submitter.Generate(ctx, name, songs)
		return generatedMsg(name, message, err)
	}
}

func waitForUpdate(updates <-chan tasks.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return closedMsg()
		}
		return updateMsg(u)
	}
}

func waitForPrompt(gate *tasks.PromptGate) tea.Cmd {
	if gate == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-gate.Prompts()
		if !ok {
			return closedMsg()
		}
		return promptMsg(p)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.renderPrompt()
	case NameView:
		return m.renderName()
	default:
		return m.renderRun()
	}
}

func (m *Model) renderHeader() string {
	auto := "off"
	if m.opts.AutoSelect.Enabled() {
		auto = "on"
	}
	title := styles.title.Render("ndx")
	return fmt.Sprintf("%s\n%s", title, styles.help.Render(fmt.Sprintf("run %s • auto-select %s", shortID(m.runID), auto)))
}

func (m *Model) renderRun() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.summary != nil:
		b.WriteString(styles.ok.Render("Done: " + m.summary.String()))
	case m.progress.Message != "":
		b.WriteString(m.progress.Message)
	default:
		b.WriteString("Starting search...")
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderPanes())

	if m.status != "" {
		b.WriteString("\n" + m.status)
	}

	helpKeys := []key.Binding{m.keys.auto, m.keys.rerun, m.keys.generate, m.keys.quit}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderPanes() string {
	rows := max(m.height-12, 5)
	width := 38
	if m.width > 0 {
		width = max(m.width/2-4, 20)
	}

	matched := make([]string, 0, len(m.snapshot.Matched))
	for i, s := range m.snapshot.Matched {
		matched = append(matched, fmt.Sprintf("%d. %s", i+1, s))
	}
	missing := make([]string, 0, len(m.snapshot.Missing))
	for _, q := range m.snapshot.Missing {
		missing = append(missing, "✗ "+q)
	}

	left := styles.pane.Width(width).Render(
		styles.ok.Render(fmt.Sprintf("Matched (%d)", len(matched))) + "\n" + strings.Join(tail(matched, rows), "\n"))
	right := styles.pane.Width(width).Render(
		styles.warn.Render(fmt.Sprintf("Missing (%d)", len(missing))) + "\n" + strings.Join(tail(missing, rows), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m *Model) renderPrompt() string {
	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.choose, m.keys.skip, m.keys.quit}
	body := styles.modal.Render(m.candidates.View())
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", m.renderHeader(), body, m.status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderName() string {
	helpKeys := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create")),
		m.keys.back,
	}
	info := fmt.Sprintf("Create a playlist from %d matched songs", len(m.snapshot.Matched))
	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s\n\n%s",
		m.renderHeader(), info, m.nameInput.View(), m.status, m.help.ShortHelpView(helpKeys))
}

// Snapshot returns the session of the run on screen.
func (m *Model) Snapshot() models.SessionSnapshot { return m.snapshot }

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
