// Package ui renders the console: a dashboard over the mirrored backend
// state with keyboard-driven actions. The model is pure bubbletea; every
// mutation goes through the Actions interface and comes back as a state
// update, so the UI never edits the view it renders.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
	"github.com/KaliDrag0n/ContentReaper/internal/reconcile"
	"github.com/KaliDrag0n/ContentReaper/internal/update"
)

// Actions is the slice of the mutation manager the UI drives. Every method
// returns immediately; results arrive as state updates and notices.
type Actions interface {
	Enqueue(ctx context.Context, req api.EnqueueRequest)
	Continue(ctx context.Context, logID int64)
	Stop(ctx context.Context, save bool)
	DeleteQueueItem(ctx context.Context, id int64)
	ClearQueue(ctx context.Context)
	ReorderQueue(ctx context.Context, order []int64)
	SetPaused(ctx context.Context, paused bool)
	DeleteHistoryEntry(ctx context.Context, logID int64)
	ClearHistory(ctx context.Context)
	AddScytheFromHistory(ctx context.Context, logID int64)
	DeleteScythe(ctx context.Context, id int64)
	ReapScythe(ctx context.Context, id int64)
}

// LogSource provides the two log views.
type LogSource interface {
	HistoryLog(ctx context.Context, logID int64) (string, error)
	Tail(ctx context.Context, onLine func(string)) error
}

// ReleaseChecker reports whether a newer console build exists.
type ReleaseChecker interface {
	Check(ctx context.Context) (update.Status, error)
}

// Deps are the engine pieces the UI consumes.
type Deps struct {
	Actions Actions
	Logs    LogSource
	Updater ReleaseChecker
	Version string
}

// StateMsg carries one engine update into the program.
type StateMsg struct {
	View  model.Snapshot
	Patch reconcile.Patch
}

// NoticeMsg carries one emitter notice into the program.
type NoticeMsg struct {
	Notice notify.Notice
}

type updateStatusMsg struct {
	status update.Status
	err    error
}

type uiMode int

const (
	modeDashboard uiMode = iota
	modeEnqueue
	modeConfirm
	modeLogin
	modeLog
)

type focusArea int

const (
	focusQueue focusArea = iota
	focusHistory
	focusScythes
)

type confirmState struct {
	prompt string
	run    func()
}

// Model is the root bubbletea model.
type Model struct {
	deps Deps

	view   model.Snapshot
	width  int
	height int

	mode  uiMode
	focus focusArea

	queueCursor   int
	historyCursor int
	scytheCursor  int

	statusMessage string
	sticky        map[string]string

	form    *enqueueForm
	login   *loginForm
	confirm *confirmState
	logView *logState

	release  *update.Status
	quitting bool
}

// New creates the dashboard model.
func New(deps Deps) Model {
	return Model{
		deps:   deps,
		sticky: map[string]string{},
	}
}

func (m Model) Init() tea.Cmd {
	if m.deps.Updater == nil {
		return nil
	}
	return checkReleaseCmd(m.deps.Updater)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StateMsg:
		m.view = msg.View
		m.clampCursors()
		return m, nil

	case NoticeMsg:
		return m.applyNotice(msg.Notice), nil

	case updateStatusMsg:
		if msg.err == nil && msg.status.UpdateAvailable {
			status := msg.status
			m.release = &status
		}
		return m, nil

	case LoginRequest:
		return m.openLogin(msg), nil

	case logOpenedMsg, logLineMsg, logClosedMsg, logErrMsg:
		return m.updateLog(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case modeEnqueue:
		return m.updateEnqueue(keyMsg)
	case modeConfirm:
		return m.updateConfirm(keyMsg)
	case modeLogin:
		return m.updateLogin(keyMsg)
	case modeLog:
		return m.updateLogKeys(keyMsg)
	default:
		return m.updateDashboard(keyMsg)
	}
}

func (m Model) applyNotice(n notify.Notice) Model {
	if n.Resolved {
		delete(m.sticky, n.Key)
		return m
	}
	if n.Sticky {
		m.sticky[n.Key] = n.Message
		return m
	}
	m.statusMessage = string(n.Level) + ": " + n.Message
	return m
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.focus = (m.focus + 1) % 3
		return m, nil

	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "a":
		m.mode = modeEnqueue
		m.form = newEnqueueForm(m.width)
		m.statusMessage = ""
		return m, nil

	case "p":
		m.deps.Actions.SetPaused(ctx, !m.view.IsPaused)
		return m, nil

	case "s":
		if m.view.Current != nil {
			m.deps.Actions.Stop(ctx, true)
		}
		return m, nil
	case "c":
		if m.view.Current != nil {
			m.deps.Actions.Stop(ctx, false)
		}
		return m, nil

	case "l":
		if m.view.Current == nil {
			m.statusMessage = "no active download to tail"
			return m, nil
		}
		return m.openLiveTail()

	case "d":
		return m.deleteSelected(ctx)

	case "C":
		return m.confirmClear(ctx)

	case "K", "shift+up":
		return m.moveQueueItem(ctx, -1)
	case "J", "shift+down":
		return m.moveQueueItem(ctx, 1)

	case "enter":
		return m.activateSelected(ctx)

	case "u":
		if m.focus == focusHistory {
			if entry, ok := m.selectedHistory(); ok {
				m.deps.Actions.Continue(ctx, entry.LogID)
			}
		}
		return m, nil

	case "S":
		if m.focus == focusHistory {
			if entry, ok := m.selectedHistory(); ok {
				m.deps.Actions.AddScytheFromHistory(ctx, entry.LogID)
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) deleteSelected(ctx context.Context) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusQueue:
		if job, ok := m.selectedQueueJob(); ok {
			m.deps.Actions.DeleteQueueItem(ctx, job.ID)
		}
	case focusHistory:
		if entry, ok := m.selectedHistory(); ok {
			m.deps.Actions.DeleteHistoryEntry(ctx, entry.LogID)
		}
	case focusScythes:
		if scythe, ok := m.selectedScythe(); ok {
			prompt := "Delete scythe '" + scythe.Name + "'?"
			id := scythe.ID
			m.mode = modeConfirm
			m.confirm = &confirmState{prompt: prompt, run: func() {
				m.deps.Actions.DeleteScythe(ctx, id)
			}}
		}
	}
	return m, nil
}

func (m Model) confirmClear(ctx context.Context) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusQueue:
		if len(m.view.Queue) == 0 {
			return m, nil
		}
		m.mode = modeConfirm
		m.confirm = &confirmState{prompt: "Clear the whole queue?", run: func() {
			m.deps.Actions.ClearQueue(ctx)
		}}
	case focusHistory:
		if len(m.view.History) == 0 {
			return m, nil
		}
		m.mode = modeConfirm
		m.confirm = &confirmState{prompt: "Clear the whole history?", run: func() {
			m.deps.Actions.ClearHistory(ctx)
		}}
	}
	return m, nil
}

// moveQueueItem reorders the selected job one position up or down. The
// cursor follows the job; the reordered view arrives as a state update.
func (m Model) moveQueueItem(ctx context.Context, delta int) (tea.Model, tea.Cmd) {
	if m.focus != focusQueue {
		return m, nil
	}
	pos := m.queueCursor
	target := pos + delta
	if pos < 0 || pos >= len(m.view.Queue) || target < 0 || target >= len(m.view.Queue) {
		return m, nil
	}

	order := make([]int64, len(m.view.Queue))
	for i, job := range m.view.Queue {
		order[i] = job.ID
	}
	order[pos], order[target] = order[target], order[pos]

	m.deps.Actions.ReorderQueue(ctx, order)
	m.queueCursor = target
	return m, nil
}

func (m Model) activateSelected(ctx context.Context) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusHistory:
		if entry, ok := m.selectedHistory(); ok {
			return m.openHistoryLog(entry)
		}
	case focusScythes:
		if scythe, ok := m.selectedScythe(); ok {
			m.deps.Actions.ReapScythe(ctx, scythe.ID)
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if m.confirm != nil && m.confirm.run != nil {
			m.confirm.run()
		}
		m.mode = modeDashboard
		m.confirm = nil
	case "n", "esc", "ctrl+c":
		m.mode = modeDashboard
		m.confirm = nil
		m.statusMessage = "cancelled"
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	cursor, size := m.focusedCursor()
	next := cursor + delta
	if next < 0 || next >= size {
		return
	}
	m.setFocusedCursor(next)
}

func (m *Model) focusedCursor() (cursor, size int) {
	switch m.focus {
	case focusHistory:
		return m.historyCursor, len(m.view.History)
	case focusScythes:
		return m.scytheCursor, len(m.view.Scythes)
	default:
		return m.queueCursor, len(m.view.Queue)
	}
}

func (m *Model) setFocusedCursor(v int) {
	switch m.focus {
	case focusHistory:
		m.historyCursor = v
	case focusScythes:
		m.scytheCursor = v
	default:
		m.queueCursor = v
	}
}

func (m *Model) clampCursors() {
	m.queueCursor = clampCursor(m.queueCursor, len(m.view.Queue))
	m.historyCursor = clampCursor(m.historyCursor, len(m.view.History))
	m.scytheCursor = clampCursor(m.scytheCursor, len(m.view.Scythes))
}

func clampCursor(cursor, size int) int {
	if size == 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func (m Model) selectedQueueJob() (model.Job, bool) {
	if m.queueCursor < 0 || m.queueCursor >= len(m.view.Queue) {
		return model.Job{}, false
	}
	return m.view.Queue[m.queueCursor], true
}

func (m Model) selectedHistory() (model.HistoryEntry, bool) {
	if m.historyCursor < 0 || m.historyCursor >= len(m.view.History) {
		return model.HistoryEntry{}, false
	}
	return m.view.History[m.historyCursor], true
}

func (m Model) selectedScythe() (model.Scythe, bool) {
	if m.scytheCursor < 0 || m.scytheCursor >= len(m.view.Scythes) {
		return model.Scythe{}, false
	}
	return m.view.Scythes[m.scytheCursor], true
}

func checkReleaseCmd(checker ReleaseChecker) tea.Cmd {
	return func() tea.Msg {
		status, err := checker.Check(context.Background())
		return updateStatusMsg{status: status, err: err}
	}
}
