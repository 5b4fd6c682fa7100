package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

// logState is the log viewer: a static history log or a live tail of the
// active download. For a tail, cancel releases the backend connection the
// moment the viewer closes.
type logState struct {
	title  string
	lines  []string
	scroll int
	live   bool
	cancel context.CancelFunc
	feed   chan string
}

type logOpenedMsg struct {
	title string
	lines []string
}

type logLineMsg struct {
	line string
}

type logClosedMsg struct{}

type logErrMsg struct {
	err error
}

const maxTailLines = 2000

func (m Model) openHistoryLog(entry model.HistoryEntry) (tea.Model, tea.Cmd) {
	title := entry.Title
	if title == "" {
		title = entry.URL
	}
	m.mode = modeLog
	m.logView = &logState{title: "Log: " + title, lines: []string{"loading..."}}
	logID := entry.LogID
	logs := m.deps.Logs
	return m, func() tea.Msg {
		text, err := logs.HistoryLog(context.Background(), logID)
		if err != nil {
			return logErrMsg{err: err}
		}
		return logOpenedMsg{title: "Log: " + title, lines: strings.Split(text, "\n")}
	}
}

func (m Model) openLiveTail() (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	feed := make(chan string, 64)

	state := &logState{
		title:  "Live log",
		live:   true,
		cancel: cancel,
		feed:   feed,
	}
	m.mode = modeLog
	m.logView = state

	logs := m.deps.Logs
	go func() {
		defer close(feed)
		if err := logs.Tail(ctx, func(line string) {
			select {
			case feed <- line:
			case <-ctx.Done():
			}
		}); err != nil {
			select {
			case feed <- "tail error: " + err.Error():
			case <-ctx.Done():
			}
		}
	}()

	return m, waitForLine(feed)
}

func waitForLine(feed <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-feed
		if !ok {
			return logClosedMsg{}
		}
		return logLineMsg{line: line}
	}
}

func (m Model) updateLog(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.logView == nil {
		return m, nil
	}
	switch msg := msg.(type) {
	case logOpenedMsg:
		m.logView.title = msg.title
		m.logView.lines = msg.lines
		m.logView.scroll = maxInt(len(msg.lines)-m.logPageSize(), 0)
		return m, nil

	case logLineMsg:
		m.logView.lines = append(m.logView.lines, msg.line)
		if len(m.logView.lines) > maxTailLines {
			m.logView.lines = m.logView.lines[len(m.logView.lines)-maxTailLines:]
		}
		m.logView.scroll = maxInt(len(m.logView.lines)-m.logPageSize(), 0)
		return m, waitForLine(m.logView.feed)

	case logClosedMsg:
		m.logView.lines = append(m.logView.lines, "(stream ended)")
		return m, nil

	case logErrMsg:
		m.mode = modeDashboard
		m.logView = nil
		m.statusMessage = fmt.Sprintf("error: %v", msg.err)
		return m, nil
	}
	return m, nil
}

func (m Model) updateLogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.logView == nil {
		m.mode = modeDashboard
		return m, nil
	}
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		if m.logView.cancel != nil {
			m.logView.cancel()
		}
		m.mode = modeDashboard
		m.logView = nil
		return m, nil

	case "up", "k":
		m.logView.scroll = maxInt(m.logView.scroll-1, 0)
	case "down", "j":
		m.logView.scroll = minInt(m.logView.scroll+1, maxInt(len(m.logView.lines)-m.logPageSize(), 0))
	case "pgup":
		m.logView.scroll = maxInt(m.logView.scroll-m.logPageSize(), 0)
	case "pgdown":
		m.logView.scroll = minInt(m.logView.scroll+m.logPageSize(), maxInt(len(m.logView.lines)-m.logPageSize(), 0))
	case "home", "g":
		m.logView.scroll = 0
	case "end", "G":
		m.logView.scroll = maxInt(len(m.logView.lines)-m.logPageSize(), 0)
	}
	return m, nil
}

func (m Model) logPageSize() int {
	return clampInt(m.height-6, 5, 60)
}
