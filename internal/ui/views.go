package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	focusPanel  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("212")).Padding(0, 1)
	selStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("172")).Bold(true)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	switch m.mode {
	case modeEnqueue:
		return m.viewEnqueue()
	case modeConfirm:
		return m.viewConfirm()
	case modeLogin:
		return m.viewLogin()
	case modeLog:
		return m.viewLog()
	default:
		return m.viewDashboard()
	}
}

func (m Model) viewDashboard() string {
	header := m.renderHeader()
	current := m.renderCurrentPanel(m.width - 2)

	listH := m.width
	var body string
	if listH < 110 {
		queue := m.renderQueuePanel(m.width - 2)
		history := m.renderHistoryPanel(m.width - 2)
		scythes := m.renderScythePanel(m.width - 2)
		body = lipgloss.JoinVertical(lipgloss.Left, queue, history, scythes)
	} else {
		leftW := m.width/2 - 2
		rightW := m.width - leftW - 4
		queue := m.renderQueuePanel(leftW)
		right := lipgloss.JoinVertical(lipgloss.Left,
			m.renderHistoryPanel(rightW),
			m.renderScythePanel(rightW))
		body = lipgloss.JoinHorizontal(lipgloss.Top, queue, right)
	}

	status := m.renderStatusLine()
	hints := mutedStyle.Render("tab: focus | a: add | d: delete | J/K: move | p: pause | s/c: stop save/cancel | enter: log/reap | u: re-queue | S: save scythe | C: clear | l: live log | q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, current, body, status, hints)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("ContentReaper console")
	parts := []string{title}
	if m.deps.Version != "" {
		parts = append(parts, mutedStyle.Render("v"+m.deps.Version))
	}
	if m.view.IsPaused {
		parts = append(parts, pausedStyle.Render(" PAUSED "))
	}
	if m.release != nil {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("update available: v%s", m.release.LatestVersion)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderCurrentPanel(width int) string {
	lines := []string{titleStyle.Render("Now reaping")}
	current := m.view.Current
	if current == nil {
		lines = append(lines, mutedStyle.Render("idle"))
	} else {
		title := current.Title
		if title == "" {
			title = current.URL
		}
		if current.PlaylistCount > 0 {
			title = fmt.Sprintf("%s  (%d/%d)", title, current.PlaylistIndex, current.PlaylistCount)
		}
		lines = append(lines, truncateRunes(title, maxInt(width-4, 10)))
		if current.TrackTitle != "" {
			lines = append(lines, mutedStyle.Render(truncateRunes(current.TrackTitle, maxInt(width-4, 10))))
		}
		bar := progressBar(current.Progress, clampInt(width-36, 10, 48))
		detail := strings.TrimSpace(strings.Join(nonEmpty(current.Speed, current.ETA, current.FileSize), "  "))
		lines = append(lines, fmt.Sprintf("%s %5.1f%%  %s", bar, current.Progress, mutedStyle.Render(detail)))
		if current.StatusText != "" {
			lines = append(lines, mutedStyle.Render(current.StatusText))
		}
	}
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderQueuePanel(width int) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Queue (%d)", len(m.view.Queue)))}
	if len(m.view.Queue) == 0 {
		lines = append(lines, mutedStyle.Render("empty; press a to add downloads"))
	}
	maxRows := clampInt(m.height-18, 4, 16)
	start, end := listWindow(len(m.view.Queue), m.queueCursor, maxRows)
	if start > 0 {
		lines = append(lines, mutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		job := m.view.Queue[i]
		label := job.Title
		if label == "" {
			label = job.URL
		}
		line := fmt.Sprintf("%2d. [%s] %s", i+1, job.Template.Mode, label)
		line = truncateRunes(line, maxInt(width-4, 10))
		if m.focus == focusQueue && i == m.queueCursor {
			line = selStyle.Width(maxInt(width-2, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(m.view.Queue) {
		lines = append(lines, mutedStyle.Render("..."))
	}
	return m.panelFor(focusQueue).Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderHistoryPanel(width int) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("History (%d)", len(m.view.History)))}
	if len(m.view.History) == 0 {
		lines = append(lines, mutedStyle.Render("nothing reaped yet"))
	}
	maxRows := clampInt(m.height-18, 4, 12)
	start, end := listWindow(len(m.view.History), m.historyCursor, maxRows)
	if start > 0 {
		lines = append(lines, mutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		entry := m.view.History[i]
		label := entry.Title
		if label == "" {
			label = entry.URL
		}
		line := fmt.Sprintf("%s %s", statusBadge(entry.Status), label)
		line = truncateRunes(line, maxInt(width-4, 10))
		if m.focus == focusHistory && i == m.historyCursor {
			line = selStyle.Width(maxInt(width-2, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(m.view.History) {
		lines = append(lines, mutedStyle.Render("..."))
	}
	return m.panelFor(focusHistory).Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderScythePanel(width int) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Scythes (%d)", len(m.view.Scythes)))}
	if len(m.view.Scythes) == 0 {
		lines = append(lines, mutedStyle.Render("no saved scythes; press S on a history entry"))
	}
	maxRows := clampInt(m.height-20, 3, 8)
	start, end := listWindow(len(m.view.Scythes), m.scytheCursor, maxRows)
	if start > 0 {
		lines = append(lines, mutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		scythe := m.view.Scythes[i]
		line := scythe.Name
		if summary := scheduleSummary(scythe.Schedule); summary != "" {
			line += "  " + mutedStyle.Render(summary)
		}
		line = truncateRunes(line, maxInt(width-4, 10))
		if m.focus == focusScythes && i == m.scytheCursor {
			line = selStyle.Width(maxInt(width-2, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(m.view.Scythes) {
		lines = append(lines, mutedStyle.Render("..."))
	}
	return m.panelFor(focusScythes).Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatusLine() string {
	lines := []string{}
	keys := make([]string, 0, len(m.sticky))
	for k := range m.sticky {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, warnStyle.Render("! "+m.sticky[k]))
	}

	msg := strings.TrimSpace(m.statusMessage)
	if msg != "" {
		style := mutedStyle
		switch {
		case strings.HasPrefix(msg, "error:"):
			style = errorStyle
		case strings.HasPrefix(msg, "success:"):
			style = okStyle
		case strings.HasPrefix(msg, "warning:"):
			style = warnStyle
		}
		lines = append(lines, style.Render(truncateRunes(msg, maxInt(m.width-2, 10))))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewEnqueue() string {
	if m.form == nil {
		return ""
	}
	header := titleStyle.Render("Add downloads")
	hints := mutedStyle.Render("tab/up/down: move | left/right/space: toggle | enter: next/submit | ctrl+s: submit | esc: cancel")

	lines := make([]string, 0, len(m.form.Fields)+4)
	for i, f := range m.form.Fields {
		prefix := "  "
		if i == m.form.Index {
			prefix = "> "
		}
		display := strings.TrimSpace(f.Value)
		if f.Kind == fieldBool {
			v, _ := parseYN(display)
			display = yesNo(v)
		}
		if display == "" {
			display = mutedStyle.Render("(empty)")
		}
		if f.Kind == fieldSelect {
			display = "[" + display + "]"
		}
		lines = append(lines, truncateRunes(fmt.Sprintf("%s%s: %s", prefix, f.Label, display), maxInt(m.width-6, 20)))
	}

	curr := m.form.currentField()
	footer := "\n" + curr.Label + "\n"
	if strings.TrimSpace(curr.Help) != "" {
		footer += mutedStyle.Render(curr.Help) + "\n"
	}
	footer += m.form.Input.View()
	if strings.TrimSpace(m.form.Error) != "" {
		footer += "\n" + errorStyle.Render(m.form.Error)
	}

	panel := panelStyle.Width(maxInt(m.width-2, 40)).Render(strings.Join(lines, "\n") + footer)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func (m Model) viewConfirm() string {
	prompt := ""
	if m.confirm != nil {
		prompt = m.confirm.prompt
	}
	text := prompt + "\n\nPress y or Enter to confirm, n or Esc to cancel."
	boxW := clampInt(m.width-8, 36, 80)
	panel := panelStyle.Width(boxW).Render(text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m Model) viewLogin() string {
	if m.login == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render("Login required"),
		mutedStyle.Render("to continue: " + m.login.Action),
		"",
		"Username",
		m.login.Username.View(),
		"",
		"Password",
		m.login.Password.View(),
		"",
		mutedStyle.Render("enter: next/submit | esc: cancel"),
	}
	boxW := clampInt(m.width-8, 40, 72)
	panel := panelStyle.Width(boxW).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m Model) viewLog() string {
	if m.logView == nil {
		return ""
	}
	header := titleStyle.Render(m.logView.title)
	hints := mutedStyle.Render("up/down/pgup/pgdown: scroll | g/G: top/bottom | q/esc: close")

	page := m.logPageSize()
	start := clampInt(m.logView.scroll, 0, maxInt(len(m.logView.lines)-1, 0))
	end := minInt(start+page, len(m.logView.lines))
	visible := make([]string, 0, page)
	for _, line := range m.logView.lines[start:end] {
		visible = append(visible, truncateRunes(line, maxInt(m.width-6, 20)))
	}
	panel := panelStyle.Width(maxInt(m.width-2, 40)).Render(strings.Join(visible, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func (m Model) panelFor(area focusArea) lipgloss.Style {
	if m.focus == area {
		return focusPanel
	}
	return panelStyle
}

func statusBadge(s model.HistoryStatus) string {
	switch s {
	case model.StatusCompleted:
		return okStyle.Render("[done]")
	case model.StatusPartial, model.StatusStopped:
		return warnStyle.Render("[" + strings.ToLower(string(s)) + "]")
	case model.StatusFailed, model.StatusError:
		return errorStyle.Render("[" + strings.ToLower(string(s)) + "]")
	case model.StatusPending:
		return mutedStyle.Render("[running]")
	default:
		return mutedStyle.Render("[" + strings.ToLower(string(s)) + "]")
	}
}

func scheduleSummary(s *model.Schedule) string {
	if s == nil || !s.Enabled {
		return ""
	}
	if s.Interval != "" {
		return "every " + s.Interval
	}
	if len(s.Weekdays) > 0 {
		summary := strings.Join(s.Weekdays, ",")
		if s.Time != "" {
			summary += " @ " + s.Time
		}
		return summary
	}
	if s.Time != "" {
		return "daily @ " + s.Time
	}
	return "scheduled"
}

func progressBar(percent float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(percent / 100 * float64(width))
	filled = clampInt(filled, 0, width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// listWindow picks the visible slice of a list so the cursor stays in view.
func listWindow(total, cursor, maxRows int) (start, end int) {
	if total <= maxRows {
		return 0, total
	}
	start = cursor - maxRows/2
	if start < 0 {
		start = 0
	}
	end = start + maxRows
	if end > total {
		end = total
		start = end - maxRows
	}
	return start, end
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
