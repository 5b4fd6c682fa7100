package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
	"github.com/KaliDrag0n/ContentReaper/internal/update"
)

// recordingActions records every call for assertions.
type recordingActions struct {
	calls   []string
	ids     []int64
	order   []int64
	paused  []bool
	request api.EnqueueRequest
}

func (a *recordingActions) Enqueue(ctx context.Context, req api.EnqueueRequest) {
	a.calls = append(a.calls, "enqueue")
	a.request = req
}
func (a *recordingActions) Continue(ctx context.Context, logID int64) {
	a.calls = append(a.calls, "continue")
	a.ids = append(a.ids, logID)
}
func (a *recordingActions) Stop(ctx context.Context, save bool) {
	if save {
		a.calls = append(a.calls, "stop-save")
	} else {
		a.calls = append(a.calls, "stop-cancel")
	}
}
func (a *recordingActions) DeleteQueueItem(ctx context.Context, id int64) {
	a.calls = append(a.calls, "delete-queue")
	a.ids = append(a.ids, id)
}
func (a *recordingActions) ClearQueue(ctx context.Context) { a.calls = append(a.calls, "clear-queue") }
func (a *recordingActions) ReorderQueue(ctx context.Context, order []int64) {
	a.calls = append(a.calls, "reorder")
	a.order = order
}
func (a *recordingActions) SetPaused(ctx context.Context, paused bool) {
	a.calls = append(a.calls, "pause")
	a.paused = append(a.paused, paused)
}
func (a *recordingActions) DeleteHistoryEntry(ctx context.Context, logID int64) {
	a.calls = append(a.calls, "delete-history")
	a.ids = append(a.ids, logID)
}
func (a *recordingActions) ClearHistory(ctx context.Context) {
	a.calls = append(a.calls, "clear-history")
}
func (a *recordingActions) AddScytheFromHistory(ctx context.Context, logID int64) {
	a.calls = append(a.calls, "add-scythe")
	a.ids = append(a.ids, logID)
}
func (a *recordingActions) DeleteScythe(ctx context.Context, id int64) {
	a.calls = append(a.calls, "delete-scythe")
	a.ids = append(a.ids, id)
}
func (a *recordingActions) ReapScythe(ctx context.Context, id int64) {
	a.calls = append(a.calls, "reap")
	a.ids = append(a.ids, id)
}

func (a *recordingActions) last() string {
	if len(a.calls) == 0 {
		return ""
	}
	return a.calls[len(a.calls)-1]
}

type noopLogs struct{}

func (noopLogs) HistoryLog(ctx context.Context, logID int64) (string, error) { return "", nil }
func (noopLogs) Tail(ctx context.Context, onLine func(string)) error         { return nil }

func testModel(actions *recordingActions, view model.Snapshot) Model {
	m := New(Deps{Actions: actions, Logs: noopLogs{}, Version: "1.0.0"})
	updated, _ := m.Update(StateMsg{View: view})
	return updated.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestDashboard_DeleteSelectedQueueItem(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{Queue: []model.Job{{ID: 1}, {ID: 2}}})

	updated, _ := m.Update(key("down"))
	m = updated.(Model)
	updated, _ = m.Update(key("d"))
	_ = updated

	if actions.last() != "delete-queue" || actions.ids[0] != 2 {
		t.Errorf("expected delete of job 2, got %v %v", actions.calls, actions.ids)
	}
}

func TestDashboard_MoveQueueItemSendsSwappedOrder(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{Queue: []model.Job{{ID: 1}, {ID: 2}, {ID: 3}}})

	updated, _ := m.Update(key("J"))
	m = updated.(Model)

	if actions.last() != "reorder" {
		t.Fatalf("expected reorder, got %v", actions.calls)
	}
	want := []int64{2, 1, 3}
	for i, id := range want {
		if actions.order[i] != id {
			t.Fatalf("order = %v, want %v", actions.order, want)
		}
	}
	if m.queueCursor != 1 {
		t.Errorf("cursor should follow the moved job, got %d", m.queueCursor)
	}
}

func TestDashboard_PauseToggles(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{IsPaused: false})

	m.Update(key("p"))
	if len(actions.paused) != 1 || !actions.paused[0] {
		t.Errorf("expected pause request, got %v", actions.paused)
	}

	m = testModel(actions, model.Snapshot{IsPaused: true})
	m.Update(key("p"))
	if len(actions.paused) != 2 || actions.paused[1] {
		t.Errorf("expected resume request, got %v", actions.paused)
	}
}

func TestDashboard_StopOnlyWithActiveDownload(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{})

	m.Update(key("s"))
	if len(actions.calls) != 0 {
		t.Errorf("stop without an active download must be a no-op, got %v", actions.calls)
	}

	m = testModel(actions, model.Snapshot{Current: &model.Job{ID: 5}})
	m.Update(key("s"))
	if actions.last() != "stop-save" {
		t.Errorf("expected stop-save, got %v", actions.calls)
	}
}

func TestDashboard_HistoryRequeueAndScythe(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{History: []model.HistoryEntry{
		{LogID: 9, Status: model.StatusStopped},
	}})

	updated, _ := m.Update(key("tab")) // focus history
	m = updated.(Model)

	updated, _ = m.Update(key("u"))
	m = updated.(Model)
	if actions.last() != "continue" || actions.ids[len(actions.ids)-1] != 9 {
		t.Fatalf("expected continue of log 9, got %v %v", actions.calls, actions.ids)
	}

	m.Update(key("S"))
	if actions.last() != "add-scythe" {
		t.Errorf("expected add-scythe, got %v", actions.calls)
	}
}

func TestDashboard_ClearQueueNeedsConfirmation(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{Queue: []model.Job{{ID: 1}}})

	updated, _ := m.Update(key("C"))
	m = updated.(Model)
	if m.mode != modeConfirm {
		t.Fatal("expected a confirmation modal")
	}
	if len(actions.calls) != 0 {
		t.Fatalf("nothing should run before confirming, got %v", actions.calls)
	}

	updated, _ = m.Update(key("y"))
	m = updated.(Model)
	if actions.last() != "clear-queue" {
		t.Errorf("expected clear-queue after confirm, got %v", actions.calls)
	}
	if m.mode != modeDashboard {
		t.Error("expected return to dashboard")
	}
}

func TestDashboard_ConfirmDismissRunsNothing(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{Queue: []model.Job{{ID: 1}}})

	updated, _ := m.Update(key("C"))
	m = updated.(Model)
	updated, _ = m.Update(key("n"))
	m = updated.(Model)

	if len(actions.calls) != 0 {
		t.Errorf("dismissed confirm must run nothing, got %v", actions.calls)
	}
	if m.mode != modeDashboard {
		t.Error("expected return to dashboard")
	}
}

func TestNotices_StickyLifecycle(t *testing.T) {
	m := testModel(&recordingActions{}, model.Snapshot{})

	updated, _ := m.Update(NoticeMsg{Notice: notify.Notice{
		Level: notify.LevelWarning, Message: "backend unreachable", Sticky: true, Key: "transport-stale",
	}})
	m = updated.(Model)
	if m.sticky["transport-stale"] != "backend unreachable" {
		t.Fatal("sticky notice not recorded")
	}

	updated, _ = m.Update(NoticeMsg{Notice: notify.Notice{Key: "transport-stale", Resolved: true}})
	m = updated.(Model)
	if _, ok := m.sticky["transport-stale"]; ok {
		t.Error("resolved sticky notice should disappear")
	}
}

func TestStateMsg_ClampsCursors(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{Queue: []model.Job{{ID: 1}, {ID: 2}, {ID: 3}}})

	updated, _ := m.Update(key("down"))
	m = updated.(Model)
	updated, _ = m.Update(key("down"))
	m = updated.(Model)

	updated, _ = m.Update(StateMsg{View: model.Snapshot{Queue: []model.Job{{ID: 1}}}})
	m = updated.(Model)
	if m.queueCursor != 0 {
		t.Errorf("cursor must clamp to the shrunken queue, got %d", m.queueCursor)
	}
}

func TestLogin_ModalAnswersGate(t *testing.T) {
	m := testModel(&recordingActions{}, model.Snapshot{})
	reply := make(chan LoginReply, 1)

	updated, _ := m.Update(LoginRequest{Action: "queue-delete", Reply: reply})
	m = updated.(Model)
	if m.mode != modeLogin {
		t.Fatal("expected login modal")
	}

	for _, r := range "admin" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	updated, _ = m.Update(key("enter")) // to password
	m = updated.(Model)
	for _, r := range "hunter2" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	updated, _ = m.Update(key("enter")) // submit
	m = updated.(Model)

	select {
	case r := <-reply:
		if !r.Ok || r.Credentials.Username != "admin" || r.Credentials.Password != "hunter2" {
			t.Errorf("unexpected reply %+v", r)
		}
	default:
		t.Fatal("no reply sent to the gate")
	}
	if m.mode != modeDashboard {
		t.Error("expected return to dashboard after submit")
	}
}

func TestLogin_EscapeDismisses(t *testing.T) {
	m := testModel(&recordingActions{}, model.Snapshot{})
	reply := make(chan LoginReply, 1)

	updated, _ := m.Update(LoginRequest{Action: "stop", Reply: reply})
	m = updated.(Model)
	updated, _ = m.Update(key("esc"))
	_ = updated

	select {
	case r := <-reply:
		if r.Ok {
			t.Error("dismissal must reply ok=false")
		}
	default:
		t.Fatal("no reply sent to the gate")
	}
}

func TestEnqueueForm_SubmitBuildsRequest(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{})

	updated, _ := m.Update(key("a"))
	m = updated.(Model)
	if m.mode != modeEnqueue {
		t.Fatal("expected enqueue form")
	}

	for _, r := range "https://example.com/watch?v=1" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = updated.(Model)

	if actions.last() != "enqueue" {
		t.Fatalf("expected enqueue, got %v", actions.calls)
	}
	if len(actions.request.URLs) != 1 || actions.request.URLs[0] != "https://example.com/watch?v=1" {
		t.Errorf("unexpected URLs %v", actions.request.URLs)
	}
	if actions.request.Job.Mode != model.ModeMusic {
		t.Errorf("default mode should be music, got %s", actions.request.Job.Mode)
	}
	if !actions.request.Job.Archive {
		t.Error("archive should default on")
	}
	if m.mode != modeDashboard {
		t.Error("expected return to dashboard after submit")
	}
}

func TestEnqueueForm_RequiresURL(t *testing.T) {
	actions := &recordingActions{}
	m := testModel(actions, model.Snapshot{})

	updated, _ := m.Update(key("a"))
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = updated.(Model)

	if len(actions.calls) != 0 {
		t.Errorf("empty form must not submit, got %v", actions.calls)
	}
	if m.form == nil || m.form.Error == "" {
		t.Error("expected a validation error on the form")
	}
}

func TestUpdateBadge_OnlyWhenNewer(t *testing.T) {
	m := testModel(&recordingActions{}, model.Snapshot{})

	updated, _ := m.Update(updateStatusMsg{status: update.Status{UpdateAvailable: false}})
	m = updated.(Model)
	if m.release != nil {
		t.Error("up-to-date check must not set the badge")
	}

	updated, _ = m.Update(updateStatusMsg{status: update.Status{UpdateAvailable: true, LatestVersion: "2.0.0"}})
	m = updated.(Model)
	if m.release == nil || m.release.LatestVersion != "2.0.0" {
		t.Error("expected the update badge")
	}
}
