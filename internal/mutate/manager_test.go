package mutate

import (
	"context"
	"testing"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/auth"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
	"github.com/KaliDrag0n/ContentReaper/internal/store"
)

// fakeBackend records calls and returns scripted errors.
type fakeBackend struct {
	err        error
	calls      []string
	lastIDs    []int64
	lastScythe model.Scythe
	messages   map[string]string
}

func (f *fakeBackend) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeBackend) DeleteQueueItem(ctx context.Context, id int64) error {
	f.lastIDs = []int64{id}
	return f.record("delete-queue")
}
func (f *fakeBackend) ClearQueue(ctx context.Context) error { return f.record("clear-queue") }
func (f *fakeBackend) ReorderQueue(ctx context.Context, order []int64) error {
	f.lastIDs = order
	return f.record("reorder")
}
func (f *fakeBackend) PauseQueue(ctx context.Context) error  { return f.record("pause") }
func (f *fakeBackend) ResumeQueue(ctx context.Context) error { return f.record("resume") }
func (f *fakeBackend) Stop(ctx context.Context, save bool) (string, error) {
	return f.messages["stop"], f.record("stop")
}
func (f *fakeBackend) Enqueue(ctx context.Context, req api.EnqueueRequest) (string, error) {
	return f.messages["enqueue"], f.record("enqueue")
}
func (f *fakeBackend) ContinueJob(ctx context.Context, logID int64) (string, error) {
	f.lastIDs = []int64{logID}
	return f.messages["continue"], f.record("continue")
}
func (f *fakeBackend) DeleteHistoryEntry(ctx context.Context, logID int64) error {
	f.lastIDs = []int64{logID}
	return f.record("delete-history")
}
func (f *fakeBackend) ClearHistory(ctx context.Context) error { return f.record("clear-history") }
func (f *fakeBackend) AddScythe(ctx context.Context, s model.Scythe) (string, error) {
	f.lastScythe = s
	return f.messages["add-scythe"], f.record("add-scythe")
}
func (f *fakeBackend) AddScytheFromHistory(ctx context.Context, logID int64) (string, error) {
	f.lastIDs = []int64{logID}
	return f.messages["add-scythe-history"], f.record("add-scythe-history")
}
func (f *fakeBackend) UpdateScythe(ctx context.Context, s model.Scythe) error {
	f.lastScythe = s
	return f.record("update-scythe")
}
func (f *fakeBackend) DeleteScythe(ctx context.Context, id int64) error {
	return f.record("delete-scythe")
}
func (f *fakeBackend) ReapScythe(ctx context.Context, id int64) (string, error) {
	return "", f.record("reap")
}

type fixture struct {
	store   *store.Store
	backend *fakeBackend
	manager *Manager
	notices []notify.Notice
	renders int
}

func newFixture(t *testing.T, snap model.Snapshot) *fixture {
	t.Helper()
	f := &fixture{store: store.New(), backend: &fakeBackend{messages: map[string]string{}}}
	f.store.Apply(snap)

	emitter := notify.NewEmitter()
	emitter.Subscribe(func(n notify.Notice) { f.notices = append(f.notices, n) })

	f.manager = NewManager(f.store, f.backend, emitter)
	f.manager.OnChange = func() { f.renders++ }
	f.manager.launch = func(fn func()) { fn() } // settle synchronously in tests
	return f
}

func queueSnapshot(ids ...int64) model.Snapshot {
	queue := make([]model.Job, len(ids))
	for i, id := range ids {
		queue[i] = model.Job{ID: id}
	}
	return model.Snapshot{Queue: queue}
}

// TestDeleteQueueItem_Optimistic tests the immediate local effect and the
// confirming snapshot's silent drop.
func TestDeleteQueueItem_Optimistic(t *testing.T) {
	f := newFixture(t, queueSnapshot(1, 2, 3))

	f.manager.DeleteQueueItem(context.Background(), 2)

	view := f.store.View()
	if view.QueueIndex(2) >= 0 {
		t.Fatal("item 2 should disappear immediately")
	}
	if f.backend.lastIDs[0] != 2 {
		t.Errorf("expected delete request for id 2, got %v", f.backend.lastIDs)
	}
	if f.renders == 0 {
		t.Error("expected a render trigger after the optimistic apply")
	}

	// Confirming snapshot drops the prediction without double-applying.
	f.store.Apply(queueSnapshot(1, 3))
	if f.store.PendingCount() != 0 {
		t.Errorf("expected prediction dropped, %d pending", f.store.PendingCount())
	}
}

// TestDeleteQueueItem_RevertOnFailure tests precise rollback: the item comes
// back in its original position and an error is surfaced.
func TestDeleteQueueItem_RevertOnFailure(t *testing.T) {
	f := newFixture(t, queueSnapshot(1, 2, 3))
	f.backend.err = &api.Error{StatusCode: 500, Message: "An unexpected server error occurred."}

	f.manager.DeleteQueueItem(context.Background(), 2)

	view := f.store.View()
	if view.QueueIndex(2) != 1 {
		t.Errorf("expected item 2 restored at position 1, got queue %+v", view.Queue)
	}
	if len(f.notices) != 1 || f.notices[0].Level != notify.LevelError {
		t.Fatalf("expected one error notice, got %+v", f.notices)
	}
	if f.notices[0].Message != "An unexpected server error occurred." {
		t.Errorf("expected server message surfaced, got %q", f.notices[0].Message)
	}
}

// TestRevert_LeavesUnrelatedPredictions tests that a failed mutation only
// rolls back its own effect.
func TestRevert_LeavesUnrelatedPredictions(t *testing.T) {
	f := newFixture(t, queueSnapshot(1, 2, 3))

	// First delete succeeds but is not yet confirmed by a snapshot.
	f.manager.DeleteQueueItem(context.Background(), 1)

	// Second delete fails.
	f.backend.err = &api.Error{StatusCode: 400, Message: "nope"}
	f.manager.DeleteQueueItem(context.Background(), 3)

	view := f.store.View()
	if view.QueueIndex(1) >= 0 {
		t.Error("the successful prediction must stay applied")
	}
	if view.QueueIndex(3) < 0 {
		t.Error("the failed prediction must be rolled back")
	}
}

// TestReorderQueue_Scenario tests the drag-reorder flow from the optimistic
// render to the confirming no-op snapshot.
func TestReorderQueue_Scenario(t *testing.T) {
	f := newFixture(t, queueSnapshot(1, 2))

	f.manager.ReorderQueue(context.Background(), []int64{2, 1})

	view := f.store.View()
	if view.Queue[0].ID != 2 || view.Queue[1].ID != 1 {
		t.Fatalf("expected immediate order [2 1], got %+v", view.Queue)
	}
	if f.backend.lastIDs[0] != 2 || f.backend.lastIDs[1] != 1 {
		t.Errorf("expected reorder request [2 1], got %v", f.backend.lastIDs)
	}

	// Server confirms the same order; the prediction dissolves.
	f.store.Apply(queueSnapshot(2, 1))
	if f.store.PendingCount() != 0 {
		t.Errorf("expected prediction dropped, %d pending", f.store.PendingCount())
	}
	view = f.store.View()
	if view.Queue[0].ID != 2 || view.Queue[1].ID != 1 {
		t.Errorf("expected confirmed order [2 1], got %+v", view.Queue)
	}
}

// TestSetPaused tests the optimistic pause flag and endpoint selection.
func TestSetPaused(t *testing.T) {
	f := newFixture(t, model.Snapshot{})

	f.manager.SetPaused(context.Background(), true)
	if !f.store.View().IsPaused {
		t.Error("pause should apply immediately")
	}
	if f.backend.calls[len(f.backend.calls)-1] != "pause" {
		t.Errorf("expected pause call, got %v", f.backend.calls)
	}

	f.manager.SetPaused(context.Background(), false)
	if f.store.View().IsPaused {
		t.Error("resume should apply immediately")
	}
	if f.backend.calls[len(f.backend.calls)-1] != "resume" {
		t.Errorf("expected resume call, got %v", f.backend.calls)
	}
}

// TestDeleteHistoryEntry_Optimistic tests history removal and rollback.
func TestDeleteHistoryEntry_Optimistic(t *testing.T) {
	snap := model.Snapshot{History: []model.HistoryEntry{
		{LogID: 8, Status: model.StatusCompleted},
		{LogID: 7, Status: model.StatusStopped},
	}}
	f := newFixture(t, snap)
	f.backend.err = &api.Error{StatusCode: 500, Message: "disk error"}

	f.manager.DeleteHistoryEntry(context.Background(), 7)

	view := f.store.View()
	if view.HistoryIndex(7) != 1 {
		t.Errorf("expected entry 7 restored at position 1, got %+v", view.History)
	}
}

// TestLoginCancelled_SurfacesWarning tests the auth-cancel error class.
func TestLoginCancelled_SurfacesWarning(t *testing.T) {
	f := newFixture(t, queueSnapshot(1))
	f.backend.err = auth.ErrLoginCancelled

	f.manager.ClearQueue(context.Background())

	if len(f.notices) != 1 || f.notices[0].Level != notify.LevelWarning {
		t.Fatalf("expected a warning notice, got %+v", f.notices)
	}
	if f.store.View().QueueIndex(1) < 0 {
		t.Error("queue must be restored after a cancelled login")
	}
}

// TestSuperseded_Silent tests that a superseded request reverts without a
// user-facing notice.
func TestSuperseded_Silent(t *testing.T) {
	f := newFixture(t, queueSnapshot(1))
	f.backend.err = auth.ErrSuperseded

	f.manager.DeleteQueueItem(context.Background(), 1)

	if len(f.notices) != 0 {
		t.Errorf("superseded requests should not toast, got %+v", f.notices)
	}
	if f.store.View().QueueIndex(1) < 0 {
		t.Error("queue must be restored after supersedure")
	}
}

// TestEnqueue_SuccessMessage tests that confirmation messages surface.
func TestEnqueue_SuccessMessage(t *testing.T) {
	f := newFixture(t, model.Snapshot{})
	f.backend.messages["enqueue"] = "Added 1 job(s) to the queue."

	f.manager.Enqueue(context.Background(), api.EnqueueRequest{URLs: []string{"https://example.com/a"}})

	if len(f.notices) != 1 || f.notices[0].Level != notify.LevelSuccess {
		t.Fatalf("expected a success notice, got %+v", f.notices)
	}
}

// TestContinue_SendsLogID tests the continue action plumbing.
func TestContinue_SendsLogID(t *testing.T) {
	f := newFixture(t, model.Snapshot{})
	f.backend.messages["continue"] = "Re-queued job."

	f.manager.Continue(context.Background(), 7)

	if f.backend.lastIDs[0] != 7 {
		t.Errorf("expected log id 7, got %v", f.backend.lastIDs)
	}
}

// TestAddScythe_SendsContent tests the scythe save plumbing and its
// confirmation toast.
func TestAddScythe_SendsContent(t *testing.T) {
	f := newFixture(t, model.Snapshot{})
	f.backend.messages["add-scythe"] = "Scythe 'Weekly Mix' saved."

	f.manager.AddScythe(context.Background(), model.Scythe{
		Name:     "Weekly Mix",
		Template: model.JobTemplate{URL: "https://example.com/playlist", Mode: model.ModeMusic},
	})

	if f.backend.lastScythe.Name != "Weekly Mix" {
		t.Errorf("expected scythe content on the wire, got %+v", f.backend.lastScythe)
	}
	if len(f.notices) != 1 || f.notices[0].Level != notify.LevelSuccess {
		t.Fatalf("expected a success notice, got %+v", f.notices)
	}
}

// TestUpdateScythe tests the quiet success path and the error surface.
func TestUpdateScythe(t *testing.T) {
	f := newFixture(t, model.Snapshot{})

	f.manager.UpdateScythe(context.Background(), model.Scythe{ID: 2, Name: "Renamed"})

	if f.backend.lastScythe.ID != 2 || f.backend.lastScythe.Name != "Renamed" {
		t.Errorf("expected updated scythe on the wire, got %+v", f.backend.lastScythe)
	}
	if len(f.notices) != 0 {
		t.Errorf("updates settle quietly, got %+v", f.notices)
	}

	f.backend.err = &api.Error{StatusCode: 404, Message: "Scythe not found."}
	f.manager.UpdateScythe(context.Background(), model.Scythe{ID: 9})

	if len(f.notices) != 1 || f.notices[0].Message != "Scythe not found." {
		t.Fatalf("expected the server message surfaced, got %+v", f.notices)
	}
}
