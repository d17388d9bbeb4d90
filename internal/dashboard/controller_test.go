package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/events"
	"github.com/nugget/lifeboard/internal/mission"
	"github.com/nugget/lifeboard/internal/rules"
)

var fixedNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu    sync.Mutex
	saves []appdata.AppData
	err   error
}

func (m *memStore) SaveDocument(_ context.Context, _ string, doc appdata.AppData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, doc)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func newTestController(t *testing.T, store Persister, debounce time.Duration) (*Controller, *events.Bus) {
	t.Helper()
	bus := events.New()
	c := New(appdata.New(), Config{
		Store:    store,
		Key:      "test",
		Debounce: debounce,
		Bus:      bus,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return fixedNow },
	})
	return c, bus
}

func TestApply_PublishesOnlyOnChange(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	ch := c.Subscribe(8)
	defer c.Unsubscribe(ch)

	if !c.ToggleHabit("training") {
		t.Fatal("toggle of a default habit reported no change")
	}
	select {
	case e := <-ch:
		if e.Kind != events.KindHabitToggled || e.Data["habit_id"] != "training" {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	if c.ToggleHabit("nonexistent") {
		t.Error("toggle of unknown habit reported a change")
	}
	select {
	case e := <-ch:
		t.Errorf("no-op published %+v", e)
	default:
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	snap := c.Snapshot()
	snap.Habits[0].Title = "tampered"

	if c.Snapshot().Habits[0].Title == "tampered" {
		t.Error("mutating a snapshot leaked into the controller")
	}
}

func TestDebouncedSave_CoalescesWrites(t *testing.T) {
	store := &memStore{}
	c, _ := newTestController(t, store, 20*time.Millisecond)

	for range 5 {
		c.ToggleHabit("training")
	}
	if n := store.count(); n != 0 {
		t.Fatalf("saved %d times before the debounce elapsed", n)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := store.count(); n != 1 {
		t.Fatalf("saves = %d, want 1", n)
	}
	saved := store.saves[0]
	if !saved.HabitCompletions["training"]["2026-02-10"] {
		t.Error("saved snapshot is not the latest (five toggles end on done)")
	}
}

func TestFlush_WritesPendingChanges(t *testing.T) {
	store := &memStore{}
	c, _ := newTestController(t, store, time.Hour)

	c.AddHabit("Read", "📚")
	if err := c.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.count() != 1 {
		t.Fatalf("saves = %d, want 1", store.count())
	}
	// Nothing new to write.
	if err := c.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.count() != 1 {
		t.Errorf("clean flush wrote again: %d", store.count())
	}
}

func TestFlush_ErrorKeepsDirty(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	c, bus := newTestController(t, store, time.Hour)
	ch := bus.Subscribe(8)
	defer bus.Unsubscribe(ch)

	c.ToggleHabit("training")
	<-ch // habit_toggled

	if err := c.Flush(context.Background()); err == nil {
		t.Fatal("Flush returned nil on store error")
	}
	if e := <-ch; e.Kind != events.KindSaveFailed {
		t.Errorf("event = %s, want save_failed", e.Kind)
	}

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	if err := c.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.count() != 1 {
		t.Error("retry after failure did not save")
	}
}

func TestReplace_Normalizes(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	c.Replace(appdata.AppData{})

	got := c.Snapshot()
	if got.SchemaVersion != appdata.CurrentSchemaVersion || len(got.Habits) == 0 || got.MissionControl.Tasks == nil {
		t.Errorf("replaced document not normalized: %+v", got)
	}
}

func TestAgentTaskOps_MirrorIntoMission(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	id := c.AddAgentTask("Ship release", "devops")
	if id == "" {
		t.Fatal("AddAgentTask returned empty id")
	}
	mc := c.Snapshot().MissionControl
	if mission.FindTask(mc, id) < 0 {
		t.Fatal("agent task was not mirrored")
	}

	c.MoveAgentTask(id, appdata.AgentTaskDone)
	mc = c.Snapshot().MissionControl
	if mc.Tasks[mission.FindTask(mc, id)].Status != mission.StatusDone {
		t.Error("mirror status not synced")
	}

	c.RemoveAgentTask(id)
	if mission.FindTask(c.Snapshot().MissionControl, id) >= 0 {
		t.Error("untouched mirror survived removal")
	}
}

func TestAgentTaskOps_KeepAgentActivity(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	if !c.SendMessage("researcher", mission.MessageInput{SenderID: "researcher", Body: "found three papers"}) {
		t.Fatal("message failed")
	}
	filed := c.CreateTask(mission.CreateTaskInput{Title: "Summarize papers", ActorID: "researcher"})
	if filed == "" {
		t.Fatal("CreateTask returned empty id")
	}

	id := c.AddAgentTask("Book dentist", "main")
	c.MoveAgentTask(id, appdata.AgentTaskDoing)
	c.RemoveAgentTask(id)

	mc := c.Snapshot().MissionControl
	if len(mc.Threads) != 1 {
		t.Errorf("threads = %d, want 1", len(mc.Threads))
	}
	if mission.FindTask(mc, filed) < 0 {
		t.Error("agent-filed card was pruned by a board edit")
	}
	if got := c.Unread().Total; got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
}

func TestAgentTaskOps_RemoveKeepsTouchedMirror(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	id := c.AddAgentTask("Renew passport", "main")
	c.CommentTask(id, mission.CommentInput{AuthorID: "user", Body: "photos are in the drawer"})

	c.RemoveAgentTask(id)
	if mission.FindTask(c.Snapshot().MissionControl, id) < 0 {
		t.Error("mirror with user comments was removed")
	}
}

func TestMissionOps(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	id := c.CreateTask(mission.CreateTaskInput{Title: "Digest"})
	if !c.MoveTask(id, mission.StatusDoing, "main") {
		t.Error("move failed")
	}
	if c.MoveTask(id, mission.StatusDoing, "main") {
		t.Error("no-op move reported change")
	}
	if !c.CommentTask(id, mission.CommentInput{Body: "on it"}) {
		t.Error("comment failed")
	}
	if !c.SendMessage("main", mission.MessageInput{SenderID: "main", Body: "done"}) {
		t.Error("message failed")
	}
	if c.Unread().Total != 1 {
		t.Errorf("unread = %d, want 1", c.Unread().Total)
	}
	if !c.MarkThreadRead("main") || c.Unread().Total != 0 {
		t.Error("mark read failed")
	}

	dg := c.Digest(fixedNow)
	if dg.TasksCreated != 1 || dg.TasksMoved != 1 || dg.CommentsAdded != 1 || dg.MessagesSent != 1 {
		t.Errorf("digest = %+v", dg)
	}

	blocked := &mission.EventMeta{FromStatus: mission.StatusDoing, ToStatus: mission.StatusBlocked}
	if !c.AppendTaskEvent(id, mission.EventInput{Type: mission.EventStatusChanged, ActorID: "main", Meta: blocked}) {
		t.Error("append event failed")
	}
	mc := c.Snapshot().MissionControl
	if card := mc.Tasks[mission.FindTask(mc, id)]; card.Status != mission.StatusBlocked {
		t.Errorf("status after event = %s, want blocked", card.Status)
	}
	if !c.RemoveTask(id) || mission.FindTask(c.Snapshot().MissionControl, id) >= 0 {
		t.Error("remove failed")
	}
	if c.RemoveTask(id) {
		t.Error("second remove reported a change")
	}
}

func TestUpsertBill_IdenticalIsQuiet(t *testing.T) {
	store := &memStore{}
	c, _ := newTestController(t, store, -1)
	rent := bills.Bill{ID: "rent", Title: "Rent", AmountUSD: 1500, Frequency: bills.Monthly, DueDay: 10}
	if id := c.UpsertBill(rent); id != "rent" {
		t.Fatalf("id = %q", id)
	}
	saves := store.count()

	ch := c.Subscribe(8)
	defer c.Unsubscribe(ch)
	if id := c.UpsertBill(rent); id != "rent" {
		t.Errorf("identical upsert id = %q, want rent", id)
	}
	select {
	case e := <-ch:
		t.Errorf("identical upsert published %+v", e)
	default:
	}
	if store.count() != saves {
		t.Errorf("saves = %d, want %d", store.count(), saves)
	}
}

func TestToday(t *testing.T) {
	c, _ := newTestController(t, nil, -1)
	c.UpsertBill(bills.Bill{ID: "rent", Title: "Rent", AmountUSD: 1500, Frequency: bills.Monthly, DueDay: 10})
	c.UpsertBill(bills.Bill{ID: "gym", Title: "Gym", AmountUSD: 40, Frequency: bills.Monthly, DueDay: 14})
	c.UpsertMetric(appdata.MetricEntry{SleepHours: appdata.Ptr(7.0)})

	today := c.Today()
	if today.Status != rules.Red {
		t.Errorf("status = %s, want RED (rent due today)", today.Status)
	}
	if today.DueSoon != 1540 {
		t.Errorf("due soon = %v, want 1540", today.DueSoon)
	}

	c.MarkBillPaid("rent")
	today = c.Today()
	if today.Status != rules.Green {
		t.Errorf("status after paying = %s, want GREEN", today.Status)
	}
	if today.DueSoon != 40 {
		t.Errorf("due soon after paying = %v, want 40", today.DueSoon)
	}
}
