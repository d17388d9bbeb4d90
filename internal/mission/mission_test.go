package mission

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/nugget/lifeboard/internal/agents"
)

const testDay = "2026-02-10"

func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, testDay+"T"+clock+"Z")
	if err != nil {
		t.Fatalf("parse %s: %v", clock, err)
	}
	return ts
}

func newCard(t *testing.T, status TaskStatus) (Data, string) {
	t.Helper()
	d, id := CreateTask(NewEmpty(), CreateTaskInput{
		Title:     "Prepare digest",
		Status:    status,
		ActorID:   agents.User,
		CreatedAt: at(t, "08:00:00"),
	})
	if id == "" {
		t.Fatal("CreateTask returned empty id")
	}
	return d, id
}

func TestCreateTask_Defaults(t *testing.T) {
	d, id := CreateTask(NewEmpty(), CreateTaskInput{Title: "   "})
	if len(d.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(d.Tasks))
	}
	card := d.Tasks[0]
	if card.ID != id {
		t.Errorf("id = %q, want %q", card.ID, id)
	}
	if card.Title != UntitledTask {
		t.Errorf("title = %q, want %q", card.Title, UntitledTask)
	}
	if card.Status != StatusBacklog || card.Priority != PriorityNormal {
		t.Errorf("status/priority = %s/%s, want backlog/normal", card.Status, card.Priority)
	}
	if len(card.Events) != 1 || card.Events[0].Type != EventCreated {
		t.Fatalf("events = %+v, want one created event", card.Events)
	}
	if card.Events[0].ActorID != agents.User {
		t.Errorf("actor = %q, want user", card.Events[0].ActorID)
	}
	if !Consistent(card) {
		t.Error("new card is not consistent with its events")
	}
}

func TestCreateTask_PrependsAndRejectsDuplicateID(t *testing.T) {
	d, _ := CreateTask(NewEmpty(), CreateTaskInput{ID: "task_a", Title: "A"})
	d, _ = CreateTask(d, CreateTaskInput{ID: "task_b", Title: "B"})
	if d.Tasks[0].ID != "task_b" {
		t.Errorf("first task = %q, want newest first", d.Tasks[0].ID)
	}

	same, id := CreateTask(d, CreateTaskInput{ID: "task_a", Title: "dup"})
	if id != "" || len(same.Tasks) != 2 {
		t.Errorf("duplicate id created a card: id=%q tasks=%d", id, len(same.Tasks))
	}
}

func TestMoveTask(t *testing.T) {
	d, id := newCard(t, StatusTodo)

	moved, changed := MoveTask(d, id, StatusDoing, "main", at(t, "10:00:00"))
	if !changed {
		t.Fatal("MoveTask reported no change")
	}
	card := moved.Tasks[0]
	if card.Status != StatusDoing {
		t.Errorf("status = %s, want doing", card.Status)
	}
	last := card.Events[len(card.Events)-1]
	if last.Type != EventStatusChanged {
		t.Fatalf("last event = %s, want status_changed", last.Type)
	}
	if last.Meta.FromStatus != StatusTodo || last.Meta.ToStatus != StatusDoing {
		t.Errorf("meta = %+v, want todo -> doing", last.Meta)
	}
	if !card.UpdatedAt.Equal(at(t, "10:00:00")) {
		t.Errorf("updatedAt = %v", card.UpdatedAt)
	}

	// The input is untouched.
	if d.Tasks[0].Status != StatusTodo || len(d.Tasks[0].Events) != 1 {
		t.Error("MoveTask mutated its input")
	}
}

func TestMoveTask_NoOps(t *testing.T) {
	d, id := newCard(t, StatusTodo)

	tests := []struct {
		name   string
		taskID string
		to     TaskStatus
	}{
		{"same status", id, StatusTodo},
		{"unknown task", "task_missing", StatusDone},
		{"invalid status", id, TaskStatus("archived")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := MoveTask(d, tt.taskID, tt.to, "main", time.Time{})
			if changed {
				t.Error("changed = true, want false")
			}
			if len(out.Tasks[0].Events) != 1 {
				t.Errorf("events = %d, want 1", len(out.Tasks[0].Events))
			}
		})
	}
}

func TestUpdateTask_RecordsChangedFields(t *testing.T) {
	d, id := newCard(t, StatusTodo)
	title := "Prepare weekly digest"
	high := PriorityHigh
	assignee := "main"

	out, changed := UpdateTask(d, id, TaskUpdate{
		Title:      &title,
		Priority:   &high,
		AssignedTo: &assignee,
		Tags:       []string{" ops ", ""},
		ActorID:    "coordinator",
		UpdatedAt:  at(t, "09:00:00"),
	})
	if !changed {
		t.Fatal("UpdateTask reported no change")
	}
	card := out.Tasks[0]
	if card.Title != title || card.Priority != PriorityHigh || card.AssignedTo != "main" {
		t.Errorf("card = %+v", card)
	}
	if !reflect.DeepEqual(card.Tags, []string{"ops"}) {
		t.Errorf("tags = %v, want [ops]", card.Tags)
	}

	ev := card.Events[len(card.Events)-1]
	if ev.Type != EventUpdated || ev.ActorID != "coordinator" {
		t.Fatalf("event = %+v", ev)
	}
	wantFields := []string{"title", "priority", "assignedTo", "tags"}
	if !reflect.DeepEqual(ev.Meta.Fields, wantFields) {
		t.Errorf("fields = %v, want %v", ev.Meta.Fields, wantFields)
	}
	if ev.Meta.FromPriority != PriorityNormal || ev.Meta.ToPriority != PriorityHigh {
		t.Errorf("priority meta = %s -> %s", ev.Meta.FromPriority, ev.Meta.ToPriority)
	}
	if *ev.Meta.FromAssignee != "" || *ev.Meta.ToAssignee != "main" {
		t.Errorf("assignee meta = %q -> %q", *ev.Meta.FromAssignee, *ev.Meta.ToAssignee)
	}
	if !Consistent(card) {
		t.Error("updated card is not consistent with its events")
	}
}

func TestUpdateTask_NoChangeIsNoOp(t *testing.T) {
	d, id := newCard(t, StatusTodo)
	title := "  Prepare digest "
	blank := ""
	normal := PriorityNormal

	out, changed := UpdateTask(d, id, TaskUpdate{
		Title:       &title,
		Description: &blank,
		Priority:    &normal,
		AssignedTo:  &blank,
		Tags:        []string{},
	})
	if changed {
		t.Error("changed = true for an update that changes nothing")
	}
	if len(out.Tasks[0].Events) != 1 {
		t.Errorf("events = %d, want 1", len(out.Tasks[0].Events))
	}
}

func TestAppendComment(t *testing.T) {
	d, id := newCard(t, StatusTodo)

	if _, changed := AppendComment(d, id, CommentInput{Body: "   "}); changed {
		t.Error("blank comment was accepted")
	}

	out, changed := AppendComment(d, id, CommentInput{AuthorID: "main", Body: " looks good ", CreatedAt: at(t, "11:00:00")})
	if !changed {
		t.Fatal("AppendComment reported no change")
	}
	card := out.Tasks[0]
	if len(card.Comments) != 1 || card.Comments[0].Body != "looks good" {
		t.Fatalf("comments = %+v", card.Comments)
	}
	ev := card.Events[len(card.Events)-1]
	if ev.Type != EventCommentAdded || ev.Meta.CommentID != card.Comments[0].ID {
		t.Errorf("event = %+v, want comment_added for %s", ev, card.Comments[0].ID)
	}
	if !Consistent(card) {
		t.Error("commented card is not consistent")
	}
}

func TestAppendEvent_KeepsReplayConsistent(t *testing.T) {
	d, id := newCard(t, StatusTodo)
	out, changed := AppendEvent(d, id, EventInput{
		Type:    EventStatusChanged,
		ActorID: agents.System,
		Meta:    &EventMeta{FromStatus: StatusTodo, ToStatus: StatusBlocked},
	})
	if !changed {
		t.Fatal("AppendEvent reported no change")
	}
	if out.Tasks[0].Status != StatusBlocked {
		t.Errorf("status = %s, want blocked", out.Tasks[0].Status)
	}
	if !Consistent(out.Tasks[0]) {
		t.Error("card not consistent after AppendEvent")
	}

	if _, changed := AppendEvent(d, id, EventInput{Type: EventCreated}); changed {
		t.Error("second created event was accepted")
	}
}

func TestRemoveTask(t *testing.T) {
	d, id := newCard(t, StatusTodo)
	d, other := CreateTask(d, CreateTaskInput{Title: "Keep me", CreatedAt: at(t, "09:00:00")})

	out, changed := RemoveTask(d, id)
	if !changed {
		t.Fatal("RemoveTask reported no change")
	}
	if FindTask(out, id) >= 0 || FindTask(out, other) < 0 {
		t.Errorf("tasks after remove = %+v", out.Tasks)
	}
	if FindTask(d, id) < 0 {
		t.Error("RemoveTask mutated its input")
	}
	if _, changed := RemoveTask(out, id); changed {
		t.Error("removing a missing card reported a change")
	}
}

func TestReplay_AfterMixedHistory(t *testing.T) {
	d, id := newCard(t, StatusBacklog)
	urgent := PriorityUrgent
	who := "qa"

	d, _ = MoveTask(d, id, StatusDoing, "main", time.Time{})
	d, _ = UpdateTask(d, id, TaskUpdate{Priority: &urgent})
	d, _ = UpdateTask(d, id, TaskUpdate{AssignedTo: &who})
	d, _ = AppendComment(d, id, CommentInput{Body: "progress"})
	d, _ = MoveTask(d, id, StatusDone, "qa", time.Time{})

	got := Replay(d.Tasks[0])
	want := TaskState{Status: StatusDone, Priority: PriorityUrgent, AssignedTo: "qa"}
	if got != want {
		t.Errorf("Replay = %+v, want %+v", got, want)
	}
	if len(d.Tasks[0].Events) != 6 {
		t.Errorf("events = %d, want 6", len(d.Tasks[0].Events))
	}
}

func TestUnreadCounts(t *testing.T) {
	readAt := at(t, "09:30:00")
	threads := []AgentThread{
		{
			ID: "thread_main", AgentID: "main",
			Messages: []AgentMessage{
				{ID: "m1", SenderID: agents.User, CreatedAt: at(t, "09:00:00")},
				{ID: "m2", SenderID: "coordinator", CreatedAt: at(t, "10:00:00")},
			},
			LastReadAt: &readAt,
		},
		{
			ID: "thread_research", AgentID: "researcher",
			Messages: []AgentMessage{
				{ID: "m3", SenderID: "researcher", CreatedAt: at(t, "08:00:00")},
				{ID: "m4", SenderID: agents.User, CreatedAt: at(t, "08:30:00")},
			},
		},
	}

	u := UnreadCounts(threads)
	if u.Total != 2 {
		t.Errorf("total = %d, want 2", u.Total)
	}
	if u.ByThreadID["thread_main"] != 1 || u.ByThreadID["thread_research"] != 1 {
		t.Errorf("byThreadId = %v", u.ByThreadID)
	}
	if u.ByAgentID["main"] != 1 || u.ByAgentID["researcher"] != 1 {
		t.Errorf("byAgentId = %v", u.ByAgentID)
	}
}

func TestAppendAgentMessage_CreatesThreadAndMarksRead(t *testing.T) {
	d, changed := AppendAgentMessage(NewEmpty(), "main", MessageInput{SenderID: "main", Body: "hello", CreatedAt: at(t, "08:00:00")})
	if !changed || len(d.Threads) != 1 {
		t.Fatalf("threads = %d, changed = %v", len(d.Threads), changed)
	}
	th := d.Threads[0]
	if th.Title != "Thread: main" {
		t.Errorf("title = %q", th.Title)
	}
	if ThreadUnreadCount(th) != 1 {
		t.Errorf("unread = %d, want 1", ThreadUnreadCount(th))
	}

	d, _ = AppendAgentMessage(d, "main", MessageInput{SenderID: "main", Body: "again", CreatedAt: at(t, "09:00:00")})
	if len(d.Threads) != 1 || len(d.Threads[0].Messages) != 2 {
		t.Fatalf("second message opened a new thread")
	}

	read, changed := MarkAgentThreadRead(d, "main", time.Time{})
	if !changed {
		t.Fatal("MarkAgentThreadRead reported no change")
	}
	if n := ThreadUnreadCount(read.Threads[0]); n != 0 {
		t.Errorf("unread after mark read = %d, want 0", n)
	}
	if !read.Threads[0].LastReadAt.Equal(at(t, "09:00:00")) {
		t.Errorf("lastReadAt = %v, want last message time", read.Threads[0].LastReadAt)
	}

	if _, changed := MarkAgentThreadRead(read, "main", time.Time{}); changed {
		t.Error("re-marking an already read thread reported a change")
	}
	if _, changed := AppendAgentMessage(d, "main", MessageInput{Body: " "}); changed {
		t.Error("blank message was accepted")
	}
}

func TestSortThreadsByActivity(t *testing.T) {
	threads := []AgentThread{
		{ID: "a", UpdatedAt: at(t, "08:00:00")},
		{ID: "b", UpdatedAt: at(t, "07:00:00"), Messages: []AgentMessage{{CreatedAt: at(t, "12:00:00")}}},
		{ID: "c", UpdatedAt: at(t, "10:00:00")},
	}
	sorted := SortThreadsByActivity(threads)
	var ids []string
	for _, th := range sorted {
		ids = append(ids, th.ID)
	}
	if !reflect.DeepEqual(ids, []string{"b", "c", "a"}) {
		t.Errorf("order = %v, want [b c a]", ids)
	}
	if threads[0].ID != "a" {
		t.Error("input slice was reordered")
	}
}

func TestUpsertAgentRuntime(t *testing.T) {
	busy := StateBusy
	d, _ := UpsertAgentRuntime(NewEmpty(), "main", RuntimeUpdate{
		State:        &busy,
		Note:         SetTo("drafting"),
		ActiveTaskID: SetTo("task_1"),
	})
	r := d.AgentRuntime[0]
	if r.State != StateBusy || r.Note != "drafting" || r.ActiveTaskID != "task_1" {
		t.Fatalf("runtime = %+v", r)
	}

	// Keep leaves note alone; Clear removes the active task.
	d, _ = UpsertAgentRuntime(d, "main", RuntimeUpdate{ActiveTaskID: Clear()})
	r = d.AgentRuntime[0]
	if r.Note != "drafting" || r.ActiveTaskID != "" || r.State != StateBusy {
		t.Errorf("after clear = %+v", r)
	}

	d, _ = UpsertAgentRuntime(d, "qa", RuntimeUpdate{})
	if d.AgentRuntime[1].State != StateIdle {
		t.Errorf("new entry state = %s, want idle", d.AgentRuntime[1].State)
	}
}

func TestRuntimeUpdate_JSONTriState(t *testing.T) {
	var u RuntimeUpdate
	if err := json.Unmarshal([]byte(`{"note":null,"activeTaskId":"task_9"}`), &u); err != nil {
		t.Fatal(err)
	}
	if !u.Note.Set || u.Note.Valid {
		t.Errorf("note = %+v, want clear", u.Note)
	}
	if !u.ActiveTaskID.Valid || u.ActiveTaskID.Value != "task_9" {
		t.Errorf("activeTaskId = %+v, want set", u.ActiveTaskID)
	}

	var empty RuntimeUpdate
	if err := json.Unmarshal([]byte(`{}`), &empty); err != nil {
		t.Fatal(err)
	}
	if empty.Note.Set || empty.ActiveTaskID.Set {
		t.Error("absent keys decoded as supplied")
	}
}

func TestGenerateDailyDigest(t *testing.T) {
	prev := func(day, clock string) time.Time {
		ts, _ := time.Parse(time.RFC3339, day+"T"+clock+"Z")
		return ts
	}
	d := Data{
		Tasks: []TaskCard{
			{
				ID: "task_a", CreatedAt: at(t, "07:00:00"),
				Comments: []TaskComment{{ID: "comment_a", CreatedAt: at(t, "07:30:00")}},
			},
			{
				ID: "task_b", CreatedAt: prev("2026-02-09", "10:00:00"),
				Events: []TaskEvent{{Type: EventStatusChanged, CreatedAt: at(t, "11:00:00"),
					Meta: &EventMeta{FromStatus: StatusDoing, ToStatus: StatusDone}}},
			},
			{
				ID: "task_c", CreatedAt: prev("2026-02-08", "12:00:00"),
				Events: []TaskEvent{{Type: EventStatusChanged, CreatedAt: at(t, "12:00:00"),
					Meta: &EventMeta{FromStatus: StatusBacklog, ToStatus: StatusDoing}}},
			},
		},
		Threads: []AgentThread{{
			ID: "thread_main", AgentID: "main",
			Messages: []AgentMessage{{SenderID: "main", CreatedAt: at(t, "12:30:00")}},
		}},
	}

	got := GenerateDailyDigest(d, at(t, "13:00:00"))
	want := DailyDigest{
		Date:           testDay,
		TasksCreated:   1,
		TasksCompleted: 1,
		TasksMoved:     2,
		CommentsAdded:  1,
		MessagesSent:   1,
		Summary:        "2026-02-10 · 1 new, 1 done, 2 moves, 1 comments, 1 msgs",
	}
	if got != want {
		t.Errorf("digest = %+v\nwant %+v", got, want)
	}
}

func TestGenerateDailyDigest_UsesDayLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on the 11th is still the 10th in UTC-5.
	late := time.Date(2026, 2, 11, 2, 0, 0, 0, time.UTC)
	d := Data{Tasks: []TaskCard{{ID: "t", CreatedAt: late}}}

	if got := GenerateDailyDigest(d, time.Date(2026, 2, 10, 12, 0, 0, 0, loc)); got.TasksCreated != 1 {
		t.Errorf("local digest created = %d, want 1", got.TasksCreated)
	}
	if got := GenerateDailyDigest(d, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)); got.TasksCreated != 0 {
		t.Errorf("UTC digest created = %d, want 0", got.TasksCreated)
	}
}

func TestNormalize(t *testing.T) {
	d := Normalize(Data{
		Tasks:        []TaskCard{{ID: "t", Status: "weird"}},
		AgentRuntime: []AgentRuntimeStatus{{AgentID: "main", State: "napping"}},
	})
	if d.Threads == nil || d.Tasks[0].Comments == nil || d.Tasks[0].Events == nil {
		t.Error("nil collections survived Normalize")
	}
	if d.Tasks[0].Status != StatusBacklog || d.Tasks[0].Priority != PriorityNormal {
		t.Errorf("task = %+v", d.Tasks[0])
	}
	if d.AgentRuntime[0].State != StateOffline {
		t.Errorf("state = %s, want offline", d.AgentRuntime[0].State)
	}
}

func TestData_JSONRoundTrip(t *testing.T) {
	d, id := newCard(t, StatusTodo)
	d, _ = AppendComment(d, id, CommentInput{Body: "note", CreatedAt: at(t, "09:00:00")})
	d, _ = AppendAgentMessage(d, "main", MessageInput{Body: "hi", CreatedAt: at(t, "09:05:00")})
	d, _ = MarkAgentThreadRead(d, "main", time.Time{})

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back Data
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d, back) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, d)
	}
}
