package dashboard

import (
	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/events"
	"github.com/nugget/lifeboard/internal/mission"
)

// ToggleHabit flips today's completion of a habit.
func (c *Controller) ToggleHabit(habitID string) bool {
	today := c.now()
	return c.Apply(events.KindHabitToggled, map[string]any{"habit_id": habitID}, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.ToggleHabitToday(d, habitID, today)
	})
}

// AddHabit adds a habit and returns its id, or "" if the title was
// blank.
func (c *Controller) AddHabit(title, emoji string) string {
	var id string
	c.Apply(events.KindHabitAdded, nil, func(d appdata.AppData) (appdata.AppData, bool) {
		var out appdata.AppData
		out, id = appdata.AddHabit(d, title, emoji)
		return out, id != ""
	})
	return id
}

// RemoveHabit deletes a habit and its history.
func (c *Controller) RemoveHabit(habitID string) bool {
	return c.Apply(events.KindHabitRemoved, map[string]any{"habit_id": habitID}, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.RemoveHabit(d, habitID)
	})
}

// UpsertMetric merges entry into today's metrics.
func (c *Controller) UpsertMetric(entry appdata.MetricEntry) bool {
	today := c.now()
	return c.Apply(events.KindMetricUpserted, map[string]any{"date": dayKey(today)}, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.UpsertMetricToday(d, entry, today)
	})
}

// UpsertCheckin merges entry into today's check-in.
func (c *Controller) UpsertCheckin(entry appdata.DailyCheckin) bool {
	today := c.now()
	return c.Apply(events.KindCheckinUpserted, map[string]any{"date": dayKey(today)}, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.UpsertCheckinToday(d, entry, today)
	})
}

// UpsertBill stores a bill and returns its id, or "" if it was invalid.
// Storing an identical bill returns its id without an event or save.
func (c *Controller) UpsertBill(b bills.Bill) string {
	var id string
	c.Apply(events.KindBillUpserted, map[string]any{"bill_id": b.ID}, func(d appdata.AppData) (appdata.AppData, bool) {
		var (
			out     appdata.AppData
			changed bool
		)
		out, id, changed = appdata.UpsertBill(d, b)
		return out, changed
	})
	return id
}

// RemoveBill deletes a bill.
func (c *Controller) RemoveBill(billID string) bool {
	return c.Apply(events.KindBillRemoved, map[string]any{"bill_id": billID}, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.RemoveBill(d, billID)
	})
}

// MarkBillPaid pays a bill's next occurrence.
func (c *Controller) MarkBillPaid(billID string) bool {
	today := c.now()
	return c.Apply(events.KindBillPaid, map[string]any{"bill_id": billID}, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.MarkBillPaid(d, billID, today)
	})
}

// AddAgentTask adds a simple kanban card and mirrors it into Mission
// Control. It returns the card id, or "" if the input was invalid.
func (c *Controller) AddAgentTask(title, assignee string) string {
	at := c.now().UTC()
	var id string
	c.Apply(events.KindAgentTaskAdded, nil, func(d appdata.AppData) (appdata.AppData, bool) {
		var out appdata.AppData
		if out, id = appdata.AddAgentTask(d, title, assignee, at); id == "" {
			return d, false
		}
		out, _ = appdata.SyncAgentTasks(out, at)
		return out, true
	})
	return id
}

// MoveAgentTask moves a simple kanban card and syncs its mirror.
func (c *Controller) MoveAgentTask(id string, to appdata.AgentTaskStatus) bool {
	at := c.now().UTC()
	return c.Apply(events.KindAgentTaskMoved, map[string]any{"task_id": id}, func(d appdata.AppData) (appdata.AppData, bool) {
		out, ok := appdata.MoveAgentTask(d, id, to)
		if !ok {
			return d, false
		}
		out, _ = appdata.SyncAgentTasks(out, at)
		return out, true
	})
}

// RemoveAgentTask deletes a simple kanban card and prunes its mirror
// unless the user has interacted with it.
func (c *Controller) RemoveAgentTask(id string) bool {
	return c.Apply(events.KindAgentTaskRemoved, map[string]any{"task_id": id}, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.RemoveAgentTask(d, id)
	})
}

// Seed bootstraps empty collections and reconciles Mission Control. It
// is run once on startup.
func (c *Controller) Seed() bool {
	now := c.now()
	return c.Apply(events.KindReconciled, nil, func(d appdata.AppData) (appdata.AppData, bool) {
		return appdata.SeedIfEmpty(d, now)
	})
}

// CreateTask adds a Mission Control card and returns its id.
func (c *Controller) CreateTask(in mission.CreateTaskInput) string {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = c.now().UTC()
	}
	var id string
	c.Apply(events.KindTaskCreated, nil, func(d appdata.AppData) (appdata.AppData, bool) {
		return withMission(d, func(mc mission.Data) (mission.Data, bool) {
			var out mission.Data
			out, id = mission.CreateTask(mc, in)
			return out, id != ""
		})
	})
	return id
}

// UpdateTask applies a partial update to a card.
func (c *Controller) UpdateTask(taskID string, u mission.TaskUpdate) bool {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = c.now().UTC()
	}
	return c.applyMission(events.KindTaskUpdated, map[string]any{"task_id": taskID}, func(mc mission.Data) (mission.Data, bool) {
		return mission.UpdateTask(mc, taskID, u)
	})
}

// MoveTask changes a card's status.
func (c *Controller) MoveTask(taskID string, to mission.TaskStatus, actorID string) bool {
	at := c.now().UTC()
	return c.applyMission(events.KindTaskMoved, map[string]any{"task_id": taskID, "to": string(to)}, func(mc mission.Data) (mission.Data, bool) {
		return mission.MoveTask(mc, taskID, to, actorID, at)
	})
}

// CommentTask adds a comment to a card.
func (c *Controller) CommentTask(taskID string, in mission.CommentInput) bool {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = c.now().UTC()
	}
	return c.applyMission(events.KindTaskCommented, map[string]any{"task_id": taskID}, func(mc mission.Data) (mission.Data, bool) {
		return mission.AppendComment(mc, taskID, in)
	})
}

// AppendTaskEvent records a raw event on a card.
func (c *Controller) AppendTaskEvent(taskID string, in mission.EventInput) bool {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = c.now().UTC()
	}
	return c.applyMission(events.KindTaskEvent, map[string]any{"task_id": taskID, "type": string(in.Type)}, func(mc mission.Data) (mission.Data, bool) {
		return mission.AppendEvent(mc, taskID, in)
	})
}

// RemoveTask deletes a Mission Control card and its history.
func (c *Controller) RemoveTask(taskID string) bool {
	return c.applyMission(events.KindTaskRemoved, map[string]any{"task_id": taskID}, func(mc mission.Data) (mission.Data, bool) {
		return mission.RemoveTask(mc, taskID)
	})
}

// SendMessage appends a chat message to an agent's thread.
func (c *Controller) SendMessage(agentID string, in mission.MessageInput) bool {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = c.now().UTC()
	}
	return c.applyMission(events.KindMessageSent, map[string]any{"agent_id": agentID}, func(mc mission.Data) (mission.Data, bool) {
		return mission.AppendAgentMessage(mc, agentID, in)
	})
}

// MarkThreadRead moves an agent thread's read cursor to its latest
// activity.
func (c *Controller) MarkThreadRead(agentID string) bool {
	return c.applyMission(events.KindThreadRead, map[string]any{"agent_id": agentID}, func(mc mission.Data) (mission.Data, bool) {
		return mission.MarkAgentThreadRead(mc, agentID, timeZero)
	})
}

// UpdateRuntime upserts an agent's runtime status.
func (c *Controller) UpdateRuntime(agentID string, u mission.RuntimeUpdate) bool {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = c.now().UTC()
	}
	return c.applyMission(events.KindRuntimeUpdated, map[string]any{"agent_id": agentID}, func(mc mission.Data) (mission.Data, bool) {
		return mission.UpsertAgentRuntime(mc, agentID, u)
	})
}

func (c *Controller) applyMission(kind string, data map[string]any, fn func(mission.Data) (mission.Data, bool)) bool {
	return c.Apply(kind, data, func(d appdata.AppData) (appdata.AppData, bool) {
		return withMission(d, fn)
	})
}

func withMission(d appdata.AppData, fn func(mission.Data) (mission.Data, bool)) (appdata.AppData, bool) {
	mc, changed := fn(d.MissionControl)
	if !changed {
		return d, false
	}
	d.MissionControl = mc
	return d, true
}
