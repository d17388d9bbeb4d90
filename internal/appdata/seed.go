package appdata

import (
	"math"
	"slices"
	"time"

	"github.com/nugget/lifeboard/internal/agents"
	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/dates"
	"github.com/nugget/lifeboard/internal/mission"
)

// DefaultBills are added by [Bootstrap] when a document has no bills.
func DefaultBills() []bills.Bill {
	return []bills.Bill{
		{ID: "rent", Title: "Rent", AmountUSD: 1500, Frequency: bills.Monthly, DueDay: 1},
		{ID: "car_ins", Title: "Car insurance", AmountUSD: 150, Frequency: bills.Monthly, DueDay: 5},
		{ID: "phone", Title: "Phone", AmountUSD: 85, Frequency: bills.Monthly, DueDay: 10},
	}
}

// Bootstrap fills an empty metrics list with a smooth 14-day series
// ending today and an empty bill list with [DefaultBills]. Collections
// that already hold data are left alone, so it is safe on every start.
func Bootstrap(d AppData, today time.Time) (AppData, bool) {
	if len(d.Metrics) > 0 && len(d.Bills) > 0 {
		return d, false
	}
	out := d.Clone()
	if len(out.Metrics) == 0 {
		for i, day := range dates.LastNDays(14, today) {
			fi := float64(i)
			out.Metrics = append(out.Metrics, MetricEntry{
				Date:       day,
				WeightKg:   Ptr(round1(72 + math.Sin(fi/3)*0.8)),
				SleepHours: Ptr(round1(7 + math.Cos(fi/2)*0.7)),
			})
		}
	}
	if len(out.Bills) == 0 {
		out.Bills = DefaultBills()
	}
	return out, true
}

// Reconcile keeps Mission Control in step with the simple kanban board:
//   - cards that are neither mirrored from an agent task nor touched by
//     the user are pruned;
//   - every agent task is mirrored as in [SyncAgentTasks];
//   - threads the user never wrote in are dropped.
//
// A second call on its own result changes nothing. Pruning belongs to
// startup; board edits use [SyncAgentTasks] so agent activity survives.
func Reconcile(d AppData, at time.Time) (AppData, bool) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	mc := d.MissionControl
	changed := false

	mirrored := make(map[string]bool, len(d.AgentTasks))
	for _, t := range d.AgentTasks {
		mirrored[t.ID] = true
	}
	keep := func(t mission.TaskCard) bool { return mirrored[t.ID] || mission.HasUserActivity(t) }
	if !allOf(mc.Tasks, keep) {
		mc = mc.Clone()
		mc.Tasks = slices.DeleteFunc(mc.Tasks, func(t mission.TaskCard) bool { return !keep(t) })
		changed = true
	}

	mc, synced := syncAgentTasks(mc, d.AgentTasks, at)
	changed = changed || synced

	if !allOf(mc.Threads, mission.HasUserMessage) {
		mc = mc.Clone()
		mc.Threads = slices.DeleteFunc(mc.Threads, func(th mission.AgentThread) bool { return !mission.HasUserMessage(th) })
		changed = true
	}

	if !changed {
		return d, false
	}
	out := d.Clone()
	out.MissionControl = mc
	return out, true
}

// SyncAgentTasks mirrors every agent task into a Mission Control card
// with the same id. Changes to a task's title, assignee, or column are
// recorded as system events on its card. Nothing is pruned: cards and
// threads created by agents are left alone.
func SyncAgentTasks(d AppData, at time.Time) (AppData, bool) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	mc, changed := syncAgentTasks(d.MissionControl, d.AgentTasks, at)
	if !changed {
		return d, false
	}
	out := d.Clone()
	out.MissionControl = mc
	return out, true
}

// SeedIfEmpty runs [Bootstrap] and then [Reconcile].
func SeedIfEmpty(d AppData, today time.Time) (AppData, bool) {
	seeded, a := Bootstrap(d, today)
	reconciled, b := Reconcile(seeded, today)
	return reconciled, a || b
}

func syncAgentTasks(mc mission.Data, tasks []AgentTask, at time.Time) (mission.Data, bool) {
	changed := false
	for _, t := range tasks {
		var ok bool
		mc, ok = syncAgentTask(mc, t, at)
		changed = changed || ok
	}
	return mc, changed
}

func syncAgentTask(mc mission.Data, t AgentTask, at time.Time) (mission.Data, bool) {
	status := mirrorStatus(t.Status)
	if mission.FindTask(mc, t.ID) < 0 {
		created := t.CreatedAt
		if created.IsZero() {
			created = at
		}
		out, id := mission.CreateTask(mc, mission.CreateTaskInput{
			ID:         t.ID,
			Title:      t.Title,
			Status:     status,
			AssignedTo: t.AssignedTo,
			ActorID:    agents.System,
			CreatedAt:  created,
		})
		return out, id != ""
	}

	title, assignee := t.Title, t.AssignedTo
	mc, updated := mission.UpdateTask(mc, t.ID, mission.TaskUpdate{
		Title:      &title,
		AssignedTo: &assignee,
		ActorID:    agents.System,
		UpdatedAt:  at,
	})
	mc, moved := mission.MoveTask(mc, t.ID, status, agents.System, at)
	return mc, updated || moved
}

func mirrorStatus(s AgentTaskStatus) mission.TaskStatus {
	switch s {
	case AgentTaskDoing:
		return mission.StatusDoing
	case AgentTaskDone:
		return mission.StatusDone
	}
	return mission.StatusTodo
}

func allOf[T any](s []T, pred func(T) bool) bool {
	for _, v := range s {
		if !pred(v) {
			return false
		}
	}
	return true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
