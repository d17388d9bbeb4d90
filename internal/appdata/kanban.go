package appdata

import (
	"slices"
	"strings"
	"time"

	"github.com/nugget/lifeboard/internal/agents"
	"github.com/nugget/lifeboard/internal/mission"
	"github.com/nugget/lifeboard/internal/uid"
)

func findAgentTask(d AppData, id string) int {
	return slices.IndexFunc(d.AgentTasks, func(t AgentTask) bool { return t.ID == id })
}

// AddAgentTask puts a new card in the todo column of the simple board
// and returns its id. A blank title or unknown agent adds nothing.
func AddAgentTask(d AppData, title, assignee string, at time.Time) (AppData, string) {
	title = strings.TrimSpace(title)
	if title == "" || !agents.Known(assignee) {
		return d, ""
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	id := uid.New("task")
	out := d.Clone()
	out.AgentTasks = append(out.AgentTasks, AgentTask{
		ID:         id,
		Title:      title,
		AssignedTo: assignee,
		Status:     AgentTaskTodo,
		CreatedAt:  at,
	})
	return out, id
}

// MoveAgentTask changes the column of a simple board card.
func MoveAgentTask(d AppData, id string, to AgentTaskStatus) (AppData, bool) {
	idx := findAgentTask(d, id)
	if idx < 0 || !to.Valid() || d.AgentTasks[idx].Status == to {
		return d, false
	}
	out := d.Clone()
	out.AgentTasks[idx].Status = to
	return out, true
}

// RemoveAgentTask deletes a simple board card. Its Mission Control
// mirror goes with it unless the user has interacted with the mirror.
func RemoveAgentTask(d AppData, id string) (AppData, bool) {
	idx := findAgentTask(d, id)
	if idx < 0 {
		return d, false
	}
	out := d.Clone()
	out.AgentTasks = slices.Delete(out.AgentTasks, idx, idx+1)
	if m := mission.FindTask(out.MissionControl, id); m >= 0 && !mission.HasUserActivity(out.MissionControl.Tasks[m]) {
		out.MissionControl, _ = mission.RemoveTask(out.MissionControl, id)
	}
	return out, true
}
