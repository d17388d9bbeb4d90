package mission

import (
	"slices"
	"strings"
	"time"
)

// RuntimeUpdate is a partial update to an agent's runtime entry. A nil
// State leaves it alone. Note and ActiveTaskID distinguish "not
// supplied" from "clear" (see [OptString]).
type RuntimeUpdate struct {
	State        *RuntimeState `json:"state,omitempty"`
	Note         OptString     `json:"note"`
	ActiveTaskID OptString     `json:"activeTaskId"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// FindRuntime returns the index of agentID's runtime entry, or -1.
func FindRuntime(d Data, agentID string) int {
	return slices.IndexFunc(d.AgentRuntime, func(r AgentRuntimeStatus) bool { return r.AgentID == agentID })
}

// UpsertAgentRuntime creates or updates an agent's runtime entry. A new
// entry starts idle unless a valid state is supplied. Every accepted
// call bumps UpdatedAt, which makes it a heartbeat.
func UpsertAgentRuntime(d Data, agentID string, u RuntimeUpdate) (Data, bool) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return d, false
	}
	if u.State != nil && !u.State.Valid() {
		u.State = nil
	}
	at := stamp(u.UpdatedAt)
	out := d.Clone()

	idx := FindRuntime(out, agentID)
	if idx < 0 {
		r := AgentRuntimeStatus{AgentID: agentID, State: StateIdle, UpdatedAt: at}
		if u.State != nil {
			r.State = *u.State
		}
		if u.Note.Valid {
			r.Note = u.Note.Value
		}
		if u.ActiveTaskID.Valid {
			r.ActiveTaskID = u.ActiveTaskID.Value
		}
		out.AgentRuntime = append(out.AgentRuntime, r)
		return out, true
	}

	r := &out.AgentRuntime[idx]
	if u.State != nil {
		r.State = *u.State
	}
	if u.Note.Set {
		r.Note = u.Note.Value
	}
	if u.ActiveTaskID.Set {
		r.ActiveTaskID = u.ActiveTaskID.Value
	}
	r.UpdatedAt = at
	return out, true
}
