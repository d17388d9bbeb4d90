package openclaw

import (
	"strings"
	"time"

	"github.com/nugget/lifeboard/internal/agents"
	"github.com/nugget/lifeboard/internal/mission"
)

// agentAliases maps gateway agent names to roster ids. Order matters
// for substring matching: the first alias contained in the name wins.
var agentAliases = []struct{ alias, id string }{
	{"codex", "main"},
	{"codex-research", "researcher"},
	{"codex-deep", "deep-researcher"},
	{"gemini", "coordinator"},
	{"gemini-pro", "coordinator"},
	{"main", "main"},
	{"coordinator", "coordinator"},
	{"researcher", "researcher"},
	{"notion-operator", "notion-operator"},
	{"night-worker", "night-worker"},
	{"youtube-worker", "youtube-worker"},
	{"accountability-coach", "accountability-coach"},
	{"software-dev", "software-dev"},
	{"frontend-dev", "frontend-dev"},
	{"backend-dev", "backend-dev"},
	{"devops", "devops"},
	{"designer", "designer"},
	{"qa", "qa"},
	{"product-manager", "product-manager"},
	{"data-analyst", "data-analyst"},
	{"execution-watchdog", "execution-watchdog"},
}

// MapSessionToAgent resolves a gateway agent name to a roster id: an
// exact alias match first, then the first alias the name contains,
// case-insensitively.
func MapSessionToAgent(name string) (string, bool) {
	for _, a := range agentAliases {
		if a.alias == name {
			return a.id, true
		}
	}
	lower := strings.ToLower(name)
	for _, a := range agentAliases {
		if strings.Contains(lower, a.alias) {
			return a.id, true
		}
	}
	return "", false
}

// AgentPresence is one roster entry with its live status.
type AgentPresence struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Emoji        string               `json:"emoji"`
	Title        string               `json:"title"`
	Status       mission.RuntimeState `json:"status"`
	LastActiveAt *time.Time           `json:"lastActiveAt"`
}

// Presence combines the roster with persisted runtime status, thread
// activity, and live gateway sessions. Status defaults to the runtime
// state (offline when none); a mapped session overrides it, active as
// busy and idle as idle. Last activity is the latest of the runtime
// update, the thread's last message, and the session's last activity.
func Presence(roster []agents.Profile, mc mission.Data, sessions []Session) []AgentPresence {
	byAgent := map[string]Session{}
	for _, s := range sessions {
		if id, ok := MapSessionToAgent(s.Agent); ok {
			byAgent[id] = s
		}
	}

	out := make([]AgentPresence, 0, len(roster))
	for _, a := range roster {
		p := AgentPresence{ID: a.ID, Name: a.Name, Emoji: a.Emoji, Title: a.Title, Status: mission.StateOffline}

		var candidates []time.Time
		if i := mission.FindRuntime(mc, a.ID); i >= 0 {
			rt := mc.AgentRuntime[i]
			p.Status = rt.State
			candidates = append(candidates, rt.UpdatedAt)
		}
		if i := mission.FindThread(mc, a.ID); i >= 0 {
			candidates = append(candidates, mission.ThreadLastActivity(mc.Threads[i]))
		}
		if s, ok := byAgent[a.ID]; ok {
			switch s.Status {
			case "active":
				p.Status = mission.StateBusy
			case "idle":
				p.Status = mission.StateIdle
			}
			if t, err := time.Parse(time.RFC3339, s.LastActivityAt); err == nil {
				candidates = append(candidates, t)
			}
		}
		p.LastActiveAt = latest(candidates)
		out = append(out, p)
	}
	return out
}

// ActiveCount counts agents that are not offline.
func ActiveCount(ps []AgentPresence) int {
	n := 0
	for _, p := range ps {
		if p.Status != mission.StateOffline {
			n++
		}
	}
	return n
}

func latest(ts []time.Time) *time.Time {
	var best time.Time
	for _, t := range ts {
		if !t.IsZero() && t.After(best) {
			best = t
		}
	}
	if best.IsZero() {
		return nil
	}
	return &best
}
