// Package agents describes the fixed team of assistant agents that tasks
// can be assigned to and that own chat threads in Mission Control.
package agents

// Actor ids that are not agents. Every event, comment, and message
// records an actor: an agent id, the human user, or the system itself.
const (
	User   = "user"
	System = "system"
)

// Profile describes one agent on the team.
type Profile struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Emoji string   `json:"emoji"`
	Title string   `json:"title"`
	Model string   `json:"model"`
	Focus []string `json:"focus"`
}

var roster = []Profile{
	{ID: "main", Name: "Sam", Emoji: "🔗", Title: "General Manager", Model: "gpt-5.3-codex", Focus: []string{"Owns the DM", "Delegates work", "Ships final answers"}},
	{ID: "coordinator", Name: "Coordinator", Emoji: "🧭", Title: "Project Coordinator", Model: "gpt-5.3-codex", Focus: []string{"Breakdown", "Routing", "Non-overlap & locks"}},
	{ID: "researcher", Name: "Researcher", Emoji: "🔎", Title: "Research Analyst", Model: "perplexity-research", Focus: []string{"Fast research", "Summaries", "Options"}},
	{ID: "deep-researcher", Name: "Deep Researcher", Emoji: "🧠", Title: "Deep Research", Model: "perplexity-deep", Focus: []string{"Long-form research", "Cross-source synthesis"}},
	{ID: "notion-operator", Name: "Notion Operator", Emoji: "🗂️", Title: "Notion Ops", Model: "gpt-5.3-codex", Focus: []string{"Databases", "Logging", "Inbox -> Notion"}},
	{ID: "night-worker", Name: "Night Worker", Emoji: "🌙", Title: "Background Executor", Model: "gpt-5.3-codex", Focus: []string{"Night loop", "Backlog processing", "Scheduled routines"}},
	{ID: "youtube-worker", Name: "YouTube Worker", Emoji: "📺", Title: "Media Ops", Model: "gpt-5.3-codex", Focus: []string{"Watch Later", "Playlists", "YouTube API"}},
	{ID: "accountability-coach", Name: "Accountability Coach", Emoji: "✅", Title: "Coach", Model: "gpt-5.3-codex", Focus: []string{"Sleep/Food", "Trading guardrails", "Check-ins"}},
	{ID: "software-dev", Name: "Software Dev", Emoji: "🛠️", Title: "Builder", Model: "gpt-5.3-codex", Focus: []string{"Implements features", "Fixes bugs", "Deploys"}},
	{ID: "frontend-dev", Name: "Frontend Dev", Emoji: "🎨", Title: "UI Engineer", Model: "gpt-5.3-codex", Focus: []string{"UI", "UX", "Mobile polish"}},
	{ID: "backend-dev", Name: "Backend Dev", Emoji: "🧱", Title: "API Engineer", Model: "gpt-5.3-codex", Focus: []string{"Data model", "Services", "Integrations"}},
	{ID: "devops", Name: "DevOps", Emoji: "⚙️", Title: "Infra", Model: "gpt-5.3-codex", Focus: []string{"Pipelines", "Deployments", "Reliability"}},
	{ID: "designer", Name: "Designer", Emoji: "✨", Title: "Product Design", Model: "gpt-5.3-codex", Focus: []string{"Visual language", "Interaction design"}},
	{ID: "qa", Name: "QA", Emoji: "🧪", Title: "Quality Engineer", Model: "gpt-5.3-codex", Focus: []string{"Regression checks", "Edge cases", "Sign-off"}},
	{ID: "product-manager", Name: "Product Manager", Emoji: "📌", Title: "Product Lead", Model: "gpt-5.3-codex", Focus: []string{"Scope", "Priorities", "Roadmap"}},
	{ID: "data-analyst", Name: "Data Analyst", Emoji: "📊", Title: "Analytics", Model: "gpt-5.3-codex", Focus: []string{"Metrics", "Funnel analysis", "Insights"}},
	{ID: "execution-watchdog", Name: "Execution Watchdog", Emoji: "🚨", Title: "SLA Monitor", Model: "gpt-4o-mini", Focus: []string{"Status cadence", "Alerts", "Escalation"}},
}

// Roster returns a copy of the team in display order.
func Roster() []Profile {
	out := make([]Profile, len(roster))
	for i, p := range roster {
		p.Focus = append([]string(nil), p.Focus...)
		out[i] = p
	}
	return out
}

// ByID looks up a profile. The second result is false for unknown ids.
func ByID(id string) (Profile, bool) {
	for _, p := range roster {
		if p.ID == id {
			p.Focus = append([]string(nil), p.Focus...)
			return p, true
		}
	}
	return Profile{}, false
}

// Known reports whether id names an agent on the roster.
func Known(id string) bool {
	_, ok := ByID(id)
	return ok
}

// IsActor reports whether id is a valid actor: a rostered agent, the
// user, or the system.
func IsActor(id string) bool {
	return id == User || id == System || Known(id)
}
