// Package appdata defines the application document: habits and their
// completions, body metrics, daily check-ins, bills, the simple agent
// kanban board, and the Mission Control sub-document.
//
// Mutators follow the same contract as package mission. They are pure,
// return a new document plus a changed flag, and treat invalid input as
// a silent no-op that returns the input unchanged.
package appdata

import (
	"maps"
	"time"

	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/mission"
)

// CurrentSchemaVersion is written into every saved document.
const CurrentSchemaVersion = 2

// Habit is a daily habit tracked by completion per date key.
type Habit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Emoji string `json:"emoji,omitempty"`
}

// MetricEntry holds body metrics for one day. Nil fields were not
// recorded.
type MetricEntry struct {
	Date       string   `json:"date"`
	WeightKg   *float64 `json:"weightKg,omitempty"`
	SleepHours *float64 `json:"sleepHours,omitempty"`
}

// DailyCheckin holds the answers to one day's check-in. Nil fields were
// not answered.
type DailyCheckin struct {
	Date           string `json:"date"`
	CaloriesKcal   *int   `json:"caloriesKcal,omitempty"`
	TrainingMin    *int   `json:"trainingMin,omitempty"`
	Smoked         *bool  `json:"smoked,omitempty"`
	TradesCount    *int   `json:"tradesCount,omitempty"`
	TradeLogDone   *bool  `json:"tradeLogDone,omitempty"`
	AmPrepDone     *bool  `json:"amPrepDone,omitempty"`
	PmShutdownDone *bool  `json:"pmShutdownDone,omitempty"`
}

// AgentTaskStatus is a column on the simple kanban board.
type AgentTaskStatus string

// Simple kanban columns.
const (
	AgentTaskTodo  AgentTaskStatus = "todo"
	AgentTaskDoing AgentTaskStatus = "doing"
	AgentTaskDone  AgentTaskStatus = "done"
)

// Valid reports whether s is a simple kanban column.
func (s AgentTaskStatus) Valid() bool {
	return s == AgentTaskTodo || s == AgentTaskDoing || s == AgentTaskDone
}

// AgentTask is a card on the simple kanban board. Every agent task is
// mirrored into Mission Control by [Reconcile].
type AgentTask struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	AssignedTo string          `json:"assignedTo"`
	Status     AgentTaskStatus `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AppData is the whole persisted document.
type AppData struct {
	SchemaVersion    int                        `json:"schemaVersion"`
	Habits           []Habit                    `json:"habits"`
	HabitCompletions map[string]map[string]bool `json:"habitCompletions"`
	Metrics          []MetricEntry              `json:"metrics"`
	Checkins         []DailyCheckin             `json:"checkins"`
	Bills            []bills.Bill               `json:"bills"`
	AgentTasks       []AgentTask                `json:"agentTasks"`
	MissionControl   mission.Data               `json:"missionControl"`
}

var defaultHabits = []Habit{
	{ID: "sleep_22", Title: "Sleep by 22:00", Emoji: "🛌"},
	{ID: "kcal_3100", Title: "3100 kcal", Emoji: "🍽️"},
	{ID: "training", Title: "Training", Emoji: "🏋️"},
	{ID: "no_smoking", Title: "No smoking", Emoji: "🚭"},
	{ID: "max_2_trades", Title: "≤ 2 trades", Emoji: "📈"},
	{ID: "trade_log", Title: "Trade log done", Emoji: "🧾"},
	{ID: "meal_prep", Title: "Meal prep", Emoji: "🥗"},
}

// DefaultHabits returns the habit list a fresh document starts with.
func DefaultHabits() []Habit {
	return append([]Habit(nil), defaultHabits...)
}

// New returns the fallback document used when nothing usable is stored.
func New() AppData {
	return AppData{
		SchemaVersion:    CurrentSchemaVersion,
		Habits:           DefaultHabits(),
		HabitCompletions: map[string]map[string]bool{},
		Metrics:          []MetricEntry{},
		Checkins:         []DailyCheckin{},
		Bills:            []bills.Bill{},
		AgentTasks:       []AgentTask{},
		MissionControl:   mission.NewEmpty(),
	}
}

// Clone returns a deep copy of d.
func (d AppData) Clone() AppData {
	out := d
	out.Habits = append([]Habit{}, d.Habits...)
	out.HabitCompletions = make(map[string]map[string]bool, len(d.HabitCompletions))
	for id, days := range d.HabitCompletions {
		out.HabitCompletions[id] = maps.Clone(days)
	}
	out.Metrics = make([]MetricEntry, len(d.Metrics))
	for i, m := range d.Metrics {
		out.Metrics[i] = m.clone()
	}
	out.Checkins = make([]DailyCheckin, len(d.Checkins))
	for i, c := range d.Checkins {
		out.Checkins[i] = c.clone()
	}
	out.Bills = append([]bills.Bill{}, d.Bills...)
	out.AgentTasks = append([]AgentTask{}, d.AgentTasks...)
	out.MissionControl = d.MissionControl.Clone()
	return out
}

func (m MetricEntry) clone() MetricEntry {
	m.WeightKg = clonePtr(m.WeightKg)
	m.SleepHours = clonePtr(m.SleepHours)
	return m
}

func (c DailyCheckin) clone() DailyCheckin {
	c.CaloriesKcal = clonePtr(c.CaloriesKcal)
	c.TrainingMin = clonePtr(c.TrainingMin)
	c.Smoked = clonePtr(c.Smoked)
	c.TradesCount = clonePtr(c.TradesCount)
	c.TradeLogDone = clonePtr(c.TradeLogDone)
	c.AmPrepDone = clonePtr(c.AmPrepDone)
	c.PmShutdownDone = clonePtr(c.PmShutdownDone)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v. It keeps metric and check-in literals
// short.
func Ptr[T any](v T) *T { return &v }
