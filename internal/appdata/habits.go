package appdata

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/nugget/lifeboard/internal/dates"
	"github.com/nugget/lifeboard/internal/uid"
)

// DefaultHabitEmoji marks a habit added without an emoji.
const DefaultHabitEmoji = "✅"

// HabitStats summarizes a habit over the last 30 days ending today.
type HabitStats struct {
	Days30 []string        `json:"days30"`
	Map    map[string]bool `json:"map"`
	Done30 int             `json:"done30"`
	Done7  int             `json:"done7"`
	Pct30  int             `json:"pct30"`
	Pct7   int             `json:"pct7"`
	Streak int             `json:"streak"`
}

func findHabit(d AppData, id string) int {
	return slices.IndexFunc(d.Habits, func(h Habit) bool { return h.ID == id })
}

// ToggleHabitToday flips the habit's completion for today's date key.
// A missing entry counts as false, so the first toggle marks it done.
// Unknown habits are ignored.
func ToggleHabitToday(d AppData, habitID string, today time.Time) (AppData, bool) {
	if findHabit(d, habitID) < 0 {
		return d, false
	}
	key := dates.Key(today)
	out := d.Clone()
	days := out.HabitCompletions[habitID]
	if days == nil {
		days = map[string]bool{}
		out.HabitCompletions[habitID] = days
	}
	days[key] = !days[key]
	return out, true
}

// AddHabit appends a habit with a generated id and returns that id. A
// blank title adds nothing and returns an empty id.
func AddHabit(d AppData, title, emoji string) (AppData, string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return d, ""
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		emoji = DefaultHabitEmoji
	}
	id := uid.New("habit")
	out := d.Clone()
	out.Habits = append(out.Habits, Habit{ID: id, Title: title, Emoji: emoji})
	return out, id
}

// RemoveHabit deletes the habit and its whole completion history.
func RemoveHabit(d AppData, habitID string) (AppData, bool) {
	idx := findHabit(d, habitID)
	_, hasDays := d.HabitCompletions[habitID]
	if idx < 0 && !hasDays {
		return d, false
	}
	out := d.Clone()
	if idx >= 0 {
		out.Habits = slices.Delete(out.Habits, idx, idx+1)
	}
	delete(out.HabitCompletions, habitID)
	return out, true
}

// ComputeHabitStats counts completions over the 30-day window ending
// today and the 7-day tail of that same window. Streak is the current
// run of completed days ending today; it stops at the first day that is
// missing or false.
func ComputeHabitStats(d AppData, habitID string, today time.Time) HabitStats {
	days := dates.LastNDays(30, today)
	done := d.HabitCompletions[habitID]

	s := HabitStats{Days30: days, Map: make(map[string]bool, len(done))}
	for k, v := range done {
		s.Map[k] = v
	}
	for i, k := range days {
		if !done[k] {
			continue
		}
		s.Done30++
		if i >= len(days)-7 {
			s.Done7++
		}
	}
	for i := len(days) - 1; i >= 0 && done[days[i]]; i-- {
		s.Streak++
	}
	s.Pct30 = percent(s.Done30, 30)
	s.Pct7 = percent(s.Done7, 7)
	return s
}

func percent(n, of int) int {
	return int(math.Round(float64(n) / float64(of) * 100))
}
