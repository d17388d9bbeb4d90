package appdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/mission"
)

// ErrUnknownSchema is returned by [Migrate] for documents written by a
// newer version of the program. Callers fall back to [New].
var ErrUnknownSchema = errors.New("unknown schema version")

// migrations[v] upgrades a document from version v to v+1.
var migrations = []func(AppData) AppData{
	// 0 → 1: legacy documents predate Mission Control.
	func(d AppData) AppData {
		if d.MissionControl.Tasks == nil && d.MissionControl.Threads == nil && d.MissionControl.AgentRuntime == nil {
			d.MissionControl = mission.NewEmpty()
		}
		return d
	},
	// 1 → 2: clamp bill due days and restore the one-entry-per-date,
	// ascending order of metrics and check-ins.
	func(d AppData) AppData {
		for i := range d.Bills {
			if d.Bills[i].Frequency != bills.Once {
				d.Bills[i].DueDay = bills.ClampDueDay(d.Bills[i].DueDay)
			}
		}
		d.Metrics = dedupeByDate(d.Metrics, func(m MetricEntry) string { return m.Date })
		d.Checkins = dedupeByDate(d.Checkins, func(c DailyCheckin) string { return c.Date })
		return d
	},
}

// Migrate decodes a stored document and upgrades it to
// [CurrentSchemaVersion]. Documents without a schemaVersion are treated
// as version 0. The last step is always [Normalize].
func Migrate(raw []byte) (AppData, error) {
	var d AppData
	if err := json.Unmarshal(raw, &d); err != nil {
		return AppData{}, fmt.Errorf("decoding document: %w", err)
	}
	if d.SchemaVersion < 0 || d.SchemaVersion > CurrentSchemaVersion {
		return AppData{}, fmt.Errorf("%w: %d", ErrUnknownSchema, d.SchemaVersion)
	}
	for v := d.SchemaVersion; v < CurrentSchemaVersion; v++ {
		d = migrations[v](d)
	}
	return Normalize(d), nil
}

// Normalize fills every missing collection with its default. A missing
// habit list becomes [DefaultHabits]; an explicitly empty one is kept.
func Normalize(d AppData) AppData {
	out := d.Clone()
	out.SchemaVersion = CurrentSchemaVersion
	if d.Habits == nil {
		out.Habits = DefaultHabits()
	}
	for id, days := range out.HabitCompletions {
		if days == nil {
			out.HabitCompletions[id] = map[string]bool{}
		}
	}
	out.MissionControl = mission.Normalize(out.MissionControl)
	return out
}

// dedupeByDate sorts entries by date, keeping the last entry written
// for each date.
func dedupeByDate[T any](s []T, date func(T) string) []T {
	seen := make(map[string]int, len(s))
	var out []T
	for _, v := range s {
		if i, ok := seen[date(v)]; ok {
			out[i] = v
			continue
		}
		seen[date(v)] = len(out)
		out = append(out, v)
	}
	sortByDate(out, date)
	return slices.Clip(out)
}
