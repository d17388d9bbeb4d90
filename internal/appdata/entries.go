package appdata

import (
	"cmp"
	"slices"
	"time"

	"github.com/nugget/lifeboard/internal/dates"
)

// UpsertMetricToday merges entry into today's metrics, creating the
// entry if needed. Only non-nil fields overwrite; entry.Date is
// ignored. Metrics stay sorted by date. An entry with no fields set is
// a no-op.
func UpsertMetricToday(d AppData, entry MetricEntry, today time.Time) (AppData, bool) {
	if entry.WeightKg == nil && entry.SleepHours == nil {
		return d, false
	}
	key := dates.Key(today)
	out := d.Clone()
	idx := slices.IndexFunc(out.Metrics, func(m MetricEntry) bool { return m.Date == key })
	if idx < 0 {
		out.Metrics = append(out.Metrics, MetricEntry{Date: key})
		idx = len(out.Metrics) - 1
	}
	m := &out.Metrics[idx]
	mergePtr(&m.WeightKg, entry.WeightKg)
	mergePtr(&m.SleepHours, entry.SleepHours)
	sortByDate(out.Metrics, func(m MetricEntry) string { return m.Date })
	return out, true
}

// UpsertCheckinToday merges entry into today's check-in with the same
// per-field rules as [UpsertMetricToday].
func UpsertCheckinToday(d AppData, entry DailyCheckin, today time.Time) (AppData, bool) {
	if entry == (DailyCheckin{Date: entry.Date}) {
		return d, false
	}
	key := dates.Key(today)
	out := d.Clone()
	idx := slices.IndexFunc(out.Checkins, func(c DailyCheckin) bool { return c.Date == key })
	if idx < 0 {
		out.Checkins = append(out.Checkins, DailyCheckin{Date: key})
		idx = len(out.Checkins) - 1
	}
	c := &out.Checkins[idx]
	mergePtr(&c.CaloriesKcal, entry.CaloriesKcal)
	mergePtr(&c.TrainingMin, entry.TrainingMin)
	mergePtr(&c.Smoked, entry.Smoked)
	mergePtr(&c.TradesCount, entry.TradesCount)
	mergePtr(&c.TradeLogDone, entry.TradeLogDone)
	mergePtr(&c.AmPrepDone, entry.AmPrepDone)
	mergePtr(&c.PmShutdownDone, entry.PmShutdownDone)
	sortByDate(out.Checkins, func(c DailyCheckin) string { return c.Date })
	return out, true
}

// TodayCheckin returns today's check-in, if one was recorded.
func TodayCheckin(d AppData, today time.Time) (DailyCheckin, bool) {
	key := dates.Key(today)
	for _, c := range d.Checkins {
		if c.Date == key {
			return c.clone(), true
		}
	}
	return DailyCheckin{}, false
}

// LatestSleep returns the sleep hours of the most recent metric entry
// that recorded sleep.
func LatestSleep(d AppData) (float64, bool) {
	for i := len(d.Metrics) - 1; i >= 0; i-- {
		if s := d.Metrics[i].SleepHours; s != nil {
			return *s, true
		}
	}
	return 0, false
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = clonePtr(src)
	}
}

func sortByDate[T any](s []T, date func(T) string) {
	slices.SortStableFunc(s, func(a, b T) int { return cmp.Compare(date(a), date(b)) })
}
