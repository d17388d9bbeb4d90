package dashboard

import (
	"time"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/dates"
	"github.com/nugget/lifeboard/internal/mission"
	"github.com/nugget/lifeboard/internal/rules"
)

// UpcomingWindowDays is the look-ahead used for the "due soon" total.
const UpcomingWindowDays = 7

var timeZero time.Time

// Today is the home-screen view of one day.
type Today struct {
	Date      string                `json:"date"`
	Status    rules.DayStatus       `json:"status"`
	Rules     []rules.Result        `json:"rules"`
	Checkin   *appdata.DailyCheckin `json:"checkin,omitempty"`
	Upcoming  []bills.Upcoming      `json:"upcoming"`
	DueSoon   float64               `json:"dueSoonUsd"`
	Unread    int                   `json:"unread"`
	OpenTasks int                   `json:"openTasks"`
}

// BuildToday derives the day view from a snapshot. Every derived value
// uses the same now, so rules and sums agree on where today ends.
func BuildToday(d appdata.AppData, now time.Time) Today {
	results := rules.EvaluateToday(d, now)
	upcoming := bills.ComputeUpcoming(d.Bills, now)
	t := Today{
		Date:      dates.Key(now),
		Status:    rules.Aggregate(results),
		Rules:     results,
		Upcoming:  upcoming,
		DueSoon:   bills.SumUpcoming(upcoming, UpcomingWindowDays, now),
		Unread:    mission.UnreadCounts(d.MissionControl.Threads).Total,
		OpenTasks: OpenTasks(d.MissionControl),
	}
	if c, ok := appdata.TodayCheckin(d, now); ok {
		t.Checkin = &c
	}
	return t
}

// OpenTasks counts Mission Control cards that are not done.
func OpenTasks(mc mission.Data) int {
	n := 0
	for _, t := range mc.Tasks {
		if t.Status != mission.StatusDone {
			n++
		}
	}
	return n
}

// Today returns the current day view.
func (c *Controller) Today() Today {
	return BuildToday(c.Snapshot(), c.now())
}

// HabitStats returns the 30-day stats of a habit as of now.
func (c *Controller) HabitStats(habitID string) appdata.HabitStats {
	return appdata.ComputeHabitStats(c.Snapshot(), habitID, c.now())
}

// Unread returns unread message counts across all agent threads.
func (c *Controller) Unread() mission.Unread {
	return mission.UnreadCounts(c.Snapshot().MissionControl.Threads)
}

// Digest returns the Mission Control digest for the calendar day
// containing day.
func (c *Controller) Digest(day time.Time) mission.DailyDigest {
	return mission.GenerateDailyDigest(c.Snapshot().MissionControl, day)
}

func dayKey(t time.Time) string {
	return dates.Key(t)
}
