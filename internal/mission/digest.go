package mission

import (
	"fmt"
	"time"

	"github.com/nugget/lifeboard/internal/dates"
)

// DailyDigest counts one calendar day's Mission Control activity.
type DailyDigest struct {
	Date           string `json:"date"`
	TasksCreated   int    `json:"tasksCreated"`
	TasksCompleted int    `json:"tasksCompleted"`
	TasksMoved     int    `json:"tasksMoved"`
	CommentsAdded  int    `json:"commentsAdded"`
	MessagesSent   int    `json:"messagesSent"`
	Summary        string `json:"summary"`
}

// GenerateDailyDigest summarizes activity on the calendar day containing
// day. Every timestamp is bucketed in day's location, so the digest for
// a local day counts the events that happened on that local day.
func GenerateDailyDigest(d Data, day time.Time) DailyDigest {
	loc := day.Location()
	key := dates.Key(day)
	on := func(t time.Time) bool { return dates.Key(t.In(loc)) == key }

	dg := DailyDigest{Date: key}
	for _, t := range d.Tasks {
		if on(t.CreatedAt) {
			dg.TasksCreated++
		}
		for _, e := range t.Events {
			if e.Type != EventStatusChanged || !on(e.CreatedAt) {
				continue
			}
			dg.TasksMoved++
			if e.Meta != nil && e.Meta.ToStatus == StatusDone {
				dg.TasksCompleted++
			}
		}
		for _, c := range t.Comments {
			if on(c.CreatedAt) {
				dg.CommentsAdded++
			}
		}
	}
	for _, th := range d.Threads {
		for _, m := range th.Messages {
			if on(m.CreatedAt) {
				dg.MessagesSent++
			}
		}
	}
	dg.Summary = fmt.Sprintf("%s · %d new, %d done, %d moves, %d comments, %d msgs",
		key, dg.TasksCreated, dg.TasksCompleted, dg.TasksMoved, dg.CommentsAdded, dg.MessagesSent)
	return dg
}
