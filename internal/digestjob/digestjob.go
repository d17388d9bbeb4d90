// Package digestjob generates the Mission Control daily digest on a cron
// schedule. Each run summarizes the calendar day containing the fire
// time, archives the result, and announces it on the event bus.
package digestjob

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/nugget/lifeboard/internal/dates"
	"github.com/nugget/lifeboard/internal/events"
	"github.com/nugget/lifeboard/internal/mission"
)

// scheduleParser accepts standard 5-field expressions (minute, hour,
// dom, month, dow) and descriptors such as @daily or @every 1h.
var scheduleParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule validates a schedule expression.
func ParseSchedule(spec string) (cronlib.Schedule, error) {
	s, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("digest schedule %q: %w", spec, err)
	}
	return s, nil
}

// Source computes the digest of a day. *dashboard.Controller satisfies it.
type Source interface {
	Digest(day time.Time) mission.DailyDigest
}

// Archive stores generated digests. *storage.Store satisfies it.
type Archive interface {
	SaveDigest(ctx context.Context, dg mission.DailyDigest) error
}

// Pruner is implemented by archives that can drop old digests.
// *storage.Store satisfies it.
type Pruner interface {
	PruneDigests(ctx context.Context, before string) (int, error)
}

// Config holds the job's dependencies. Archive, Bus, Logger, and Now are
// optional. RetainDays > 0 prunes archived digests older than that many
// days after each run, when Archive is a [Pruner].
type Config struct {
	Schedule   string
	Source     Source
	Archive    Archive
	RetainDays int
	Bus        *events.Bus
	Logger     *slog.Logger
	Now        func() time.Time
}

// Job sleeps until each scheduled time and generates that day's digest.
type Job struct {
	schedule cronlib.Schedule
	source   Source
	archive  Archive
	retain   int
	bus      *events.Bus
	logger   *slog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a job, failing if the schedule does not parse.
func New(cfg Config) (*Job, error) {
	sched, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Job{
		schedule: sched,
		source:   cfg.Source,
		archive:  cfg.Archive,
		retain:   cfg.RetainDays,
		bus:      cfg.Bus,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// Next returns the first fire time after t.
func (j *Job) Next(t time.Time) time.Time {
	return j.schedule.Next(t)
}

// Start runs the job in a background goroutine until ctx is cancelled
// or Stop is called.
func (j *Job) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.loop(ctx)
	j.logger.Info("digest job started", "next_run_at", j.Next(j.now()))
}

// Stop cancels the job and waits for it to exit.
func (j *Job) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Job) loop(ctx context.Context) {
	defer j.wg.Done()
	for {
		next := j.Next(j.now())
		if next.IsZero() {
			j.logger.Warn("digest schedule never fires again")
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if _, err := j.RunOnce(ctx, next); err != nil {
			j.logger.Error("digest run failed", "error", err)
		}
	}
}

// RunOnce generates, archives, and publishes the digest of the day
// containing at, then prunes archives past the retention window. An
// archive failure is returned after the digest has still been
// published; a prune failure is only logged.
func (j *Job) RunOnce(ctx context.Context, at time.Time) (mission.DailyDigest, error) {
	dg := j.source.Digest(at)
	j.logger.Info("daily digest",
		"date", dg.Date,
		"tasks_created", dg.TasksCreated,
		"tasks_completed", dg.TasksCompleted,
		"tasks_moved", dg.TasksMoved,
		"comments", dg.CommentsAdded,
		"messages", dg.MessagesSent,
	)

	var err error
	if j.archive != nil {
		if err = j.archive.SaveDigest(ctx, dg); err != nil {
			err = fmt.Errorf("archive digest %s: %w", dg.Date, err)
		} else {
			j.prune(ctx, at)
		}
	}
	j.bus.Emit(events.SourceDigest, events.KindDigestReady, map[string]any{
		"date":    dg.Date,
		"summary": dg.Summary,
	})
	return dg, err
}

func (j *Job) prune(ctx context.Context, at time.Time) {
	p, ok := j.archive.(Pruner)
	if !ok || j.retain <= 0 {
		return
	}
	before := dates.Key(at.AddDate(0, 0, -j.retain))
	n, err := p.PruneDigests(ctx, before)
	if err != nil {
		j.logger.Warn("digest prune failed", "before", before, "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("pruned archived digests", "before", before, "count", n)
	}
}
