package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/nugget/lifeboard/internal/dashboard"
	"github.com/nugget/lifeboard/internal/dates"
	"github.com/nugget/lifeboard/internal/mission"
	"github.com/nugget/lifeboard/internal/rules"
	"github.com/nugget/lifeboard/internal/storage"
)

// digestFor returns the digest of a yyyy-MM-dd day, today when empty.
// Past days prefer the archive, matching GET /api/digest.
func digestFor(ctx context.Context, s *session, day string) (mission.DailyDigest, error) {
	now := s.ctl.Now()
	at := now
	if day != "" {
		parsed, err := dates.Parse(day, now.Location())
		if err != nil {
			return mission.DailyDigest{}, fmt.Errorf("day must be yyyy-MM-dd: %q", day)
		}
		at = parsed
	}

	if key := dates.Key(at); key < dates.Key(now) {
		dg, err := s.store.Digest(ctx, key)
		if err == nil {
			return dg, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("digest archive read failed", "day", key, "error", err)
		}
	}
	return s.ctl.Digest(at), nil
}

// palette holds the styles for one output stream. The renderer inspects
// w, so colour is dropped when output is not a terminal.
type palette struct {
	title, dim         lipgloss.Style
	green, yellow, red lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title:  r.NewStyle().Bold(true),
		dim:    r.NewStyle().Foreground(lipgloss.Color("240")),
		green:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		yellow: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		red:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

func (p palette) status(s rules.DayStatus) string {
	switch s {
	case rules.Green:
		return p.green.Render(string(s))
	case rules.Yellow:
		return p.yellow.Render(string(s))
	default:
		return p.red.Render(string(s))
	}
}

func (p palette) level(l rules.Level) string {
	switch l {
	case rules.OK:
		return p.green.Render("ok   ")
	case rules.Warn:
		return p.yellow.Render("warn ")
	default:
		return p.red.Render("block")
	}
}

func renderToday(w io.Writer, t dashboard.Today) {
	p := newPalette(w)

	fmt.Fprintf(w, "%s  %s\n", p.title.Render("Lifeboard "+t.Date), p.status(t.Status))
	fmt.Fprintln(w)
	for _, r := range t.Rules {
		line := fmt.Sprintf("  %s  %s", p.level(r.Level), r.Label)
		if r.Details != "" {
			line += "  " + p.dim.Render(r.Details)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  $%.2f due in %d days\n", p.title.Render("Bills"), t.DueSoon, dashboard.UpcomingWindowDays)
	for _, b := range t.Upcoming {
		mark := " "
		if b.Paid {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %s  %-24s $%.2f\n", mark, b.DueDate, b.Title, b.AmountUSD)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  %d open tasks, %d unread messages\n", p.title.Render("Mission"), t.OpenTasks, t.Unread)
}

func renderDigest(w io.Writer, dg mission.DailyDigest) {
	p := newPalette(w)
	fmt.Fprintln(w, p.title.Render("Digest "+dg.Date))
	fmt.Fprintf(w, "  %-16s %d\n", "tasks created:", dg.TasksCreated)
	fmt.Fprintf(w, "  %-16s %d\n", "tasks completed:", dg.TasksCompleted)
	fmt.Fprintf(w, "  %-16s %d\n", "tasks moved:", dg.TasksMoved)
	fmt.Fprintf(w, "  %-16s %d\n", "comments:", dg.CommentsAdded)
	fmt.Fprintf(w, "  %-16s %d\n", "messages:", dg.MessagesSent)
	if dg.Summary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, dg.Summary)
	}
}
