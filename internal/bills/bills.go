// Package bills projects recurring and one-time bills onto the calendar:
// when each is next due, whether that occurrence is paid, and how much
// is owed over the coming days.
package bills

import (
	"slices"
	"strings"
	"time"

	"github.com/nugget/lifeboard/internal/dates"
)

// Frequency selects how a bill recurs.
type Frequency string

// Bill frequencies.
const (
	Monthly Frequency = "monthly"
	Once    Frequency = "once"
)

// Bill is either monthly (DueDay, LastPaidYm) or one-time (DueDate,
// Paid), depending on Frequency.
type Bill struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AmountUSD float64   `json:"amountUsd"`
	Frequency Frequency `json:"frequency"`

	DueDay     int    `json:"dueDay,omitempty"`     // 1-31
	LastPaidYm string `json:"lastPaidYm,omitempty"` // yyyy-MM

	DueDate string `json:"dueDate,omitempty"` // yyyy-MM-dd
	Paid    bool   `json:"paid,omitempty"`
}

// Upcoming is one projected bill occurrence.
type Upcoming struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AmountUSD float64   `json:"amountUsd"`
	DueDate   string    `json:"dueDate"`
	Kind      Frequency `json:"kind"`
	Paid      bool      `json:"paid"`
}

// ClampDueDay forces a monthly due day into [1, 31]. A missing (zero)
// day means the 1st.
func ClampDueDay(day int) int {
	return min(max(day, 1), 31)
}

// NextDueDate returns midnight of the bill's next occurrence in today's
// location. A monthly bill due later today counts as due today, not
// next month. The second result is false for a one-time bill with no
// usable due date.
func NextDueDate(b Bill, today time.Time) (time.Time, bool) {
	loc := today.Location()
	if b.Frequency == Once {
		if strings.TrimSpace(b.DueDate) == "" {
			return time.Time{}, false
		}
		due, err := dates.Parse(b.DueDate, loc)
		if err != nil {
			return time.Time{}, false
		}
		return due, true
	}

	day := ClampDueDay(b.DueDay)
	year, month := today.Year(), today.Month()
	if today.Day() > day {
		month++
	}
	return dates.ClampedDate(year, month, day, loc), true
}

// IsPaid reports whether the occurrence due on due is paid. Paying a
// monthly bill only covers the month it was paid for.
func IsPaid(b Bill, due time.Time) bool {
	if b.Frequency == Once {
		return b.Paid
	}
	return b.LastPaidYm != "" && b.LastPaidYm == dates.YearMonth(due)
}

// ComputeUpcoming projects every bill and sorts the result by due date.
// Bills without a due date are skipped. Equal dates keep input order.
func ComputeUpcoming(bills []Bill, today time.Time) []Upcoming {
	out := make([]Upcoming, 0, len(bills))
	for _, b := range bills {
		due, ok := NextDueDate(b, today)
		if !ok {
			continue
		}
		kind := b.Frequency
		if kind != Once {
			kind = Monthly
		}
		out = append(out, Upcoming{
			ID:        b.ID,
			Title:     b.Title,
			AmountUSD: b.AmountUSD,
			DueDate:   dates.Key(due),
			Kind:      kind,
			Paid:      IsPaid(b, due),
		})
	}
	slices.SortStableFunc(out, func(a, b Upcoming) int { return strings.Compare(a.DueDate, b.DueDate) })
	return out
}

// SumUpcoming totals unpaid bills due between today and today+withinDays,
// both ends inclusive. Dates are compared as calendar-day keys in
// today's location.
func SumUpcoming(upcoming []Upcoming, withinDays int, today time.Time) float64 {
	from := dates.Key(today)
	to := dates.Key(dates.StartOfDay(today).AddDate(0, 0, withinDays))
	var sum float64
	for _, u := range upcoming {
		if u.Paid || u.DueDate < from || u.DueDate > to {
			continue
		}
		sum += u.AmountUSD
	}
	return sum
}

// DueOn returns the unpaid occurrences due on today's calendar day.
func DueOn(upcoming []Upcoming, today time.Time) []Upcoming {
	key := dates.Key(today)
	var out []Upcoming
	for _, u := range upcoming {
		if u.DueDate == key && !u.Paid {
			out = append(out, u)
		}
	}
	return out
}
