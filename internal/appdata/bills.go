package appdata

import (
	"slices"
	"strings"
	"time"

	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/dates"
	"github.com/nugget/lifeboard/internal/uid"
)

func findBill(d AppData, id string) int {
	return slices.IndexFunc(d.Bills, func(b bills.Bill) bool { return b.ID == id })
}

// UpsertBill inserts or replaces a bill by id and returns the stored
// id and whether the document changed. A bill without an id gets a
// generated one. Monthly due days are clamped into [1, 31]. A blank
// title, negative amount, or unknown frequency stores nothing and
// returns an empty id. Upserting a bill identical to the stored one
// returns its id with changed false.
func UpsertBill(d AppData, b bills.Bill) (AppData, string, bool) {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" || b.AmountUSD < 0 {
		return d, "", false
	}
	switch b.Frequency {
	case bills.Monthly:
		b.DueDay = bills.ClampDueDay(b.DueDay)
		b.DueDate, b.Paid = "", false
	case bills.Once:
		b.DueDay, b.LastPaidYm = 0, ""
	default:
		return d, "", false
	}
	if b.ID == "" {
		b.ID = uid.New("bill")
	}

	idx := findBill(d, b.ID)
	if idx >= 0 && d.Bills[idx] == b {
		return d, b.ID, false
	}
	out := d.Clone()
	if idx >= 0 {
		out.Bills[idx] = b
	} else {
		out.Bills = append(out.Bills, b)
	}
	return out, b.ID, true
}

// RemoveBill deletes a bill.
func RemoveBill(d AppData, id string) (AppData, bool) {
	idx := findBill(d, id)
	if idx < 0 {
		return d, false
	}
	out := d.Clone()
	out.Bills = slices.Delete(out.Bills, idx, idx+1)
	return out, true
}

// MarkBillPaid pays the bill's next occurrence as projected from today.
// For a monthly bill that records the occurrence's year-month; a
// one-time bill is simply flagged paid.
func MarkBillPaid(d AppData, id string, today time.Time) (AppData, bool) {
	idx := findBill(d, id)
	if idx < 0 {
		return d, false
	}
	b := d.Bills[idx]
	due, ok := bills.NextDueDate(b, today)
	if b.Frequency == bills.Once {
		if b.Paid {
			return d, false
		}
		b.Paid = true
	} else {
		if !ok || b.LastPaidYm == dates.YearMonth(due) {
			return d, false
		}
		b.LastPaidYm = dates.YearMonth(due)
	}
	out := d.Clone()
	out.Bills[idx] = b
	return out, true
}
