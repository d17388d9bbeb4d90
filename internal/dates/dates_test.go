package dates

import (
	"testing"
	"time"
)

func TestKey_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 23:30 local is already the next day in UTC.
	ts := time.Date(2026, 2, 10, 23, 30, 0, 0, loc)

	if got := Key(ts); got != "2026-02-10" {
		t.Errorf("Key() = %q, want 2026-02-10", got)
	}
	if got := Key(ts.UTC()); got != "2026-02-11" {
		t.Errorf("Key(UTC) = %q, want 2026-02-11", got)
	}
}

func TestLastNDays(t *testing.T) {
	from := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	got := LastNDays(4, from)
	want := []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLastNDays_Empty(t *testing.T) {
	if got := LastNDays(0, time.Now()); len(got) != 0 {
		t.Errorf("LastNDays(0) = %v, want empty", got)
	}
}

func TestClampedDate(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  string
	}{
		{"regular", 2026, time.March, 5, "2026-03-05"},
		{"feb clamps", 2026, time.February, 31, "2026-02-28"},
		{"leap feb", 2028, time.February, 31, "2028-02-29"},
		{"april 31", 2026, time.April, 31, "2026-04-30"},
		{"below one", 2026, time.May, 0, "2026-05-01"},
		{"month overflow", 2026, time.Month(13), 31, "2027-01-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(ClampedDate(tt.year, tt.month, tt.day, time.UTC))
			if got != tt.want {
				t.Errorf("ClampedDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("2026-02-10", time.UTC)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !got.Equal(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Parse() = %v", got)
	}
	if _, err := Parse("10/02/2026", time.UTC); err == nil {
		t.Error("Parse of malformed key should error")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 10, 1, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 10, 23, 0, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Error("SameDay() = false for same calendar day")
	}
	if SameDay(a, b.AddDate(0, 0, 1)) {
		t.Error("SameDay() = true for different days")
	}
}
