package rules

import (
	"testing"
	"time"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/bills"
)

var today = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func find(t *testing.T, results []Result, id string) Result {
	t.Helper()
	for _, r := range results {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("no result for rule %q", id)
	return Result{}
}

func withCheckin(c appdata.DailyCheckin) appdata.AppData {
	d := appdata.New()
	c.Date = "2026-02-10"
	d.Checkins = []appdata.DailyCheckin{c}
	return d
}

func TestEvaluateToday(t *testing.T) {
	tests := []struct {
		name        string
		doc         appdata.AppData
		rule        string
		wantLevel   Level
		wantDetails string
	}{
		{"more than two trades", withCheckin(appdata.DailyCheckin{TradesCount: appdata.Ptr(3)}), MaxTwoTrades, Block, "3/2 today"},
		{"two trades", withCheckin(appdata.DailyCheckin{TradesCount: appdata.Ptr(2)}), MaxTwoTrades, OK, "2/2 today"},
		{"no checkin", appdata.New(), MaxTwoTrades, OK, "0/2 today"},
		{"trade log missing", withCheckin(appdata.DailyCheckin{TradesCount: appdata.Ptr(1), TradeLogDone: appdata.Ptr(false)}), TradeLog, Block, "missing"},
		{"trade log done", withCheckin(appdata.DailyCheckin{TradesCount: appdata.Ptr(1), TradeLogDone: appdata.Ptr(true)}), TradeLog, OK, "logged"},
		{"no trades", withCheckin(appdata.DailyCheckin{TradesCount: appdata.Ptr(0)}), TradeLog, OK, "no trades yet"},
		{"short sleep", metrics(appdata.MetricEntry{Date: "2026-02-10", SleepHours: appdata.Ptr(5.0)}), SleepGuard, Warn, "5h"},
		{"enough sleep", metrics(appdata.MetricEntry{Date: "2026-02-10", SleepHours: appdata.Ptr(7.5)}), SleepGuard, OK, "7.5h"},
		{"sleep not logged", appdata.New(), SleepGuard, OK, "not logged"},
		{"bill due today", withBills(bills.Bill{ID: "rent", Title: "Rent", AmountUSD: 1500, Frequency: bills.Monthly, DueDay: 10}), BillsToday, Block, "1 unpaid"},
		{"bill due later", withBills(bills.Bill{ID: "rent", Title: "Rent", AmountUSD: 1500, Frequency: bills.Monthly, DueDay: 15}), BillsToday, OK, "clear"},
		{"bill due today paid", withBills(bills.Bill{ID: "rent", Frequency: bills.Monthly, DueDay: 10, LastPaidYm: "2026-02"}), BillsToday, OK, "clear"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := find(t, EvaluateToday(tt.doc, today), tt.rule)
			if r.Level != tt.wantLevel || r.Details != tt.wantDetails {
				t.Errorf("%s = %s %q, want %s %q", tt.rule, r.Level, r.Details, tt.wantLevel, tt.wantDetails)
			}
		})
	}
}

func metrics(m ...appdata.MetricEntry) appdata.AppData {
	d := appdata.New()
	d.Metrics = m
	return d
}

func withBills(b ...bills.Bill) appdata.AppData {
	d := appdata.New()
	d.Bills = b
	return d
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		levels []Level
		want   DayStatus
	}{
		{"block wins over warn", []Level{OK, Block, Warn}, Red},
		{"warn without block", []Level{OK, Warn, OK}, Yellow},
		{"all ok", []Level{OK, OK}, Green},
		{"empty", nil, Green},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []Result
			for _, l := range tt.levels {
				results = append(results, Result{Level: l})
			}
			if got := Aggregate(results); got != tt.want {
				t.Errorf("Aggregate = %s, want %s", got, tt.want)
			}
		})
	}
}
