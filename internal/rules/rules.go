// Package rules evaluates the fixed set of daily guardrails and rolls
// them up into a traffic-light day status.
package rules

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/bills"
)

// Level is the outcome of one rule.
type Level string

// Rule levels, mildest first.
const (
	OK    Level = "ok"
	Warn  Level = "warn"
	Block Level = "block"
)

// DayStatus is the aggregate of a day's rule results.
type DayStatus string

// Day statuses.
const (
	Green  DayStatus = "GREEN"
	Yellow DayStatus = "YELLOW"
	Red    DayStatus = "RED"
)

// Rule ids.
const (
	MaxTwoTrades = "max_2_trades"
	TradeLog     = "trade_log"
	SleepGuard   = "sleep_guard"
	BillsToday   = "bills_today"
)

const (
	maxTrades     = 2
	minSleepHours = 6
)

// Result is the outcome of one rule.
type Result struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Level   Level  `json:"level"`
	Details string `json:"details,omitempty"`
}

// EvaluateToday runs every rule against today's check-in, the most
// recent sleep metric, and the bills projected from today.
func EvaluateToday(d appdata.AppData, today time.Time) []Result {
	checkin, _ := appdata.TodayCheckin(d, today)
	trades := 0
	if checkin.TradesCount != nil {
		trades = *checkin.TradesCount
	}
	logged := checkin.TradeLogDone != nil && *checkin.TradeLogDone

	return []Result{
		maxTradesRule(trades),
		tradeLogRule(trades, logged),
		sleepRule(d),
		billsRule(bills.DueOn(bills.ComputeUpcoming(d.Bills, today), today)),
	}
}

func maxTradesRule(trades int) Result {
	r := Result{ID: MaxTwoTrades, Label: "Max 2 trades", Level: OK, Details: fmt.Sprintf("%d/%d today", trades, maxTrades)}
	if trades > maxTrades {
		r.Level = Block
	}
	return r
}

func tradeLogRule(trades int, logged bool) Result {
	r := Result{ID: TradeLog, Label: "Trade log done", Level: OK}
	switch {
	case trades == 0:
		r.Details = "no trades yet"
	case logged:
		r.Details = "logged"
	default:
		r.Level = Block
		r.Details = "missing"
	}
	return r
}

func sleepRule(d appdata.AppData) Result {
	r := Result{ID: SleepGuard, Label: "Sleep guard", Level: OK, Details: "not logged"}
	if h, ok := appdata.LatestSleep(d); ok {
		r.Details = strconv.FormatFloat(h, 'f', -1, 64) + "h"
		if h < minSleepHours {
			r.Level = Warn
		}
	}
	return r
}

func billsRule(due []bills.Upcoming) Result {
	r := Result{ID: BillsToday, Label: "Bills due today", Level: OK, Details: "clear"}
	if len(due) > 0 {
		r.Level = Block
		r.Details = fmt.Sprintf("%d unpaid", len(due))
	}
	return r
}

// Aggregate is RED if any rule blocks, otherwise YELLOW if any warns,
// otherwise GREEN. No results is GREEN.
func Aggregate(results []Result) DayStatus {
	status := Green
	for _, r := range results {
		switch r.Level {
		case Block:
			return Red
		case Warn:
			status = Yellow
		}
	}
	return status
}
