// Package usage describes embedding token consumption against the budget.
package usage

import (
	"fmt"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("period must be %q or %q, got %q", PeriodDay, PeriodMonth, s)
	}
}

// Counters is a point-in-time copy of the budget tracker state.
// A zero limit means unlimited.
type Counters struct {
	DailyUsed    int64
	DailyLimit   int64
	MonthlyUsed  int64
	MonthlyLimit int64
}

// Report is embedding token usage for one period.
type Report struct {
	period Period
	start  time.Time
	end    time.Time
	used   int64
	limit  int64
}

// NewReport creates a usage report for [start, end).
func NewReport(period Period, start, end time.Time, used, limit int64) Report {
	return Report{period: period, start: start, end: end, used: used, limit: limit}
}

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// Start returns the period start (inclusive).
func (r Report) Start() time.Time { return r.start }

// End returns the period end (exclusive), which is also when the budget resets.
func (r Report) End() time.Time { return r.end }

// TokensUsed returns tokens consumed in the period.
func (r Report) TokensUsed() int64 { return r.used }

// TokensLimit returns the period cap, 0 if unlimited.
func (r Report) TokensLimit() int64 { return r.limit }

// Limited reports whether the period has a cap.
func (r Report) Limited() bool { return r.limit > 0 }

// TokensRemaining returns tokens left, -1 if unlimited.
func (r Report) TokensRemaining() int64 {
	if !r.Limited() {
		return -1
	}
	return max(r.limit-r.used, 0)
}

// IsExhausted reports whether a capped budget is spent.
func (r Report) IsExhausted() bool {
	return r.Limited() && r.used >= r.limit
}
