// Package usage reports embedding token consumption per budget period.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (no budget configured): reports
// then show zero usage and no limit.
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// Report builds a usage report for the current day or month (UTC).
func (s *Service) Report(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now()
	var c domusage.Counters
	if s.br != nil {
		c = s.br.Snapshot()
	}

	if period == domusage.PeriodDay {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return domusage.NewReport(period, start, start.Add(24*time.Hour), c.DailyUsed, c.DailyLimit)
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return domusage.NewReport(domusage.PeriodMonth, start, start.AddDate(0, 1, 0), c.MonthlyUsed, c.MonthlyLimit)
}
