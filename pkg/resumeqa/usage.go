package resumeqa

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport contains embedding token usage for the current day or month (UTC).
type UsageReport struct {
	Period          UsagePeriod
	PeriodStart     time.Time
	PeriodEnd       time.Time // also when the budget resets
	Tokens          int64
	TokensLimit     int64 // 0 = unlimited
	TokensRemaining int64 // -1 = unlimited
	IsExhausted     bool
}

// Usage returns an embedding usage report for the given period. Without
// WithTokenBudget the report has no limit and counts no tokens.
// Observer always records success: the report is built in memory.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	p := domusage.PeriodMonth
	if period == PeriodDay {
		p = domusage.PeriodDay
	}
	report := c.usageSvc.Report(ctx, p)

	return UsageReport{
		Period:          UsagePeriod(report.Period()),
		PeriodStart:     report.Start(),
		PeriodEnd:       report.End(),
		Tokens:          report.TokensUsed(),
		TokensLimit:     report.TokensLimit(),
		TokensRemaining: report.TokensRemaining(),
		IsExhausted:     report.IsExhausted(),
	}
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	Report(ctx context.Context, period domusage.Period) domusage.Report
}
