package emvex

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/emvex/internal/domain/usage"
)

// UsagePeriod selects the aggregation window of a usage report.
type UsagePeriod string

// Aggregation periods accepted by Usage.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageMetrics holds embedding API consumption over a period.
type UsageMetrics struct {
	Requests int
	Tokens   int64
}

// BudgetStatus describes the token budget state of a period. A zero ResetsAt
// means the period never resets.
type BudgetStatus struct {
	TokensLimit     int64
	TokensRemaining int64
	IsExhausted     bool
	ResetsAt        time.Time
}

// UsageReport is the outcome of a Usage call.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	Provider    string
	Metrics     UsageMetrics
	Budget      BudgetStatus
}

// Usage reports embedding token consumption and budget state for period.
// Without WithBudget the report carries zero limits and is never exhausted.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	defer c.obs.observe("usage", time.Now(), nil)

	r := c.usageSvc.GetReport(ctx, domusage.Period(period))
	b := r.Budget()
	m := r.Metrics()

	return UsageReport{
		Period:      UsagePeriod(r.Period()),
		PeriodStart: toTime(r.PeriodStart()),
		PeriodEnd:   toTime(r.PeriodEnd()),
		Provider:    r.Provider(),
		Metrics: UsageMetrics{
			Requests: m.Requests(),
			Tokens:   m.Tokens(),
		},
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
			ResetsAt:        toTime(b.ResetsAt()),
		},
	}
}

// toTime converts unix milliseconds to a Time, keeping zero as the zero Time.
func toTime(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}
