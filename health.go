package emvex

import (
	"context"
	"time"
)

// HealthStatus reports overall and per-component health. Status is "ok" when
// every component answers, "degraded" when some fail and "error" when all
// do. Checks maps component names ("store", "embedding") to "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// Health pings the store and, when the provider supports it, the provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	defer c.obs.observe("health", time.Now(), nil)

	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for name, cr := range report.Checks {
		checks[name] = string(cr)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
