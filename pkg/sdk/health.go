package polaudit

import (
	"context"

	healthuc "github.com/kailas-cloud/polaudit/internal/usecase/health"
)

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// HealthStatus is the outcome of a health check.
//
// Status is "ok", "degraded" (coordination store down, feedback still
// serialized in-process) or "error" (search service unreachable). Checks maps
// "search" and, when configured, "coordination" to "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// Serving reports whether queries can be answered.
func (h HealthStatus) Serving() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health pings the search service and the coordination store concurrently.
func (c *Client) Health(ctx context.Context) HealthStatus {
	r := c.healthSvc.Check(ctx)
	out := HealthStatus{
		Status: string(r.Status),
		Checks: make(map[string]string, len(r.Checks)),
	}
	for name, res := range r.Checks {
		out.Checks[name] = string(res)
	}
	return out
}
