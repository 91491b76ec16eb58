package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search service is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	search       Pinger
	coordination Pinger
	timeout      time.Duration
}

// New creates a Service. coordination can be nil when writers are serialized in-process.
func New(search, coordination Pinger) *Service {
	return &Service{search: search, coordination: coordination, timeout: 5 * time.Second}
}

// Check pings all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult)
	)
	run := func(name string, p Pinger) {
		defer wg.Done()
		res := CheckOK
		if err := p.Ping(ctx); err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	wg.Add(1)
	go run("search", s.search)
	if s.coordination != nil {
		wg.Add(1)
		go run("coordination", s.coordination)
	}
	wg.Wait()

	status := Healthy
	switch {
	case checks["search"] == CheckError:
		status = Unhealthy
	case checks["coordination"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
