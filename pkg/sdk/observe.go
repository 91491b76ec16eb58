package polaudit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/polaudit/internal/domain"
)

// clientMetrics are the client-side operation metrics.
type clientMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polaudit",
			Subsystem: "client",
			Name:      "calls_total",
			Help:      "Client calls by operation and outcome class.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "polaudit",
			Subsystem: "client",
			Name:      "call_duration_seconds",
			Help:      "Client call latency in seconds.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.latency); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector already registered
// under the same descriptor so several clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("polaudit: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("polaudit: metric registered with type %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// outcome classifies err for the outcome label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrUnknownSubject),
		errors.Is(err, domain.ErrInvalidFeedback),
		errors.Is(err, domain.ErrInvalidRelevancy):
		return "rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrSearchUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// observer logs and counts client calls. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(op, subject string, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	class := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, class).Inc()
		o.metrics.latency.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if o.logger == nil {
		return
	}
	attrs := []any{"op", op, "subject", subject, "duration", elapsed}
	if err != nil {
		o.logger.Warn("polaudit call failed", append(attrs, "outcome", class, "error", err)...)
		return
	}
	o.logger.Debug("polaudit call completed", attrs...)
}
