package events

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus counters for domain mutations.
type Metrics struct {
	MutationsTotal       *prometheus.CounterVec
	PublishFailuresTotal *prometheus.CounterVec
}

// NewMetrics registers the event metrics once per process.
//
// Metrics:
//   - ceo_mutations_total{kind,action} - Count of mutations by entity and action
//   - ceo_event_publish_failures_total{kind} - Count of events that failed to publish
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			MutationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ceo_mutations_total",
					Help: "Total number of mutations by entity kind and action",
				},
				[]string{"kind", "action"},
			),
			PublishFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ceo_event_publish_failures_total",
					Help: "Total number of domain events that failed to publish",
				},
				[]string{"kind"},
			),
		}
	})
	return globalMetrics
}

type instrumented struct {
	next    Publisher
	metrics *Metrics
}

// Instrumented counts every event passed to next.
func Instrumented(next Publisher, m *Metrics) Publisher {
	if m == nil {
		m = NewMetrics()
	}
	return &instrumented{next: next, metrics: m}
}

func (p *instrumented) Publish(ctx context.Context, e Event) error {
	p.metrics.MutationsTotal.WithLabelValues(string(e.Kind), string(e.Action)).Inc()
	if err := p.next.Publish(ctx, e); err != nil {
		p.metrics.PublishFailuresTotal.WithLabelValues(string(e.Kind)).Inc()
		return err
	}
	return nil
}
