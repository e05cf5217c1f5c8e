// Package metrics records document store calls with Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New registers the store collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identity_store_operations_total",
				Help: "Document store operations by collection, operation and outcome",
			},
			[]string{"collection", "operation", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "identity_store_operation_duration_seconds",
				Help:    "Document store operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "operation"},
		),
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return "not_found"
	case domain.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}

func (m *Metrics) observe(collection, op string, start time.Time, err error) {
	m.operations.WithLabelValues(collection, op, outcome(err)).Inc()
	m.duration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

// Instrument wraps p so every session call it hands out is recorded under
// collection.
func Instrument[T repository.Document](p repository.SessionProvider[T], m *Metrics, collection string) repository.SessionProvider[T] {
	return repository.ProviderFunc[T](func(ctx context.Context) (repository.Session[T], error) {
		start := time.Now()
		sess, err := p.OpenSession(ctx)
		m.observe(collection, "open", start, err)
		if err != nil {
			return nil, err
		}
		return &session[T]{Session: sess, m: m, collection: collection}, nil
	})
}

type session[T repository.Document] struct {
	repository.Session[T]
	m          *Metrics
	collection string
}

func (s *session[T]) Load(ctx context.Context, id string) (T, error) {
	start := time.Now()
	doc, err := s.Session.Load(ctx, id)
	s.m.observe(s.collection, "load", start, err)
	return doc, err
}

func (s *session[T]) Query(ctx context.Context, q repository.Query) ([]T, error) {
	start := time.Now()
	docs, err := s.Session.Query(ctx, q)
	s.m.observe(s.collection, "query", start, err)
	return docs, err
}

func (s *session[T]) SaveChanges(ctx context.Context) error {
	start := time.Now()
	err := s.Session.SaveChanges(ctx)
	s.m.observe(s.collection, "save", start, err)
	return err
}

// Sample is one gathered series. Counters carry their value; histograms carry
// the observation count and the sum of observed seconds.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
	Count  uint64
}

// Snapshot flattens the counters and histograms g currently holds.
func Snapshot(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: make(map[string]string, len(m.GetLabel()))}
			for _, l := range m.GetLabel() {
				s.Labels[l.GetName()] = l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				s.Value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				s.Value = m.GetHistogram().GetSampleSum()
				s.Count = m.GetHistogram().GetSampleCount()
			default:
				continue
			}
			out = append(out, s)
		}
	}
	return out, nil
}
