package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the workflow collectors.
type Metrics struct {
	NodeSelections  *prometheus.CounterVec
	ReasonsStaged   *prometheus.CounterVec
	Retrains        *prometheus.CounterVec
	Cancels         prometheus.Counter
	Rejections      *prometheus.CounterVec
	RetrainDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeSelections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treetrim_node_selections_total",
				Help: "Total number of nodes selected for inspection",
			},
			[]string{"leaf"},
		),
		ReasonsStaged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treetrim_reasons_staged_total",
				Help: "Total number of trim reasons staged",
			},
			[]string{"reason"},
		),
		Retrains: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treetrim_retrains_total",
				Help: "Total number of confirmed retrains",
			},
			[]string{"parameter"},
		),
		Cancels: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "treetrim_cancels_total",
				Help: "Total number of staged changes cancelled",
			},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treetrim_rejections_total",
				Help: "Total number of rejected workflow operations",
			},
			[]string{"operation"},
		),
		RetrainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treetrim_retrain_duration_seconds",
				Help:    "Duration of background retrains",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeSelections, m.ReasonsStaged, m.Retrains, m.Cancels, m.Rejections, m.RetrainDuration)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeSelected: func(_ context.Context, e *domain.Event) {
			m.NodeSelections.WithLabelValues(strconv.FormatBool(e.Leaf)).Inc()
		},
		OnReasonStaged: func(_ context.Context, e *domain.Event) {
			m.ReasonsStaged.WithLabelValues(string(e.Reason)).Inc()
		},
		OnRetrain: func(_ context.Context, e *domain.Event) {
			param := ""
			if e.Adjustment != nil {
				param = string(e.Adjustment.Parameter)
			}
			m.Retrains.WithLabelValues(param).Inc()
		},
		OnCancel: func(context.Context, *domain.Event) {
			m.Cancels.Inc()
		},
		OnRejected: func(_ context.Context, e *domain.Event) {
			m.Rejections.WithLabelValues(e.Operation).Inc()
		},
	}
}

// ObserveRetrain records how long a background retrain took.
func (m *Metrics) ObserveRetrain(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.RetrainDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
