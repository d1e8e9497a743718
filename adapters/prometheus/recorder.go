package prometheus

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/prometheus/client_golang/prometheus"
)

var deliveryLabels = []string{"status", "webhook"}

// Recorder exposes dispatcher metrics as prometheus collectors. Names outside
// the known set are counted under a generic vector keyed by metric name.
type Recorder struct {
	DeliveriesTotal    *prometheus.CounterVec
	DeliveryDurationMs *prometheus.HistogramVec
	DispatchSkipped    *prometheus.CounterVec
	Other              *prometheus.CounterVec
}

func NewRecorder(registerer prometheus.Registerer, namespace string) (*Recorder, error) {
	namespace = strings.TrimSpace(namespace)
	r := &Recorder{
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Total number of webhook delivery attempts.",
		}, deliveryLabels),
		DeliveryDurationMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_delivery_duration_ms",
			Help:      "Webhook delivery duration in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, deliveryLabels),
		DispatchSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_dispatch_skipped_total",
			Help:      "Total number of dispatches skipped before any call.",
		}, []string{"reason"}),
		Other: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of other quality hooks events.",
		}, []string{"name"}),
	}
	if registerer == nil {
		return r, nil
	}
	for _, collector := range []prometheus.Collector{r.DeliveriesTotal, r.DeliveryDurationMs, r.DispatchSkipped, r.Other} {
		if err := registerer.Register(collector); err != nil {
			return nil, core.WrapError(err, goerrors.CategoryInternal, core.ErrorNotConfigured, "prometheus: register collector")
		}
	}
	return r, nil
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	switch name {
	case core.MetricDeliveriesTotal:
		r.DeliveriesTotal.WithLabelValues(labelValues(tags, deliveryLabels)...).Add(float64(value))
	case core.MetricDispatchSkipped:
		r.DispatchSkipped.WithLabelValues(tags["reason"]).Add(float64(value))
	default:
		r.Other.WithLabelValues(name).Add(float64(value))
	}
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil || name != core.MetricDeliveryDurationMs {
		return
	}
	r.DeliveryDurationMs.WithLabelValues(labelValues(tags, deliveryLabels)...).Observe(value)
}

func labelValues(tags map[string]string, labels []string) []string {
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = tags[label]
	}
	return values
}

var _ core.MetricsRecorder = (*Recorder)(nil)
