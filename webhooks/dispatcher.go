package webhooks

import (
	"context"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/goliatone/go-quality-hooks/transport"
)

// PayloadFunc materializes the payload. It is only invoked when at least one
// endpoint is configured.
type PayloadFunc func() (core.WebhookPayload, error)

type Dispatcher struct {
	Caller      Caller
	Store       core.DeliveryStore
	Logger      core.Logger
	Metrics     core.MetricsRecorder
	Disabled    bool
	MaxPerScope int
	Retention   int
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(logger core.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.Logger = logger
		}
	}
}

func WithDispatcherMetrics(metrics core.MetricsRecorder) DispatcherOption {
	return func(d *Dispatcher) {
		if metrics != nil {
			d.Metrics = metrics
		}
	}
}

func NewDispatcher(cfg core.Config, caller Caller, store core.DeliveryStore, opts ...DispatcherOption) *Dispatcher {
	dispatcher := &Dispatcher{
		Caller:      caller,
		Store:       store,
		Logger:      glog.Nop(),
		Metrics:     core.NopMetricsRecorder{},
		Disabled:    !cfg.Webhooks.Enabled,
		MaxPerScope: cfg.Webhooks.MaxPerScope,
		Retention:   cfg.Webhooks.DeliveryRetention,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(dispatcher)
	}
	return dispatcher
}

// IsEnabled reports whether webhooks are switched on and at least one
// endpoint is configured for the settings scope.
func (d *Dispatcher) IsEnabled(settings core.Settings) bool {
	return !d.Disabled && HasWebhooks(settings)
}

// SendProjectAnalysisUpdate delivers one payload to every endpoint configured
// for the analysis project. Delivery failures are recorded, not returned;
// payload and storage failures are returned.
func (d *Dispatcher) SendProjectAnalysisUpdate(
	ctx context.Context,
	settings core.Settings,
	analysis core.Analysis,
	payloadFn PayloadFunc,
) error {
	if d == nil {
		return core.NotConfiguredError("webhooks: dispatcher is not configured")
	}
	if d.Disabled {
		d.recordSkip(ctx, "disabled")
		return nil
	}
	webhooks := LoadWebhooks(settings, analysis, d.MaxPerScope)
	if len(webhooks) == 0 {
		d.recordSkip(ctx, "no_webhooks")
		return nil
	}
	if d.Caller == nil || d.Store == nil {
		return core.NotConfiguredError("webhooks: dispatcher requires caller and store")
	}
	if payloadFn == nil {
		return core.NewError("webhooks: payload function is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}

	payload, err := payloadFn()
	if err != nil {
		core.LogFields(ctx, d.Logger, core.LogLevelError, "Failed to build webhook payload", map[string]any{
			"project_uuid":  analysis.ProjectUUID,
			"analysis_uuid": analysis.AnalysisUUID.OrElse(""),
			"error":         err.Error(),
		})
		return core.WrapError(err, goerrors.CategoryInternal, core.ErrorPayloadFailed, "webhooks: build payload")
	}

	for _, webhook := range webhooks {
		delivery := d.Caller.Call(ctx, webhook, payload)
		d.logDelivery(ctx, delivery)
		d.recordMetrics(ctx, delivery)
		if _, err := d.Store.Persist(ctx, delivery); err != nil {
			return core.WrapError(err, goerrors.CategoryInternal, core.ErrorStorageFailed, "webhooks: persist delivery")
		}
	}

	if _, err := d.Store.Purge(ctx, analysis.ProjectUUID, d.retention()); err != nil {
		return core.WrapError(err, goerrors.CategoryInternal, core.ErrorStorageFailed, "webhooks: purge deliveries")
	}
	return nil
}

func (d *Dispatcher) recordSkip(ctx context.Context, reason string) {
	if d.Metrics != nil {
		d.Metrics.IncCounter(ctx, core.MetricDispatchSkipped, 1, map[string]string{"reason": reason})
	}
}

func (d *Dispatcher) logDelivery(ctx context.Context, delivery core.WebhookDelivery) {
	fields := map[string]any{
		"webhook": delivery.Webhook.Name,
		"url":     redactURL(delivery.Webhook.URL),
	}
	if message, failed := delivery.ErrorMessage.Get(); failed {
		fields["message"] = message
		core.LogFields(ctx, d.Logger, core.LogLevelDebug, "Failed to send webhook", fields)
		return
	}
	if duration, ok := delivery.Duration.Get(); ok {
		fields["time_ms"] = duration.Milliseconds()
	}
	if status, ok := delivery.HTTPStatus.Get(); ok {
		fields["status"] = status
	}
	core.LogFields(ctx, d.Logger, core.LogLevelDebug, "Sent webhook", fields)
}

func (d *Dispatcher) recordMetrics(ctx context.Context, delivery core.WebhookDelivery) {
	if d.Metrics == nil {
		return
	}
	status := "failure"
	if delivery.Success() {
		status = "success"
	}
	tags := map[string]string{"status": status, "webhook": delivery.Webhook.Name}
	d.Metrics.IncCounter(ctx, core.MetricDeliveriesTotal, 1, tags)
	if duration, ok := delivery.Duration.Get(); ok {
		d.Metrics.ObserveHistogram(ctx, core.MetricDeliveryDurationMs, float64(duration.Milliseconds()), core.CloneTags(tags))
	}
}

func (d *Dispatcher) retention() int {
	if d.Retention <= 0 {
		return core.DefaultDeliveryRetention
	}
	return d.Retention
}

func redactURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "<invalid url>"
	}
	return transport.RedactURL(parsed)
}
