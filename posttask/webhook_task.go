package posttask

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/goliatone/go-quality-hooks/webhooks"
)

type AnalysisDispatcher interface {
	IsEnabled(settings core.Settings) bool
	SendProjectAnalysisUpdate(ctx context.Context, settings core.Settings, analysis core.Analysis, payloadFn webhooks.PayloadFunc) error
}

type PayloadBuilder interface {
	Build(event core.ProjectAnalysisEvent) (core.WebhookPayload, error)
}

// WebhookTask notifies the configured webhooks of a finished analysis.
type WebhookTask struct {
	Settings   core.SettingsProvider
	Activities core.ActivityReader
	Dispatcher AnalysisDispatcher
	Payloads   PayloadBuilder
	Logger     core.Logger
}

func NewWebhookTask(
	settings core.SettingsProvider,
	activities core.ActivityReader,
	dispatcher AnalysisDispatcher,
	payloads PayloadBuilder,
	logger core.Logger,
) *WebhookTask {
	return &WebhookTask{
		Settings:   settings,
		Activities: activities,
		Dispatcher: dispatcher,
		Payloads:   payloads,
		Logger:     glog.Ensure(logger),
	}
}

func (*WebhookTask) Description() string {
	return "Webhooks"
}

func (t *WebhookTask) Finished(ctx context.Context, event core.ProjectAnalysisEvent) error {
	if t == nil || t.Settings == nil || t.Dispatcher == nil || t.Payloads == nil {
		return core.NotConfiguredError("posttask: webhook task is not configured")
	}
	settings, err := t.Settings.Settings(ctx, event.Project.UUID)
	if err != nil {
		return err
	}
	if !t.Dispatcher.IsEnabled(settings) {
		return nil
	}

	analysisUUID, err := t.resolveAnalysisUUID(ctx, event)
	if err != nil {
		return err
	}

	analysis, err := core.NewAnalysis(event.Project.UUID, analysisUUID, core.Some(event.CeTask.ID))
	if err != nil {
		return err
	}
	return t.Dispatcher.SendProjectAnalysisUpdate(ctx, settings, analysis, func() (core.WebhookPayload, error) {
		return t.Payloads.Build(event)
	})
}

// resolveAnalysisUUID prefers the analysis stored with the task activity and
// falls back to the one carried by the event. Failed tasks have neither.
func (t *WebhookTask) resolveAnalysisUUID(ctx context.Context, event core.ProjectAnalysisEvent) (core.Optional[string], error) {
	if t.Activities != nil {
		activity, found, err := t.Activities.SelectByUUID(ctx, event.CeTask.ID)
		if err != nil {
			return core.None[string](), err
		}
		if found {
			if analysisUUID, ok := activity.AnalysisUUID.Get(); ok && strings.TrimSpace(analysisUUID) != "" {
				return core.Some(strings.TrimSpace(analysisUUID)), nil
			}
		}
	}
	if info, ok := event.Analysis.Get(); ok && strings.TrimSpace(info.UUID) != "" {
		return core.Some(strings.TrimSpace(info.UUID)), nil
	}
	return core.None[string](), nil
}
