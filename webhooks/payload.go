package webhooks

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quality-hooks/core"
)

// DateLayout is the timestamp format of payload dates.
const DateLayout = "2006-01-02T15:04:05-0700"

type PayloadBuilder struct {
	ServerURL      string
	PropertyPrefix string
	Now            func() time.Time
}

func NewPayloadBuilder(cfg core.Config) *PayloadBuilder {
	return &PayloadBuilder{
		ServerURL:      cfg.PublicURL(),
		PropertyPrefix: cfg.Webhooks.AnalysisPropertyPrefix,
		Now:            time.Now,
	}
}

type payloadDocument struct {
	ServerURL   string              `json:"serverUrl"`
	TaskID      string              `json:"taskId"`
	Status      string              `json:"status"`
	AnalysedAt  string              `json:"analysedAt,omitempty"`
	ChangedAt   string              `json:"changedAt"`
	Project     payloadProject      `json:"project"`
	Branch      *payloadBranch      `json:"branch,omitempty"`
	QualityGate *payloadQualityGate `json:"qualityGate,omitempty"`
	Properties  map[string]string   `json:"properties"`
}

type payloadProject struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type payloadBranch struct {
	Name   string `json:"name,omitempty"`
	Type   string `json:"type"`
	IsMain bool   `json:"isMain"`
	URL    string `json:"url"`
}

type payloadQualityGate struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	Conditions []payloadCondition `json:"conditions"`
}

type payloadCondition struct {
	Metric           string  `json:"metric"`
	Operator         string  `json:"operator"`
	Value            *string `json:"value,omitempty"`
	Status           string  `json:"status"`
	OnLeakPeriod     bool    `json:"onLeakPeriod"`
	ErrorThreshold   *string `json:"errorThreshold,omitempty"`
	WarningThreshold *string `json:"warningThreshold,omitempty"`
}

func (b *PayloadBuilder) Build(event core.ProjectAnalysisEvent) (core.WebhookPayload, error) {
	if b == nil {
		return core.WebhookPayload{}, core.NotConfiguredError("webhooks: payload builder is not configured")
	}
	if err := event.Validate(); err != nil {
		return core.WebhookPayload{}, err
	}

	serverURL := strings.TrimSuffix(strings.TrimSpace(b.ServerURL), "/")
	doc := payloadDocument{
		ServerURL: serverURL,
		TaskID:    event.CeTask.ID,
		Status:    string(event.CeTask.Status),
		Project: payloadProject{
			Key:  event.Project.Key,
			Name: event.Project.Name,
			URL:  projectURL(serverURL, event.Project.Key),
		},
		Properties: b.analysisProperties(event.ScannerProperties),
	}

	changedAt := b.now()
	if analysis, ok := event.Analysis.Get(); ok {
		doc.AnalysedAt = formatDate(analysis.Date)
		changedAt = analysis.Date
	}
	doc.ChangedAt = formatDate(changedAt)

	if branch, ok := event.Branch.Get(); ok {
		doc.Branch = &payloadBranch{
			Name:   branch.Name.OrElse(""),
			Type:   string(branch.Type),
			IsMain: branch.IsMain,
			URL:    branchURL(serverURL, event.Project.Key, branch),
		}
	}

	// Only successful tasks carry a gate; Validate already rejects the rest.
	if gate, ok := event.QualityGate.Get(); ok && event.CeTask.Status == core.CeTaskStatusSuccess {
		doc.QualityGate = buildQualityGate(gate)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return core.WebhookPayload{}, core.WrapError(
			err,
			goerrors.CategoryInternal,
			core.ErrorPayloadFailed,
			"webhooks: encode payload",
		)
	}
	return core.WebhookPayload{ProjectKey: event.Project.Key, JSON: string(raw)}, nil
}

func (b *PayloadBuilder) analysisProperties(props map[string]string) map[string]string {
	prefix := b.PropertyPrefix
	if strings.TrimSpace(prefix) == "" {
		prefix = core.DefaultAnalysisPropertyPrefix
	}
	out := map[string]string{}
	for key, value := range props {
		if strings.HasPrefix(key, prefix) {
			out[key] = value
		}
	}
	return out
}

func (b *PayloadBuilder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func buildQualityGate(gate core.QualityGate) *payloadQualityGate {
	conditions := make([]payloadCondition, 0, len(gate.Conditions))
	for _, condition := range gate.Conditions {
		item := payloadCondition{
			Metric:           condition.MetricKey,
			Operator:         string(condition.Operator),
			Status:           string(condition.Status),
			OnLeakPeriod:     condition.OnLeakPeriod,
			ErrorThreshold:   condition.ErrorThreshold.Ptr(),
			WarningThreshold: condition.WarningThreshold.Ptr(),
		}
		if condition.Status != core.EvaluationStatusNoValue {
			item.Value = condition.Value.Ptr()
		}
		conditions = append(conditions, item)
	}
	sort.SliceStable(conditions, func(i, j int) bool {
		return conditions[i].Metric < conditions[j].Metric
	})
	return &payloadQualityGate{
		Name:       gate.Name,
		Status:     string(gate.Status),
		Conditions: conditions,
	}
}

func projectURL(serverURL string, projectKey string) string {
	return fmt.Sprintf("%s/project/dashboard?id=%s", serverURL, url.QueryEscape(projectKey))
}

func branchURL(serverURL string, projectKey string, branch core.Branch) string {
	name := branch.Name.OrElse("")
	if branch.Type == core.BranchTypeShort {
		return fmt.Sprintf("%s/project/issues?branch=%s&id=%s&resolved=false",
			serverURL, url.QueryEscape(name), url.QueryEscape(projectKey))
	}
	if branch.IsMain {
		return projectURL(serverURL, projectKey)
	}
	return fmt.Sprintf("%s/project/dashboard?branch=%s&id=%s",
		serverURL, url.QueryEscape(name), url.QueryEscape(projectKey))
}

func formatDate(value time.Time) string {
	return value.Format(DateLayout)
}
