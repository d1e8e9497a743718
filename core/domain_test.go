package core

import (
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func strPtr(value string) *string {
	return &value
}

func TestNewCondition_ValueRequiredUnlessNoValue(t *testing.T) {
	condition, err := NewCondition(ConditionInput{
		MetricKey:      "coverage",
		Operator:       OperatorLessThan,
		Status:         EvaluationStatusNoValue,
		ErrorThreshold: strPtr("80"),
	})
	if err != nil {
		t.Fatalf("expected NO_VALUE condition without value, got %v", err)
	}
	if condition.Value.IsPresent() {
		t.Fatalf("expected absent value for NO_VALUE")
	}

	_, err = NewCondition(ConditionInput{
		MetricKey:      "coverage",
		Operator:       OperatorLessThan,
		Status:         EvaluationStatusError,
		ErrorThreshold: strPtr("80"),
	})
	if err == nil {
		t.Fatalf("expected missing value error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ErrorBadInput {
		t.Fatalf("expected bad input envelope, got %v", err)
	}

	condition, err = NewCondition(ConditionInput{
		MetricKey:        "bugs",
		Operator:         OperatorGreaterThan,
		Status:           EvaluationStatusWarn,
		WarningThreshold: strPtr("0"),
		Value:            strPtr("3"),
		OnLeakPeriod:     true,
	})
	if err != nil {
		t.Fatalf("new condition: %v", err)
	}
	if condition.Value.OrElse("") != "3" || condition.ErrorThreshold.IsPresent() || !condition.OnLeakPeriod {
		t.Fatalf("unexpected condition %#v", condition)
	}
}

func TestNewCondition_RejectsInvalidInput(t *testing.T) {
	cases := map[string]ConditionInput{
		"metric":     {Operator: OperatorEquals, Status: EvaluationStatusOK, ErrorThreshold: strPtr("1"), Value: strPtr("1")},
		"operator":   {MetricKey: "m", Operator: "MATCHES", Status: EvaluationStatusOK, ErrorThreshold: strPtr("1"), Value: strPtr("1")},
		"status":     {MetricKey: "m", Operator: OperatorEquals, Status: "MAYBE", ErrorThreshold: strPtr("1"), Value: strPtr("1")},
		"thresholds": {MetricKey: "m", Operator: OperatorEquals, Status: EvaluationStatusOK, Value: strPtr("1")},
	}
	for name, input := range cases {
		if _, err := NewCondition(input); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestNewQualityGate_CopiesConditions(t *testing.T) {
	conditions := []Condition{{MetricKey: "coverage"}}
	gate, err := NewQualityGate("gate-1", "Sonar way", QualityGateStatusOK, conditions)
	if err != nil {
		t.Fatalf("new quality gate: %v", err)
	}
	conditions[0].MetricKey = "mutated"
	if gate.Conditions[0].MetricKey != "coverage" {
		t.Fatalf("expected conditions to be copied")
	}
	if _, err := NewQualityGate("gate-1", "Sonar way", "GREEN", nil); err == nil {
		t.Fatalf("expected invalid status error")
	}
}

func TestProjectAnalysisEvent_GateOnlyOnSuccess(t *testing.T) {
	event := ProjectAnalysisEvent{
		CeTask:      CeTask{ID: "task-1", Status: CeTaskStatusFailed},
		Project:     Project{UUID: "p1", Key: "k1"},
		QualityGate: Some(QualityGate{ID: "g", Name: "gate", Status: QualityGateStatusOK}),
	}
	if err := event.Validate(); err == nil {
		t.Fatalf("expected gate on failed task to be rejected")
	}
	event.CeTask.Status = CeTaskStatusSuccess
	if err := event.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestProjectAnalysisEvent_PropertiesAreCopied(t *testing.T) {
	event := ProjectAnalysisEvent{ScannerProperties: map[string]string{"sonar.analysis.a": "1"}}
	props := event.Properties()
	props["sonar.analysis.a"] = "2"
	if event.ScannerProperties["sonar.analysis.a"] != "1" {
		t.Fatalf("expected properties copy")
	}
	if got := (ProjectAnalysisEvent{}).Properties(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil properties, got %#v", got)
	}
}

func TestNewAnalysis_RequiresProjectAndOneIdentifier(t *testing.T) {
	if _, err := NewAnalysis("", Some("a1"), None[string]()); err == nil {
		t.Fatalf("expected project uuid error")
	}
	if _, err := NewAnalysis("p1", Some(" "), None[string]()); err == nil {
		t.Fatalf("expected missing identifier error")
	}
	analysis, err := NewAnalysis(" p1 ", Some("a1"), Some("task-1"))
	if err != nil {
		t.Fatalf("new analysis: %v", err)
	}
	if analysis.ProjectUUID != "p1" || analysis.CeTaskUUID.OrElse("") != "task-1" || analysis.AnalysisUUID.OrElse("") != "a1" {
		t.Fatalf("unexpected analysis %#v", analysis)
	}

	failed, err := NewAnalysis("p1", Some(""), Some(" task-2 "))
	if err != nil {
		t.Fatalf("new analysis without analysis uuid: %v", err)
	}
	if failed.AnalysisUUID.IsPresent() || failed.CeTaskUUID.OrElse("") != "task-2" {
		t.Fatalf("unexpected failed task analysis %#v", failed)
	}
}

func TestWebhookDelivery_Success(t *testing.T) {
	at := time.Now().UTC()
	cases := []struct {
		name     string
		delivery WebhookDelivery
		want     bool
	}{
		{"2xx", WebhookDelivery{At: at, HTTPStatus: Some(204)}, true},
		{"5xx", WebhookDelivery{At: at, HTTPStatus: Some(500)}, false},
		{"redirect", WebhookDelivery{At: at, HTTPStatus: Some(302)}, false},
		{"error", WebhookDelivery{At: at, ErrorMessage: Some("connection refused")}, false},
		{"no status", WebhookDelivery{At: at}, false},
	}
	for _, tc := range cases {
		if got := tc.delivery.Success(); got != tc.want {
			t.Fatalf("%s: expected success=%v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestOptional(t *testing.T) {
	absent := None[int]()
	if absent.IsPresent() || absent.OrElse(7) != 7 || absent.Ptr() != nil {
		t.Fatalf("unexpected absent optional behavior")
	}
	value := 3
	present := OptionalOf(&value)
	value = 4
	if got, ok := present.Get(); !ok || got != 3 {
		t.Fatalf("expected copied value 3, got %d %v", got, ok)
	}
	if OptionalOf[int](nil).IsPresent() {
		t.Fatalf("expected nil pointer to be absent")
	}
}
