package core

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

type CeTaskStatus string

const (
	CeTaskStatusSuccess CeTaskStatus = "SUCCESS"
	CeTaskStatusFailed  CeTaskStatus = "FAILED"
)

// CeTaskTypeReport is the task type of analysis report processing.
const CeTaskTypeReport = "REPORT"

type CeTask struct {
	ID     string
	Status CeTaskStatus
}

type Project struct {
	UUID string
	Key  string
	Name string
}

type BranchType string

const (
	BranchTypeLong  BranchType = "LONG"
	BranchTypeShort BranchType = "SHORT"
)

type Branch struct {
	Name   Optional[string]
	Type   BranchType
	IsMain bool
}

type AnalysisInfo struct {
	UUID string
	Date time.Time
}

type QualityGateStatus string

const (
	QualityGateStatusOK    QualityGateStatus = "OK"
	QualityGateStatusWarn  QualityGateStatus = "WARN"
	QualityGateStatusError QualityGateStatus = "ERROR"
)

type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "EQUALS"
	OperatorNotEquals   ConditionOperator = "NOT_EQUALS"
	OperatorGreaterThan ConditionOperator = "GREATER_THAN"
	OperatorLessThan    ConditionOperator = "LESS_THAN"
)

type EvaluationStatus string

const (
	EvaluationStatusNoValue EvaluationStatus = "NO_VALUE"
	EvaluationStatusOK      EvaluationStatus = "OK"
	EvaluationStatusWarn    EvaluationStatus = "WARN"
	EvaluationStatusError   EvaluationStatus = "ERROR"
)

// Condition is one evaluated quality gate threshold. Build it with
// NewCondition so the value/status invariant holds.
type Condition struct {
	MetricKey        string
	Operator         ConditionOperator
	Status           EvaluationStatus
	ErrorThreshold   Optional[string]
	WarningThreshold Optional[string]
	OnLeakPeriod     bool
	Value            Optional[string]
}

type ConditionInput struct {
	MetricKey        string
	Operator         ConditionOperator
	Status           EvaluationStatus
	ErrorThreshold   *string
	WarningThreshold *string
	OnLeakPeriod     bool
	Value            *string
}

func NewCondition(in ConditionInput) (Condition, error) {
	metricKey := strings.TrimSpace(in.MetricKey)
	if metricKey == "" {
		return Condition{}, validationError("metric_key", "core: condition metric key is required")
	}
	if !validOperator(in.Operator) {
		return Condition{}, validationError("operator", fmt.Sprintf("core: invalid condition operator %q", in.Operator))
	}
	if !validEvaluationStatus(in.Status) {
		return Condition{}, validationError("status", fmt.Sprintf("core: invalid evaluation status %q", in.Status))
	}
	if in.ErrorThreshold == nil && in.WarningThreshold == nil {
		return Condition{}, validationError("thresholds", "core: condition requires an error or warning threshold")
	}
	condition := Condition{
		MetricKey:        metricKey,
		Operator:         in.Operator,
		Status:           in.Status,
		ErrorThreshold:   OptionalOf(in.ErrorThreshold),
		WarningThreshold: OptionalOf(in.WarningThreshold),
		OnLeakPeriod:     in.OnLeakPeriod,
	}
	if in.Status == EvaluationStatusNoValue {
		return condition, nil
	}
	if in.Value == nil {
		return Condition{}, validationError("value", fmt.Sprintf("core: condition value is required for status %s", in.Status))
	}
	condition.Value = Some(*in.Value)
	return condition, nil
}

type QualityGate struct {
	ID         string
	Name       string
	Status     QualityGateStatus
	Conditions []Condition
}

func NewQualityGate(id string, name string, status QualityGateStatus, conditions []Condition) (QualityGate, error) {
	if strings.TrimSpace(id) == "" {
		return QualityGate{}, validationError("id", "core: quality gate id is required")
	}
	if strings.TrimSpace(name) == "" {
		return QualityGate{}, validationError("name", "core: quality gate name is required")
	}
	switch status {
	case QualityGateStatusOK, QualityGateStatusWarn, QualityGateStatusError:
	default:
		return QualityGate{}, validationError("status", fmt.Sprintf("core: invalid quality gate status %q", status))
	}
	return QualityGate{
		ID:         id,
		Name:       name,
		Status:     status,
		Conditions: append([]Condition(nil), conditions...),
	}, nil
}

// ProjectAnalysisEvent describes one finished analysis. It is built once per
// trigger and shared read-only between post-analysis tasks.
type ProjectAnalysisEvent struct {
	CeTask            CeTask
	Project           Project
	Branch            Optional[Branch]
	Analysis          Optional[AnalysisInfo]
	QualityGate       Optional[QualityGate]
	ScannerProperties map[string]string
}

func (e ProjectAnalysisEvent) Validate() error {
	if strings.TrimSpace(e.CeTask.ID) == "" {
		return validationError("ce_task_id", "core: ce task id is required")
	}
	if strings.TrimSpace(e.Project.UUID) == "" || strings.TrimSpace(e.Project.Key) == "" {
		return validationError("project", "core: project uuid and key are required")
	}
	if e.QualityGate.IsPresent() && e.CeTask.Status != CeTaskStatusSuccess {
		return validationError("quality_gate", "core: quality gate is only available for successful tasks")
	}
	return nil
}

// Properties returns a copy of the scanner context properties.
func (e ProjectAnalysisEvent) Properties() map[string]string {
	if len(e.ScannerProperties) == 0 {
		return map[string]string{}
	}
	return maps.Clone(e.ScannerProperties)
}

// Analysis identifies the computation a dispatch is correlated with. Failed
// tasks produce no analysis, so only one of the two ids may be known.
type Analysis struct {
	ProjectUUID  string
	CeTaskUUID   Optional[string]
	AnalysisUUID Optional[string]
}

func NewAnalysis(projectUUID string, analysisUUID Optional[string], ceTaskUUID Optional[string]) (Analysis, error) {
	if strings.TrimSpace(projectUUID) == "" {
		return Analysis{}, validationError("project_uuid", "core: project uuid is required")
	}
	analysisUUID = trimmedOptional(analysisUUID)
	ceTaskUUID = trimmedOptional(ceTaskUUID)
	if !analysisUUID.IsPresent() && !ceTaskUUID.IsPresent() {
		return Analysis{}, validationError("analysis_uuid", "core: analysis uuid or ce task uuid is required")
	}
	return Analysis{
		ProjectUUID:  strings.TrimSpace(projectUUID),
		CeTaskUUID:   ceTaskUUID,
		AnalysisUUID: analysisUUID,
	}, nil
}

func trimmedOptional(value Optional[string]) Optional[string] {
	raw, ok := value.Get()
	if !ok || strings.TrimSpace(raw) == "" {
		return None[string]()
	}
	return Some(strings.TrimSpace(raw))
}

type Webhook struct {
	ProjectUUID  string
	CeTaskUUID   Optional[string]
	AnalysisUUID Optional[string]
	Name         string
	URL          string
}

type WebhookPayload struct {
	ProjectKey string
	JSON       string
}

// WebhookDelivery is the outcome of one call. Once persisted it is never
// modified.
type WebhookDelivery struct {
	Webhook      Webhook
	Payload      WebhookPayload
	At           time.Time
	HTTPStatus   Optional[int]
	Duration     Optional[time.Duration]
	ErrorMessage Optional[string]
}

func (d WebhookDelivery) Success() bool {
	if d.ErrorMessage.IsPresent() {
		return false
	}
	status, ok := d.HTTPStatus.Get()
	return ok && status >= 200 && status < 300
}

type DeliveryRecord struct {
	ID           string
	ProjectUUID  string
	CeTaskUUID   Optional[string]
	AnalysisUUID Optional[string]
	Name         string
	URL          string
	Success      bool
	HTTPStatus   Optional[int]
	DurationMs   Optional[int64]
	ErrorMessage Optional[string]
	Payload      string
	CreatedAt    time.Time
}

// BackfillResult counts the legacy deliveries given an analysis and those
// dropped because none could be found.
type BackfillResult struct {
	Updated int
	Deleted int
}

type DeliveryFilter struct {
	ProjectUUID string
	CeTaskUUID  string
	Page        int
	PerPage     int
}

type DeliveryPage struct {
	Items   []DeliveryRecord
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

type CeActivity struct {
	UUID          string
	TaskType      string
	ComponentUUID Optional[string]
	AnalysisUUID  Optional[string]
	Status        CeTaskStatus
	ExecutedAt    Optional[time.Time]
}

type Component struct {
	UUID string
	Key  string
	Name string
	// ProjectUUID is the root component of the branch the component lives in.
	ProjectUUID           string
	MainBranchProjectUUID Optional[string]
}

type BranchRecord struct {
	UUID        string
	ProjectUUID string
	Key         string
	Type        BranchType
}

type Snapshot struct {
	UUID          string
	ComponentUUID string
	CreatedAt     time.Time
}

func validOperator(op ConditionOperator) bool {
	switch op {
	case OperatorEquals, OperatorNotEquals, OperatorGreaterThan, OperatorLessThan:
		return true
	}
	return false
}

func validEvaluationStatus(status EvaluationStatus) bool {
	switch status {
	case EvaluationStatusNoValue, EvaluationStatusOK, EvaluationStatusWarn, EvaluationStatusError:
		return true
	}
	return false
}
