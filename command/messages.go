package command

import (
	"strings"

	"github.com/goliatone/go-quality-hooks/issuechange"
	"github.com/goliatone/go-quality-hooks/posttask"
)

const (
	TypeFinishAnalysis      = "quality_hooks.command.analysis.finish"
	TypeChangeIssueType     = "quality_hooks.command.issue.type_change"
	TypeTransitionIssues    = "quality_hooks.command.issue.transition"
	TypePurgeDeliveries     = "quality_hooks.command.deliveries.purge"
	TypeBackfillAnalysisIDs = "quality_hooks.command.deliveries.backfill_analysis"
)

type FinishAnalysisMessage struct {
	Outcome posttask.Outcome
}

func (FinishAnalysisMessage) Type() string { return TypeFinishAnalysis }

func (m FinishAnalysisMessage) Validate() error {
	if strings.TrimSpace(m.Outcome.CeTaskID) == "" {
		return commandValidationError("ce_task_id", "ce task id is required")
	}
	if strings.TrimSpace(m.Outcome.Project.UUID) == "" {
		return commandValidationError("project_uuid", "project uuid is required")
	}
	if strings.TrimSpace(m.Outcome.Project.Key) == "" {
		return commandValidationError("project_key", "project key is required")
	}
	return nil
}

type ChangeIssueTypeMessage struct {
	Result   issuechange.SearchResult
	RuleType string
	Change   issuechange.ChangeContext
}

func (ChangeIssueTypeMessage) Type() string { return TypeChangeIssueType }

func (m ChangeIssueTypeMessage) Validate() error {
	if strings.TrimSpace(m.RuleType) == "" {
		return commandValidationError("rule_type", "rule type is required")
	}
	return nil
}

type TransitionIssuesMessage struct {
	Result        issuechange.SearchResult
	TransitionKey string
	Change        issuechange.ChangeContext
}

func (TransitionIssuesMessage) Type() string { return TypeTransitionIssues }

func (m TransitionIssuesMessage) Validate() error {
	if strings.TrimSpace(m.TransitionKey) == "" {
		return commandValidationError("transition_key", "transition key is required")
	}
	return nil
}

// PurgeDeliveriesMessage trims delivery history. An empty project purges
// every project; a zero Keep uses the configured retention.
type PurgeDeliveriesMessage struct {
	ProjectUUID string
	Keep        int
}

func (PurgeDeliveriesMessage) Type() string { return TypePurgeDeliveries }

func (m PurgeDeliveriesMessage) Validate() error {
	if m.Keep < 0 {
		return commandValidationError("keep", "keep must be >= 0")
	}
	return nil
}

type BackfillAnalysisIDsMessage struct{}

func (BackfillAnalysisIDsMessage) Type() string { return TypeBackfillAnalysisIDs }
