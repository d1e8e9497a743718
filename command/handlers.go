package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/goliatone/go-quality-hooks/issuechange"
	"github.com/goliatone/go-quality-hooks/posttask"
)

type AnalysisFinisher interface {
	Finished(ctx context.Context, outcome posttask.Outcome) (core.ProjectAnalysisEvent, error)
}

type IssueChangeNotifier interface {
	OnTypeChange(ctx context.Context, result issuechange.SearchResult, ruleType string, changeCtx issuechange.ChangeContext)
	OnTransition(ctx context.Context, result issuechange.SearchResult, transitionKey string, changeCtx issuechange.ChangeContext)
}

type DeliveryPurger interface {
	Purge(ctx context.Context, projectUUID string, keep int) (int, error)
	PurgeAll(ctx context.Context, keep int) (int, error)
}

type AnalysisBackfiller interface {
	BackfillAnalysisUUIDs(ctx context.Context) (core.BackfillResult, error)
}

type PurgeResult struct {
	ProjectUUID string
	Deleted     int
}

type FinishAnalysisCommand struct {
	finisher AnalysisFinisher
}

func NewFinishAnalysisCommand(finisher AnalysisFinisher) *FinishAnalysisCommand {
	return &FinishAnalysisCommand{finisher: finisher}
}

func (c *FinishAnalysisCommand) Execute(ctx context.Context, msg FinishAnalysisMessage) error {
	if c == nil || c.finisher == nil {
		return commandDependencyError("command: post analysis executor is required")
	}
	event, err := c.finisher.Finished(ctx, msg.Outcome)
	if err != nil {
		return err
	}
	storeResult(ctx, event)
	return nil
}

type ChangeIssueTypeCommand struct {
	notifier IssueChangeNotifier
}

func NewChangeIssueTypeCommand(notifier IssueChangeNotifier) *ChangeIssueTypeCommand {
	return &ChangeIssueTypeCommand{notifier: notifier}
}

func (c *ChangeIssueTypeCommand) Execute(ctx context.Context, msg ChangeIssueTypeMessage) error {
	if c == nil || c.notifier == nil {
		return commandDependencyError("command: issue change notifier is required")
	}
	c.notifier.OnTypeChange(ctx, msg.Result, msg.RuleType, msg.Change)
	return nil
}

type TransitionIssuesCommand struct {
	notifier IssueChangeNotifier
}

func NewTransitionIssuesCommand(notifier IssueChangeNotifier) *TransitionIssuesCommand {
	return &TransitionIssuesCommand{notifier: notifier}
}

func (c *TransitionIssuesCommand) Execute(ctx context.Context, msg TransitionIssuesMessage) error {
	if c == nil || c.notifier == nil {
		return commandDependencyError("command: issue change notifier is required")
	}
	c.notifier.OnTransition(ctx, msg.Result, msg.TransitionKey, msg.Change)
	return nil
}

type PurgeDeliveriesCommand struct {
	purger    DeliveryPurger
	retention int
}

func NewPurgeDeliveriesCommand(purger DeliveryPurger, retention int) *PurgeDeliveriesCommand {
	if retention <= 0 {
		retention = core.DefaultDeliveryRetention
	}
	return &PurgeDeliveriesCommand{purger: purger, retention: retention}
}

func (c *PurgeDeliveriesCommand) Execute(ctx context.Context, msg PurgeDeliveriesMessage) error {
	if c == nil || c.purger == nil {
		return commandDependencyError("command: delivery purger is required")
	}
	keep := msg.Keep
	if keep == 0 {
		keep = c.retention
	}
	projectUUID := strings.TrimSpace(msg.ProjectUUID)
	var (
		deleted int
		err     error
	)
	if projectUUID == "" {
		deleted, err = c.purger.PurgeAll(ctx, keep)
	} else {
		deleted, err = c.purger.Purge(ctx, projectUUID, keep)
	}
	if err != nil {
		return err
	}
	storeResult(ctx, PurgeResult{ProjectUUID: projectUUID, Deleted: deleted})
	return nil
}

type BackfillAnalysisIDsCommand struct {
	backfiller AnalysisBackfiller
}

func NewBackfillAnalysisIDsCommand(backfiller AnalysisBackfiller) *BackfillAnalysisIDsCommand {
	return &BackfillAnalysisIDsCommand{backfiller: backfiller}
}

func (c *BackfillAnalysisIDsCommand) Execute(ctx context.Context, _ BackfillAnalysisIDsMessage) error {
	if c == nil || c.backfiller == nil {
		return commandDependencyError("command: delivery backfiller is required")
	}
	out, err := c.backfiller.BackfillAnalysisUUIDs(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
