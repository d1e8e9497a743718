package qualityhooks

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-quality-hooks/adapters/gocommand"
	"github.com/goliatone/go-quality-hooks/adapters/gojob"
	qhcommand "github.com/goliatone/go-quality-hooks/command"
	"github.com/goliatone/go-quality-hooks/core"
	qhquery "github.com/goliatone/go-quality-hooks/query"
)

type Commands struct {
	FinishAnalysis      *qhcommand.FinishAnalysisCommand
	ChangeIssueType     *qhcommand.ChangeIssueTypeCommand
	TransitionIssues    *qhcommand.TransitionIssuesCommand
	PurgeDeliveries     *qhcommand.PurgeDeliveriesCommand
	BackfillAnalysisIDs *qhcommand.BackfillAnalysisIDsCommand
}

type Queries struct {
	GetDelivery    *qhquery.GetDeliveryQuery
	ListDeliveries *qhquery.ListDeliveriesQuery
}

func buildHandlers(m *Module) (Commands, Queries) {
	deliveries := m.stores.DeliveryStore()
	commands := Commands{
		FinishAnalysis:      qhcommand.NewFinishAnalysisCommand(m.executor),
		ChangeIssueType:     qhcommand.NewChangeIssueTypeCommand(m.notifier),
		TransitionIssues:    qhcommand.NewTransitionIssuesCommand(m.notifier),
		PurgeDeliveries:     qhcommand.NewPurgeDeliveriesCommand(deliveries, m.config.Webhooks.DeliveryRetention),
		BackfillAnalysisIDs: qhcommand.NewBackfillAnalysisIDsCommand(deliveries),
	}
	queries := Queries{
		GetDelivery:    qhquery.NewGetDeliveryQuery(deliveries),
		ListDeliveries: qhquery.NewListDeliveriesQuery(deliveries),
	}
	return commands, queries
}

func (m *Module) Commands() Commands {
	if m == nil {
		return Commands{}
	}
	return m.commands
}

func (m *Module) Queries() Queries {
	if m == nil {
		return Queries{}
	}
	return m.queries
}

// RegisterCommands exposes every command and query through go-command. The
// returned subscriptions stay active until unsubscribed.
func (m *Module) RegisterCommands(adapter *gocommand.RegistryAdapter, runnerOpts ...runner.Option) ([]commanddispatcher.Subscription, error) {
	if m == nil {
		return nil, core.NotConfiguredError("qualityhooks: module is nil")
	}
	if adapter == nil {
		return nil, fmt.Errorf("qualityhooks: registry adapter is required")
	}
	return gocommand.RegisterHandlers(adapter, gocommand.Handlers{
		FinishAnalysis:      m.commands.FinishAnalysis,
		ChangeIssueType:     m.commands.ChangeIssueType,
		TransitionIssues:    m.commands.TransitionIssues,
		PurgeDeliveries:     m.commands.PurgeDeliveries,
		BackfillAnalysisIDs: m.commands.BackfillAnalysisIDs,
		GetDelivery:         m.queries.GetDelivery,
		ListDeliveries:      m.queries.ListDeliveries,
	}, runnerOpts...)
}

// MaintenanceRunner returns a job runner draining the given go-job queue and
// handling the purge and backfill jobs against this module's stores.
func (m *Module) MaintenanceRunner(dequeuer queue.Dequeuer) *gojob.Runner {
	if m == nil {
		return nil
	}
	jobs := gojob.NewRunner(gojob.NewQueueSource(dequeuer), gojob.WithRunnerLogger(m.loggers.Jobs))
	jobs.Handle(gojob.JobIDPurgeDeliveries, gojob.PurgeHandler(m.commands.PurgeDeliveries))
	jobs.Handle(gojob.JobIDBackfillAnalysis, gojob.BackfillHandler(m.commands.BackfillAnalysisIDs))
	return jobs
}

func (m *Module) MaintenanceScheduler(enqueuer queue.Enqueuer) *gojob.Scheduler {
	if m == nil {
		return nil
	}
	return gojob.NewScheduler(enqueuer)
}
