package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	qhcommand "github.com/goliatone/go-quality-hooks/command"
	"github.com/goliatone/go-quality-hooks/core"
	qhquery "github.com/goliatone/go-quality-hooks/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeCommandFunc[T any](handler command.CommandFunc[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func SubscribeQueryFunc[T any, R any](qry command.QueryFunc[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Handlers are the quality hooks commands and queries to expose. Nil entries
// are skipped.
type Handlers struct {
	FinishAnalysis      *qhcommand.FinishAnalysisCommand
	ChangeIssueType     *qhcommand.ChangeIssueTypeCommand
	TransitionIssues    *qhcommand.TransitionIssuesCommand
	PurgeDeliveries     *qhcommand.PurgeDeliveriesCommand
	BackfillAnalysisIDs *qhcommand.BackfillAnalysisIDsCommand
	GetDelivery         *qhquery.GetDeliveryQuery
	ListDeliveries      *qhquery.ListDeliveriesQuery
}

// RegisterHandlers subscribes every handler to the dispatcher and records it
// in the registry. On failure the subscriptions made so far are removed.
func RegisterHandlers(
	adapter *RegistryAdapter,
	handlers Handlers,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	var subscriptions []commanddispatcher.Subscription
	register := func(subscription commanddispatcher.Subscription, err error) error {
		if err != nil {
			for _, existing := range subscriptions {
				existing.Unsubscribe()
			}
			subscriptions = nil
			return err
		}
		subscriptions = append(subscriptions, subscription)
		return nil
	}

	if handlers.FinishAnalysis != nil {
		if err := register(RegisterAndSubscribe(adapter, command.Commander[qhcommand.FinishAnalysisMessage](handlers.FinishAnalysis), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.ChangeIssueType != nil {
		if err := register(RegisterAndSubscribe(adapter, command.Commander[qhcommand.ChangeIssueTypeMessage](handlers.ChangeIssueType), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.TransitionIssues != nil {
		if err := register(RegisterAndSubscribe(adapter, command.Commander[qhcommand.TransitionIssuesMessage](handlers.TransitionIssues), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.PurgeDeliveries != nil {
		if err := register(RegisterAndSubscribe(adapter, command.Commander[qhcommand.PurgeDeliveriesMessage](handlers.PurgeDeliveries), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.BackfillAnalysisIDs != nil {
		if err := register(RegisterAndSubscribe(adapter, command.Commander[qhcommand.BackfillAnalysisIDsMessage](handlers.BackfillAnalysisIDs), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.GetDelivery != nil {
		if err := register(RegisterAndSubscribeQuery(adapter, command.Querier[qhquery.GetDeliveryMessage, core.DeliveryRecord](handlers.GetDelivery), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.ListDeliveries != nil {
		if err := register(RegisterAndSubscribeQuery(adapter, command.Querier[qhquery.ListDeliveriesMessage, core.DeliveryPage](handlers.ListDeliveries), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	return subscriptions, nil
}
