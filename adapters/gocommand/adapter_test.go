package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	qhcommand "github.com/goliatone/go-quality-hooks/command"
	"github.com/goliatone/go-quality-hooks/core"
	qhquery "github.com/goliatone/go-quality-hooks/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "quality_hooks.test.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "quality_hooks.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "quality_hooks.test.test" }

type queueMessage struct{}

func (queueMessage) Type() string { return "quality_hooks.test.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("quality_hooks.test.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

type memoryDeliveries struct {
	purged map[string]int
}

func (m *memoryDeliveries) Purge(_ context.Context, projectUUID string, keep int) (int, error) {
	if m.purged == nil {
		m.purged = map[string]int{}
	}
	m.purged[projectUUID] = keep
	return 1, nil
}

func (m *memoryDeliveries) PurgeAll(_ context.Context, keep int) (int, error) {
	return m.Purge(context.Background(), "*", keep)
}

func (m *memoryDeliveries) Get(_ context.Context, id string) (core.DeliveryRecord, error) {
	return core.DeliveryRecord{ID: id}, nil
}

func (m *memoryDeliveries) List(_ context.Context, filter core.DeliveryFilter) (core.DeliveryPage, error) {
	return core.DeliveryPage{
		Items: []core.DeliveryRecord{{ID: "d1", ProjectUUID: filter.ProjectUUID}},
		Page:  1,
		Total: 1,
	}, nil
}

func TestRegisterHandlers_DispatchesQualityHooksMessages(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	deliveries := &memoryDeliveries{}

	subscriptions, err := RegisterHandlers(adapter, Handlers{
		PurgeDeliveries: qhcommand.NewPurgeDeliveriesCommand(deliveries, 10),
		ListDeliveries:  qhquery.NewListDeliveriesQuery(deliveries),
	})
	if err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	t.Cleanup(func() {
		for _, subscription := range subscriptions {
			subscription.Unsubscribe()
		}
	})
	if len(subscriptions) != 2 {
		t.Fatalf("expected two subscriptions, got %d", len(subscriptions))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := Dispatch(context.Background(), qhcommand.PurgeDeliveriesMessage{ProjectUUID: "p1"}); err != nil {
		t.Fatalf("dispatch purge: %v", err)
	}
	if deliveries.purged["p1"] != 10 {
		t.Fatalf("expected purge with configured retention, got %v", deliveries.purged)
	}

	page, err := Query[qhquery.ListDeliveriesMessage, core.DeliveryPage](context.Background(), qhquery.ListDeliveriesMessage{
		Filter: core.DeliveryFilter{ProjectUUID: "p1"},
	})
	if err != nil {
		t.Fatalf("query deliveries: %v", err)
	}
	if page.Total != 1 || page.Items[0].ProjectUUID != "p1" {
		t.Fatalf("unexpected page: %#v", page)
	}
}

func TestRegisterHandlers_RequiresRegistry(t *testing.T) {
	_, err := RegisterHandlers(nil, Handlers{
		PurgeDeliveries: qhcommand.NewPurgeDeliveriesCommand(&memoryDeliveries{}, 10),
	})
	if err == nil {
		t.Fatalf("expected registry error")
	}
}
