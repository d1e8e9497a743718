package posttask

import (
	"context"
	"fmt"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-quality-hooks/core"
)

// Task reacts to a finished analysis. The event is shared between tasks and
// must not be modified.
type Task interface {
	Description() string
	Finished(ctx context.Context, event core.ProjectAnalysisEvent) error
}

type TaskFunc struct {
	Name string
	Fn   func(ctx context.Context, event core.ProjectAnalysisEvent) error
}

func (t TaskFunc) Description() string {
	return t.Name
}

func (t TaskFunc) Finished(ctx context.Context, event core.ProjectAnalysisEvent) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, event)
}

// Outcome is what the analysis pipeline knows once it stops.
type Outcome struct {
	CeTaskID          string
	AllStepsExecuted  bool
	Project           core.Project
	Branch            core.Optional[core.Branch]
	Analysis          core.Optional[core.AnalysisInfo]
	QualityGate       core.Optional[core.QualityGate]
	ScannerProperties map[string]string
}

type Executor struct {
	tasks  []Task
	logger core.Logger
}

type ExecutorOption func(*Executor)

func WithLogger(logger core.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewExecutor(tasks []Task, opts ...ExecutorOption) *Executor {
	executor := &Executor{logger: glog.Nop()}
	for _, task := range tasks {
		if task != nil {
			executor.tasks = append(executor.tasks, task)
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(executor)
	}
	return executor
}

// Event builds the immutable event handed to every task. The task succeeded
// only if every step ran, and only then is the quality gate exposed.
func (o Outcome) Event() (core.ProjectAnalysisEvent, error) {
	status := core.CeTaskStatusFailed
	if o.AllStepsExecuted {
		status = core.CeTaskStatusSuccess
	}
	event := core.ProjectAnalysisEvent{
		CeTask:            core.CeTask{ID: strings.TrimSpace(o.CeTaskID), Status: status},
		Project:           o.Project,
		Branch:            o.Branch,
		Analysis:          o.Analysis,
		ScannerProperties: maps.Clone(o.ScannerProperties),
	}
	if status == core.CeTaskStatusSuccess {
		event.QualityGate = o.QualityGate
	}
	if err := event.Validate(); err != nil {
		return core.ProjectAnalysisEvent{}, err
	}
	return event, nil
}

// Finished runs every task in order. A failing or panicking task is logged
// and the next one still runs.
func (e *Executor) Finished(ctx context.Context, outcome Outcome) (core.ProjectAnalysisEvent, error) {
	if e == nil {
		return core.ProjectAnalysisEvent{}, core.NotConfiguredError("posttask: executor is not configured")
	}
	event, err := outcome.Event()
	if err != nil {
		return core.ProjectAnalysisEvent{}, err
	}
	for _, task := range e.tasks {
		if err := e.run(ctx, task, event); err != nil {
			core.LogFields(ctx, e.logger, core.LogLevelError, "Failed to execute post analysis task", map[string]any{
				"task":         task.Description(),
				"ce_task_uuid": event.CeTask.ID,
				"project_uuid": event.Project.UUID,
				"error":        err.Error(),
			})
		}
	}
	return event, nil
}

func (e *Executor) run(ctx context.Context, task Task, event core.ProjectAnalysisEvent) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("posttask: task %q panicked: %v", task.Description(), recovered)
		}
	}()
	return task.Finished(ctx, event)
}
