package gojob

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-quality-hooks/command"
	"github.com/goliatone/go-quality-hooks/core"
)

const (
	JobIDPurgeDeliveries  = "quality_hooks.deliveries.purge"
	JobIDBackfillAnalysis = "quality_hooks.deliveries.backfill_analysis"

	ParamProjectUUID = "project_uuid"
	ParamKeep        = "keep"
)

// PurgeJob builds the message trimming the delivery history of one project,
// or of every project when projectUUID is empty.
func PurgeJob(projectUUID string, keep int) *core.JobExecutionMessage {
	projectUUID = strings.TrimSpace(projectUUID)
	scope := projectUUID
	if scope == "" {
		scope = "all"
	}
	return &core.JobExecutionMessage{
		JobID:          JobIDPurgeDeliveries,
		ScriptPath:     JobIDPurgeDeliveries,
		Parameters:     map[string]any{ParamProjectUUID: projectUUID, ParamKeep: keep},
		IdempotencyKey: JobIDPurgeDeliveries + ":" + scope,
		DedupPolicy:    string(job.DedupPolicyDrop),
	}
}

func BackfillJob() *core.JobExecutionMessage {
	return &core.JobExecutionMessage{
		JobID:          JobIDBackfillAnalysis,
		ScriptPath:     JobIDBackfillAnalysis,
		Parameters:     map[string]any{},
		IdempotencyKey: JobIDBackfillAnalysis,
		DedupPolicy:    string(job.DedupPolicyDrop),
	}
}

type JobHandler func(ctx context.Context, msg *core.JobExecutionMessage) error

// PurgeHandler runs purge jobs through the purge command.
func PurgeHandler(cmd *command.PurgeDeliveriesCommand) JobHandler {
	return func(ctx context.Context, msg *core.JobExecutionMessage) error {
		keep, err := intParam(msg.Parameters, ParamKeep)
		if err != nil {
			return err
		}
		projectUUID, _ := msg.Parameters[ParamProjectUUID].(string)
		out := command.PurgeDeliveriesMessage{ProjectUUID: projectUUID, Keep: keep}
		if err := out.Validate(); err != nil {
			return err
		}
		return cmd.Execute(ctx, out)
	}
}

func BackfillHandler(cmd *command.BackfillAnalysisIDsCommand) JobHandler {
	return func(ctx context.Context, _ *core.JobExecutionMessage) error {
		return cmd.Execute(ctx, command.BackfillAnalysisIDsMessage{})
	}
}

// Runner pulls maintenance jobs and routes them by job id. Failed jobs are
// requeued after RetryDelay; unknown jobs are dead lettered.
type Runner struct {
	dequeuer   core.JobDequeuer
	handlers   map[string]JobHandler
	logger     core.Logger
	RetryDelay time.Duration
}

type RunnerOption func(*Runner)

func WithRunnerLogger(logger core.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(dequeuer core.JobDequeuer, opts ...RunnerOption) *Runner {
	runner := &Runner{
		dequeuer:   dequeuer,
		handlers:   map[string]JobHandler{},
		logger:     glog.Nop(),
		RetryDelay: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(runner)
	}
	return runner
}

func (r *Runner) Handle(jobID string, handler JobHandler) {
	if r == nil || handler == nil {
		return
	}
	r.handlers[strings.TrimSpace(jobID)] = handler
}

// RunOnce processes at most one job. It reports whether a job was taken.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	if r == nil || r.dequeuer == nil {
		return false, fmt.Errorf("gojob: runner dequeuer is not configured")
	}
	delivery, err := r.dequeuer.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if delivery == nil {
		return false, nil
	}
	msg := delivery.Message()
	if msg == nil {
		return true, delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "empty message"})
	}

	handler, ok := r.handlers[msg.JobID]
	if !ok {
		core.LogFields(ctx, r.logger, core.LogLevelWarn, "Unknown maintenance job", map[string]any{"job_id": msg.JobID})
		return true, delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "unknown job " + msg.JobID})
	}

	startedAt := time.Now()
	if err := handler(ctx, msg); err != nil {
		core.LogFields(ctx, r.logger, core.LogLevelError, "Maintenance job failed", map[string]any{
			"job_id": msg.JobID,
			"error":  err.Error(),
		})
		return true, delivery.Nack(ctx, core.JobNackOptions{Requeue: true, Delay: r.RetryDelay, Reason: err.Error()})
	}
	core.LogFields(ctx, r.logger, core.LogLevelInfo, "Maintenance job completed", map[string]any{
		"job_id":      msg.JobID,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	})
	return true, delivery.Ack(ctx)
}

// intParam reads an integer parameter that may have gone through a JSON
// round trip.
func intParam(params map[string]any, key string) (int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, nil
	}
	switch value := raw.(type) {
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case float64:
		return int(value), nil
	case string:
		if strings.TrimSpace(value) == "" {
			return 0, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("gojob: parameter %s must be an integer: %w", key, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("gojob: parameter %s has unsupported type %T", key, raw)
	}
}
