package gojob

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/goliatone/go-quality-hooks/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

// Scheduler puts maintenance jobs on a go-job queue.
type Scheduler struct {
	enqueuer queue.Enqueuer
}

func NewScheduler(enqueuer queue.Enqueuer) *Scheduler {
	return &Scheduler{enqueuer: enqueuer}
}

func (s *Scheduler) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	_, err := s.enqueue(ctx, msg)
	return err
}

// SchedulePurge enqueues a history purge and returns the queue dispatch id.
func (s *Scheduler) SchedulePurge(ctx context.Context, projectUUID string, keep int) (string, error) {
	if keep < 0 {
		return "", fmt.Errorf("gojob: keep must not be negative")
	}
	return s.enqueue(ctx, PurgeJob(projectUUID, keep))
}

func (s *Scheduler) ScheduleBackfill(ctx context.Context) (string, error) {
	return s.enqueue(ctx, BackfillJob())
}

func (s *Scheduler) enqueue(ctx context.Context, msg *core.JobExecutionMessage) (string, error) {
	if s == nil || s.enqueuer == nil {
		return "", fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil || strings.TrimSpace(msg.JobID) == "" {
		return "", fmt.Errorf("gojob: job id is required")
	}
	receipt, err := s.enqueuer.Enqueue(ctx, toExecutionMessage(msg))
	if err != nil {
		return "", err
	}
	return receipt.DispatchID, nil
}

// QueueSource feeds a Runner from a go-job queue.
type QueueSource struct {
	dequeuer queue.Dequeuer
}

func NewQueueSource(dequeuer queue.Dequeuer) *QueueSource {
	return &QueueSource{dequeuer: dequeuer}
}

func (s *QueueSource) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if s == nil || s.dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := s.dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, nil
	}
	return queueDelivery{delivery: delivery}, nil
}

type queueDelivery struct {
	delivery queue.Delivery
}

func (d queueDelivery) Message() *core.JobExecutionMessage {
	return fromExecutionMessage(d.delivery.Message())
}

func (d queueDelivery) Ack(ctx context.Context) error {
	return d.delivery.Ack(ctx)
}

func (d queueDelivery) Nack(ctx context.Context, opts core.JobNackOptions) error {
	return d.delivery.Nack(ctx, toNackOptions(opts))
}

// toNackOptions maps the runner's decision onto a go-job disposition. Dead
// lettering wins over a retry request; a nack asking for neither fails the
// dispatch.
func toNackOptions(opts core.JobNackOptions) queue.NackOptions {
	disposition := queue.NackDispositionFailed
	switch {
	case opts.DeadLetter:
		disposition = queue.NackDispositionDeadLetter
	case opts.Requeue:
		disposition = queue.NackDispositionRetry
	}
	delay := opts.Delay
	if delay < 0 || disposition != queue.NackDispositionRetry {
		delay = 0
	}
	return queue.NackOptions{
		Disposition: disposition,
		Delay:       delay,
		Reason:      strings.TrimSpace(opts.Reason),
	}
}

func toExecutionMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		ScriptPath:     strings.TrimSpace(msg.ScriptPath),
		Parameters:     cloneParams(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

func fromExecutionMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		ScriptPath:     strings.TrimSpace(msg.ScriptPath),
		Parameters:     cloneParams(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

func cloneParams(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	return maps.Clone(in)
}

var (
	_ core.JobEnqueuer = (*Scheduler)(nil)
	_ core.JobDequeuer = (*QueueSource)(nil)
	_ core.JobDelivery = queueDelivery{}
)
