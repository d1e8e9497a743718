package gojob

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-quality-hooks/command"
	"github.com/goliatone/go-quality-hooks/core"

	"github.com/goliatone/go-job/queue"
)

type recordingPurger struct {
	project string
	keep    int
	all     bool
	err     error
}

func (p *recordingPurger) Purge(_ context.Context, projectUUID string, keep int) (int, error) {
	p.project, p.keep = projectUUID, keep
	return 1, p.err
}

func (p *recordingPurger) PurgeAll(_ context.Context, keep int) (int, error) {
	p.all, p.keep = true, keep
	return 1, p.err
}

type countingBackfiller struct {
	runs int
}

func (b *countingBackfiller) BackfillAnalysisUUIDs(context.Context) (core.BackfillResult, error) {
	b.runs++
	return core.BackfillResult{}, nil
}

func TestPurgeJob_IdempotencyKeyPerScope(t *testing.T) {
	if got := PurgeJob(" p1 ", 5).IdempotencyKey; got != JobIDPurgeDeliveries+":p1" {
		t.Fatalf("unexpected project key %q", got)
	}
	if got := PurgeJob("", 5).IdempotencyKey; got != JobIDPurgeDeliveries+":all" {
		t.Fatalf("unexpected global key %q", got)
	}
}

func TestRunner_RoutesMaintenanceJobs(t *testing.T) {
	ctx := context.Background()
	jobs := &memoryQueue{}
	purger := &recordingPurger{}
	backfiller := &countingBackfiller{}

	runner := NewRunner(NewQueueSource(jobs))
	runner.Handle(JobIDPurgeDeliveries, PurgeHandler(command.NewPurgeDeliveriesCommand(purger, 10)))
	runner.Handle(JobIDBackfillAnalysis, BackfillHandler(command.NewBackfillAnalysisIDsCommand(backfiller)))

	scheduler := NewScheduler(jobs)
	if _, err := scheduler.SchedulePurge(ctx, "p1", 0); err != nil {
		t.Fatalf("schedule purge: %v", err)
	}
	if _, err := scheduler.ScheduleBackfill(ctx); err != nil {
		t.Fatalf("schedule backfill: %v", err)
	}
	purge, backfill := jobs.pending[0], jobs.pending[1]

	for i := 0; i < 2; i++ {
		took, err := runner.RunOnce(ctx)
		if err != nil || !took {
			t.Fatalf("run %d: took=%v err=%v", i, took, err)
		}
	}
	if purger.project != "p1" || purger.keep != 10 {
		t.Fatalf("unexpected purge call: %#v", purger)
	}
	if backfiller.runs != 1 {
		t.Fatalf("expected one backfill run, got %d", backfiller.runs)
	}
	if !purge.acked || !backfill.acked {
		t.Fatalf("expected both jobs to be acked")
	}

	took, err := runner.RunOnce(ctx)
	if err != nil || took {
		t.Fatalf("expected empty queue, took=%v err=%v", took, err)
	}
}

func TestRunner_PurgeFromJSONParameters(t *testing.T) {
	ctx := context.Background()
	jobs := &memoryQueue{}
	purger := &recordingPurger{}
	runner := NewRunner(NewQueueSource(jobs))
	runner.Handle(JobIDPurgeDeliveries, PurgeHandler(command.NewPurgeDeliveriesCommand(purger, 10)))

	msg := PurgeJob("", 0)
	msg.Parameters[ParamKeep] = float64(3)
	if err := NewScheduler(jobs).Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := runner.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !purger.all || purger.keep != 3 {
		t.Fatalf("expected purge all keeping 3, got %#v", purger)
	}
}

func TestRunner_RequeuesFailuresAndDeadLettersUnknownJobs(t *testing.T) {
	ctx := context.Background()
	jobs := &memoryQueue{}
	purger := &recordingPurger{err: errors.New("db down")}
	runner := NewRunner(NewQueueSource(jobs))
	runner.Handle(JobIDPurgeDeliveries, PurgeHandler(command.NewPurgeDeliveriesCommand(purger, 10)))

	scheduler := NewScheduler(jobs)
	if _, err := scheduler.SchedulePurge(ctx, "p1", 0); err != nil {
		t.Fatalf("schedule purge: %v", err)
	}
	if err := scheduler.Enqueue(ctx, &core.JobExecutionMessage{JobID: "quality_hooks.unknown"}); err != nil {
		t.Fatalf("enqueue unknown: %v", err)
	}
	failed, unknown := jobs.pending[0], jobs.pending[1]

	for i := 0; i < 2; i++ {
		if _, err := runner.RunOnce(ctx); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if failed.nacked == nil || failed.nacked.Disposition != queue.NackDispositionRetry || failed.nacked.Delay != runner.RetryDelay {
		t.Fatalf("expected failed job to be requeued, got %#v", failed.nacked)
	}
	if unknown.nacked == nil || unknown.nacked.Disposition != queue.NackDispositionDeadLetter {
		t.Fatalf("expected unknown job to be dead lettered, got %#v", unknown.nacked)
	}
}

func TestIntParam_RejectsGarbage(t *testing.T) {
	if _, err := intParam(map[string]any{"keep": "ten"}, "keep"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := intParam(map[string]any{"keep": true}, "keep"); err == nil {
		t.Fatalf("expected type error")
	}
	if got, err := intParam(map[string]any{"keep": " 4 "}, "keep"); err != nil || got != 4 {
		t.Fatalf("expected 4, got %d (%v)", got, err)
	}
}
