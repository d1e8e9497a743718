package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Settings is a read-only view over global and project configuration.
type Settings interface {
	Get(key string) (string, bool)
	GetStringArray(key string) []string
}

// SettingsProvider returns the effective settings of a project, global values
// overridden by project values.
type SettingsProvider interface {
	Settings(ctx context.Context, projectUUID string) (Settings, error)
}

type DeliveryStore interface {
	Persist(ctx context.Context, delivery WebhookDelivery) (DeliveryRecord, error)
	// Purge keeps the keep most recent deliveries of the project.
	Purge(ctx context.Context, projectUUID string, keep int) (int, error)
}

type DeliveryReader interface {
	Get(ctx context.Context, id string) (DeliveryRecord, error)
	List(ctx context.Context, filter DeliveryFilter) (DeliveryPage, error)
}

type ActivityReader interface {
	SelectByUUID(ctx context.Context, uuid string) (CeActivity, bool, error)
	SelectByAnalysisUUIDs(ctx context.Context, analysisUUIDs []string) ([]CeActivity, error)
}

type ComponentReader interface {
	SelectByUUIDs(ctx context.Context, uuids []string) ([]Component, error)
}

type BranchReader interface {
	SelectByUUIDs(ctx context.Context, uuids []string) ([]BranchRecord, error)
}

type SnapshotReader interface {
	SelectLastAnalysesByRootComponentUUIDs(ctx context.Context, componentUUIDs []string) ([]Snapshot, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}
