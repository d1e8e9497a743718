package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type webhookDeliveryRecord struct {
	bun.BaseModel `bun:"table:webhook_deliveries,alias:wd"`

	UUID         string    `bun:"uuid,pk"`
	ProjectUUID  string    `bun:"project_uuid,notnull"`
	CeTaskUUID   *string   `bun:"ce_task_uuid"`
	AnalysisUUID *string   `bun:"analysis_uuid"`
	Name         string    `bun:"name,notnull"`
	URL          string    `bun:"url,notnull"`
	Success      bool      `bun:"success,notnull"`
	HTTPStatus   *int      `bun:"http_status"`
	DurationMs   *int64    `bun:"duration_ms"`
	ErrorMessage *string   `bun:"error_message"`
	Payload      string    `bun:"payload,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type ceActivityRecord struct {
	bun.BaseModel `bun:"table:ce_activity,alias:ca"`

	UUID          string     `bun:"uuid,pk"`
	TaskType      string     `bun:"task_type,notnull"`
	ComponentUUID *string    `bun:"component_uuid"`
	AnalysisUUID  *string    `bun:"analysis_uuid"`
	Status        string     `bun:"status,notnull"`
	ExecutedAt    *time.Time `bun:"executed_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type componentRecord struct {
	bun.BaseModel `bun:"table:components,alias:c"`

	UUID                  string    `bun:"uuid,pk"`
	Key                   string    `bun:"component_key,notnull"`
	Name                  string    `bun:"name,notnull"`
	ProjectUUID           string    `bun:"project_uuid,notnull"`
	MainBranchProjectUUID *string   `bun:"main_branch_project_uuid"`
	CreatedAt             time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type branchRecord struct {
	bun.BaseModel `bun:"table:project_branches,alias:pb"`

	UUID        string    `bun:"uuid,pk"`
	ProjectUUID string    `bun:"project_uuid,notnull"`
	Key         string    `bun:"branch_key,notnull"`
	Type        string    `bun:"branch_type,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type snapshotRecord struct {
	bun.BaseModel `bun:"table:snapshots,alias:s"`

	UUID          string    `bun:"uuid,pk"`
	ComponentUUID string    `bun:"component_uuid,notnull"`
	Status        string    `bun:"status,notnull"`
	IsLast        bool      `bun:"islast,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type propertyRecord struct {
	bun.BaseModel `bun:"table:properties,alias:p"`

	ID            string    `bun:"id,pk"`
	Key           string    `bun:"prop_key,notnull"`
	ComponentUUID *string   `bun:"component_uuid"`
	Value         string    `bun:"text_value,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
