package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/uptrace/bun"
)

// ActivityStore reads and records finished compute engine tasks.
type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*ceActivityRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo, err := newRepository(db, ceActivityHandlers(), "activity")
	if err != nil {
		return nil, err
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

func (s *ActivityStore) Record(ctx context.Context, activity core.CeActivity) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	id := strings.TrimSpace(activity.UUID)
	if id == "" {
		return fmt.Errorf("sqlstore: activity uuid is required")
	}
	status := strings.TrimSpace(string(activity.Status))
	if status == "" {
		return fmt.Errorf("sqlstore: activity status is required")
	}
	taskType := strings.TrimSpace(activity.TaskType)
	if taskType == "" {
		taskType = core.CeTaskTypeReport
	}
	record := &ceActivityRecord{
		UUID:          id,
		TaskType:      taskType,
		ComponentUUID: optionalString(activity.ComponentUUID),
		AnalysisUUID:  optionalString(activity.AnalysisUUID),
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}
	if executedAt, ok := activity.ExecutedAt.Get(); ok {
		value := executedAt.UTC()
		record.ExecutedAt = &value
	}
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

func (s *ActivityStore) SelectByUUID(ctx context.Context, id string) (core.CeActivity, bool, error) {
	if s == nil || s.repo == nil {
		return core.CeActivity{}, false, fmt.Errorf("sqlstore: activity store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("uuid", "=", strings.TrimSpace(id)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.CeActivity{}, false, err
	}
	if len(records) == 0 {
		return core.CeActivity{}, false, nil
	}
	return activityToDomain(records[0]), true, nil
}

// SelectByAnalysisUUIDs returns the successful activities that produced the
// given analyses.
func (s *ActivityStore) SelectByAnalysisUUIDs(ctx context.Context, analysisUUIDs []string) ([]core.CeActivity, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: activity store is not configured")
	}
	ids := normalizeKeys(analysisUUIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", string(core.CeTaskStatusSuccess)),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.analysis_uuid IN (?)", bun.In(ids))
		}),
		repository.OrderBy("created_at DESC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.CeActivity, 0, len(records))
	for _, record := range records {
		out = append(out, activityToDomain(record))
	}
	return out, nil
}

func activityToDomain(record *ceActivityRecord) core.CeActivity {
	if record == nil {
		return core.CeActivity{}
	}
	return core.CeActivity{
		UUID:          record.UUID,
		TaskType:      record.TaskType,
		ComponentUUID: core.OptionalOf(record.ComponentUUID),
		AnalysisUUID:  core.OptionalOf(record.AnalysisUUID),
		Status:        core.CeTaskStatus(record.Status),
		ExecutedAt:    core.OptionalOf(record.ExecutedAt),
	}
}

func normalizeKeys(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
