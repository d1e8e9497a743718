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

type ComponentStore struct {
	db   *bun.DB
	repo repository.Repository[*componentRecord]
}

func NewComponentStore(db *bun.DB) (*ComponentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo, err := newRepository(db, componentHandlers(), "component")
	if err != nil {
		return nil, err
	}
	return &ComponentStore{db: db, repo: repo}, nil
}

func (s *ComponentStore) Insert(ctx context.Context, component core.Component) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: component store is not configured")
	}
	id := strings.TrimSpace(component.UUID)
	if id == "" || strings.TrimSpace(component.Key) == "" {
		return fmt.Errorf("sqlstore: component uuid and key are required")
	}
	projectUUID := strings.TrimSpace(component.ProjectUUID)
	if projectUUID == "" {
		projectUUID = id
	}
	record := &componentRecord{
		UUID:                  id,
		Key:                   strings.TrimSpace(component.Key),
		Name:                  component.Name,
		ProjectUUID:           projectUUID,
		MainBranchProjectUUID: optionalString(component.MainBranchProjectUUID),
		CreatedAt:             time.Now().UTC(),
	}
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

func (s *ComponentStore) SelectByUUIDs(ctx context.Context, uuids []string) ([]core.Component, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: component store is not configured")
	}
	ids := normalizeKeys(uuids)
	if len(ids) == 0 {
		return nil, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.uuid IN (?)", bun.In(ids))
		}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Component, 0, len(records))
	for _, record := range records {
		out = append(out, core.Component{
			UUID:                  record.UUID,
			Key:                   record.Key,
			Name:                  record.Name,
			ProjectUUID:           record.ProjectUUID,
			MainBranchProjectUUID: core.OptionalOf(record.MainBranchProjectUUID),
		})
	}
	return out, nil
}

type BranchStore struct {
	db   *bun.DB
	repo repository.Repository[*branchRecord]
}

func NewBranchStore(db *bun.DB) (*BranchStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo, err := newRepository(db, branchHandlers(), "branch")
	if err != nil {
		return nil, err
	}
	return &BranchStore{db: db, repo: repo}, nil
}

func (s *BranchStore) Insert(ctx context.Context, branch core.BranchRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: branch store is not configured")
	}
	if strings.TrimSpace(branch.UUID) == "" || strings.TrimSpace(branch.ProjectUUID) == "" {
		return fmt.Errorf("sqlstore: branch uuid and project uuid are required")
	}
	switch branch.Type {
	case core.BranchTypeLong, core.BranchTypeShort:
	default:
		return fmt.Errorf("sqlstore: invalid branch type %q", branch.Type)
	}
	record := &branchRecord{
		UUID:        strings.TrimSpace(branch.UUID),
		ProjectUUID: strings.TrimSpace(branch.ProjectUUID),
		Key:         strings.TrimSpace(branch.Key),
		Type:        string(branch.Type),
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

func (s *BranchStore) SelectByUUIDs(ctx context.Context, uuids []string) ([]core.BranchRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: branch store is not configured")
	}
	ids := normalizeKeys(uuids)
	if len(ids) == 0 {
		return nil, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.uuid IN (?)", bun.In(ids))
		}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.BranchRecord, 0, len(records))
	for _, record := range records {
		out = append(out, core.BranchRecord{
			UUID:        record.UUID,
			ProjectUUID: record.ProjectUUID,
			Key:         record.Key,
			Type:        core.BranchType(record.Type),
		})
	}
	return out, nil
}

const snapshotStatusProcessed = "P"

type SnapshotStore struct {
	db   *bun.DB
	repo repository.Repository[*snapshotRecord]
}

func NewSnapshotStore(db *bun.DB) (*SnapshotStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo, err := newRepository(db, snapshotHandlers(), "snapshot")
	if err != nil {
		return nil, err
	}
	return &SnapshotStore{db: db, repo: repo}, nil
}

// InsertLast records a processed analysis and marks it as the last one of
// its component.
func (s *SnapshotStore) InsertLast(ctx context.Context, snapshot core.Snapshot) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	componentUUID := strings.TrimSpace(snapshot.ComponentUUID)
	if strings.TrimSpace(snapshot.UUID) == "" || componentUUID == "" {
		return fmt.Errorf("sqlstore: snapshot uuid and component uuid are required")
	}
	createdAt := snapshot.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*snapshotRecord)(nil)).
			Set("islast = ?", false).
			Where("component_uuid = ?", componentUUID).
			Exec(ctx); err != nil {
			return err
		}
		record := &snapshotRecord{
			UUID:          strings.TrimSpace(snapshot.UUID),
			ComponentUUID: componentUUID,
			Status:        snapshotStatusProcessed,
			IsLast:        true,
			CreatedAt:     createdAt,
		}
		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
}

func (s *SnapshotStore) SelectLastAnalysesByRootComponentUUIDs(ctx context.Context, componentUUIDs []string) ([]core.Snapshot, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	ids := normalizeKeys(componentUUIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.islast = ?", true).
				Where("?TableAlias.component_uuid IN (?)", bun.In(ids))
		}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Snapshot, 0, len(records))
	for _, record := range records {
		out = append(out, core.Snapshot{
			UUID:          record.UUID,
			ComponentUUID: record.ComponentUUID,
			CreatedAt:     record.CreatedAt,
		})
	}
	return out, nil
}
