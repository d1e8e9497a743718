package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/goliatone/go-quality-hooks/settings"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PropertyStore persists global and project settings. A property with no
// component uuid is global.
type PropertyStore struct {
	db   *bun.DB
	repo repository.Repository[*propertyRecord]
}

func NewPropertyStore(db *bun.DB) (*PropertyStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo, err := newRepository(db, propertyHandlers(), "property")
	if err != nil {
		return nil, err
	}
	return &PropertyStore{db: db, repo: repo}, nil
}

// Set replaces the value of key for the component, or globally when
// componentUUID is empty.
func (s *PropertyStore) Set(ctx context.Context, componentUUID string, key string, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: property store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: property key is required")
	}
	componentUUID = strings.TrimSpace(componentUUID)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := scopeDelete(tx.NewDelete().Model((*propertyRecord)(nil)), componentUUID).
			Where("prop_key = ?", key).
			Exec(ctx); err != nil {
			return err
		}
		record := &propertyRecord{
			ID:            uuid.NewString(),
			Key:           key,
			ComponentUUID: stringPtr(componentUUID),
			Value:         value,
			CreatedAt:     time.Now().UTC(),
		}
		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
}

// Settings merges the global properties with those of projectUUID.
func (s *PropertyStore) Settings(ctx context.Context, projectUUID string) (core.Settings, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: property store is not configured")
	}
	global, err := s.values(ctx, "")
	if err != nil {
		return nil, err
	}
	project := map[string]string{}
	if projectUUID = strings.TrimSpace(projectUUID); projectUUID != "" {
		project, err = s.values(ctx, projectUUID)
		if err != nil {
			return nil, err
		}
	}
	return settings.Merge(global, project)
}

func (s *PropertyStore) values(ctx context.Context, componentUUID string) (map[string]string, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if componentUUID == "" {
				return q.Where("?TableAlias.component_uuid IS NULL")
			}
			return q.Where("?TableAlias.component_uuid = ?", componentUUID)
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(records))
	for _, record := range records {
		values[record.Key] = record.Value
	}
	return values, nil
}

func scopeDelete(q *bun.DeleteQuery, componentUUID string) *bun.DeleteQuery {
	if componentUUID == "" {
		return q.Where("component_uuid IS NULL")
	}
	return q.Where("component_uuid = ?", componentUUID)
}
