package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultDeliveriesPerPage = 25

type WebhookDeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookDeliveryRecord]
}

func NewWebhookDeliveryStore(db *bun.DB) (*WebhookDeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo, err := newRepository(db, webhookDeliveryHandlers(), "webhook delivery")
	if err != nil {
		return nil, err
	}
	return &WebhookDeliveryStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *WebhookDeliveryStore) Persist(ctx context.Context, delivery core.WebhookDelivery) (core.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	projectUUID := strings.TrimSpace(delivery.Webhook.ProjectUUID)
	if projectUUID == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery project uuid is required")
	}
	createdAt := delivery.At.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := &webhookDeliveryRecord{
		UUID:         uuid.NewString(),
		ProjectUUID:  projectUUID,
		CeTaskUUID:   optionalString(delivery.Webhook.CeTaskUUID),
		AnalysisUUID: optionalString(delivery.Webhook.AnalysisUUID),
		Name:         delivery.Webhook.Name,
		URL:          delivery.Webhook.URL,
		Success:      delivery.Success(),
		HTTPStatus:   delivery.HTTPStatus.Ptr(),
		ErrorMessage: delivery.ErrorMessage.Ptr(),
		Payload:      delivery.Payload.JSON,
		CreatedAt:    createdAt,
	}
	if duration, ok := delivery.Duration.Get(); ok {
		ms := duration.Milliseconds()
		record.DurationMs = &ms
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.DeliveryRecord{}, err
	}
	return webhookDeliveryToDomain(created), nil
}

// Purge deletes all but the keep most recent deliveries of projectUUID.
func (s *WebhookDeliveryStore) Purge(ctx context.Context, projectUUID string, keep int) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	projectUUID = strings.TrimSpace(projectUUID)
	if projectUUID == "" {
		return 0, fmt.Errorf("sqlstore: project uuid is required")
	}
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.NewRaw(
		`DELETE FROM webhook_deliveries WHERE project_uuid = ? AND uuid NOT IN (
			SELECT uuid FROM webhook_deliveries WHERE project_uuid = ?
			ORDER BY created_at DESC, uuid DESC LIMIT ?
		)`,
		projectUUID,
		projectUUID,
		keep,
	).Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// PurgeAll applies Purge to every project with history.
func (s *WebhookDeliveryStore) PurgeAll(ctx context.Context, keep int) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	var projects []string
	if err := s.db.NewSelect().
		Model((*webhookDeliveryRecord)(nil)).
		ColumnExpr("DISTINCT project_uuid").
		Scan(ctx, &projects); err != nil {
		return 0, err
	}
	deleted := 0
	for _, projectUUID := range projects {
		count, err := s.Purge(ctx, projectUUID, keep)
		deleted += count
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func (s *WebhookDeliveryStore) Get(ctx context.Context, id string) (core.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("uuid", "=", strings.TrimSpace(id)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.DeliveryRecord{}, err
	}
	if len(records) == 0 {
		return core.DeliveryRecord{}, core.NotFoundError(fmt.Sprintf("sqlstore: webhook delivery %q not found", id))
	}
	return webhookDeliveryToDomain(records[0]), nil
}

func (s *WebhookDeliveryStore) List(ctx context.Context, filter core.DeliveryFilter) (core.DeliveryPage, error) {
	if s == nil || s.repo == nil {
		return core.DeliveryPage{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultDeliveriesPerPage
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if projectUUID := strings.TrimSpace(filter.ProjectUUID); projectUUID != "" {
		selectors = append(selectors, repository.SelectBy("project_uuid", "=", projectUUID))
	}
	if ceTaskUUID := strings.TrimSpace(filter.CeTaskUUID); ceTaskUUID != "" {
		selectors = append(selectors, repository.SelectBy("ce_task_uuid", "=", ceTaskUUID))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.DeliveryPage{}, err
	}
	items := make([]core.DeliveryRecord, 0, len(records))
	for _, record := range records {
		items = append(items, webhookDeliveryToDomain(record))
	}
	return core.DeliveryPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// BackfillAnalysisUUIDs fills analysis_uuid on deliveries recorded before
// the column existed, from the activity of their task. Deliveries without an
// analysis whose task is unknown are deleted; those of known tasks that
// produced no analysis (failed tasks) are kept. Running it again is a no-op.
func (s *WebhookDeliveryStore) BackfillAnalysisUUIDs(ctx context.Context) (core.BackfillResult, error) {
	if s == nil || s.db == nil {
		return core.BackfillResult{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	result := core.BackfillResult{}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err := tx.NewRaw(
			`UPDATE webhook_deliveries SET analysis_uuid = (
				SELECT ca.analysis_uuid FROM ce_activity ca
				WHERE ca.uuid = webhook_deliveries.ce_task_uuid AND ca.analysis_uuid IS NOT NULL
			)
			WHERE analysis_uuid IS NULL AND ce_task_uuid IS NOT NULL AND EXISTS (
				SELECT 1 FROM ce_activity ca
				WHERE ca.uuid = webhook_deliveries.ce_task_uuid AND ca.analysis_uuid IS NOT NULL
			)`,
		).Exec(ctx)
		if err != nil {
			return err
		}
		affected, _ := updated.RowsAffected()
		result.Updated = int(affected)

		deleted, err := tx.NewRaw(
			`DELETE FROM webhook_deliveries
			WHERE analysis_uuid IS NULL AND (ce_task_uuid IS NULL OR NOT EXISTS (
				SELECT 1 FROM ce_activity ca WHERE ca.uuid = webhook_deliveries.ce_task_uuid
			))`,
		).Exec(ctx)
		if err != nil {
			return err
		}
		affected, _ = deleted.RowsAffected()
		result.Deleted = int(affected)
		return nil
	})
	if err != nil {
		return core.BackfillResult{}, err
	}
	return result, nil
}

func webhookDeliveryToDomain(record *webhookDeliveryRecord) core.DeliveryRecord {
	if record == nil {
		return core.DeliveryRecord{}
	}
	return core.DeliveryRecord{
		ID:           record.UUID,
		ProjectUUID:  record.ProjectUUID,
		CeTaskUUID:   core.OptionalOf(record.CeTaskUUID),
		AnalysisUUID: core.OptionalOf(record.AnalysisUUID),
		Name:         record.Name,
		URL:          record.URL,
		Success:      record.Success,
		HTTPStatus:   core.OptionalOf(record.HTTPStatus),
		DurationMs:   core.OptionalOf(record.DurationMs),
		ErrorMessage: core.OptionalOf(record.ErrorMessage),
		Payload:      record.Payload,
		CreatedAt:    record.CreatedAt,
	}
}

func optionalString(value core.Optional[string]) *string {
	text, ok := value.Get()
	if !ok {
		return nil
	}
	return stringPtr(text)
}

func stringPtr(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
