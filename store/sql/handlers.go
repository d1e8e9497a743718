package sqlstore

import (
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// newRepository builds a repository with no default list pagination, so key
// set and scope lookups return every matching row. Paged reads pass
// SelectPaginate themselves.
func newRepository[T any](db *bun.DB, handlers repository.ModelHandlers[T], name string) (repository.Repository[T], error) {
	repo := repository.NewRepositoryWithConfig(db, handlers, nil)
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid %s repository wiring: %w", name, err)
		}
	}
	return repo, nil
}

// keyHandlers builds repository handlers for records keyed by a string
// column. Keys that are not RFC 4122 uuids report uuid.Nil as their ID.
func keyHandlers[T comparable](
	column string,
	newRecord func() T,
	getKey func(T) string,
	setKey func(T, string),
) repository.ModelHandlers[T] {
	var zero T
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(record T) uuid.UUID {
			if record == zero {
				return uuid.Nil
			}
			return parseUUID(getKey(record))
		},
		SetID: func(record T, id uuid.UUID) {
			if record == zero {
				return
			}
			setKey(record, id.String())
		},
		GetIdentifier: func() string {
			return column
		},
		GetIdentifierValue: func(record T) string {
			if record == zero {
				return ""
			}
			return strings.TrimSpace(getKey(record))
		},
	}
}

func webhookDeliveryHandlers() repository.ModelHandlers[*webhookDeliveryRecord] {
	return keyHandlers("uuid",
		func() *webhookDeliveryRecord { return &webhookDeliveryRecord{} },
		func(record *webhookDeliveryRecord) string { return record.UUID },
		func(record *webhookDeliveryRecord, key string) { record.UUID = key },
	)
}

func ceActivityHandlers() repository.ModelHandlers[*ceActivityRecord] {
	return keyHandlers("uuid",
		func() *ceActivityRecord { return &ceActivityRecord{} },
		func(record *ceActivityRecord) string { return record.UUID },
		func(record *ceActivityRecord, key string) { record.UUID = key },
	)
}

func componentHandlers() repository.ModelHandlers[*componentRecord] {
	return keyHandlers("uuid",
		func() *componentRecord { return &componentRecord{} },
		func(record *componentRecord) string { return record.UUID },
		func(record *componentRecord, key string) { record.UUID = key },
	)
}

func branchHandlers() repository.ModelHandlers[*branchRecord] {
	return keyHandlers("uuid",
		func() *branchRecord { return &branchRecord{} },
		func(record *branchRecord) string { return record.UUID },
		func(record *branchRecord, key string) { record.UUID = key },
	)
}

func snapshotHandlers() repository.ModelHandlers[*snapshotRecord] {
	return keyHandlers("uuid",
		func() *snapshotRecord { return &snapshotRecord{} },
		func(record *snapshotRecord) string { return record.UUID },
		func(record *snapshotRecord, key string) { record.UUID = key },
	)
}

func propertyHandlers() repository.ModelHandlers[*propertyRecord] {
	return keyHandlers("id",
		func() *propertyRecord { return &propertyRecord{} },
		func(record *propertyRecord) string { return record.ID },
		func(record *propertyRecord, key string) { record.ID = key },
	)
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
