package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds every store over one bun database.
type RepositoryFactory struct {
	db *bun.DB

	deliveryStore  *WebhookDeliveryStore
	activityStore  *ActivityStore
	componentStore *ComponentStore
	branchStore    *BranchStore
	snapshotStore  *SnapshotStore
	propertyStore  *PropertyStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// BuildStores accepts a *bun.DB or anything exposing DB() *bun.DB, such as
// a go-persistence-bun client.
func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.deliveryStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) DeliveryStore() *WebhookDeliveryStore {
	if f == nil {
		return nil
	}
	return f.deliveryStore
}

func (f *RepositoryFactory) ActivityStore() *ActivityStore {
	if f == nil {
		return nil
	}
	return f.activityStore
}

func (f *RepositoryFactory) ComponentStore() *ComponentStore {
	if f == nil {
		return nil
	}
	return f.componentStore
}

func (f *RepositoryFactory) BranchStore() *BranchStore {
	if f == nil {
		return nil
	}
	return f.branchStore
}

func (f *RepositoryFactory) SnapshotStore() *SnapshotStore {
	if f == nil {
		return nil
	}
	return f.snapshotStore
}

func (f *RepositoryFactory) PropertyStore() *PropertyStore {
	if f == nil {
		return nil
	}
	return f.propertyStore
}

func (f *RepositoryFactory) initStores() error {
	deliveryStore, err := NewWebhookDeliveryStore(f.db)
	if err != nil {
		return err
	}
	activityStore, err := NewActivityStore(f.db)
	if err != nil {
		return err
	}
	componentStore, err := NewComponentStore(f.db)
	if err != nil {
		return err
	}
	branchStore, err := NewBranchStore(f.db)
	if err != nil {
		return err
	}
	snapshotStore, err := NewSnapshotStore(f.db)
	if err != nil {
		return err
	}
	propertyStore, err := NewPropertyStore(f.db)
	if err != nil {
		return err
	}

	f.deliveryStore = deliveryStore
	f.activityStore = activityStore
	f.componentStore = componentStore
	f.branchStore = branchStore
	f.snapshotStore = snapshotStore
	f.propertyStore = propertyStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
