package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"
)

type serviceStore struct {
	*storeImpl
}

func NewServiceStore(rootStore *storeImpl) *serviceStore {
	return &serviceStore{storeImpl: rootStore}
}

// MUTATIONS

func (ss *serviceStore) Create(ctx context.Context, service *store.Service) error {
	result := ss.db.WithContext(ctx).Create(service)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create service")
	}
	return nil
}

func (ss *serviceStore) Update(ctx context.Context, service *store.Service) error {
	result := ss.db.WithContext(ctx).Model(service).
		Select("name", "description", "base_price", "is_active").
		Updates(service)

	return checkSingleRow(result, "service", service.ID)
}

// QUERIES

func (ss *serviceStore) Get(ctx context.Context, id string) (*store.Service, error) {
	var service store.Service
	result := ss.db.WithContext(ctx).Where("id = ?", id).First(&service)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &service, nil
}
