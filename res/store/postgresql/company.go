package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"
)

type companyStore struct {
	*storeImpl
}

func NewCompanyStore(rootStore *storeImpl) *companyStore {
	return &companyStore{storeImpl: rootStore}
}

// MUTATIONS

func (cs *companyStore) Create(ctx context.Context, company *store.Company) error {
	result := cs.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create company")
	}
	return nil
}

// QUERIES

func (cs *companyStore) Get(ctx context.Context, id string) (*store.Company, error) {
	var company store.Company
	result := cs.db.WithContext(ctx).Where("id = ?", id).First(&company)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &company, nil
}

func (cs *companyStore) GetByAdminUserID(ctx context.Context, adminUserID string) (*store.Company, error) {
	var company store.Company
	result := cs.db.WithContext(ctx).Where("admin_user_id = ?", adminUserID).First(&company)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &company, nil
}
