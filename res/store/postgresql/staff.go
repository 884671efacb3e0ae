package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"
)

type staffStore struct {
	*storeImpl
}

func NewStaffStore(rootStore *storeImpl) *staffStore {
	return &staffStore{storeImpl: rootStore}
}

// MUTATIONS

func (ss *staffStore) Create(ctx context.Context, staff *store.CompanyStaff) error {
	result := ss.db.WithContext(ctx).Create(staff)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create staff member")
	}
	return nil
}

func (ss *staffStore) UpdateStatus(ctx context.Context, id string, status store.StaffStatus) error {
	result := ss.db.WithContext(ctx).Model(&store.CompanyStaff{}).
		Where("id = ?", id).
		Update("status", status)

	return checkSingleRow(result, "staff member", id)
}

// QUERIES

func (ss *staffStore) Get(ctx context.Context, id string) (*store.CompanyStaff, error) {
	var staff store.CompanyStaff
	result := ss.db.WithContext(ctx).Where("id = ?", id).First(&staff)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &staff, nil
}

func (ss *staffStore) GetActiveByUserID(ctx context.Context, userID string) (*store.CompanyStaff, error) {
	var staff store.CompanyStaff
	result := ss.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, store.StaffStatusActive).
		First(&staff)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &staff, nil
}

func (ss *staffStore) GetActiveInCompany(ctx context.Context, id, companyID string) (*store.CompanyStaff, error) {
	var staff store.CompanyStaff
	result := ss.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND status = ?", id, companyID, store.StaffStatusActive).
		First(&staff)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &staff, nil
}

func (ss *staffStore) GetMany(ctx context.Context, ids []string) ([]*store.CompanyStaff, error) {
	var staff []*store.CompanyStaff
	if len(ids) == 0 {
		return staff, nil
	}

	result := ss.db.WithContext(ctx).Where("id IN ?", ids).Find(&staff)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return staff, nil
}
