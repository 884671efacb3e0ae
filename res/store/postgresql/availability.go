package postgresql

import (
	"context"
	"fmt"
	"time"

	"cleanbuddy-fulfillment/res/store"
)

type availabilityStore struct {
	*storeImpl
}

func NewAvailabilityStore(rootStore *storeImpl) *availabilityStore {
	return &availabilityStore{storeImpl: rootStore}
}

// MUTATIONS

func (as *availabilityStore) Create(ctx context.Context, slot *store.AvailabilitySlot) error {
	result := as.db.WithContext(ctx).Create(slot)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create availability slot")
	}
	return nil
}

func (as *availabilityStore) Update(ctx context.Context, slot *store.AvailabilitySlot) error {
	result := as.db.WithContext(ctx).Model(slot).
		Select("date", "start_time", "end_time", "is_available", "updated_at").
		Updates(slot)

	return checkSingleRow(result, "availability slot", slot.ID)
}

// QUERIES

func (as *availabilityStore) Get(ctx context.Context, id string) (*store.AvailabilitySlot, error) {
	var slot store.AvailabilitySlot
	result := as.db.WithContext(ctx).Where("id = ?", id).First(&slot)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &slot, nil
}

func (as *availabilityStore) ListAvailable(ctx context.Context, companyID, staffID string, date time.Time) ([]*store.AvailabilitySlot, error) {
	var slots []*store.AvailabilitySlot
	result := as.db.WithContext(ctx).
		Where("company_id = ? AND staff_id = ? AND date = ? AND is_available = ?", companyID, staffID, date, true).
		Order("start_time ASC").
		Find(&slots)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return slots, nil
}
