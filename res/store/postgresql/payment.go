package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"

	"gorm.io/gorm/clause"
)

type paymentStore struct {
	*storeImpl
}

func NewPaymentStore(rootStore *storeImpl) *paymentStore {
	return &paymentStore{storeImpl: rootStore}
}

// MUTATIONS

func (ps *paymentStore) Create(ctx context.Context, payment *store.Payment) error {
	result := ps.db.WithContext(ctx).Create(payment)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create payment")
	}
	return nil
}

func (ps *paymentStore) Update(ctx context.Context, payment *store.Payment) error {
	result := ps.db.WithContext(ctx).Model(payment).
		Select("status", "transaction_ref", "paid_at", "updated_at").
		Updates(payment)

	return checkSingleRow(result, "payment", payment.ID)
}

// QUERIES

func (ps *paymentStore) Get(ctx context.Context, id string) (*store.Payment, error) {
	var payment store.Payment
	result := ps.db.WithContext(ctx).Where("id = ?", id).First(&payment)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &payment, nil
}

func (ps *paymentStore) GetForUpdate(ctx context.Context, id string) (*store.Payment, error) {
	var payment store.Payment
	result := ps.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payment)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &payment, nil
}

func (ps *paymentStore) GetByBooking(ctx context.Context, bookingID string) (*store.Payment, error) {
	var payment store.Payment
	result := ps.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&payment)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &payment, nil
}
