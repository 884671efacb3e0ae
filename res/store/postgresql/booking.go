package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"

	"gorm.io/gorm/clause"
)

type bookingStore struct {
	*storeImpl
}

func NewBookingStore(rootStore *storeImpl) *bookingStore {
	return &bookingStore{storeImpl: rootStore}
}

// MUTATIONS

func (bs *bookingStore) Create(ctx context.Context, booking *store.Booking) error {
	result := bs.db.WithContext(ctx).Create(booking)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create booking")
	}
	return nil
}

func (bs *bookingStore) UpdateStatus(ctx context.Context, booking *store.Booking) error {
	result := bs.db.WithContext(ctx).Model(booking).
		Select("status", "confirmed_at", "started_at", "completed_at", "cancelled_at", "updated_at").
		Updates(booking)

	return checkSingleRow(result, "booking", booking.ID)
}

func (bs *bookingStore) AppendStatusLog(ctx context.Context, entry *store.BookingStatusLog) error {
	result := bs.db.WithContext(ctx).Create(entry)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to append status log (booking: %s)", entry.BookingID)
	}
	return nil
}

func (bs *bookingStore) CreateCancellation(ctx context.Context, cancellation *store.Cancellation) error {
	result := bs.db.WithContext(ctx).Create(cancellation)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to record cancellation (booking: %s)", cancellation.BookingID)
	}
	return nil
}

// QUERIES

func (bs *bookingStore) Get(ctx context.Context, id string) (*store.Booking, error) {
	var booking store.Booking
	result := bs.db.WithContext(ctx).Where("id = ?", id).First(&booking)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &booking, nil
}

func (bs *bookingStore) GetForUpdate(ctx context.Context, id string) (*store.Booking, error) {
	var booking store.Booking
	result := bs.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&booking)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &booking, nil
}

func (bs *bookingStore) ListStatusLog(ctx context.Context, bookingID string) ([]*store.BookingStatusLog, error) {
	var entries []*store.BookingStatusLog
	// xid ids sort by creation time
	result := bs.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return entries, nil
}

func (bs *bookingStore) ListCancellations(ctx context.Context, bookingID string) ([]*store.Cancellation, error) {
	var cancellations []*store.Cancellation
	result := bs.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&cancellations)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return cancellations, nil
}
