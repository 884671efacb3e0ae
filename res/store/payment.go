package store

import (
	"context"
	"time"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // Payment initiated
	PaymentStatusPaid    PaymentStatus = "paid"    // Successfully completed
	PaymentStatusFailed  PaymentStatus = "failed"  // Failed
)

// PaymentMethod represents how payment was made
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// Payment is the money-movement record of exactly one booking
type Payment struct {
	ID        string   `gorm:"primaryKey;size:50;unique"`
	Booking   *Booking `gorm:"foreignKey:BookingID"`
	BookingID string   `gorm:"size:50;not null;uniqueIndex:uniq_payment_booking"`
	Payer     *User    `gorm:"foreignKey:PayerID"`
	PayerID   string   `gorm:"size:50;not null;index:idx_payment_payer"`

	// Amount in cents, copied from the booking at creation
	Amount int           `gorm:"not null"`
	Method PaymentMethod `gorm:"size:30;not null"`
	Status PaymentStatus `gorm:"size:20;not null;default:'pending';index:idx_payment_status"`

	// External Payment Provider Data
	TransactionRef *string `gorm:"size:256"`

	PaidAt    *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// PaymentStore defines the data access interface for payments
type PaymentStore interface {
	// Create creates a new payment; a second payment for one booking fails with ErrUniqueViolation
	Create(ctx context.Context, payment *Payment) error

	// Get retrieves a payment by ID
	Get(ctx context.Context, id string) (*Payment, error)

	// GetForUpdate retrieves a payment and locks it until the enclosing transaction ends
	GetForUpdate(ctx context.Context, id string) (*Payment, error)

	// GetByBooking retrieves the payment of a booking, or ErrNotFound
	GetByBooking(ctx context.Context, bookingID string) (*Payment, error)

	// Update persists status, transaction reference and paid-at
	Update(ctx context.Context, payment *Payment) error
}
