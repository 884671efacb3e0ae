package store

import (
	"context"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"     // Initial state, awaiting staff assignment
	BookingStatusConfirmed  BookingStatus = "confirmed"   // Staff assigned
	BookingStatusInProgress BookingStatus = "in_progress" // Service is being performed
	BookingStatusCompleted  BookingStatus = "completed"   // Service completed successfully
	BookingStatusCancelled  BookingStatus = "cancelled"   // Cancelled by customer or company
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking represents a service booking
type Booking struct {
	ID         string   `gorm:"primaryKey;size:50;unique"`
	Customer   *User    `gorm:"foreignKey:CustomerID"`
	CustomerID string   `gorm:"size:50;not null;index:idx_booking_customer"`
	Company    *Company `gorm:"foreignKey:CompanyID"`
	CompanyID  string   `gorm:"size:50;not null;index:idx_booking_company"`
	Service    *Service `gorm:"foreignKey:ServiceID"`
	ServiceID  string   `gorm:"size:50;not null"`

	// Scheduling
	BookingDate time.Time `gorm:"type:date;not null;index:idx_booking_date"`
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`

	// Address
	AddressLine string   `gorm:"type:text;not null"`
	Latitude    *float64 `gorm:"type:decimal(10,8)"`
	Longitude   *float64 `gorm:"type:decimal(11,8)"`

	// Pricing, locked at booking time (in cents)
	TotalPrice int `gorm:"not null"`

	// Status and Progress
	Status      BookingStatus `gorm:"size:20;not null;default:'pending';index:idx_booking_status"`
	ConfirmedAt *time.Time
	StartedAt   *time.Time // When staff marks as in progress
	CompletedAt *time.Time
	CancelledAt *time.Time

	CustomerNotes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;index:idx_booking_created"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// BookingStatusLog is one append-only entry of a booking's status history.
// OldStatus is nil for the creation event.
type BookingStatusLog struct {
	ID        string         `gorm:"primaryKey;size:50"`
	BookingID string         `gorm:"size:50;not null;index:idx_booking_status_log_booking"`
	OldStatus *BookingStatus `gorm:"size:20"`
	NewStatus BookingStatus  `gorm:"size:20;not null"`
	ActorID   string         `gorm:"size:50;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
}

// Cancellation records who cancelled a booking and why
type Cancellation struct {
	ID            string `gorm:"primaryKey;size:50"`
	BookingID     string `gorm:"size:50;not null;index:idx_cancellation_booking"`
	CancelledByID string `gorm:"size:50;not null"`
	Reason        string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
}

// BookingStore defines the data access interface for bookings
type BookingStore interface {
	// Create creates a new booking
	Create(ctx context.Context, booking *Booking) error

	// Get retrieves a booking by ID
	Get(ctx context.Context, id string) (*Booking, error)

	// GetForUpdate retrieves a booking and locks it until the enclosing transaction ends
	GetForUpdate(ctx context.Context, id string) (*Booking, error)

	// UpdateStatus persists the status and lifecycle timestamps of a booking
	UpdateStatus(ctx context.Context, booking *Booking) error

	// AppendStatusLog appends one entry to a booking's status history
	AppendStatusLog(ctx context.Context, entry *BookingStatusLog) error

	// ListStatusLog returns a booking's status history, oldest first
	ListStatusLog(ctx context.Context, bookingID string) ([]*BookingStatusLog, error)

	// CreateCancellation records a cancellation
	CreateCancellation(ctx context.Context, cancellation *Cancellation) error

	// ListCancellations returns the cancellation records of a booking
	ListCancellations(ctx context.Context, bookingID string) ([]*Cancellation, error)
}
