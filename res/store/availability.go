package store

import (
	"context"
	"time"
)

// AvailabilitySlot is an open time window declared by one staff member.
// Slots are never deleted; IsAvailable=false marks a revoked slot.
type AvailabilitySlot struct {
	ID        string        `gorm:"primaryKey;size:50;unique"`
	CompanyID string        `gorm:"size:50;not null;index:idx_availability_company"`
	Staff     *CompanyStaff `gorm:"foreignKey:StaffID"`
	StaffID   string        `gorm:"size:50;not null;index:idx_availability_staff_date,priority:1"`

	// Date and Time
	Date      time.Time `gorm:"type:date;not null;index:idx_availability_staff_date,priority:2"`
	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`

	IsAvailable bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// Overlaps reports whether the slot intersects [start, end). Touching windows do not overlap.
func (a *AvailabilitySlot) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.EndTime.After(start)
}

// AvailabilityStore defines the data access interface for availability
type AvailabilityStore interface {
	// Create creates a new availability slot
	Create(ctx context.Context, slot *AvailabilitySlot) error

	// Get retrieves a slot by ID, including revoked ones
	Get(ctx context.Context, id string) (*AvailabilitySlot, error)

	// Update persists the window and availability flag of a slot
	Update(ctx context.Context, slot *AvailabilitySlot) error

	// ListAvailable returns the available slots of a staff member on a date
	ListAvailable(ctx context.Context, companyID, staffID string, date time.Time) ([]*AvailabilitySlot, error)
}
