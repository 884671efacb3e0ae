package store

import (
	"context"
	"time"
)

type ServiceRequestStatus string

const (
	ServiceRequestStatusPending  ServiceRequestStatus = "pending"  // Awaiting the assigned staff
	ServiceRequestStatusApproved ServiceRequestStatus = "approved" // Accepted by the assigned staff
	ServiceRequestStatusRejected ServiceRequestStatus = "rejected" // Declined, needs reassignment
)

func (s ServiceRequestStatus) IsActive() bool {
	return s == ServiceRequestStatusPending || s == ServiceRequestStatusApproved
}

// ServiceRequest is the company-side work order that binds a booking to one staff member.
// At most one active request exists per (company, customer, service, requested date).
type ServiceRequest struct {
	ID         string   `gorm:"primaryKey;size:50;unique"`
	Booking    *Booking `gorm:"foreignKey:BookingID"`
	BookingID  string   `gorm:"size:50;not null;index:idx_service_request_booking"`
	CustomerID string   `gorm:"size:50;not null;uniqueIndex:uniq_active_service_request,where:status <> 'rejected'"`
	CompanyID  string   `gorm:"size:50;not null;uniqueIndex:uniq_active_service_request;index:idx_service_request_company"`
	ServiceID  string   `gorm:"size:50;not null;uniqueIndex:uniq_active_service_request"`

	AssignedStaff   *CompanyStaff `gorm:"foreignKey:AssignedStaffID"`
	AssignedStaffID *string       `gorm:"size:50;index:idx_service_request_staff"`

	// Copied from the booking
	RequestedDate time.Time `gorm:"type:date;not null;uniqueIndex:uniq_active_service_request"`
	StartTime     time.Time `gorm:"not null"`
	EndTime       time.Time `gorm:"not null"`
	AddressLine   string    `gorm:"type:text;not null"`
	Latitude      *float64  `gorm:"type:decimal(10,8)"`
	Longitude     *float64  `gorm:"type:decimal(11,8)"`

	Status ServiceRequestStatus `gorm:"size:20;not null;default:'pending';index:idx_service_request_status"`

	ApprovedByID    *string `gorm:"size:50"`
	ApprovedAt      *time.Time
	RejectedByID    *string `gorm:"size:50"`
	RejectedAt      *time.Time
	RejectionReason *string `gorm:"type:text"`

	Notes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// ActiveRequestKey identifies the single active service request allowed per tuple
type ActiveRequestKey struct {
	CompanyID     string
	CustomerID    string
	ServiceID     string
	RequestedDate time.Time
}

// ServiceRequestStore defines the data access interface for service requests
type ServiceRequestStore interface {
	// Create creates a new service request
	Create(ctx context.Context, request *ServiceRequest) error

	// Get retrieves a service request by ID
	Get(ctx context.Context, id string) (*ServiceRequest, error)

	// GetForUpdate retrieves a service request and locks it until the enclosing transaction ends
	GetForUpdate(ctx context.Context, id string) (*ServiceRequest, error)

	// Update persists assignment, approval and rejection fields
	Update(ctx context.Context, request *ServiceRequest) error

	// FindActive returns the pending or approved request for the key, or ErrNotFound
	FindActive(ctx context.Context, key ActiveRequestKey) (*ServiceRequest, error)

	// ListByBooking returns every request linked to a booking, oldest first
	ListByBooking(ctx context.Context, bookingID string) ([]*ServiceRequest, error)
}
