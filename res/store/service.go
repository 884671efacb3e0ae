package store

import (
	"context"
	"time"
)

// Service is a priced offering of one company
type Service struct {
	ID        string   `gorm:"primaryKey;size:50;unique"`
	Company   *Company `gorm:"foreignKey:CompanyID"`
	CompanyID string   `gorm:"size:50;not null;index:idx_service_company"`

	// Service Details
	Name        string `gorm:"size:100;not null"` // e.g., "General Cleaning", "Deep Cleaning"
	Description string `gorm:"type:text"`

	// Pricing (in cents)
	BasePrice int `gorm:"not null;check:base_price >= 0"`

	// Availability
	IsActive bool `gorm:"not null;index:idx_service_active"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// ServiceStore defines the data access interface for services
type ServiceStore interface {
	// Create creates a new service
	Create(ctx context.Context, service *Service) error

	// Get retrieves a service by ID
	Get(ctx context.Context, id string) (*Service, error)

	// Update updates price, description and activity of a service
	Update(ctx context.Context, service *Service) error
}
