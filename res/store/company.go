package store

import (
	"context"
	"time"
)

// Company represents a cleaning company on the platform
type Company struct {
	ID          string `gorm:"primaryKey;size:50;unique"`
	AdminUser   *User  `gorm:"foreignKey:AdminUserID"`
	AdminUserID string `gorm:"size:50;not null;unique;index:idx_companies_admin_user"`

	CompanyName string `gorm:"size:256;not null;index:idx_companies_name"`
	IsActive    bool   `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;index:idx_companies_created"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// CompanyStore defines the data access interface for companies
type CompanyStore interface {
	// Create creates a new company
	Create(ctx context.Context, company *Company) error

	// Get retrieves a company by ID
	Get(ctx context.Context, id string) (*Company, error)

	// GetByAdminUserID retrieves the company administered by the given user
	GetByAdminUserID(ctx context.Context, adminUserID string) (*Company, error)
}
