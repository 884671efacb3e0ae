package store

import (
	"context"
	"time"
)

type StaffStatus string

const (
	StaffStatusActive   StaffStatus = "active"
	StaffStatusInactive StaffStatus = "inactive"
)

// CompanyStaff links a user with the STAFF role to the company they work for
type CompanyStaff struct {
	ID        string   `gorm:"primaryKey;size:50;unique"`
	User      *User    `gorm:"foreignKey:UserID"`
	UserID    string   `gorm:"size:50;not null;unique;index:idx_company_staff_user"`
	Company   *Company `gorm:"foreignKey:CompanyID"`
	CompanyID string   `gorm:"size:50;not null;index:idx_company_staff_company"`

	// Public profile
	DisplayName    string  `gorm:"size:100;not null"`
	Bio            string  `gorm:"type:text"`
	ProfilePicture *string `gorm:"size:512"` // URL to profile picture

	// Internal
	Phone  string      `gorm:"size:50"`
	Status StaffStatus `gorm:"size:20;not null;default:'active';index:idx_company_staff_status"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

func (CompanyStaff) TableName() string { return "company_staff" }

func (cs *CompanyStaff) IsActive() bool {
	return cs.Status == StaffStatusActive
}

// StaffProfile is the subset of a staff record visible to customers and other staff
type StaffProfile struct {
	ID             string  `json:"id"`
	DisplayName    string  `json:"displayName"`
	Bio            string  `json:"bio,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

func (cs *CompanyStaff) PublicProfile() *StaffProfile {
	return &StaffProfile{
		ID:             cs.ID,
		DisplayName:    cs.DisplayName,
		Bio:            cs.Bio,
		ProfilePicture: cs.ProfilePicture,
	}
}

// StaffStore defines the data access interface for company staff
type StaffStore interface {
	// Create creates a new staff record
	Create(ctx context.Context, staff *CompanyStaff) error

	// Get retrieves a staff record by ID regardless of status
	Get(ctx context.Context, id string) (*CompanyStaff, error)

	// GetActiveByUserID retrieves the active staff record of a user
	GetActiveByUserID(ctx context.Context, userID string) (*CompanyStaff, error)

	// GetActiveInCompany retrieves a staff record only if it is active and belongs to the company
	GetActiveInCompany(ctx context.Context, id, companyID string) (*CompanyStaff, error)

	// GetMany retrieves staff records by ID; missing IDs are skipped
	GetMany(ctx context.Context, ids []string) ([]*CompanyStaff, error)

	// UpdateStatus activates or deactivates a staff record
	UpdateStatus(ctx context.Context, id string, status StaffStatus) error
}
