package store

import (
	"context"
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"
)

type UserRole string

const (
	UserRoleCustomer     UserRole = "CUSTOMER"      // Books services
	UserRoleCompanyAdmin UserRole = "COMPANY_ADMIN" // Administers one provider company
	UserRoleStaff        UserRole = "STAFF"         // Works for a company, performs bookings
	UserRoleAdmin        UserRole = "ADMIN"         // Platform administrator
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is the authenticated actor every core operation receives.
type User struct {
	ID          string     `gorm:"primaryKey;size:50;unique"`
	DisplayName string     `gorm:"size:50;not null"`
	Role        UserRole   `gorm:"size:50;not null;default:'CUSTOMER'"`
	Status      UserStatus `gorm:"size:20;not null;default:'active'"`
	Email       string     `gorm:"size:256;not null;index"`

	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) IsCompanyAdmin() bool {
	return u.Role == UserRoleCompanyAdmin
}

func (u *User) IsStaff() bool {
	return u.Role == UserRoleStaff
}

func (u *User) IsCustomer() bool {
	return u.Role == UserRoleCustomer
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

func ValidUserRole(role UserRole) bool {
	switch role {
	case UserRoleCustomer, UserRoleCompanyAdmin, UserRoleStaff, UserRoleAdmin:
		return true
	}
	return false
}

type UserStore interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	Create(ctx context.Context, ID, displayName, email string, role UserRole) (*User, error)
	UpdateStatus(ctx context.Context, userID string, status UserStatus) error
	UpdateRole(ctx context.Context, userID string, role UserRole) error
}

// NewUser validates the user fields shared by every store implementation
func NewUser(ID, displayName, email string, role UserRole) (*User, error) {
	newUser := &User{ID: ID, Status: UserStatusActive}

	// Role validation
	if !ValidUserRole(role) {
		return nil, fmt.Errorf("%w: invalid user role (%s)", ErrInvalidInput, role)
	}
	newUser.Role = role

	// Display name validation

	if !utf8.ValidString(displayName) {
		return nil, fmt.Errorf("%w: invalid user display name string (%s)", ErrInvalidInput, displayName)
	}

	displayNameLength := utf8.RuneCountInString(displayName)
	if displayNameLength == 0 {
		return nil, fmt.Errorf("%w: invalid user display name string (empty)", ErrInvalidInput)
	} else if displayNameLength > 50 {
		return nil, fmt.Errorf("%w: invalid user display name length (%d > 50)", ErrInvalidInput, displayNameLength)
	}

	newUser.DisplayName = displayName

	// Email validation

	if utf8.ValidString(email) {
		if emailAddr, err := mail.ParseAddress(email); err == nil {
			newUser.Email = emailAddr.Address
		} else {
			return nil, fmt.Errorf("%w: invalid user email address", ErrInvalidInput)
		}
	} else {
		return nil, fmt.Errorf("%w: invalid user email address string", ErrInvalidInput)
	}

	return newUser, nil
}
