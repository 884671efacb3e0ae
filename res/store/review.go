package store

import (
	"context"
	"time"
)

// Review represents a customer review of a completed booking
type Review struct {
	ID         string   `gorm:"primaryKey;size:50;unique"`
	Booking    *Booking `gorm:"foreignKey:BookingID"`
	BookingID  string   `gorm:"size:50;not null;uniqueIndex:uniq_review_booking"`
	Customer   *User    `gorm:"foreignKey:CustomerID"`
	CustomerID string   `gorm:"size:50;not null;index:idx_review_customer"`

	// Rating (1-5 stars)
	Rating  int    `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment string `gorm:"type:text"` // Review text

	CreatedAt time.Time `gorm:"autoCreateTime;not null;index:idx_review_created"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null"`
}

// ReviewStore defines the data access interface for reviews
type ReviewStore interface {
	// Create creates a new review; a second review for one booking fails with ErrUniqueViolation
	Create(ctx context.Context, review *Review) error

	// Get retrieves a review by ID
	Get(ctx context.Context, id string) (*Review, error)

	// Update persists rating and comment
	Update(ctx context.Context, review *Review) error

	// Delete removes a review
	Delete(ctx context.Context, id string) error

	// ListRatingsByCompany returns the rating of every review on a booking of the company
	ListRatingsByCompany(ctx context.Context, companyID string) ([]int, error)
}

// CompanyRatingSummary is the derived rating aggregate of one company.
// AverageRating is nil when the company has no reviews.
type CompanyRatingSummary struct {
	CompanyID     string    `gorm:"primaryKey;size:50"`
	AverageRating *float64  `gorm:"type:double precision"`
	TotalReviews  int       `gorm:"not null;default:0"`
	LastUpdated   time.Time `gorm:"not null"`
}

// RatingSummaryStore is written only by the rating aggregator
type RatingSummaryStore interface {
	// Get retrieves the summary of a company, or ErrNotFound before its first review
	Get(ctx context.Context, companyID string) (*CompanyRatingSummary, error)

	// Upsert creates or replaces the summary of a company
	Upsert(ctx context.Context, summary *CompanyRatingSummary) error
}
