package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"

	"gorm.io/gorm/clause"
)

type reviewStore struct {
	*storeImpl
}

func NewReviewStore(rootStore *storeImpl) *reviewStore {
	return &reviewStore{storeImpl: rootStore}
}

// MUTATIONS

func (rs *reviewStore) Create(ctx context.Context, review *store.Review) error {
	result := rs.db.WithContext(ctx).Create(review)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create review")
	}
	return nil
}

func (rs *reviewStore) Update(ctx context.Context, review *store.Review) error {
	result := rs.db.WithContext(ctx).Model(review).
		Select("rating", "comment", "updated_at").
		Updates(review)

	return checkSingleRow(result, "review", review.ID)
}

func (rs *reviewStore) Delete(ctx context.Context, id string) error {
	result := rs.db.WithContext(ctx).Delete(&store.Review{ID: id})
	return checkSingleRow(result, "review", id)
}

// QUERIES

func (rs *reviewStore) Get(ctx context.Context, id string) (*store.Review, error) {
	var review store.Review
	result := rs.db.WithContext(ctx).Where("id = ?", id).First(&review)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &review, nil
}

func (rs *reviewStore) ListRatingsByCompany(ctx context.Context, companyID string) ([]int, error) {
	var ratings []int
	result := rs.db.WithContext(ctx).Model(&store.Review{}).
		Joins("JOIN bookings ON bookings.id = reviews.booking_id").
		Where("bookings.company_id = ?", companyID).
		Pluck("reviews.rating", &ratings)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return ratings, nil
}

type ratingSummaryStore struct {
	*storeImpl
}

func NewRatingSummaryStore(rootStore *storeImpl) *ratingSummaryStore {
	return &ratingSummaryStore{storeImpl: rootStore}
}

func (rss *ratingSummaryStore) Upsert(ctx context.Context, summary *store.CompanyRatingSummary) error {
	result := rss.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"average_rating", "total_reviews", "last_updated"}),
		}).
		Create(summary)
	if result.Error != nil {
		return translateError(result.Error)
	}
	return nil
}

func (rss *ratingSummaryStore) Get(ctx context.Context, companyID string) (*store.CompanyRatingSummary, error) {
	var summary store.CompanyRatingSummary
	result := rss.db.WithContext(ctx).Where("company_id = ?", companyID).First(&summary)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &summary, nil
}
