// Package review lets customers rate their completed bookings. Every write
// rebuilds the company's rating summary in the same transaction.
package review

import (
	"context"
	"log"
	"strings"

	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/rating"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Config struct {
	Logger *log.Logger
	Store  store.Store
	Rating *rating.Aggregator
}

type Service struct {
	logger *log.Logger
	store  store.Store
	rating *rating.Aggregator
	tracer trace.Tracer
}

func New(cfg Config) *Service {
	return &Service{
		logger: cfg.Logger,
		store:  cfg.Store,
		rating: cfg.Rating,
		tracer: telemetry.Tracer(),
	}
}

// UpdateInput changes some of a review. Omitted fields keep their current value.
type UpdateInput struct {
	Rating  *int
	Comment *string
}

func validRating(r int) error {
	if r < MinRating || r > MaxRating {
		return apperror.InvalidInput("rating must be between %d and %d, got %d", MinRating, MaxRating, r)
	}
	return nil
}

// Create reviews a completed booking of the acting customer
func (s *Service) Create(ctx context.Context, user *store.User, bookingID string, stars int, comment string) (review *store.Review, err error) {
	ctx, span := s.tracer.Start(ctx, "review.Create", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validRating(stars); err != nil {
		return nil, err
	}

	var summary *store.CompanyRatingSummary
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		booking, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "booking %s not found", bookingID)
		}
		if booking.CustomerID != user.ID {
			return apperror.Forbidden("booking %s belongs to another customer", bookingID)
		}
		if booking.Status != store.BookingStatusCompleted {
			return apperror.InvalidState("booking %s is %s, only completed bookings can be reviewed", bookingID, booking.Status)
		}

		review = &store.Review{
			ID:         uuid.NewString(),
			BookingID:  bookingID,
			CustomerID: user.ID,
			Rating:     stars,
			Comment:    strings.TrimSpace(comment),
		}
		err = tx.Reviews().Create(ctx, review)
		if err != nil {
			return apperror.ConflictIf(err, store.ErrUniqueViolation, "booking %s is already reviewed", bookingID)
		}

		summary, err = s.rating.RecomputeTx(ctx, tx, booking.CompanyID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.rating.Publish(ctx, summary)
	return review, nil
}

// Update changes the rating or comment of a review. Its author and platform
// admins may change it.
func (s *Service) Update(ctx context.Context, user *store.User, reviewID string, in UpdateInput) (review *store.Review, err error) {
	ctx, span := s.tracer.Start(ctx, "review.Update", trace.WithAttributes(
		attribute.String("review.id", reviewID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if in.Rating != nil {
		if err := validRating(*in.Rating); err != nil {
			return nil, err
		}
	}

	var summary *store.CompanyRatingSummary
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		var booking *store.Booking
		review, booking, err = ownedReview(ctx, tx, user, reviewID)
		if err != nil {
			return err
		}

		if in.Rating != nil {
			review.Rating = *in.Rating
		}
		if in.Comment != nil {
			review.Comment = strings.TrimSpace(*in.Comment)
		}
		if err := tx.Reviews().Update(ctx, review); err != nil {
			return err
		}

		summary, err = s.rating.RecomputeTx(ctx, tx, booking.CompanyID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.rating.Publish(ctx, summary)
	return review, nil
}

// Delete removes a review. Its author and platform admins may delete it.
func (s *Service) Delete(ctx context.Context, user *store.User, reviewID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "review.Delete", trace.WithAttributes(
		attribute.String("review.id", reviewID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	var summary *store.CompanyRatingSummary
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		_, booking, err := ownedReview(ctx, tx, user, reviewID)
		if err != nil {
			return err
		}
		if err := tx.Reviews().Delete(ctx, reviewID); err != nil {
			return err
		}

		summary, err = s.rating.RecomputeTx(ctx, tx, booking.CompanyID)
		return err
	})
	if err != nil {
		return err
	}

	s.rating.Publish(ctx, summary)
	return nil
}

func ownedReview(ctx context.Context, tx store.Store, user *store.User, reviewID string) (*store.Review, *store.Booking, error) {
	review, err := tx.Reviews().Get(ctx, reviewID)
	if err != nil {
		return nil, nil, apperror.NotFoundIf(err, store.ErrNotFound, "review %s not found", reviewID)
	}
	if review.CustomerID != user.ID && !user.IsAdmin() {
		return nil, nil, apperror.Forbidden("review %s belongs to another customer", reviewID)
	}

	booking, err := tx.Bookings().Get(ctx, review.BookingID)
	if err != nil {
		return nil, nil, err
	}
	return review, booking, nil
}
