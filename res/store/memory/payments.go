package memory

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"
)

type paymentStore struct{ *storeImpl }

func (ps *paymentStore) Create(ctx context.Context, payment *store.Payment) error {
	return ps.with(func(st *state) error {
		if _, ok := st.payments[payment.ID]; ok {
			return fmt.Errorf("%w: payment (id: %s)", store.ErrUniqueViolation, payment.ID)
		}
		for _, p := range st.payments {
			if p.BookingID == payment.BookingID {
				return fmt.Errorf("%w: payment for booking (id: %s)", store.ErrUniqueViolation, payment.BookingID)
			}
		}
		payment.CreatedAt, payment.UpdatedAt = now(), now()
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (ps *paymentStore) Update(ctx context.Context, payment *store.Payment) error {
	return ps.with(func(st *state) error {
		existing, ok := st.payments[payment.ID]
		if !ok {
			return notFound("payment", payment.ID)
		}
		existing.Status = payment.Status
		existing.TransactionRef = payment.TransactionRef
		existing.PaidAt = payment.PaidAt
		existing.UpdatedAt = now()
		payment.UpdatedAt = existing.UpdatedAt
		st.payments[payment.ID] = existing
		return nil
	})
}

func (ps *paymentStore) Get(ctx context.Context, id string) (*store.Payment, error) {
	var payment store.Payment
	err := ps.with(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return notFound("payment", id)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (ps *paymentStore) GetForUpdate(ctx context.Context, id string) (*store.Payment, error) {
	return ps.Get(ctx, id)
}

func (ps *paymentStore) GetByBooking(ctx context.Context, bookingID string) (*store.Payment, error) {
	var found *store.Payment
	err := ps.with(func(st *state) error {
		for _, p := range st.payments {
			if p.BookingID == bookingID {
				found = &p
				return nil
			}
		}
		return notFound("payment for booking", bookingID)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

type reviewStore struct{ *storeImpl }

func (rs *reviewStore) Create(ctx context.Context, review *store.Review) error {
	return rs.with(func(st *state) error {
		if _, ok := st.reviews[review.ID]; ok {
			return fmt.Errorf("%w: review (id: %s)", store.ErrUniqueViolation, review.ID)
		}
		for _, r := range st.reviews {
			if r.BookingID == review.BookingID {
				return fmt.Errorf("%w: review for booking (id: %s)", store.ErrUniqueViolation, review.BookingID)
			}
		}
		review.CreatedAt, review.UpdatedAt = now(), now()
		st.reviews[review.ID] = *review
		return nil
	})
}

func (rs *reviewStore) Update(ctx context.Context, review *store.Review) error {
	return rs.with(func(st *state) error {
		existing, ok := st.reviews[review.ID]
		if !ok {
			return notFound("review", review.ID)
		}
		existing.Rating = review.Rating
		existing.Comment = review.Comment
		existing.UpdatedAt = now()
		review.UpdatedAt = existing.UpdatedAt
		st.reviews[review.ID] = existing
		return nil
	})
}

func (rs *reviewStore) Delete(ctx context.Context, id string) error {
	return rs.with(func(st *state) error {
		if _, ok := st.reviews[id]; !ok {
			return notFound("review", id)
		}
		delete(st.reviews, id)
		return nil
	})
}

func (rs *reviewStore) Get(ctx context.Context, id string) (*store.Review, error) {
	var review store.Review
	err := rs.with(func(st *state) error {
		r, ok := st.reviews[id]
		if !ok {
			return notFound("review", id)
		}
		review = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (rs *reviewStore) ListRatingsByCompany(ctx context.Context, companyID string) ([]int, error) {
	ratings := []int{}
	err := rs.with(func(st *state) error {
		for _, r := range st.reviews {
			if b, ok := st.bookings[r.BookingID]; ok && b.CompanyID == companyID {
				ratings = append(ratings, r.Rating)
			}
		}
		return nil
	})
	return ratings, err
}

type ratingSummaryStore struct{ *storeImpl }

func (rss *ratingSummaryStore) Upsert(ctx context.Context, summary *store.CompanyRatingSummary) error {
	return rss.with(func(st *state) error {
		st.summaries[summary.CompanyID] = *summary
		return nil
	})
}

func (rss *ratingSummaryStore) Get(ctx context.Context, companyID string) (*store.CompanyRatingSummary, error) {
	var summary store.CompanyRatingSummary
	err := rss.with(func(st *state) error {
		s, ok := st.summaries[companyID]
		if !ok {
			return notFound("rating summary of company", companyID)
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
