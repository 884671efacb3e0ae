package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"cleanbuddy-fulfillment/res/cache"
	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/store/memory"
	"cleanbuddy-fulfillment/sys/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu        sync.Mutex
	values    map[string]string
	err       error
	setErr    error
	deleteErr error
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]string{}}
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.values, key)
	return nil
}

func (c *mapCache) set(setErr, deleteErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setErr, c.deleteErr = setErr, deleteErr
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return c.values[key], nil
}

func (c *mapCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("test:%s:%s", operation, key)
}

var _ cache.Cache = (*mapCache)(nil)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type harness struct {
	agg      *Aggregator
	store    store.Store
	cache    *mapCache
	recorder *recorder
	fx       *memory.Fixture
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s := memory.New()
	fx, err := memory.Seed(context.Background(), s)
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	c := newMapCache()
	rec := &recorder{}
	return &harness{
		agg: New(Config{
			Logger: logger,
			Store:  s,
			Cache:  c,
			Events: events.NewEmitter(logger, rec),
		}),
		store:    s,
		cache:    c,
		recorder: rec,
		fx:       fx,
	}
}

// review stores a completed booking of the company with one review
func (h *harness) review(t *testing.T, companyID string, rating int) *store.Review {
	t.Helper()
	ctx := context.Background()

	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	booking := &store.Booking{
		ID:          uuid.NewString(),
		CustomerID:  h.fx.Customer.ID,
		CompanyID:   companyID,
		ServiceID:   h.fx.Service.ID,
		BookingDate: start.Truncate(24 * time.Hour),
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		AddressLine: "Strada Lunga 1, Cluj",
		TotalPrice:  15000,
		Status:      store.BookingStatusCompleted,
	}
	require.NoError(t, h.store.Bookings().Create(ctx, booking))

	review := &store.Review{
		ID:         uuid.NewString(),
		BookingID:  booking.ID,
		CustomerID: h.fx.Customer.ID,
		Rating:     rating,
	}
	require.NoError(t, h.store.Reviews().Create(ctx, review))
	return review
}

func (h *harness) recompute(t *testing.T, companyID string) *store.CompanyRatingSummary {
	t.Helper()

	var summary *store.CompanyRatingSummary
	err := h.store.Atomic(context.Background(), func(tx store.Store) error {
		var err error
		summary, err = h.agg.RecomputeTx(context.Background(), tx, companyID)
		return err
	})
	require.NoError(t, err)
	return summary
}

func TestRecomputeMatchesReviewSet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID

	first := h.review(t, companyID, 5)
	summary := h.recompute(t, companyID)
	assert.Equal(t, 1, summary.TotalReviews)
	require.NotNil(t, summary.AverageRating)
	assert.Equal(t, 5.0, *summary.AverageRating)

	h.review(t, companyID, 4)
	h.review(t, companyID, 4)
	h.review(t, h.fx.OtherCompany.ID, 1)
	summary = h.recompute(t, companyID)
	assert.Equal(t, 3, summary.TotalReviews)
	assert.InDelta(t, 13.0/3.0, *summary.AverageRating, 1e-9)

	stored, err := h.store.RatingSummaries().Get(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalReviews)

	require.NoError(t, h.store.Reviews().Delete(ctx, first.ID))
	summary = h.recompute(t, companyID)
	assert.Equal(t, 2, summary.TotalReviews)
	assert.Equal(t, 4.0, *summary.AverageRating)
}

func TestRecomputeWithoutReviewsHasNoAverage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID

	only := h.review(t, companyID, 3)
	h.recompute(t, companyID)
	require.NoError(t, h.store.Reviews().Delete(ctx, only.ID))

	summary := h.recompute(t, companyID)
	assert.Equal(t, 0, summary.TotalReviews)
	assert.Nil(t, summary.AverageRating, "no reviews means no average, not zero")
}

func TestRecomputeRollsBackWithTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID
	h.review(t, companyID, 2)

	boom := errors.New("boom")
	err := h.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := h.agg.RecomputeTx(ctx, tx, companyID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = h.store.RatingSummaries().Get(ctx, companyID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecomputeCompanyRating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID
	h.review(t, companyID, 5)

	_, err := h.agg.RecomputeCompanyRating(ctx, h.fx.OtherCompanyAdmin, companyID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = h.agg.RecomputeCompanyRating(ctx, h.fx.Customer, companyID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = h.agg.RecomputeCompanyRating(ctx, h.fx.Admin, "missing")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	summary, err := h.agg.RecomputeCompanyRating(ctx, h.fx.CompanyAdmin, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalReviews)

	summary, err = h.agg.RecomputeCompanyRating(ctx, h.fx.Admin, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalReviews)

	require.Len(t, h.recorder.events, 2)
	assert.Equal(t, events.TypeCompanyRatingUpdated, h.recorder.events[0].Type)
	assert.Equal(t, companyID, h.recorder.events[0].CompanyID)

	var cached Summary
	require.NoError(t, json.Unmarshal([]byte(h.cache.values["test:company_rating:"+companyID]), &cached))
	assert.Equal(t, 1, cached.TotalReviews)
	assert.Equal(t, 5.0, *cached.AverageRating)
}

func TestCompanyRatingReadsThroughCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID
	key := "test:company_rating:" + companyID

	summary, err := h.agg.CompanyRating(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalReviews)
	assert.Nil(t, summary.AverageRating)
	assert.NotContains(t, h.cache.values, key, "reads never fill the cache")

	h.review(t, companyID, 4)
	stored := h.recompute(t, companyID)

	summary, err = h.agg.CompanyRating(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalReviews)

	h.agg.Publish(ctx, stored)
	assert.Contains(t, h.cache.values, key)

	// a cached entry is served without touching the store
	h.review(t, companyID, 2)
	h.recompute(t, companyID)
	summary, err = h.agg.CompanyRating(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalReviews)
	assert.Equal(t, 4.0, *summary.AverageRating)

	_, err = h.agg.CompanyRating(ctx, "missing")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestFailedCacheRefreshDropsStaleSummary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID

	h.review(t, companyID, 5)
	h.agg.Publish(ctx, h.recompute(t, companyID))

	h.review(t, companyID, 1)
	stored := h.recompute(t, companyID)

	h.cache.set(errors.New("write timeout"), nil)
	h.agg.Publish(ctx, stored)
	h.cache.set(nil, nil)

	summary, err := h.agg.CompanyRating(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalReviews)
	assert.Equal(t, 3.0, *summary.AverageRating)
}

func TestUnreachableCacheIsBypassedUntilRefreshed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID

	h.review(t, companyID, 5)
	h.agg.Publish(ctx, h.recompute(t, companyID))

	h.review(t, companyID, 1)
	stored := h.recompute(t, companyID)

	h.cache.set(errors.New("write timeout"), errors.New("write timeout"))
	h.agg.Publish(ctx, stored)
	h.cache.set(nil, nil)

	// the old entry is still in the cache but must not be served
	summary, err := h.agg.CompanyRating(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalReviews)

	h.review(t, companyID, 3)
	h.agg.Publish(ctx, h.recompute(t, companyID))
	h.review(t, companyID, 3)
	h.recompute(t, companyID)

	// cached again once a refresh succeeded
	summary, err = h.agg.CompanyRating(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalReviews)
}

func TestCompanyRatingSurvivesCacheOutage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	companyID := h.fx.Company.ID
	h.review(t, companyID, 3)
	h.recompute(t, companyID)

	h.cache.err = errors.New("connection refused")
	summary, err := h.agg.CompanyRating(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalReviews)
	assert.Equal(t, 3.0, *summary.AverageRating)
}
