// Package rating maintains CompanyRatingSummary, the derived aggregate of a
// company's reviews. Summaries are always rebuilt from the full review set.
package rating

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"cleanbuddy-fulfillment/res/cache"
	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/apperror"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const cacheOperation = "company_rating"

type Config struct {
	Logger   *log.Logger
	Store    store.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	Events   *events.Emitter

	// Now defaults to time.Now in UTC
	Now func() time.Time
}

type Aggregator struct {
	logger   *log.Logger
	store    store.Store
	cache    cache.Cache
	cacheTTL time.Duration
	events   *events.Emitter
	tracer   trace.Tracer
	now      func() time.Time

	// companies whose cached summary could be neither refreshed nor dropped;
	// reads bypass the cache for them until a later refresh succeeds
	uncached sync.Map
}

func New(cfg Config) *Aggregator {
	a := &Aggregator{
		logger:   cfg.Logger,
		store:    cfg.Store,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		events:   cfg.Events,
		tracer:   telemetry.Tracer(),
		now:      cfg.Now,
	}
	if a.cache == nil {
		a.cache = cache.Nop()
	}
	if a.cacheTTL <= 0 {
		a.cacheTTL = time.Minute
	}
	if a.now == nil {
		a.now = func() time.Time { return time.Now().UTC() }
	}
	return a
}

// Summary is the public shape of a company's rating
type Summary struct {
	CompanyID     string    `json:"companyId"`
	AverageRating *float64  `json:"averageRating"`
	TotalReviews  int       `json:"totalReviews"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

func summaryOf(s *store.CompanyRatingSummary) *Summary {
	return &Summary{
		CompanyID:     s.CompanyID,
		AverageRating: s.AverageRating,
		TotalReviews:  s.TotalReviews,
		LastUpdated:   s.LastUpdated,
	}
}

// RecomputeTx rebuilds the summary of companyID from its current reviews and
// stores it through tx. Callers must hand the result to Publish once tx commits.
func (a *Aggregator) RecomputeTx(ctx context.Context, tx store.Store, companyID string) (*store.CompanyRatingSummary, error) {
	ratings, err := tx.Reviews().ListRatingsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	summary := &store.CompanyRatingSummary{
		CompanyID:    companyID,
		TotalReviews: len(ratings),
		LastUpdated:  a.now(),
	}
	if len(ratings) > 0 {
		total := 0
		for _, r := range ratings {
			total += r
		}
		avg := float64(total) / float64(len(ratings))
		summary.AverageRating = &avg
	}

	if err := tx.RatingSummaries().Upsert(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// Publish refreshes the cached summary and announces it. It is the only writer
// of the cache; a failed refresh drops the cached entry instead of leaving the
// previous summary readable.
func (a *Aggregator) Publish(ctx context.Context, summary *store.CompanyRatingSummary) {
	s := summaryOf(summary)
	a.refreshCache(ctx, s)
	a.events.Emit(ctx, events.New(events.TypeCompanyRatingUpdated, s.CompanyID, s))
}

// RecomputeCompanyRating rebuilds a company's summary outside any review write.
// Platform admins and the company's own admin may trigger it.
func (a *Aggregator) RecomputeCompanyRating(ctx context.Context, user *store.User, companyID string) (summary *Summary, err error) {
	ctx, span := a.tracer.Start(ctx, "rating.RecomputeCompanyRating", trace.WithAttributes(
		attribute.String("company.id", companyID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	company, err := a.store.Companies().Get(ctx, companyID)
	if err != nil {
		return nil, apperror.NotFoundIf(err, store.ErrNotFound, "company %s not found", companyID)
	}
	if !user.IsAdmin() && company.AdminUserID != user.ID {
		return nil, apperror.Forbidden("only admins can recompute company ratings")
	}

	var stored *store.CompanyRatingSummary
	err = a.store.Atomic(ctx, func(tx store.Store) error {
		stored, err = a.RecomputeTx(ctx, tx, companyID)
		return err
	})
	if err != nil {
		a.logger.Printf("Error recomputing rating of company %s: %s", companyID, err)
		return nil, err
	}

	a.Publish(ctx, stored)
	return summaryOf(stored), nil
}

// CompanyRating returns the current summary of a company. A company without
// reviews has no stored summary and reports zero reviews and no average.
// Misses are served from the store and never written back to the cache.
func (a *Aggregator) CompanyRating(ctx context.Context, companyID string) (summary *Summary, err error) {
	ctx, span := a.tracer.Start(ctx, "rating.CompanyRating", trace.WithAttributes(
		attribute.String("company.id", companyID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if cached := a.readCache(ctx, companyID); cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	stored, err := a.store.RatingSummaries().Get(ctx, companyID)
	switch {
	case err == nil:
		summary = summaryOf(stored)
	case errors.Is(err, store.ErrNotFound):
		if _, err := a.store.Companies().Get(ctx, companyID); err != nil {
			return nil, apperror.NotFoundIf(err, store.ErrNotFound, "company %s not found", companyID)
		}
		summary = &Summary{CompanyID: companyID}
	default:
		return nil, err
	}
	return summary, nil
}

func (a *Aggregator) readCache(ctx context.Context, companyID string) *Summary {
	if _, skip := a.uncached.Load(companyID); skip {
		return nil
	}
	raw, err := a.cache.Get(ctx, a.cache.GenerateKey(cacheOperation, companyID))
	if err != nil {
		a.logger.Printf("Error reading cached rating of company %s: %s", companyID, err)
		return nil
	}
	if raw == "" {
		return nil
	}

	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		a.logger.Printf("Error decoding cached rating of company %s: %s", companyID, err)
		return nil
	}
	return &summary
}

func (a *Aggregator) refreshCache(ctx context.Context, summary *Summary) {
	key := a.cache.GenerateKey(cacheOperation, summary.CompanyID)

	raw, err := json.Marshal(summary)
	if err == nil {
		err = a.cache.Set(ctx, key, string(raw), a.cacheTTL)
	}
	if err == nil {
		a.uncached.Delete(summary.CompanyID)
		return
	}
	a.logger.Printf("Error caching rating of company %s: %s", summary.CompanyID, err)

	if err := a.cache.Delete(ctx, key); err != nil {
		a.logger.Printf("Error dropping cached rating of company %s: %s", summary.CompanyID, err)
		a.uncached.Store(summary.CompanyID, struct{}{})
	}
}
