package assignment

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/directory"

	"github.com/graph-gophers/dataloader"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// newStaffLoader batches staff profile lookups into a single GetMany call per tick
func newStaffLoader(staffStore store.StaffStore) *dataloader.Loader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		staff, err := staffStore.GetMany(ctx, keys.Keys())
		if err != nil {
			return decorateBatchedQueriesWithError(err, keys)
		}

		byID := make(map[string]*store.CompanyStaff, len(staff))
		for _, st := range staff {
			byID[st.ID] = st
		}

		results := make([]*dataloader.Result, 0, len(keys))
		for _, key := range keys {
			st, ok := byID[key.String()]
			if !ok {
				results = append(results, &dataloader.Result{Error: fmt.Errorf("%w: staff member (id: %s)", store.ErrNotFound, key.String())})
				continue
			}
			results = append(results, &dataloader.Result{Data: st.PublicProfile()})
		}
		return results
	}

	return dataloader.NewBatchedLoader(batchFn, dataloader.WithClearCacheOnBatch())
}

func decorateBatchedQueriesWithError(err error, keys dataloader.Keys) []*dataloader.Result {
	var results []*dataloader.Result

	for i := 0; i < len(keys); i++ {
		results = append(results, &dataloader.Result{Data: nil, Error: err})
	}

	return results
}

// ListServiceRequests returns every work order of a booking with its assignee's public profile
func (s *Service) ListServiceRequests(ctx context.Context, user *store.User, bookingID string) (assignments []*Assignment, err error) {
	ctx, span := s.tracer.Start(ctx, "assignment.ListServiceRequests", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	actor, err := directory.Resolve(ctx, s.directory, user)
	if err != nil {
		return nil, err
	}

	booking, err := s.store.Bookings().Get(ctx, bookingID)
	if err != nil {
		return nil, apperror.NotFoundIf(err, store.ErrNotFound, "booking %s not found", bookingID)
	}
	if !actor.IsAdmin() && !actor.ActsFor(booking.CompanyID) {
		return nil, apperror.Forbidden("booking %s belongs to another company", bookingID)
	}

	requests, err := s.store.ServiceRequests().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	loader := newStaffLoader(s.store.Staff())
	thunks := make([]dataloader.Thunk, len(requests))
	for i, r := range requests {
		if r.AssignedStaffID != nil {
			thunks[i] = loader.Load(ctx, dataloader.StringKey(*r.AssignedStaffID))
		}
	}

	assignments = make([]*Assignment, 0, len(requests))
	for i, r := range requests {
		assignment := &Assignment{Request: r}
		if thunks[i] != nil {
			profile, err := thunks[i]()
			if err != nil {
				s.logger.Printf("Error loading staff profile for service request %s: %s", r.ID, err)
				return nil, err
			}
			assignment.Staff = profile.(*store.StaffProfile)
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}
