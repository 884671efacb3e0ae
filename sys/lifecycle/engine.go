// Package lifecycle owns booking creation and every booking status change.
// Each change updates the booking and appends its status log entry in one
// transaction; events are published only after that transaction commits.
package lifecycle

import (
	"context"
	"log"
	"slices"
	"strings"
	"time"

	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/notification"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/directory"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Logger    *log.Logger
	Store     store.Store
	Directory directory.Directory
	Events    *events.Emitter
	Notifier  notification.NotificationService

	// Now defaults to time.Now in UTC
	Now func() time.Time
}

type Engine struct {
	logger    *log.Logger
	store     store.Store
	directory directory.Directory
	events    *events.Emitter
	notifier  notification.NotificationService
	tracer    trace.Tracer
	now       func() time.Time
}

func New(cfg Config) *Engine {
	e := &Engine{
		logger:    cfg.Logger,
		store:     cfg.Store,
		directory: cfg.Directory,
		events:    cfg.Events,
		notifier:  cfg.Notifier,
		tracer:    telemetry.Tracer(),
		now:       cfg.Now,
	}
	if e.directory == nil {
		e.directory = directory.FromStore(cfg.Store)
	}
	if e.notifier == nil {
		e.notifier = notification.Nop()
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

// Change is a booking status change made inside a transaction. It is
// published with Publish once that transaction has committed.
type Change struct {
	Booking *store.Booking
	From    store.BookingStatus
	To      store.BookingStatus
	ActorID string
}

type CreateInput struct {
	CompanyID string
	ServiceID string

	// Date defaults to the calendar date of StartTime
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time

	AddressLine string
	Latitude    *float64
	Longitude   *float64
	Notes       string
}

// Create books a service for a customer. The price is copied from the
// service's current base price and never recalculated.
func (e *Engine) Create(ctx context.Context, user *store.User, in CreateInput) (booking *store.Booking, err error) {
	ctx, span := e.tracer.Start(ctx, "lifecycle.Create", trace.WithAttributes(
		attribute.String("company.id", in.CompanyID),
		attribute.String("service.id", in.ServiceID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if !user.IsCustomer() || !user.IsActive() {
		return nil, apperror.Forbidden("only active customers can create bookings")
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, apperror.InvalidInput("start time must be before end time")
	}
	if strings.TrimSpace(in.AddressLine) == "" {
		return nil, apperror.InvalidInput("service address is required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, apperror.InvalidInput("latitude and longitude must be given together")
	}

	service, err := e.store.Services().Get(ctx, in.ServiceID)
	if err != nil {
		return nil, apperror.NotFoundIf(err, store.ErrNotFound, "service %s not found", in.ServiceID)
	}
	if service.CompanyID != in.CompanyID {
		return nil, apperror.NotFound("service %s not offered by company %s", in.ServiceID, in.CompanyID)
	}
	if !service.IsActive {
		return nil, apperror.InvalidState("service %s is not active", in.ServiceID)
	}

	date := in.Date
	if date.IsZero() {
		date = in.StartTime
	}

	booking = &store.Booking{
		ID:            uuid.NewString(),
		CustomerID:    user.ID,
		CompanyID:     service.CompanyID,
		ServiceID:     service.ID,
		BookingDate:   DateOf(date),
		StartTime:     in.StartTime.UTC(),
		EndTime:       in.EndTime.UTC(),
		AddressLine:   strings.TrimSpace(in.AddressLine),
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		TotalPrice:    service.BasePrice,
		Status:        store.BookingStatusPending,
		CustomerNotes: in.Notes,
	}

	err = e.store.Atomic(ctx, func(tx store.Store) error {
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return err
		}
		return tx.Bookings().AppendStatusLog(ctx, &store.BookingStatusLog{
			ID:        xid.New().String(),
			BookingID: booking.ID,
			OldStatus: nil,
			NewStatus: store.BookingStatusPending,
			ActorID:   user.ID,
		})
	})
	if err != nil {
		e.logger.Printf("Error creating booking for customer %s: %s", user.ID, err)
		return nil, err
	}

	e.events.Emit(ctx, events.New(events.TypeBookingCreated, booking.CompanyID, map[string]any{
		"bookingId":  booking.ID,
		"customerId": booking.CustomerID,
		"serviceId":  booking.ServiceID,
		"date":       booking.BookingDate.Format(time.DateOnly),
	}))
	return booking, nil
}

// Transition moves a booking to a new status on behalf of an actor
func (e *Engine) Transition(ctx context.Context, user *store.User, bookingID string, to store.BookingStatus) (booking *store.Booking, err error) {
	ctx, span := e.tracer.Start(ctx, "lifecycle.Transition", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("booking.to", string(to)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if !to.Valid() {
		return nil, apperror.InvalidInput("unknown booking status %q", to)
	}

	actor, err := directory.Resolve(ctx, e.directory, user)
	if err != nil {
		return nil, err
	}

	var change *Change
	err = e.store.Atomic(ctx, func(tx store.Store) error {
		current, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "booking %s not found", bookingID)
		}

		change, err = e.TransitionTx(ctx, tx, actor, current, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.Publish(ctx, change)
	return change.Booking, nil
}

// Cancel moves a booking to cancelled and records who cancelled it and why
func (e *Engine) Cancel(ctx context.Context, user *store.User, bookingID, reason string) (booking *store.Booking, err error) {
	ctx, span := e.tracer.Start(ctx, "lifecycle.Cancel", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	actor, err := directory.Resolve(ctx, e.directory, user)
	if err != nil {
		return nil, err
	}

	var change *Change
	err = e.store.Atomic(ctx, func(tx store.Store) error {
		current, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "booking %s not found", bookingID)
		}
		if current.Status == store.BookingStatusCancelled || current.Status == store.BookingStatusCompleted {
			return apperror.InvalidState("booking %s is already %s", bookingID, current.Status)
		}

		change, err = e.TransitionTx(ctx, tx, actor, current, store.BookingStatusCancelled)
		if err != nil {
			return err
		}

		return tx.Bookings().CreateCancellation(ctx, &store.Cancellation{
			ID:            xid.New().String(),
			BookingID:     bookingID,
			CancelledByID: actor.ID,
			Reason:        strings.TrimSpace(reason),
		})
	})
	if err != nil {
		return nil, err
	}

	e.Publish(ctx, change)
	if change.From != store.BookingStatusPending {
		alert := notification.CancelledBooking{
			CompanyID:     change.Booking.CompanyID,
			BookingID:     bookingID,
			CancelledByID: actor.ID,
			Reason:        reason,
		}
		if err := e.notifier.NotifyBookingCancelled(ctx, alert); err != nil {
			e.logger.Printf("Error notifying cancellation of booking %s: %s", bookingID, err)
		}
	}
	return change.Booking, nil
}

// TransitionTx validates and applies a status change to a booking already
// loaded for update inside tx. The caller owns the transaction and must call
// Publish with the returned change after it commits.
func (e *Engine) TransitionTx(ctx context.Context, tx store.Store, actor *directory.Actor, booking *store.Booking, to store.BookingStatus) (*Change, error) {
	from := booking.Status
	if !CanTransition(from, to) {
		return nil, apperror.InvalidTransition(from, to)
	}
	if err := authorize(actor, booking, to); err != nil {
		return nil, err
	}

	booking.Status = to
	stampLifecycle(booking, e.now())

	if err := tx.Bookings().UpdateStatus(ctx, booking); err != nil {
		return nil, err
	}

	oldStatus := from
	err := tx.Bookings().AppendStatusLog(ctx, &store.BookingStatusLog{
		ID:        xid.New().String(),
		BookingID: booking.ID,
		OldStatus: &oldStatus,
		NewStatus: to,
		ActorID:   actor.ID,
	})
	if err != nil {
		return nil, err
	}

	return &Change{Booking: booking, From: from, To: to, ActorID: actor.ID}, nil
}

// Publish announces a committed status change
func (e *Engine) Publish(ctx context.Context, change *Change) {
	if change == nil {
		return
	}
	e.events.Emit(ctx, events.New(events.TypeBookingStatusChanged, change.Booking.CompanyID, map[string]any{
		"bookingId": change.Booking.ID,
		"from":      change.From,
		"to":        change.To,
		"actorId":   change.ActorID,
	}))
}

// authorize decides whether the actor may move the booking to the target status
func authorize(actor *directory.Actor, booking *store.Booking, to store.BookingStatus) error {
	if !actor.IsActive() {
		return apperror.Forbidden("user %s is not active", actor.ID)
	}

	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsCustomer():
		if booking.CustomerID != actor.ID {
			return apperror.Forbidden("booking %s belongs to another customer", booking.ID)
		}
		if to != store.BookingStatusCancelled || !slices.Contains(customerCancellable, booking.Status) {
			return apperror.Forbidden("customers can only cancel pending or confirmed bookings")
		}
		return nil
	case actor.IsCompanyAdmin(), actor.IsStaff():
		if !actor.ActsFor(booking.CompanyID) {
			return apperror.Forbidden("booking %s belongs to another company", booking.ID)
		}
		return nil
	}

	return apperror.Forbidden("role %s cannot change booking status", actor.Role)
}

// DateOf truncates t to its calendar date in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
