// Package assignment binds staff members to bookings through service requests
// and tracks each staff member's approval of the work.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/notification"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/directory"
	"cleanbuddy-fulfillment/sys/lifecycle"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultRejectionReason = "No reason provided"

type Config struct {
	Logger    *log.Logger
	Store     store.Store
	Directory directory.Directory
	Lifecycle *lifecycle.Engine
	Events    *events.Emitter
	Notifier  notification.NotificationService

	// Now defaults to time.Now in UTC
	Now func() time.Time
}

type Service struct {
	logger    *log.Logger
	store     store.Store
	directory directory.Directory
	lifecycle *lifecycle.Engine
	events    *events.Emitter
	notifier  notification.NotificationService
	tracer    trace.Tracer
	now       func() time.Time
}

func New(cfg Config) *Service {
	s := &Service{
		logger:    cfg.Logger,
		store:     cfg.Store,
		directory: cfg.Directory,
		lifecycle: cfg.Lifecycle,
		events:    cfg.Events,
		notifier:  cfg.Notifier,
		tracer:    telemetry.Tracer(),
		now:       cfg.Now,
	}
	if s.directory == nil {
		s.directory = directory.FromStore(cfg.Store)
	}
	if s.notifier == nil {
		s.notifier = notification.Nop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Assignment is a service request together with the public profile of its assigned staff member
type Assignment struct {
	Request *store.ServiceRequest
	Staff   *store.StaffProfile
}

// AssignStaff binds a staff member to a booking of the actor's company. An active
// service request for the same customer, service and date is reassigned rather
// than duplicated, and a pending booking is confirmed through the lifecycle engine.
func (s *Service) AssignStaff(ctx context.Context, user *store.User, bookingID, staffID, notes string) (assignment *Assignment, err error) {
	ctx, span := s.tracer.Start(ctx, "assignment.AssignStaff", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("staff.id", staffID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	company, err := s.directory.CompanyOf(ctx, user.ID)
	if err != nil {
		return nil, apperror.NotFoundIf(err, store.ErrNotFound, "no company managed by user %s", user.ID)
	}
	actor := &directory.Actor{User: user, CompanyID: company.ID}

	var (
		request    *store.ServiceRequest
		staff      *store.CompanyStaff
		change     *lifecycle.Change
		reassigned bool
	)
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		booking, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "booking %s not found", bookingID)
		}
		if booking.CompanyID != company.ID {
			return apperror.Forbidden("booking %s belongs to another company", bookingID)
		}
		if lifecycle.IsTerminal(booking.Status) {
			return apperror.InvalidState("booking %s is %s", bookingID, booking.Status)
		}

		staff, err = tx.Staff().GetActiveInCompany(ctx, staffID, company.ID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "active staff member %s not found", staffID)
		}

		key := store.ActiveRequestKey{
			CompanyID:     company.ID,
			CustomerID:    booking.CustomerID,
			ServiceID:     booking.ServiceID,
			RequestedDate: booking.BookingDate,
		}
		if err := tx.LockKey(ctx, activeRequestLockKey(key)); err != nil {
			return err
		}

		request, reassigned, err = s.upsertActiveRequest(ctx, tx, key, booking, staff, notes)
		if err != nil {
			return err
		}

		if booking.Status == store.BookingStatusPending {
			change, err = s.lifecycle.TransitionTx(ctx, tx, actor, booking, store.BookingStatusConfirmed)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lifecycle.Publish(ctx, change)
	s.events.Emit(ctx, events.New(events.TypeServiceRequestAssigned, company.ID, map[string]any{
		"serviceRequestId": request.ID,
		"bookingId":        bookingID,
		"staffId":          staff.ID,
		"reassigned":       reassigned,
	}))

	return &Assignment{Request: request, Staff: staff.PublicProfile()}, nil
}

// upsertActiveRequest reassigns the active request for key, or creates one from the booking.
// Must run under the key's lock.
func (s *Service) upsertActiveRequest(
	ctx context.Context,
	tx store.Store,
	key store.ActiveRequestKey,
	booking *store.Booking,
	staff *store.CompanyStaff,
	notes string,
) (*store.ServiceRequest, bool, error) {
	existing, err := tx.ServiceRequests().FindActive(ctx, key)
	switch {
	case err == nil:
		if existing.BookingID != booking.ID {
			return nil, false, apperror.Conflict("service request %s is already active for booking %s of the same customer, service and date", existing.ID, existing.BookingID)
		}
		if existing.AssignedStaffID == nil || *existing.AssignedStaffID != staff.ID {
			// A new assignee has not approved anything yet
			existing.Status = store.ServiceRequestStatusPending
			existing.ApprovedByID = nil
			existing.ApprovedAt = nil
		}
		existing.AssignedStaffID = &staff.ID
		existing.Notes = notes
		if err := tx.ServiceRequests().Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, true, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, err
	}

	request := &store.ServiceRequest{
		ID:              uuid.NewString(),
		BookingID:       booking.ID,
		CustomerID:      booking.CustomerID,
		CompanyID:       booking.CompanyID,
		ServiceID:       booking.ServiceID,
		AssignedStaffID: &staff.ID,
		RequestedDate:   booking.BookingDate,
		StartTime:       booking.StartTime,
		EndTime:         booking.EndTime,
		AddressLine:     booking.AddressLine,
		Latitude:        booking.Latitude,
		Longitude:       booking.Longitude,
		Status:          store.ServiceRequestStatusPending,
		Notes:           notes,
	}
	if err := tx.ServiceRequests().Create(ctx, request); err != nil {
		return nil, false, apperror.ConflictIf(err, store.ErrUniqueViolation, "an active service request already exists for booking %s", booking.ID)
	}
	return request, false, nil
}

func activeRequestLockKey(key store.ActiveRequestKey) string {
	return fmt.Sprintf("service_request:%s:%s:%s:%s", key.CompanyID, key.CustomerID, key.ServiceID, key.RequestedDate.Format(time.DateOnly))
}

// Approve accepts a pending service request assigned to the acting staff member
func (s *Service) Approve(ctx context.Context, user *store.User, requestID string) (request *store.ServiceRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "assignment.Approve", trace.WithAttributes(
		attribute.String("service_request.id", requestID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	request, err = s.decide(ctx, user, requestID, func(r *store.ServiceRequest, at time.Time) {
		r.Status = store.ServiceRequestStatusApproved
		r.ApprovedByID = &user.ID
		r.ApprovedAt = &at
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.New(events.TypeServiceRequestApproved, request.CompanyID, map[string]any{
		"serviceRequestId": request.ID,
		"bookingId":        request.BookingID,
		"staffId":          *request.AssignedStaffID,
	}))
	return request, nil
}

// Reject declines a pending service request assigned to the acting staff member.
// The booking keeps its status; the company is alerted to reassign it.
func (s *Service) Reject(ctx context.Context, user *store.User, requestID, reason string) (request *store.ServiceRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "assignment.Reject", trace.WithAttributes(
		attribute.String("service_request.id", requestID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectionReason
	}

	request, err = s.decide(ctx, user, requestID, func(r *store.ServiceRequest, at time.Time) {
		r.Status = store.ServiceRequestStatusRejected
		r.RejectedByID = &user.ID
		r.RejectedAt = &at
		r.RejectionReason = &reason
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.New(events.TypeServiceRequestRejected, request.CompanyID, map[string]any{
		"serviceRequestId": request.ID,
		"bookingId":        request.BookingID,
		"staffId":          *request.AssignedStaffID,
		"reason":           reason,
	}))

	alert := notification.RejectedAssignment{
		CompanyID:        request.CompanyID,
		BookingID:        request.BookingID,
		ServiceRequestID: request.ID,
		StaffName:        user.DisplayName,
		Reason:           reason,
	}
	if err := s.notifier.NotifyAssignmentRejected(ctx, alert); err != nil {
		s.logger.Printf("Error notifying rejection of service request %s: %s", request.ID, err)
	}
	return request, nil
}

// decide applies a staff decision to a pending request assigned to the actor.
// Requests that are not pending or not assigned to the actor are reported as not found.
func (s *Service) decide(ctx context.Context, user *store.User, requestID string, apply func(r *store.ServiceRequest, at time.Time)) (*store.ServiceRequest, error) {
	staff, err := s.directory.StaffOf(ctx, user.ID)
	if err != nil {
		return nil, apperror.NotFoundIf(err, store.ErrNotFound, "no active staff record for user %s", user.ID)
	}

	var request *store.ServiceRequest
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		request, err = tx.ServiceRequests().GetForUpdate(ctx, requestID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "service request %s not found", requestID)
		}
		if request.Status != store.ServiceRequestStatusPending ||
			request.AssignedStaffID == nil || *request.AssignedStaffID != staff.ID {
			return apperror.NotFound("service request %s not found", requestID)
		}

		apply(request, s.now())
		return tx.ServiceRequests().Update(ctx, request)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}
