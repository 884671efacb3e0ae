// Package availability manages the open time windows staff members declare.
// Slots are never removed: revoking one clears its isAvailable flag, and only
// available slots take part in overlap checks.
package availability

import (
	"context"
	"fmt"
	"log"
	"time"

	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/directory"
	"cleanbuddy-fulfillment/sys/lifecycle"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Logger    *log.Logger
	Store     store.Store
	Directory directory.Directory
	Events    *events.Emitter
}

type Service struct {
	logger    *log.Logger
	store     store.Store
	directory directory.Directory
	events    *events.Emitter
	tracer    trace.Tracer
}

func New(cfg Config) *Service {
	s := &Service{
		logger:    cfg.Logger,
		store:     cfg.Store,
		directory: cfg.Directory,
		events:    cfg.Events,
		tracer:    telemetry.Tracer(),
	}
	if s.directory == nil {
		s.directory = directory.FromStore(cfg.Store)
	}
	return s
}

type DeclareInput struct {
	Date  time.Time
	Start Clock
	End   Clock
}

// UpdateInput changes some of a slot's window. Omitted fields keep their current value.
type UpdateInput struct {
	Date  *time.Time
	Start *Clock
	End   *Clock
}

// Declare opens a new window for the acting staff member
func (s *Service) Declare(ctx context.Context, user *store.User, in DeclareInput) (slot *store.AvailabilitySlot, err error) {
	ctx, span := s.tracer.Start(ctx, "availability.Declare")
	defer func() { telemetry.EndSpan(span, err) }()

	staff, err := s.staffOf(ctx, user)
	if err != nil {
		return nil, err
	}

	date := lifecycle.DateOf(in.Date)
	start, end := in.Start.On(date), in.End.On(date)
	if !start.Before(end) {
		return nil, apperror.InvalidInput("start %s must be before end %s", in.Start, in.End)
	}

	slot = &store.AvailabilitySlot{
		ID:          uuid.NewString(),
		CompanyID:   staff.CompanyID,
		StaffID:     staff.ID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if err := s.checkOverlap(ctx, tx, slot); err != nil {
			return err
		}
		return tx.Availability().Create(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, slot)
	return slot, nil
}

// Update moves a slot of the acting staff member. A partial update keeps the
// slot's date unless a new one is given, and the result must not overlap
// another available slot.
func (s *Service) Update(ctx context.Context, user *store.User, slotID string, in UpdateInput) (slot *store.AvailabilitySlot, err error) {
	ctx, span := s.tracer.Start(ctx, "availability.Update", trace.WithAttributes(
		attribute.String("slot.id", slotID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	staff, err := s.staffOf(ctx, user)
	if err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		slot, err = s.ownedSlot(ctx, tx, staff, slotID)
		if err != nil {
			return err
		}
		if !slot.IsAvailable {
			return apperror.InvalidState("availability slot %s was revoked", slotID)
		}

		date := slot.Date
		if in.Date != nil {
			date = lifecycle.DateOf(*in.Date)
		}
		startClock, endClock := WindowOf(slot)
		if in.Start != nil {
			startClock = *in.Start
		}
		if in.End != nil {
			endClock = *in.End
		}

		slot.Date = date
		slot.StartTime = startClock.On(date)
		slot.EndTime = endClock.On(date)
		if !slot.StartTime.Before(slot.EndTime) {
			return apperror.InvalidInput("start %s must be before end %s", startClock, endClock)
		}

		if err := s.checkOverlap(ctx, tx, slot); err != nil {
			return err
		}
		return tx.Availability().Update(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, slot)
	return slot, nil
}

// Revoke marks a slot of the acting staff member as no longer available. Revoking twice is a no-op.
func (s *Service) Revoke(ctx context.Context, user *store.User, slotID string) (slot *store.AvailabilitySlot, err error) {
	ctx, span := s.tracer.Start(ctx, "availability.Revoke", trace.WithAttributes(
		attribute.String("slot.id", slotID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	staff, err := s.staffOf(ctx, user)
	if err != nil {
		return nil, err
	}

	changed := false
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		slot, err = s.ownedSlot(ctx, tx, staff, slotID)
		if err != nil || !slot.IsAvailable {
			return err
		}

		slot.IsAvailable = false
		changed = true
		return tx.Availability().Update(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.emit(ctx, slot)
	}
	return slot, nil
}

func (s *Service) staffOf(ctx context.Context, user *store.User) (*store.CompanyStaff, error) {
	if !user.IsStaff() {
		return nil, apperror.Forbidden("only staff members manage availability")
	}
	staff, err := s.directory.StaffOf(ctx, user.ID)
	if err != nil {
		return nil, apperror.NotFoundIf(err, store.ErrNotFound, "no active staff record for user %s", user.ID)
	}
	return staff, nil
}

func (s *Service) ownedSlot(ctx context.Context, tx store.Store, staff *store.CompanyStaff, slotID string) (*store.AvailabilitySlot, error) {
	slot, err := tx.Availability().Get(ctx, slotID)
	if err != nil {
		return nil, apperror.NotFoundIf(err, store.ErrNotFound, "availability slot %s not found", slotID)
	}
	if slot.StaffID != staff.ID {
		return nil, apperror.Forbidden("availability slot %s belongs to another staff member", slotID)
	}
	return slot, nil
}

// checkOverlap rejects a window intersecting another available slot of the
// same staff member on the same date. Must run inside a transaction.
func (s *Service) checkOverlap(ctx context.Context, tx store.Store, slot *store.AvailabilitySlot) error {
	if err := tx.LockKey(ctx, fmt.Sprintf("availability:%s:%s", slot.StaffID, slot.Date.Format(time.DateOnly))); err != nil {
		return err
	}

	existing, err := tx.Availability().ListAvailable(ctx, slot.CompanyID, slot.StaffID, slot.Date)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID != slot.ID && other.Overlaps(slot.StartTime, slot.EndTime) {
			return apperror.Conflict("window %s-%s overlaps availability slot %s (%s-%s)",
				ClockOf(slot.StartTime), ClockOf(slot.EndTime),
				other.ID, ClockOf(other.StartTime), ClockOf(other.EndTime))
		}
	}
	return nil
}

func (s *Service) emit(ctx context.Context, slot *store.AvailabilitySlot) {
	s.events.Emit(ctx, events.New(events.TypeAvailabilityChanged, slot.CompanyID, map[string]any{
		"slotId":      slot.ID,
		"staffId":     slot.StaffID,
		"date":        slot.Date.Format(time.DateOnly),
		"start":       ClockOf(slot.StartTime).String(),
		"end":         ClockOf(slot.EndTime).String(),
		"isAvailable": slot.IsAvailable,
	}))
}
