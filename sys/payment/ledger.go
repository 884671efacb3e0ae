// Package payment keeps the one payment record each booking may have.
// Completing a payment never changes the booking; callers that need a
// booking transition make it separately through the lifecycle engine.
package payment

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/telemetry"
	"cleanbuddy-fulfillment/sys/apperror"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Logger *log.Logger
	Store  store.Store
	Events *events.Emitter

	// Now defaults to time.Now in UTC
	Now func() time.Time
}

type Ledger struct {
	logger *log.Logger
	store  store.Store
	events *events.Emitter
	tracer trace.Tracer
	now    func() time.Time
}

func New(cfg Config) *Ledger {
	l := &Ledger{
		logger: cfg.Logger,
		store:  cfg.Store,
		events: cfg.Events,
		tracer: telemetry.Tracer(),
		now:    cfg.Now,
	}
	if l.now == nil {
		l.now = func() time.Time { return time.Now().UTC() }
	}
	return l
}

// CreatePayment opens the payment of a customer's own booking. The amount is
// the booking's total price at this instant.
func (l *Ledger) CreatePayment(ctx context.Context, user *store.User, bookingID string, method store.PaymentMethod, transactionRef string) (payment *store.Payment, err error) {
	ctx, span := l.tracer.Start(ctx, "payment.CreatePayment", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if !method.Valid() {
		return nil, apperror.InvalidInput("unknown payment method %q", method)
	}

	var booking *store.Booking
	err = l.store.Atomic(ctx, func(tx store.Store) error {
		booking, err = tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "booking %s not found", bookingID)
		}
		if booking.CustomerID != user.ID {
			return apperror.Forbidden("booking %s belongs to another customer", bookingID)
		}
		if booking.Status == store.BookingStatusCancelled {
			return apperror.InvalidState("booking %s is cancelled", bookingID)
		}

		existing, err := tx.Payments().GetByBooking(ctx, bookingID)
		if err == nil {
			return apperror.Conflict("booking %s already has payment %s", bookingID, existing.ID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		payment = &store.Payment{
			ID:             uuid.NewString(),
			BookingID:      bookingID,
			PayerID:        user.ID,
			Amount:         booking.TotalPrice,
			Method:         method,
			Status:         store.PaymentStatusPending,
			TransactionRef: optional(transactionRef),
		}
		err = tx.Payments().Create(ctx, payment)
		return apperror.ConflictIf(err, store.ErrUniqueViolation, "booking %s already has a payment", bookingID)
	})
	if err != nil {
		return nil, err
	}

	l.events.Emit(ctx, events.New(events.TypePaymentCreated, booking.CompanyID, map[string]any{
		"paymentId": payment.ID,
		"bookingId": bookingID,
		"amount":    payment.Amount,
		"method":    payment.Method,
	}))
	return payment, nil
}

// CompletePayment settles a pending payment as paid or failed. Only the payer
// or a platform admin may complete it.
func (l *Ledger) CompletePayment(ctx context.Context, user *store.User, paymentID string, status store.PaymentStatus, transactionRef string) (payment *store.Payment, err error) {
	ctx, span := l.tracer.Start(ctx, "payment.CompletePayment", trace.WithAttributes(
		attribute.String("payment.id", paymentID),
		attribute.String("payment.status", string(status)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if status != store.PaymentStatusPaid && status != store.PaymentStatusFailed {
		return nil, apperror.InvalidInput("payments complete as %s or %s, not %q", store.PaymentStatusPaid, store.PaymentStatusFailed, status)
	}

	var companyID string
	err = l.store.Atomic(ctx, func(tx store.Store) error {
		payment, err = tx.Payments().GetForUpdate(ctx, paymentID)
		if err != nil {
			return apperror.NotFoundIf(err, store.ErrNotFound, "payment %s not found", paymentID)
		}
		if payment.PayerID != user.ID && !user.IsAdmin() {
			return apperror.Forbidden("payment %s belongs to another customer", paymentID)
		}
		if payment.Status != store.PaymentStatusPending {
			return apperror.InvalidState("payment %s is already %s", paymentID, payment.Status)
		}

		booking, err := tx.Bookings().Get(ctx, payment.BookingID)
		if err != nil {
			return err
		}
		companyID = booking.CompanyID

		payment.Status = status
		if ref := optional(transactionRef); ref != nil {
			payment.TransactionRef = ref
		}
		if status == store.PaymentStatusPaid {
			paidAt := l.now()
			payment.PaidAt = &paidAt
		}
		return tx.Payments().Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	l.events.Emit(ctx, events.New(events.TypePaymentCompleted, companyID, map[string]any{
		"paymentId": payment.ID,
		"bookingId": payment.BookingID,
		"status":    payment.Status,
	}))
	return payment, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
