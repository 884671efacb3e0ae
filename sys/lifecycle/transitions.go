package lifecycle

import (
	"slices"
	"time"

	"cleanbuddy-fulfillment/res/store"
)

var allowedTransitions = map[store.BookingStatus][]store.BookingStatus{
	store.BookingStatusPending:    {store.BookingStatusConfirmed, store.BookingStatusCancelled},
	store.BookingStatusConfirmed:  {store.BookingStatusInProgress, store.BookingStatusCancelled},
	store.BookingStatusInProgress: {store.BookingStatusCompleted, store.BookingStatusCancelled},
	store.BookingStatusCompleted:  {},
	store.BookingStatusCancelled:  {},
}

// CanTransition reports whether a booking may move from one status to another
func CanTransition(from, to store.BookingStatus) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// IsTerminal reports whether no transition leaves the status
func IsTerminal(status store.BookingStatus) bool {
	return len(allowedTransitions[status]) == 0
}

// customerCancellable lists the statuses from which a customer may cancel their own booking
var customerCancellable = []store.BookingStatus{store.BookingStatusPending, store.BookingStatusConfirmed}

// stampLifecycle sets the timestamp matching the status a booking just entered
func stampLifecycle(b *store.Booking, at time.Time) {
	switch b.Status {
	case store.BookingStatusConfirmed:
		b.ConfirmedAt = &at
	case store.BookingStatusInProgress:
		b.StartedAt = &at
	case store.BookingStatusCompleted:
		b.CompletedAt = &at
	case store.BookingStatusCancelled:
		b.CancelledAt = &at
	}
}
