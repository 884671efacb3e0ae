package store

import (
	"context"
)

type Store interface {
	Users() UserStore
	Companies() CompanyStore
	Staff() StaffStore
	Services() ServiceStore
	Bookings() BookingStore
	ServiceRequests() ServiceRequestStore
	Availability() AvailabilityStore
	Payments() PaymentStore
	Reviews() ReviewStore
	RatingSummaries() RatingSummaryStore

	// Atomic runs fn inside a single transaction. Every write made through the
	// tx store is committed together, or not at all when fn returns an error.
	// Calling Atomic on a tx store reuses the enclosing transaction.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	// LockKey serializes concurrent transactions on the same key until the
	// enclosing transaction ends. Only valid on a tx store.
	LockKey(ctx context.Context, key string) error
}
