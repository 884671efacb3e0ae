// Package memory is an in-process implementation of store.Store used for local
// development without Postgres and by tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"cleanbuddy-fulfillment/res/store"
)

type state struct {
	users           map[string]store.User
	companies       map[string]store.Company
	staff           map[string]store.CompanyStaff
	services        map[string]store.Service
	bookings        map[string]store.Booking
	statusLogs      []store.BookingStatusLog
	cancellations   []store.Cancellation
	serviceRequests map[string]store.ServiceRequest
	slots           map[string]store.AvailabilitySlot
	payments        map[string]store.Payment
	reviews         map[string]store.Review
	summaries       map[string]store.CompanyRatingSummary
}

func newState() *state {
	return &state{
		users:           map[string]store.User{},
		companies:       map[string]store.Company{},
		staff:           map[string]store.CompanyStaff{},
		services:        map[string]store.Service{},
		bookings:        map[string]store.Booking{},
		serviceRequests: map[string]store.ServiceRequest{},
		slots:           map[string]store.AvailabilitySlot{},
		payments:        map[string]store.Payment{},
		reviews:         map[string]store.Review{},
		summaries:       map[string]store.CompanyRatingSummary{},
	}
}

func (st *state) clone() *state {
	return &state{
		users:           maps.Clone(st.users),
		companies:       maps.Clone(st.companies),
		staff:           maps.Clone(st.staff),
		services:        maps.Clone(st.services),
		bookings:        maps.Clone(st.bookings),
		statusLogs:      append([]store.BookingStatusLog(nil), st.statusLogs...),
		cancellations:   append([]store.Cancellation(nil), st.cancellations...),
		serviceRequests: maps.Clone(st.serviceRequests),
		slots:           maps.Clone(st.slots),
		payments:        maps.Clone(st.payments),
		reviews:         maps.Clone(st.reviews),
		summaries:       maps.Clone(st.summaries),
	}
}

// db is shared by a Store and every tx store derived from it
type db struct {
	mu sync.Mutex
	st *state
}

type storeImpl struct {
	db   *db
	inTx bool

	userStore           *userStore
	companyStore        *companyStore
	staffStore          *staffStore
	serviceStore        *serviceStore
	bookingStore        *bookingStore
	serviceRequestStore *serviceRequestStore
	availabilityStore   *availabilityStore
	paymentStore        *paymentStore
	reviewStore         *reviewStore
	ratingSummaryStore  *ratingSummaryStore
}

// New returns an empty store. A single mutex serializes every operation;
// Atomic holds it for the whole callback and restores a snapshot on error.
func New() *storeImpl {
	return newStoreImpl(&db{st: newState()}, false)
}

func newStoreImpl(d *db, inTx bool) *storeImpl {
	s := &storeImpl{db: d, inTx: inTx}

	s.userStore = &userStore{s}
	s.companyStore = &companyStore{s}
	s.staffStore = &staffStore{s}
	s.serviceStore = &serviceStore{s}
	s.bookingStore = &bookingStore{s}
	s.serviceRequestStore = &serviceRequestStore{s}
	s.availabilityStore = &availabilityStore{s}
	s.paymentStore = &paymentStore{s}
	s.reviewStore = &reviewStore{s}
	s.ratingSummaryStore = &ratingSummaryStore{s}

	return s
}

func (sImpl *storeImpl) Users() store.UserStore                     { return sImpl.userStore }
func (sImpl *storeImpl) Companies() store.CompanyStore              { return sImpl.companyStore }
func (sImpl *storeImpl) Staff() store.StaffStore                    { return sImpl.staffStore }
func (sImpl *storeImpl) Services() store.ServiceStore               { return sImpl.serviceStore }
func (sImpl *storeImpl) Bookings() store.BookingStore               { return sImpl.bookingStore }
func (sImpl *storeImpl) ServiceRequests() store.ServiceRequestStore { return sImpl.serviceRequestStore }
func (sImpl *storeImpl) Availability() store.AvailabilityStore      { return sImpl.availabilityStore }
func (sImpl *storeImpl) Payments() store.PaymentStore               { return sImpl.paymentStore }
func (sImpl *storeImpl) Reviews() store.ReviewStore                 { return sImpl.reviewStore }
func (sImpl *storeImpl) RatingSummaries() store.RatingSummaryStore  { return sImpl.ratingSummaryStore }

func (sImpl *storeImpl) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if sImpl.inTx {
		return fn(sImpl)
	}

	sImpl.db.mu.Lock()
	defer sImpl.db.mu.Unlock()

	snapshot := sImpl.db.st.clone()
	err := fn(newStoreImpl(sImpl.db, true))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		sImpl.db.st = snapshot
	}
	return err
}

// LockKey is satisfied by the transaction-wide mutex
func (sImpl *storeImpl) LockKey(ctx context.Context, key string) error {
	if !sImpl.inTx {
		return store.ErrNotInTx
	}
	return nil
}

// with runs fn against the current state, taking the mutex unless a transaction already holds it
func (sImpl *storeImpl) with(fn func(st *state) error) error {
	if !sImpl.inTx {
		sImpl.db.mu.Lock()
		defer sImpl.db.mu.Unlock()
	}
	return fn(sImpl.db.st)
}
