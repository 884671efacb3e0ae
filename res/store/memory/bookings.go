package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cleanbuddy-fulfillment/res/store"
)

type bookingStore struct{ *storeImpl }

func (bs *bookingStore) Create(ctx context.Context, booking *store.Booking) error {
	return bs.with(func(st *state) error {
		if _, ok := st.bookings[booking.ID]; ok {
			return fmt.Errorf("%w: booking (id: %s)", store.ErrUniqueViolation, booking.ID)
		}
		booking.CreatedAt, booking.UpdatedAt = now(), now()
		st.bookings[booking.ID] = *booking
		return nil
	})
}

func (bs *bookingStore) UpdateStatus(ctx context.Context, booking *store.Booking) error {
	return bs.with(func(st *state) error {
		existing, ok := st.bookings[booking.ID]
		if !ok {
			return notFound("booking", booking.ID)
		}
		existing.Status = booking.Status
		existing.ConfirmedAt = booking.ConfirmedAt
		existing.StartedAt = booking.StartedAt
		existing.CompletedAt = booking.CompletedAt
		existing.CancelledAt = booking.CancelledAt
		existing.UpdatedAt = now()
		booking.UpdatedAt = existing.UpdatedAt
		st.bookings[booking.ID] = existing
		return nil
	})
}

func (bs *bookingStore) AppendStatusLog(ctx context.Context, entry *store.BookingStatusLog) error {
	return bs.with(func(st *state) error {
		if _, ok := st.bookings[entry.BookingID]; !ok {
			return notFound("booking", entry.BookingID)
		}
		entry.CreatedAt = now()
		st.statusLogs = append(st.statusLogs, *entry)
		return nil
	})
}

func (bs *bookingStore) CreateCancellation(ctx context.Context, cancellation *store.Cancellation) error {
	return bs.with(func(st *state) error {
		if _, ok := st.bookings[cancellation.BookingID]; !ok {
			return notFound("booking", cancellation.BookingID)
		}
		cancellation.CreatedAt = now()
		st.cancellations = append(st.cancellations, *cancellation)
		return nil
	})
}

func (bs *bookingStore) Get(ctx context.Context, id string) (*store.Booking, error) {
	var booking store.Booking
	err := bs.with(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return notFound("booking", id)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetForUpdate needs no row lock: a tx store already holds the global mutex
func (bs *bookingStore) GetForUpdate(ctx context.Context, id string) (*store.Booking, error) {
	return bs.Get(ctx, id)
}

func (bs *bookingStore) ListStatusLog(ctx context.Context, bookingID string) ([]*store.BookingStatusLog, error) {
	entries := []*store.BookingStatusLog{}
	err := bs.with(func(st *state) error {
		for _, e := range st.statusLogs {
			if e.BookingID == bookingID {
				entries = append(entries, &e)
			}
		}
		return nil
	})
	return entries, err
}

func (bs *bookingStore) ListCancellations(ctx context.Context, bookingID string) ([]*store.Cancellation, error) {
	cancellations := []*store.Cancellation{}
	err := bs.with(func(st *state) error {
		for _, c := range st.cancellations {
			if c.BookingID == bookingID {
				cancellations = append(cancellations, &c)
			}
		}
		return nil
	})
	return cancellations, err
}

type serviceRequestStore struct{ *storeImpl }

func activeKeyOf(r *store.ServiceRequest) store.ActiveRequestKey {
	return store.ActiveRequestKey{
		CompanyID:     r.CompanyID,
		CustomerID:    r.CustomerID,
		ServiceID:     r.ServiceID,
		RequestedDate: r.RequestedDate,
	}
}

func sameKey(a, b store.ActiveRequestKey) bool {
	return a.CompanyID == b.CompanyID &&
		a.CustomerID == b.CustomerID &&
		a.ServiceID == b.ServiceID &&
		a.RequestedDate.Equal(b.RequestedDate)
}

// checkActiveUnique mirrors the partial unique index on active requests
func checkActiveUnique(st *state, r *store.ServiceRequest) error {
	if !r.Status.IsActive() {
		return nil
	}
	key := activeKeyOf(r)
	for _, other := range st.serviceRequests {
		if other.ID != r.ID && other.Status.IsActive() && sameKey(activeKeyOf(&other), key) {
			return fmt.Errorf("%w: active service request (id: %s)", store.ErrUniqueViolation, other.ID)
		}
	}
	return nil
}

func (srs *serviceRequestStore) Create(ctx context.Context, request *store.ServiceRequest) error {
	return srs.with(func(st *state) error {
		if _, ok := st.serviceRequests[request.ID]; ok {
			return fmt.Errorf("%w: service request (id: %s)", store.ErrUniqueViolation, request.ID)
		}
		if request.Status == "" {
			request.Status = store.ServiceRequestStatusPending
		}
		if err := checkActiveUnique(st, request); err != nil {
			return err
		}
		request.CreatedAt, request.UpdatedAt = now(), now()
		st.serviceRequests[request.ID] = *request
		return nil
	})
}

func (srs *serviceRequestStore) Update(ctx context.Context, request *store.ServiceRequest) error {
	return srs.with(func(st *state) error {
		existing, ok := st.serviceRequests[request.ID]
		if !ok {
			return notFound("service request", request.ID)
		}
		existing.AssignedStaffID = request.AssignedStaffID
		existing.Notes = request.Notes
		existing.Status = request.Status
		existing.ApprovedByID = request.ApprovedByID
		existing.ApprovedAt = request.ApprovedAt
		existing.RejectedByID = request.RejectedByID
		existing.RejectedAt = request.RejectedAt
		existing.RejectionReason = request.RejectionReason
		if err := checkActiveUnique(st, &existing); err != nil {
			return err
		}
		existing.UpdatedAt = now()
		request.UpdatedAt = existing.UpdatedAt
		st.serviceRequests[request.ID] = existing
		return nil
	})
}

func (srs *serviceRequestStore) Get(ctx context.Context, id string) (*store.ServiceRequest, error) {
	var request store.ServiceRequest
	err := srs.with(func(st *state) error {
		r, ok := st.serviceRequests[id]
		if !ok {
			return notFound("service request", id)
		}
		request = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (srs *serviceRequestStore) GetForUpdate(ctx context.Context, id string) (*store.ServiceRequest, error) {
	return srs.Get(ctx, id)
}

func (srs *serviceRequestStore) FindActive(ctx context.Context, key store.ActiveRequestKey) (*store.ServiceRequest, error) {
	var found *store.ServiceRequest
	err := srs.with(func(st *state) error {
		for _, r := range st.serviceRequests {
			if r.Status.IsActive() && sameKey(activeKeyOf(&r), key) {
				found = &r
				return nil
			}
		}
		return notFound("active service request for customer", key.CustomerID)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (srs *serviceRequestStore) ListByBooking(ctx context.Context, bookingID string) ([]*store.ServiceRequest, error) {
	requests := []*store.ServiceRequest{}
	err := srs.with(func(st *state) error {
		for _, r := range st.serviceRequests {
			if r.BookingID == bookingID {
				requests = append(requests, &r)
			}
		}
		return nil
	})
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, err
}

type availabilityStore struct{ *storeImpl }

func (as *availabilityStore) Create(ctx context.Context, slot *store.AvailabilitySlot) error {
	return as.with(func(st *state) error {
		if _, ok := st.slots[slot.ID]; ok {
			return fmt.Errorf("%w: availability slot (id: %s)", store.ErrUniqueViolation, slot.ID)
		}
		slot.CreatedAt, slot.UpdatedAt = now(), now()
		st.slots[slot.ID] = *slot
		return nil
	})
}

func (as *availabilityStore) Update(ctx context.Context, slot *store.AvailabilitySlot) error {
	return as.with(func(st *state) error {
		existing, ok := st.slots[slot.ID]
		if !ok {
			return notFound("availability slot", slot.ID)
		}
		existing.Date = slot.Date
		existing.StartTime = slot.StartTime
		existing.EndTime = slot.EndTime
		existing.IsAvailable = slot.IsAvailable
		existing.UpdatedAt = now()
		slot.UpdatedAt = existing.UpdatedAt
		st.slots[slot.ID] = existing
		return nil
	})
}

func (as *availabilityStore) Get(ctx context.Context, id string) (*store.AvailabilitySlot, error) {
	var slot store.AvailabilitySlot
	err := as.with(func(st *state) error {
		s, ok := st.slots[id]
		if !ok {
			return notFound("availability slot", id)
		}
		slot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (as *availabilityStore) ListAvailable(ctx context.Context, companyID, staffID string, date time.Time) ([]*store.AvailabilitySlot, error) {
	slots := []*store.AvailabilitySlot{}
	err := as.with(func(st *state) error {
		for _, s := range st.slots {
			if s.IsAvailable && s.CompanyID == companyID && s.StaffID == staffID && s.Date.Equal(date) {
				slots = append(slots, &s)
			}
		}
		return nil
	})
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots, err
}
