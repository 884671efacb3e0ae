package assignment

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/notification"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/store/memory"
	"cleanbuddy-fulfillment/sys/apperror"
	"cleanbuddy-fulfillment/sys/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectionNotifier struct {
	notification.NotificationService
	mu     sync.Mutex
	alerts []notification.RejectedAssignment
}

func (n *rejectionNotifier) NotifyAssignmentRejected(_ context.Context, alert notification.RejectedAssignment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

type harness struct {
	service   *Service
	lifecycle *lifecycle.Engine
	store     store.Store
	fx        *memory.Fixture
	notifier  *rejectionNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s := memory.New()
	fx, err := memory.Seed(context.Background(), s)
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	emitter := events.NewEmitter(logger)
	notifier := &rejectionNotifier{NotificationService: notification.Nop()}
	engine := lifecycle.New(lifecycle.Config{Logger: logger, Store: s, Events: emitter})

	return &harness{
		service: New(Config{
			Logger:    logger,
			Store:     s,
			Lifecycle: engine,
			Events:    emitter,
			Notifier:  notifier,
		}),
		lifecycle: engine,
		store:     s,
		fx:        fx,
		notifier:  notifier,
	}
}

func (h *harness) createBooking(t *testing.T, start time.Time) *store.Booking {
	t.Helper()

	booking, err := h.lifecycle.Create(context.Background(), h.fx.Customer, lifecycle.CreateInput{
		CompanyID:   h.fx.Company.ID,
		ServiceID:   h.fx.Service.ID,
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		AddressLine: "Strada Lunga 1, Cluj",
	})
	require.NoError(t, err)
	return booking
}

func (h *harness) activeRequests(t *testing.T, booking *store.Booking) []*store.ServiceRequest {
	t.Helper()

	requests, err := h.store.ServiceRequests().ListByBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	var active []*store.ServiceRequest
	for _, r := range requests {
		if r.Status.IsActive() {
			active = append(active, r)
		}
	}
	return active
}

var june1 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestAssignStaffConfirmsPendingBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, june1)

	assignment, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "bring ladder")
	require.NoError(t, err)

	assert.Equal(t, store.ServiceRequestStatusPending, assignment.Request.Status)
	assert.Equal(t, h.fx.Staff.ID, *assignment.Request.AssignedStaffID)
	assert.Equal(t, booking.ID, assignment.Request.BookingID)
	assert.Equal(t, booking.AddressLine, assignment.Request.AddressLine)
	assert.Equal(t, booking.BookingDate, assignment.Request.RequestedDate)
	assert.Equal(t, "bring ladder", assignment.Request.Notes)
	assert.Equal(t, "Ana", assignment.Staff.DisplayName)

	stored, err := h.store.Bookings().Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, store.BookingStatusConfirmed, stored.Status)

	entries, err := h.store.Bookings().ListStatusLog(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, h.fx.CompanyAdmin.ID, entries[1].ActorID)
}

func TestReassignmentUpdatesExistingRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, june1)

	first, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "")
	require.NoError(t, err)

	second, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.SecondStaff.ID, "Ana is off")
	require.NoError(t, err)

	assert.Equal(t, first.Request.ID, second.Request.ID)
	assert.Equal(t, h.fx.SecondStaff.ID, *second.Request.AssignedStaffID)
	assert.Equal(t, "Ana is off", second.Request.Notes)
	assert.Len(t, h.activeRequests(t, booking), 1)

	// booking was already confirmed by the first assignment
	entries, err := h.store.Bookings().ListStatusLog(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReassignmentResetsApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, june1)

	first, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "")
	require.NoError(t, err)
	_, err = h.service.Approve(ctx, h.fx.StaffUser, first.Request.ID)
	require.NoError(t, err)

	second, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.SecondStaff.ID, "")
	require.NoError(t, err)
	assert.Equal(t, store.ServiceRequestStatusPending, second.Request.Status)
	assert.Nil(t, second.Request.ApprovedByID)

	_, err = h.service.Approve(ctx, h.fx.SecondUser, second.Request.ID)
	assert.NoError(t, err)
}

func TestSameDayBookingDoesNotTakeOverRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	morning := h.createBooking(t, june1)
	afternoon := h.createBooking(t, june1.Add(5*time.Hour))

	first, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, morning.ID, h.fx.Staff.ID, "")
	require.NoError(t, err)

	_, err = h.service.AssignStaff(ctx, h.fx.CompanyAdmin, afternoon.ID, h.fx.SecondStaff.ID, "")
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	active := h.activeRequests(t, morning)
	require.Len(t, active, 1)
	assert.Equal(t, first.Request.ID, active[0].ID)
	assert.Equal(t, h.fx.Staff.ID, *active[0].AssignedStaffID)
	assert.Empty(t, h.activeRequests(t, afternoon))

	stored, err := h.store.Bookings().Get(ctx, afternoon.ID)
	require.NoError(t, err)
	assert.Equal(t, store.BookingStatusPending, stored.Status, "a failed assignment leaves the booking untouched")
}

func TestAssignStaffFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, june1)

	_, err := h.service.AssignStaff(ctx, h.fx.Customer, booking.ID, h.fx.Staff.ID, "")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "actor without company")

	_, err = h.service.AssignStaff(ctx, h.fx.CompanyAdmin, "missing", h.fx.Staff.ID, "")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "unknown booking")

	_, err = h.service.AssignStaff(ctx, h.fx.OtherCompanyAdmin, booking.ID, h.fx.ForeignStaff.ID, "")
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err), "booking of another company")

	_, err = h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.ForeignStaff.ID, "")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "staff of another company")

	require.NoError(t, h.store.Staff().UpdateStatus(ctx, h.fx.SecondStaff.ID, store.StaffStatusInactive))
	_, err = h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.SecondStaff.ID, "")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "inactive staff")

	assert.Empty(t, h.activeRequests(t, booking))
	stored, err := h.store.Bookings().Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, store.BookingStatusPending, stored.Status)
}

func TestAssignStaffToCancelledBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, june1)

	_, err := h.lifecycle.Cancel(ctx, h.fx.Customer, booking.ID, "")
	require.NoError(t, err)

	_, err = h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "")
	assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
}

func TestConcurrentAssignmentsKeepOneActiveRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, june1)

	staffIDs := []string{h.fx.Staff.ID, h.fx.SecondStaff.ID}
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(staffID string) {
			defer wg.Done()
			_, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, staffID, "")
			assert.NoError(t, err)
		}(staffIDs[i%2])
	}
	wg.Wait()

	assert.Len(t, h.activeRequests(t, booking), 1)
}

func TestApproveAndReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("assigned staff approves", func(t *testing.T) {
		booking := h.createBooking(t, june1)
		assignment, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "")
		require.NoError(t, err)

		approved, err := h.service.Approve(ctx, h.fx.StaffUser, assignment.Request.ID)
		require.NoError(t, err)
		assert.Equal(t, store.ServiceRequestStatusApproved, approved.Status)
		assert.Equal(t, h.fx.StaffUser.ID, *approved.ApprovedByID)
		assert.NotNil(t, approved.ApprovedAt)

		stored, err := h.store.Bookings().Get(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, store.BookingStatusConfirmed, stored.Status)

		_, err = h.service.Approve(ctx, h.fx.StaffUser, assignment.Request.ID)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "no longer pending")
	})

	t.Run("other staff cannot see the request", func(t *testing.T) {
		booking := h.createBooking(t, june1.AddDate(0, 0, 1))
		assignment, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "")
		require.NoError(t, err)

		_, err = h.service.Approve(ctx, h.fx.SecondUser, assignment.Request.ID)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

		_, err = h.service.Reject(ctx, h.fx.ForeignUser, assignment.Request.ID, "")
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

		_, err = h.service.Approve(ctx, h.fx.Customer, assignment.Request.ID)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("rejection keeps booking confirmed", func(t *testing.T) {
		booking := h.createBooking(t, june1.AddDate(0, 0, 2))
		assignment, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "")
		require.NoError(t, err)

		rejected, err := h.service.Reject(ctx, h.fx.StaffUser, assignment.Request.ID, "  ")
		require.NoError(t, err)
		assert.Equal(t, store.ServiceRequestStatusRejected, rejected.Status)
		assert.Equal(t, DefaultRejectionReason, *rejected.RejectionReason)
		assert.Equal(t, h.fx.StaffUser.ID, *rejected.RejectedByID)

		stored, err := h.store.Bookings().Get(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, store.BookingStatusConfirmed, stored.Status)

		require.NotEmpty(t, h.notifier.alerts)
		last := h.notifier.alerts[len(h.notifier.alerts)-1]
		assert.Equal(t, booking.ID, last.BookingID)
		assert.Equal(t, DefaultRejectionReason, last.Reason)

		// a rejected request is no longer active, so the next assignment opens a new one
		next, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.SecondStaff.ID, "")
		require.NoError(t, err)
		assert.NotEqual(t, assignment.Request.ID, next.Request.ID)
		assert.Len(t, h.activeRequests(t, booking), 1)
	})
}

func TestListServiceRequestsLoadsStaffProfiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, june1)

	first, err := h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.Staff.ID, "")
	require.NoError(t, err)
	_, err = h.service.Reject(ctx, h.fx.StaffUser, first.Request.ID, "sick")
	require.NoError(t, err)
	_, err = h.service.AssignStaff(ctx, h.fx.CompanyAdmin, booking.ID, h.fx.SecondStaff.ID, "")
	require.NoError(t, err)

	assignments, err := h.service.ListServiceRequests(ctx, h.fx.StaffUser, booking.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	names := map[string]bool{}
	for _, a := range assignments {
		require.NotNil(t, a.Staff)
		names[a.Staff.DisplayName] = true
	}
	assert.Equal(t, map[string]bool{"Ana": true, "Bogdan": true}, names)

	_, err = h.service.ListServiceRequests(ctx, h.fx.OtherCompanyAdmin, booking.ID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = h.service.ListServiceRequests(ctx, h.fx.CompanyAdmin, "missing")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
