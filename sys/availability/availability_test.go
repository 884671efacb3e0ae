package availability

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"cleanbuddy-fulfillment/res/events"
	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/store/memory"
	"cleanbuddy-fulfillment/sys/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june1 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, store.Store, *memory.Fixture) {
	t.Helper()

	s := memory.New()
	fx, err := memory.Seed(context.Background(), s)
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	return New(Config{Logger: logger, Store: s, Events: events.NewEmitter(logger)}), s, fx
}

func clock(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}

func declare(t *testing.T, svc *Service, user *store.User, date time.Time, start, end string) (*store.AvailabilitySlot, error) {
	t.Helper()
	return svc.Declare(context.Background(), user, DeclareInput{Date: date, Start: clock(t, start), End: clock(t, end)})
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 9, Minute: 30}, c)
	assert.Equal(t, "09:30", c.String())

	c, err = ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, june1.AddDate(0, 0, 1), c.On(june1))

	for _, bad := range []string{"", "25:00", "12:60", "noon", "24:30"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestDoubleBookingPrevention(t *testing.T) {
	svc, _, fx := newTestService(t)

	first, err := declare(t, svc, fx.StaffUser, june1, "09:00", "11:00")
	require.NoError(t, err)
	assert.True(t, first.IsAvailable)
	assert.Equal(t, fx.Company.ID, first.CompanyID)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), first.StartTime)

	_, err = declare(t, svc, fx.StaffUser, june1, "10:00", "12:00")
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = declare(t, svc, fx.StaffUser, june1, "11:00", "13:00")
	assert.NoError(t, err, "touching windows do not overlap")
}

func TestOverlapIsPerStaffAndDate(t *testing.T) {
	svc, _, fx := newTestService(t)

	_, err := declare(t, svc, fx.StaffUser, june1, "09:00", "11:00")
	require.NoError(t, err)

	_, err = declare(t, svc, fx.SecondUser, june1, "09:00", "11:00")
	assert.NoError(t, err, "another staff member")

	_, err = declare(t, svc, fx.StaffUser, june1.AddDate(0, 0, 1), "09:00", "11:00")
	assert.NoError(t, err, "another date")
}

func TestDeclareValidation(t *testing.T) {
	svc, _, fx := newTestService(t)

	_, err := declare(t, svc, fx.StaffUser, june1, "11:00", "11:00")
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))

	_, err = declare(t, svc, fx.Customer, june1, "09:00", "11:00")
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = declare(t, svc, fx.CompanyAdmin, june1, "09:00", "11:00")
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestDeclareByInactiveStaff(t *testing.T) {
	svc, s, fx := newTestService(t)
	require.NoError(t, s.Staff().UpdateStatus(context.Background(), fx.Staff.ID, store.StaffStatusInactive))

	_, err := declare(t, svc, fx.StaffUser, june1, "09:00", "11:00")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRevokedSlotsDoNotBlock(t *testing.T) {
	svc, s, fx := newTestService(t)
	ctx := context.Background()

	slot, err := declare(t, svc, fx.StaffUser, june1, "09:00", "11:00")
	require.NoError(t, err)

	revoked, err := svc.Revoke(ctx, fx.StaffUser, slot.ID)
	require.NoError(t, err)
	assert.False(t, revoked.IsAvailable)

	again, err := svc.Revoke(ctx, fx.StaffUser, slot.ID)
	require.NoError(t, err)
	assert.False(t, again.IsAvailable)

	stored, err := s.Availability().Get(ctx, slot.ID)
	require.NoError(t, err, "revoked slots are kept")
	assert.False(t, stored.IsAvailable)

	_, err = declare(t, svc, fx.StaffUser, june1, "10:00", "12:00")
	assert.NoError(t, err)
}

func TestUpdateKeepsDateOnPartialUpdate(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	slot, err := declare(t, svc, fx.StaffUser, june1, "09:00", "11:00")
	require.NoError(t, err)

	start := clock(t, "08:00")
	updated, err := svc.Update(ctx, fx.StaffUser, slot.ID, UpdateInput{Start: &start})
	require.NoError(t, err)

	assert.Equal(t, june1, updated.Date)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), updated.StartTime)
	assert.Equal(t, time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), updated.EndTime)

	june3 := june1.AddDate(0, 0, 2)
	moved, err := svc.Update(ctx, fx.StaffUser, slot.ID, UpdateInput{Date: &june3})
	require.NoError(t, err)
	assert.Equal(t, june3, moved.Date)
	assert.Equal(t, time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC), moved.StartTime)
	assert.Equal(t, time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC), moved.EndTime)
}

func TestUpdateRechecksOverlap(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	_, err := declare(t, svc, fx.StaffUser, june1, "09:00", "11:00")
	require.NoError(t, err)
	later, err := declare(t, svc, fx.StaffUser, june1, "13:00", "15:00")
	require.NoError(t, err)

	start := clock(t, "10:00")
	_, err = svc.Update(ctx, fx.StaffUser, later.ID, UpdateInput{Start: &start})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// shrinking a slot never conflicts with itself
	end := clock(t, "14:00")
	_, err = svc.Update(ctx, fx.StaffUser, later.ID, UpdateInput{End: &end})
	assert.NoError(t, err)

	badEnd := clock(t, "12:00")
	_, err = svc.Update(ctx, fx.StaffUser, later.ID, UpdateInput{End: &badEnd})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestSlotOwnership(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	slot, err := declare(t, svc, fx.StaffUser, june1, "09:00", "11:00")
	require.NoError(t, err)

	start := clock(t, "08:00")
	_, err = svc.Update(ctx, fx.SecondUser, slot.ID, UpdateInput{Start: &start})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = svc.Revoke(ctx, fx.SecondUser, slot.ID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = svc.Revoke(ctx, fx.StaffUser, "missing")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.Revoke(ctx, fx.StaffUser, slot.ID)
	require.NoError(t, err)
	_, err = svc.Update(ctx, fx.StaffUser, slot.ID, UpdateInput{Start: &start})
	assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
}

func TestConcurrentOverlappingDeclarations(t *testing.T) {
	svc, s, fx := newTestService(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Declare(ctx, fx.StaffUser, DeclareInput{
				Date:  june1,
				Start: Clock{Hour: 9},
				End:   Clock{Hour: 12},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	slots, err := s.Availability().ListAvailable(ctx, fx.Company.ID, fx.Staff.ID, june1)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}
