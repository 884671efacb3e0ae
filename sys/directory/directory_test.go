package directory

import (
	"context"
	"testing"

	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/res/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	admin, err := s.Users().Create(ctx, "u-admin", "Admin", "admin@example.com", store.UserRoleCompanyAdmin)
	require.NoError(t, err)
	staffUser, err := s.Users().Create(ctx, "u-staff", "Staff", "staff@example.com", store.UserRoleStaff)
	require.NoError(t, err)
	customer, err := s.Users().Create(ctx, "u-customer", "Customer", "customer@example.com", store.UserRoleCustomer)
	require.NoError(t, err)
	orphan, err := s.Users().Create(ctx, "u-orphan", "Orphan", "orphan@example.com", store.UserRoleStaff)
	require.NoError(t, err)

	require.NoError(t, s.Companies().Create(ctx, &store.Company{ID: "c1", AdminUserID: admin.ID, CompanyName: "Sparkle"}))
	require.NoError(t, s.Staff().Create(ctx, &store.CompanyStaff{ID: "s1", UserID: staffUser.ID, CompanyID: "c1", DisplayName: "Staff"}))

	dir := FromStore(s)

	actor, err := Resolve(ctx, dir, admin)
	require.NoError(t, err)
	assert.True(t, actor.ActsFor("c1"))
	assert.Empty(t, actor.StaffID)

	actor, err = Resolve(ctx, dir, staffUser)
	require.NoError(t, err)
	assert.True(t, actor.ActsFor("c1"))
	assert.Equal(t, "s1", actor.StaffID)

	actor, err = Resolve(ctx, dir, customer)
	require.NoError(t, err)
	assert.False(t, actor.ActsFor("c1"))

	actor, err = Resolve(ctx, dir, orphan)
	require.NoError(t, err)
	assert.False(t, actor.ActsFor(""))
}

func TestResolveInactiveStaff(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	user, err := s.Users().Create(ctx, "u-staff", "Staff", "staff@example.com", store.UserRoleStaff)
	require.NoError(t, err)
	require.NoError(t, s.Staff().Create(ctx, &store.CompanyStaff{ID: "s1", UserID: user.ID, CompanyID: "c1", DisplayName: "Staff"}))
	require.NoError(t, s.Staff().UpdateStatus(ctx, "s1", store.StaffStatusInactive))

	actor, err := Resolve(ctx, FromStore(s), user)
	require.NoError(t, err)
	assert.False(t, actor.ActsFor("c1"))
}
