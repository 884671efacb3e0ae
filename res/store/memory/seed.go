package memory

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"
)

// Fixture is a small marketplace: two companies, their admins and staff,
// two customers, a platform admin, and an active and an inactive service.
type Fixture struct {
	Admin         *store.User
	Customer      *store.User
	OtherCustomer *store.User

	CompanyAdmin *store.User
	Company      *store.Company
	StaffUser    *store.User
	Staff        *store.CompanyStaff
	SecondUser   *store.User
	SecondStaff  *store.CompanyStaff

	OtherCompanyAdmin *store.User
	OtherCompany      *store.Company
	ForeignUser       *store.User
	ForeignStaff      *store.CompanyStaff

	Service         *store.Service
	InactiveService *store.Service
}

// Seed fills a store with the demo marketplace. The standard service costs 150.00.
func Seed(ctx context.Context, s store.Store) (*Fixture, error) {
	f := &Fixture{}
	var err error

	users := []struct {
		dst  **store.User
		id   string
		name string
		role store.UserRole
	}{
		{&f.Admin, "user-admin", "Platform Admin", store.UserRoleAdmin},
		{&f.Customer, "user-customer", "Carla Customer", store.UserRoleCustomer},
		{&f.OtherCustomer, "user-customer-2", "Oscar Customer", store.UserRoleCustomer},
		{&f.CompanyAdmin, "user-company-admin", "Sparkle Owner", store.UserRoleCompanyAdmin},
		{&f.StaffUser, "user-staff", "Ana Staff", store.UserRoleStaff},
		{&f.SecondUser, "user-staff-2", "Bogdan Staff", store.UserRoleStaff},
		{&f.OtherCompanyAdmin, "user-company-admin-2", "Shiny Owner", store.UserRoleCompanyAdmin},
		{&f.ForeignUser, "user-staff-foreign", "Felix Staff", store.UserRoleStaff},
	}
	for _, u := range users {
		*u.dst, err = s.Users().Create(ctx, u.id, u.name, u.id+"@example.com", u.role)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.id, err)
		}
	}

	f.Company = &store.Company{ID: "company-sparkle", AdminUserID: f.CompanyAdmin.ID, CompanyName: "Sparkle Cleaning", IsActive: true}
	f.OtherCompany = &store.Company{ID: "company-shiny", AdminUserID: f.OtherCompanyAdmin.ID, CompanyName: "Shiny Homes", IsActive: true}
	for _, c := range []*store.Company{f.Company, f.OtherCompany} {
		if err := s.Companies().Create(ctx, c); err != nil {
			return nil, fmt.Errorf("seed company %s: %w", c.ID, err)
		}
	}

	f.Staff = &store.CompanyStaff{ID: "staff-ana", UserID: f.StaffUser.ID, CompanyID: f.Company.ID, DisplayName: "Ana", Status: store.StaffStatusActive}
	f.SecondStaff = &store.CompanyStaff{ID: "staff-bogdan", UserID: f.SecondUser.ID, CompanyID: f.Company.ID, DisplayName: "Bogdan", Status: store.StaffStatusActive}
	f.ForeignStaff = &store.CompanyStaff{ID: "staff-felix", UserID: f.ForeignUser.ID, CompanyID: f.OtherCompany.ID, DisplayName: "Felix", Status: store.StaffStatusActive}
	for _, st := range []*store.CompanyStaff{f.Staff, f.SecondStaff, f.ForeignStaff} {
		if err := s.Staff().Create(ctx, st); err != nil {
			return nil, fmt.Errorf("seed staff %s: %w", st.ID, err)
		}
	}

	f.Service = &store.Service{ID: "service-standard", CompanyID: f.Company.ID, Name: "Standard Cleaning", BasePrice: 15000, IsActive: true}
	f.InactiveService = &store.Service{ID: "service-retired", CompanyID: f.Company.ID, Name: "Retired Deep Cleaning", BasePrice: 30000, IsActive: false}
	for _, svc := range []*store.Service{f.Service, f.InactiveService} {
		if err := s.Services().Create(ctx, svc); err != nil {
			return nil, fmt.Errorf("seed service %s: %w", svc.ID, err)
		}
	}

	return f, nil
}
