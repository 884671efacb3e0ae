package memory

import (
	"context"
	"fmt"
	"time"

	"cleanbuddy-fulfillment/res/store"
)

func now() time.Time {
	return time.Now().UTC()
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s (id: %s)", store.ErrNotFound, what, id)
}

type userStore struct{ *storeImpl }

func (us *userStore) Create(ctx context.Context, ID, displayName, email string, role store.UserRole) (*store.User, error) {
	newUser, err := store.NewUser(ID, displayName, email, role)
	if err != nil {
		return nil, err
	}

	err = us.with(func(st *state) error {
		if _, ok := st.users[ID]; ok {
			return fmt.Errorf("%w: user (id: %s)", store.ErrUniqueViolation, ID)
		}
		newUser.CreatedAt, newUser.UpdatedAt = now(), now()
		st.users[ID] = *newUser
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newUser, nil
}

func (us *userStore) UpdateStatus(ctx context.Context, userID string, status store.UserStatus) error {
	return us.with(func(st *state) error {
		user, ok := st.users[userID]
		if !ok {
			return notFound("user", userID)
		}
		user.Status, user.UpdatedAt = status, now()
		st.users[userID] = user
		return nil
	})
}

func (us *userStore) Get(ctx context.Context, id string) (*store.User, error) {
	var user store.User
	err := us.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return notFound("user", id)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (us *userStore) UpdateRole(ctx context.Context, userID string, role store.UserRole) error {
	if !store.ValidUserRole(role) {
		return fmt.Errorf("%w: invalid user role (%s)", store.ErrInvalidInput, role)
	}
	return us.with(func(st *state) error {
		user, ok := st.users[userID]
		if !ok {
			return notFound("user", userID)
		}
		user.Role, user.UpdatedAt = role, now()
		st.users[userID] = user
		return nil
	})
}

func (us *userStore) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	var user *store.User
	err := us.with(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				user = &u
				return nil
			}
		}
		return notFound("user with email", email)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type companyStore struct{ *storeImpl }

func (cs *companyStore) Create(ctx context.Context, company *store.Company) error {
	return cs.with(func(st *state) error {
		if _, ok := st.companies[company.ID]; ok {
			return fmt.Errorf("%w: company (id: %s)", store.ErrUniqueViolation, company.ID)
		}
		for _, c := range st.companies {
			if c.AdminUserID == company.AdminUserID {
				return fmt.Errorf("%w: company admin (id: %s)", store.ErrUniqueViolation, company.AdminUserID)
			}
		}
		company.CreatedAt, company.UpdatedAt = now(), now()
		st.companies[company.ID] = *company
		return nil
	})
}

func (cs *companyStore) Get(ctx context.Context, id string) (*store.Company, error) {
	var company store.Company
	err := cs.with(func(st *state) error {
		c, ok := st.companies[id]
		if !ok {
			return notFound("company", id)
		}
		company = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (cs *companyStore) GetByAdminUserID(ctx context.Context, adminUserID string) (*store.Company, error) {
	var company *store.Company
	err := cs.with(func(st *state) error {
		for _, c := range st.companies {
			if c.AdminUserID == adminUserID {
				company = &c
				return nil
			}
		}
		return notFound("company of admin", adminUserID)
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

type staffStore struct{ *storeImpl }

func (ss *staffStore) Create(ctx context.Context, staff *store.CompanyStaff) error {
	return ss.with(func(st *state) error {
		if _, ok := st.staff[staff.ID]; ok {
			return fmt.Errorf("%w: staff member (id: %s)", store.ErrUniqueViolation, staff.ID)
		}
		for _, s := range st.staff {
			if s.UserID == staff.UserID {
				return fmt.Errorf("%w: staff user (id: %s)", store.ErrUniqueViolation, staff.UserID)
			}
		}
		if staff.Status == "" {
			staff.Status = store.StaffStatusActive
		}
		staff.CreatedAt, staff.UpdatedAt = now(), now()
		st.staff[staff.ID] = *staff
		return nil
	})
}

func (ss *staffStore) UpdateStatus(ctx context.Context, id string, status store.StaffStatus) error {
	return ss.with(func(st *state) error {
		s, ok := st.staff[id]
		if !ok {
			return notFound("staff member", id)
		}
		s.Status, s.UpdatedAt = status, now()
		st.staff[id] = s
		return nil
	})
}

func (ss *staffStore) find(match func(s *store.CompanyStaff) bool, what, id string) (*store.CompanyStaff, error) {
	var found *store.CompanyStaff
	err := ss.with(func(st *state) error {
		for _, s := range st.staff {
			if match(&s) {
				found = &s
				return nil
			}
		}
		return notFound(what, id)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (ss *staffStore) Get(ctx context.Context, id string) (*store.CompanyStaff, error) {
	return ss.find(func(s *store.CompanyStaff) bool { return s.ID == id }, "staff member", id)
}

func (ss *staffStore) GetActiveByUserID(ctx context.Context, userID string) (*store.CompanyStaff, error) {
	return ss.find(func(s *store.CompanyStaff) bool {
		return s.UserID == userID && s.IsActive()
	}, "active staff of user", userID)
}

func (ss *staffStore) GetActiveInCompany(ctx context.Context, id, companyID string) (*store.CompanyStaff, error) {
	return ss.find(func(s *store.CompanyStaff) bool {
		return s.ID == id && s.CompanyID == companyID && s.IsActive()
	}, "active staff member", id)
}

func (ss *staffStore) GetMany(ctx context.Context, ids []string) ([]*store.CompanyStaff, error) {
	staff := []*store.CompanyStaff{}
	err := ss.with(func(st *state) error {
		for _, id := range ids {
			if s, ok := st.staff[id]; ok {
				staff = append(staff, &s)
			}
		}
		return nil
	})
	return staff, err
}

type serviceStore struct{ *storeImpl }

func (ss *serviceStore) Create(ctx context.Context, service *store.Service) error {
	return ss.with(func(st *state) error {
		if _, ok := st.services[service.ID]; ok {
			return fmt.Errorf("%w: service (id: %s)", store.ErrUniqueViolation, service.ID)
		}
		service.CreatedAt, service.UpdatedAt = now(), now()
		st.services[service.ID] = *service
		return nil
	})
}

func (ss *serviceStore) Update(ctx context.Context, service *store.Service) error {
	return ss.with(func(st *state) error {
		existing, ok := st.services[service.ID]
		if !ok {
			return notFound("service", service.ID)
		}
		existing.Name = service.Name
		existing.Description = service.Description
		existing.BasePrice = service.BasePrice
		existing.IsActive = service.IsActive
		existing.UpdatedAt = now()
		st.services[service.ID] = existing
		return nil
	})
}

func (ss *serviceStore) Get(ctx context.Context, id string) (*store.Service, error) {
	var service store.Service
	err := ss.with(func(st *state) error {
		s, ok := st.services[id]
		if !ok {
			return notFound("service", id)
		}
		service = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &service, nil
}
