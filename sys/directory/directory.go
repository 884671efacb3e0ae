// Package directory answers "which company does this actor act for".
// The lookups run outside any transaction, before an operation starts writing.
package directory

import (
	"context"
	"errors"

	"cleanbuddy-fulfillment/res/store"
)

// Directory is the company-side identity lookup injected into every fulfillment component
type Directory interface {
	// CompanyOf returns the company administered by the actor, or store.ErrNotFound
	CompanyOf(ctx context.Context, actorID string) (*store.Company, error)
	// StaffOf returns the active staff record of the actor, or store.ErrNotFound
	StaffOf(ctx context.Context, actorID string) (*store.CompanyStaff, error)
}

type storeDirectory struct {
	store store.Store
}

func FromStore(s store.Store) Directory {
	return &storeDirectory{store: s}
}

func (d *storeDirectory) CompanyOf(ctx context.Context, actorID string) (*store.Company, error) {
	return d.store.Companies().GetByAdminUserID(ctx, actorID)
}

func (d *storeDirectory) StaffOf(ctx context.Context, actorID string) (*store.CompanyStaff, error) {
	return d.store.Staff().GetActiveByUserID(ctx, actorID)
}

// Actor is an authenticated user together with the company they act for.
// CompanyID is empty for customers, platform admins, and company-side users
// without an active company link.
type Actor struct {
	*store.User

	CompanyID string
	StaffID   string
}

// Resolve looks up the company an authenticated user acts for
func Resolve(ctx context.Context, dir Directory, user *store.User) (*Actor, error) {
	actor := &Actor{User: user}

	switch user.Role {
	case store.UserRoleCompanyAdmin:
		company, err := dir.CompanyOf(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			return actor, nil
		} else if err != nil {
			return nil, err
		}
		actor.CompanyID = company.ID
	case store.UserRoleStaff:
		staff, err := dir.StaffOf(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			return actor, nil
		} else if err != nil {
			return nil, err
		}
		actor.CompanyID = staff.CompanyID
		actor.StaffID = staff.ID
	}

	return actor, nil
}

// ActsFor reports whether the actor works on behalf of the company
func (a *Actor) ActsFor(companyID string) bool {
	return a.CompanyID != "" && a.CompanyID == companyID
}
