package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"
)

type userStore struct {
	*storeImpl
}

func NewUserStore(rootStore *storeImpl) *userStore {
	return &userStore{storeImpl: rootStore}
}

// MUTATIONS

func (uStore *userStore) Create(
	ctx context.Context,
	ID string,
	displayName string,
	email string,
	role store.UserRole,
) (*store.User, error) {
	newUser, err := store.NewUser(ID, displayName, email, role)
	if err != nil {
		return nil, err
	}

	result := uStore.db.WithContext(ctx).Create(newUser)
	if result.Error != nil {
		return nil, translateError(result.Error)
	} else if result.RowsAffected != 1 {
		return nil, fmt.Errorf("failed to create user (id: %s)", ID)
	}

	return newUser, nil
}

func (uStore *userStore) UpdateStatus(ctx context.Context, userID string, status store.UserStatus) error {
	result := uStore.db.WithContext(ctx).Model(&store.User{}).
		Where("id = ?", userID).
		Update("status", status)

	return checkSingleRow(result, "user", userID)
}

func (uStore *userStore) UpdateRole(ctx context.Context, userID string, role store.UserRole) error {
	if !store.ValidUserRole(role) {
		return fmt.Errorf("%w: invalid user role (%s)", store.ErrInvalidInput, role)
	}

	result := uStore.db.WithContext(ctx).Model(&store.User{}).
		Where("id = ?", userID).
		Update("role", role)

	return checkSingleRow(result, "user", userID)
}

// QUERIES

func (uStore *userStore) Get(ctx context.Context, id string) (*store.User, error) {
	var user store.User
	result := uStore.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &user, nil
}

func (uStore *userStore) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	var user store.User
	result := uStore.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &user, nil
}
