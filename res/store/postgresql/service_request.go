package postgresql

import (
	"context"
	"fmt"

	"cleanbuddy-fulfillment/res/store"

	"gorm.io/gorm/clause"
)

type serviceRequestStore struct {
	*storeImpl
}

func NewServiceRequestStore(rootStore *storeImpl) *serviceRequestStore {
	return &serviceRequestStore{storeImpl: rootStore}
}

// MUTATIONS

func (srs *serviceRequestStore) Create(ctx context.Context, request *store.ServiceRequest) error {
	result := srs.db.WithContext(ctx).Create(request)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("failed to create service request")
	}
	return nil
}

func (srs *serviceRequestStore) Update(ctx context.Context, request *store.ServiceRequest) error {
	result := srs.db.WithContext(ctx).Model(request).
		Select(
			"assigned_staff_id", "notes", "status",
			"approved_by_id", "approved_at",
			"rejected_by_id", "rejected_at", "rejection_reason",
			"updated_at",
		).
		Updates(request)

	return checkSingleRow(result, "service request", request.ID)
}

// QUERIES

func (srs *serviceRequestStore) Get(ctx context.Context, id string) (*store.ServiceRequest, error) {
	var request store.ServiceRequest
	result := srs.db.WithContext(ctx).Where("id = ?", id).First(&request)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &request, nil
}

func (srs *serviceRequestStore) GetForUpdate(ctx context.Context, id string) (*store.ServiceRequest, error) {
	var request store.ServiceRequest
	result := srs.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&request)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &request, nil
}

func (srs *serviceRequestStore) FindActive(ctx context.Context, key store.ActiveRequestKey) (*store.ServiceRequest, error) {
	var request store.ServiceRequest
	result := srs.db.WithContext(ctx).
		Where("company_id = ? AND customer_id = ? AND service_id = ? AND requested_date = ?",
			key.CompanyID, key.CustomerID, key.ServiceID, key.RequestedDate).
		Where("status IN ?", []store.ServiceRequestStatus{store.ServiceRequestStatusPending, store.ServiceRequestStatusApproved}).
		First(&request)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &request, nil
}

func (srs *serviceRequestStore) ListByBooking(ctx context.Context, bookingID string) ([]*store.ServiceRequest, error) {
	var requests []*store.ServiceRequest
	result := srs.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&requests)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return requests, nil
}
