package postgresql

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"cleanbuddy-fulfillment/res/store"

	sqlCommenter "github.com/gouyelliot/gorm-sqlcommenter-plugin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type storeImpl struct {
	db   *gorm.DB
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

func (sImpl *storeImpl) Users() store.UserStore {
	return sImpl.userStore
}

func (sImpl *storeImpl) Companies() store.CompanyStore {
	return sImpl.companyStore
}

func (sImpl *storeImpl) Staff() store.StaffStore {
	return sImpl.staffStore
}

func (sImpl *storeImpl) Services() store.ServiceStore {
	return sImpl.serviceStore
}

func (sImpl *storeImpl) Bookings() store.BookingStore {
	return sImpl.bookingStore
}

func (sImpl *storeImpl) ServiceRequests() store.ServiceRequestStore {
	return sImpl.serviceRequestStore
}

func (sImpl *storeImpl) Availability() store.AvailabilityStore {
	return sImpl.availabilityStore
}

func (sImpl *storeImpl) Payments() store.PaymentStore {
	return sImpl.paymentStore
}

func (sImpl *storeImpl) Reviews() store.ReviewStore {
	return sImpl.reviewStore
}

func (sImpl *storeImpl) RatingSummaries() store.RatingSummaryStore {
	return sImpl.ratingSummaryStore
}

func (sImpl *storeImpl) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if sImpl.inTx {
		return fn(sImpl)
	}

	return sImpl.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStoreImpl(tx, true))
	})
}

func (sImpl *storeImpl) LockKey(ctx context.Context, key string) error {
	if !sImpl.inTx {
		return fmt.Errorf("%w: lock %q", store.ErrNotInTx, key)
	}

	return sImpl.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

// Migrate creates or updates every table, including the partial unique index on active service requests
func (sImpl *storeImpl) Migrate() error {
	err := sImpl.db.AutoMigrate(
		&store.User{},
		&store.Company{},
		&store.CompanyStaff{},
		&store.Service{},
		&store.Booking{},
		&store.BookingStatusLog{},
		&store.Cancellation{},
		&store.ServiceRequest{},
		&store.AvailabilitySlot{},
		&store.Payment{},
		&store.Review{},
		&store.CompanyRatingSummary{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	return nil
}

func (sImpl *storeImpl) Close() error {
	sqlDB, err := sImpl.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Connect(connectionUrl string) (*storeImpl, error) {
	db, err := gorm.Open(postgres.Open(connectionUrl), &gorm.Config{TranslateError: true, PrepareStmt: false})
	if err != nil {
		return nil, err
	}

	err = db.Use(sqlCommenter.New())
	if err != nil {
		return nil, err
	}

	err = decorateDBOperationsWithAdditionalInfo(db)
	if err != nil {
		return nil, err
	}

	return newStoreImpl(db, false), nil
}

func newStoreImpl(db *gorm.DB, inTx bool) *storeImpl {
	s := &storeImpl{db: db, inTx: inTx}

	s.userStore = NewUserStore(s)
	s.companyStore = NewCompanyStore(s)
	s.staffStore = NewStaffStore(s)
	s.serviceStore = NewServiceStore(s)
	s.bookingStore = NewBookingStore(s)
	s.serviceRequestStore = NewServiceRequestStore(s)
	s.availabilityStore = NewAvailabilityStore(s)
	s.paymentStore = NewPaymentStore(s)
	s.reviewStore = NewReviewStore(s)
	s.ratingSummaryStore = NewRatingSummaryStore(s)

	return s
}

// COMMON UTILITIES

// translateError maps gorm's translated errors onto the store sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(store.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(store.ErrUniqueViolation, err)
	}
	return err
}

// checkSingleRow reports a missing row when an update or create touched nothing
func checkSingleRow(result *gorm.DB, what, id string) error {
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("%w: %s (id: %s)", store.ErrNotFound, what, id)
	}
	return nil
}

func identifyCallee(stackDepth int) string {
	function, _, line, ok := runtime.Caller(stackDepth)
	if !ok {
		return "<missing-runtime-info>"
	}
	return fmt.Sprintf("%s:%d", runtime.FuncForPC(function).Name(), line)
}

func annotateWithInfoHook(db *gorm.DB) {
	info := identifyCallee(4) // Skip the internal gorm calls & the 2 local setup calls
	db.Clauses(sqlCommenter.NewTag("action", info))
}

func decorateDBOperationsWithAdditionalInfo(db *gorm.DB) error {
	err := db.Callback().Query().Before("gorm:query").Register("store::annotate_with_info", annotateWithInfoHook)
	if err != nil {
		return err
	}
	return db.Callback().Update().Before("gorm:update").Register("store::annotate_update_with_info", annotateWithInfoHook)
}
