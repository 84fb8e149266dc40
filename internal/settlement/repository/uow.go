package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

// ReceiptCounter backs the sequential RC-YYYYMMDD-NNNNNN receipt form with
// one row per day.
type ReceiptCounter struct {
	Day       string `gorm:"primaryKey;size:8"`
	LastValue int64  `gorm:"not null;default:0"`
}

func (ReceiptCounter) TableName() string {
	return "receipt_counters"
}

// GormUnitOfWork executes settlement operations inside gorm transactions.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// AutoMigrate creates every settlement table.
func (u *GormUnitOfWork) AutoMigrate() error {
	return u.db.AutoMigrate(
		&domain.Payment{},
		&domain.Refund{},
		&domain.Appointment{},
		&domain.AppointmentFinancialRecord{},
		&domain.CoachEarning{},
		&domain.CreditEntry{},
		&domain.Shift{},
		&domain.Subscription{},
		&domain.SubscriptionPause{},
		&domain.Member{},
		&domain.Lead{},
		&domain.CommissionSetting{},
		&domain.AuditEntry{},
		&ReceiptCounter{},
	)
}

// Do runs fn inside one transaction; any error rolls back every write.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormTx(tx))
	})
}

// View runs fn against the shared connection without opening a transaction.
func (u *GormUnitOfWork) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	return fn(newGormTx(u.db.WithContext(ctx)))
}

// gormTx hands out repositories bound to one *gorm.DB (transactional or not).
type gormTx struct {
	db *gorm.DB
}

func newGormTx(db *gorm.DB) *gormTx {
	return &gormTx{db: db}
}

func (t *gormTx) Payments() domain.PaymentRepository         { return NewGormPaymentRepository(t.db) }
func (t *gormTx) Appointments() domain.AppointmentRepository { return NewGormAppointmentRepository(t.db) }
func (t *gormTx) Refunds() domain.RefundRepository           { return NewGormRefundRepository(t.db) }
func (t *gormTx) Credits() domain.CreditRepository           { return NewGormCreditRepository(t.db) }
func (t *gormTx) Shifts() domain.ShiftRepository             { return NewGormShiftRepository(t.db) }
func (t *gormTx) Subscriptions() domain.SubscriptionRepository {
	return NewGormSubscriptionRepository(t.db)
}
func (t *gormTx) Members() domain.MemberRepository { return NewGormMemberRepository(t.db) }
func (t *gormTx) Leads() domain.LeadRepository     { return NewGormLeadRepository(t.db) }
func (t *gormTx) FinancialRecords() domain.FinancialRecordRepository {
	return NewGormFinancialRecordRepository(t.db)
}
func (t *gormTx) Earnings() domain.EarningRepository { return NewGormEarningRepository(t.db) }
func (t *gormTx) Settings() domain.SettingsRepository {
	return NewGormSettingsRepository(t.db)
}
func (t *gormTx) Audit() domain.AuditRepository { return NewGormAuditRepository(t.db) }

// translateErr maps gorm errors onto domain sentinels so usecases never
// import gorm.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicate
	}
	return err
}

// firstOrNil returns (nil, nil) on gorm.ErrRecordNotFound so callers can
// treat absence as a value, not an error.
func firstOrNil[T any](result *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}
