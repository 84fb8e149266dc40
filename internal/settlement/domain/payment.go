package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Payment represents one financial inflow. Amount is immutable once the
// payment is completed; only status and RefundedTotal may advance afterwards.
type Payment struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	MemberID          uint           `json:"member_id" gorm:"not null;index"`
	SubscriptionID    *uint          `json:"subscription_id,omitempty" gorm:"index"`
	AppointmentID     *uint          `json:"appointment_id,omitempty" gorm:"index"`
	Amount            float64        `json:"amount" gorm:"not null"`
	Method            string         `json:"method" gorm:"not null;default:'cash';uniqueIndex:idx_method_external_ref,where:external_reference IS NOT NULL"`
	Status            string         `json:"status" gorm:"default:'pending';index"`
	ReceiptNumber     string         `json:"receipt_number" gorm:"not null;uniqueIndex"`
	ExternalReference *string        `json:"external_reference,omitempty" gorm:"uniqueIndex:idx_method_external_ref,where:external_reference IS NOT NULL"`
	IdempotencyKey    *string        `json:"-" gorm:"uniqueIndex,where:idempotency_key IS NOT NULL"`
	RefundedTotal     float64        `json:"refunded_total" gorm:"default:0"`
	ShiftID           *uint          `json:"shift_id,omitempty" gorm:"index"`
	CreatedBy         uint           `json:"created_by"`
	CollectorName     string         `json:"collector_name"`
	PaidAt            time.Time      `json:"paid_at" gorm:"index"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Payment) TableName() string {
	return "payments"
}

// Payment statuses
const (
	PaymentStatusPending       = "pending"
	PaymentStatusCompleted     = "completed"
	PaymentStatusRefunded      = "refunded"
	PaymentStatusPartialRefund = "partial-refund"
)

// Payment methods
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
	MethodOther    = "other"
)

// Collected reports whether money actually entered a drawer for this
// payment. A pending invoice holds no collected funds.
func (p *Payment) Collected() bool {
	return p.Status == PaymentStatusCompleted ||
		p.Status == PaymentStatusRefunded ||
		p.Status == PaymentStatusPartialRefund
}

// NormalizeMethod maps free-form input to a known payment method. Unknown
// values default to cash.
func NormalizeMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case MethodCard:
		return MethodCard
	case MethodTransfer:
		return MethodTransfer
	case MethodOther:
		return MethodOther
	default:
		return MethodCash
	}
}

// NormalizeExternalReference resolves the external reference for a method:
// uppercased and trimmed when present on a non-cash method, always nil for
// cash.
func NormalizeExternalReference(method, ref string) *string {
	if method == MethodCash {
		return nil
	}
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return nil
	}
	return &ref
}

// DuplicateFilter describes a candidate match for idempotent payment
// recording.
type DuplicateFilter struct {
	MemberID          uint
	Amount            float64
	Status            string
	Method            string
	SubscriptionID    *uint
	AppointmentID     *uint
	CreatedBy         uint
	ExternalReference *string
	// PaidAfter bounds the trailing duplicate window when no external
	// reference exists.
	PaidAfter time.Time
}

// ShiftScope selects payments/refunds for aggregation. Exactly one of
// ShiftIDs or the date range applies; Unscoped with no bounds means all.
type ShiftScope struct {
	ShiftIDs []uint
	From     *time.Time
	To       *time.Time
	Unscoped bool
}

// PaymentRepository defines the contract for payment data access.
type PaymentRepository interface {
	Create(payment *Payment) error
	FindByID(id uint) (*Payment, error)
	FindByIdempotencyKey(key string) (*Payment, error)
	FindDuplicate(filter DuplicateFilter) (*Payment, error)
	FindPendingByAppointment(appointmentID uint) (*Payment, error)
	FindByAppointment(appointmentID uint) ([]Payment, error)
	FindAll(limit, offset int) ([]Payment, error)
	FindByMember(memberID uint, limit, offset int) ([]Payment, error)
	Update(payment *Payment) error
	// SumBySubscription returns total amount and total refunded across all
	// non-deleted payments linked to the subscription.
	SumBySubscription(subscriptionID uint) (paid, refunded float64, err error)
	SumByAppointment(appointmentID uint) (paid, refunded float64, err error)
	// PaidTotalsByMethod aggregates completed payment amounts per method
	// within the scope.
	PaidTotalsByMethod(scope ShiftScope) (map[string]float64, error)
	// NextReceiptSequence atomically increments and returns the daily
	// counter backing RC-YYYYMMDD-NNNNNN receipts.
	NextReceiptSequence(day string) (int64, error)
}
