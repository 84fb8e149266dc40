package domain

import (
	"time"
)

// Refund is a reversal against exactly one payment. Rows are never mutated or
// deleted. ShiftID is the shift in which the refund itself occurs, which may
// differ from the original payment's shift.
type Refund struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PaymentID uint      `json:"payment_id" gorm:"not null;index"`
	Amount    float64   `json:"amount" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"not null"`
	Goodwill  bool      `json:"goodwill" gorm:"default:false"`
	ShiftID   *uint     `json:"shift_id,omitempty" gorm:"index"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Refund) TableName() string {
	return "refunds"
}

// RefundRepository defines the contract for refund data access.
type RefundRepository interface {
	Create(refund *Refund) error
	FindByPayment(paymentID uint) ([]Refund, error)
	TotalByPayment(paymentID uint) (float64, error)
	// RefundTotalsByMethod aggregates refund amounts per original payment
	// method, scoped by the refund's own shift or date.
	RefundTotalsByMethod(scope ShiftScope) (map[string]float64, error)
}
