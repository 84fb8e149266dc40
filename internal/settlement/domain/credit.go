package domain

import (
	"time"
)

// CreditEntry is one row in a member's append-only store-credit ledger.
// Positive deltas are grants (overpayment, manual adjustment); negative
// deltas are spends against a session. The balance is the sum of deltas.
type CreditEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	MemberID      uint      `json:"member_id" gorm:"not null;index"`
	Delta         float64   `json:"delta" gorm:"not null"`
	Source        string    `json:"source"`
	AppointmentID *uint     `json:"appointment_id,omitempty" gorm:"index"`
	CreatedBy     uint      `json:"created_by"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (CreditEntry) TableName() string {
	return "credit_entries"
}

// Credit entry sources
const (
	CreditSourceOverpayment = "overpayment"
	CreditSourceSpend       = "session_spend"
	CreditSourceManual      = "manual_adjustment"
)

// CreditRepository defines the contract for the credit ledger.
type CreditRepository interface {
	Create(entry *CreditEntry) error
	BalanceByMember(memberID uint) (float64, error)
	FindByMember(memberID uint, limit, offset int) ([]CreditEntry, error)
}
