package domain

import (
	"time"
)

// AppointmentFinancialRecord is the snapshot of a completed session's
// economics, one-to-one with the appointment. Amounts may be revised while
// the record is PENDING; once PAID they are frozen.
type AppointmentFinancialRecord struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	AppointmentID  uint      `json:"appointment_id" gorm:"not null;uniqueIndex"`
	CoachID        uint      `json:"coach_id" gorm:"not null;index"`
	SessionPrice   float64   `json:"session_price"`
	CoachCommission float64  `json:"coach_commission"`
	GymNetIncome   float64   `json:"gym_net_income"`
	PercentUsed    float64   `json:"percent_used"`
	Status         string    `json:"status" gorm:"default:'PENDING';index"`
	SettlementID   *string   `json:"settlement_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AppointmentFinancialRecord) TableName() string {
	return "appointment_financial_records"
}

// Financial record statuses
const (
	FinancialRecordPending = "PENDING"
	FinancialRecordPaid    = "PAID"
)

// FinancialRecordRepository defines the contract for financial record data
// access. Upsert must be atomic on the appointment_id unique key so that
// concurrent completion retries cannot create two records.
type FinancialRecordRepository interface {
	FindByAppointment(appointmentID uint) (*AppointmentFinancialRecord, error)
	Upsert(record *AppointmentFinancialRecord) error
	Update(record *AppointmentFinancialRecord) error
	Delete(appointmentID uint) error
	FindPendingByCoach(coachID uint, until time.Time) ([]AppointmentFinancialRecord, error)
}

// CoachEarning is the immutable per-appointment payout row for the servicing
// coach. At most one exists per appointment.
type CoachEarning struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	AppointmentID uint      `json:"appointment_id" gorm:"not null;uniqueIndex"`
	CoachID       uint      `json:"coach_id" gorm:"not null;index"`
	MemberID      uint      `json:"member_id"`
	Amount        float64   `json:"amount"`
	PercentUsed   float64   `json:"percent_used"`
	CreatedAt     time.Time `json:"created_at"`
}

func (CoachEarning) TableName() string {
	return "coach_earnings"
}

// EarningRepository defines the contract for coach earning data access.
type EarningRepository interface {
	Create(earning *CoachEarning) error
	ExistsForAppointment(appointmentID uint) (bool, error)
	FindByCoach(coachID uint, limit, offset int) ([]CoachEarning, error)
}
