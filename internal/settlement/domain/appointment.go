package domain

import (
	"time"

	"gorm.io/gorm"
)

// Appointment is a bookable training session. It is never physically deleted
// on cancellation; the status advances instead.
type Appointment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	MemberID       *uint          `json:"member_id,omitempty" gorm:"index"`
	LeadID         *uint          `json:"lead_id,omitempty" gorm:"index"`
	CoachID        uint           `json:"coach_id" gorm:"not null;index"`
	StartsAt       time.Time      `json:"starts_at"`
	EndsAt         time.Time      `json:"ends_at"`
	Price          float64        `json:"price"`
	FinalPrice     float64        `json:"final_price"`
	PaidAmount     float64        `json:"paid_amount"`
	DueAmount      float64        `json:"due_amount"`
	OverpaidAmount float64        `json:"overpaid_amount"`
	PaymentStatus  string         `json:"payment_status" gorm:"default:'unpaid'"`
	Status         string         `json:"status" gorm:"default:'booked';index"`
	IsCompleted    bool           `json:"is_completed" gorm:"default:false"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Appointment statuses
const (
	AppointmentBooked        = "booked"
	AppointmentArrived       = "arrived"
	AppointmentCompleted     = "completed"
	AppointmentAutoCompleted = "auto_completed"
	AppointmentCancelled     = "cancelled"
	AppointmentNoShow        = "no_show"
)

// Payment statuses on the appointment
const (
	AppointmentUnpaid = "unpaid"
	AppointmentDue    = "due"
	AppointmentPaid   = "paid"
)

// Settled reports whether the appointment has reached a completion state.
func (a *Appointment) Settled() bool {
	return a.IsCompleted || a.Status == AppointmentCompleted || a.Status == AppointmentAutoCompleted
}

// AppointmentRepository defines the contract for appointment data access.
type AppointmentRepository interface {
	Create(appointment *Appointment) error
	FindByID(id uint) (*Appointment, error)
	Update(appointment *Appointment) error
	// FindOverdue returns booked appointments whose end time passed before
	// the cutoff, for the auto-completion sweep.
	FindOverdue(cutoff time.Time, limit int) ([]Appointment, error)
}
