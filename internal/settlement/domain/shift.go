package domain

import (
	"time"
)

// Shift is a cash-register session bounded by open/close timestamps and owned
// by one staff user. Payments and refunds reference the shift active at the
// time of the respective event.
type Shift struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	OpenedAt  time.Time  `json:"opened_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Shift) TableName() string {
	return "shifts"
}

// Open reports whether the shift is still open.
func (s *Shift) Open() bool {
	return s.ClosedAt == nil
}

// ShiftRepository defines the contract for shift data access.
type ShiftRepository interface {
	Create(shift *Shift) error
	FindByID(id uint) (*Shift, error)
	// OpenShiftForUser returns the user's currently open shift, or nil when
	// none is open.
	OpenShiftForUser(userID uint) (*Shift, error)
	OpenShifts() ([]Shift, error)
	Update(shift *Shift) error
}
