package domain

import (
	"time"

	"gorm.io/gorm"
)

// Member is a gym member. MemberCode is the human-facing unique identifier
// printed on receipts and cards.
type Member struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	MemberCode string         `json:"member_code" gorm:"not null;uniqueIndex"`
	FullName   string         `json:"full_name" gorm:"not null"`
	Phone      string         `json:"phone" gorm:"not null;index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Member) TableName() string {
	return "members"
}

// Lead is a prospect who booked a session before converting to a member.
type Lead struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Converted   bool       `json:"converted" gorm:"default:false"`
	MemberID    *uint      `json:"member_id,omitempty"`
	ConvertedAt *time.Time `json:"converted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

// MemberRepository defines the contract for member data access.
type MemberRepository interface {
	Create(member *Member) error
	FindByID(id uint) (*Member, error)
}

// LeadRepository defines the contract for lead data access.
type LeadRepository interface {
	FindByID(id uint) (*Lead, error)
	Update(lead *Lead) error
}
