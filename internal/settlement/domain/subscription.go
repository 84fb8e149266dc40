package domain

import (
	"time"

	"gorm.io/gorm"
)

// Subscription is a membership plan instance. ConsumedAmount tracks the
// portion already delivered as service, which is non-refundable without a
// goodwill override.
type Subscription struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	MemberID           uint           `json:"member_id" gorm:"not null;index"`
	PlanName           string         `json:"plan_name"`
	PlanPrice          float64        `json:"plan_price"`
	PlanDurationDays   int            `json:"plan_duration_days"`
	StartDate          time.Time      `json:"start_date"`
	EndDate            *time.Time     `json:"end_date,omitempty"`
	Status             string         `json:"status" gorm:"default:'active';index"`
	ConsumedAmount     float64        `json:"consumed_amount" gorm:"default:0"`
	CancellationReason string         `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionEnded     = "ended"
	SubscriptionCancelled = "cancelled"
)

// Terminal reports whether the subscription has already ended.
func (s *Subscription) Terminal() bool {
	return s.Status == SubscriptionEnded || s.Status == SubscriptionCancelled
}

// SubscriptionPause records an interval during which the subscription was
// frozen. Paused days are excluded from prorated refund math.
type SubscriptionPause struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	SubscriptionID uint       `json:"subscription_id" gorm:"not null;index"`
	PausedAt       time.Time  `json:"paused_at"`
	ResumedAt      *time.Time `json:"resumed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (SubscriptionPause) TableName() string {
	return "subscription_pauses"
}

// PausedDaysUntil returns whole days covered by the pause up to the given
// moment.
func (p *SubscriptionPause) PausedDaysUntil(now time.Time) int {
	end := now
	if p.ResumedAt != nil && p.ResumedAt.Before(now) {
		end = *p.ResumedAt
	}
	if !end.After(p.PausedAt) {
		return 0
	}
	return int(end.Sub(p.PausedAt).Hours() / 24)
}

// SubscriptionRepository defines the contract for subscription data access.
type SubscriptionRepository interface {
	FindByID(id uint) (*Subscription, error)
	Update(subscription *Subscription) error
	PausesBySubscription(subscriptionID uint) ([]SubscriptionPause, error)
}
