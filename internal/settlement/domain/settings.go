package domain

import (
	"time"
)

// CommissionSetting stores the commission percent for one coach, or the
// system-wide default when CoachID is nil.
type CommissionSetting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CoachID   *uint     `json:"coach_id,omitempty" gorm:"uniqueIndex,where:coach_id IS NOT NULL"`
	Percent   float64   `json:"percent" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CommissionSetting) TableName() string {
	return "commission_settings"
}

// SettingsRepository reads commission configuration. Values are validated at
// read time; an invalid default is a fatal configuration error, never
// silently substituted.
type SettingsRepository interface {
	// CoachCommissionPercent returns the coach-specific percent, or nil when
	// no per-coach rate is stored.
	CoachCommissionPercent(coachID uint) (*float64, error)
	DefaultCommissionPercent() (float64, error)
	SetCoachCommissionPercent(coachID uint, percent float64) error
	SetDefaultCommissionPercent(percent float64) error
}

// AuditEntry is an append-only record of a sensitive financial action.
type AuditEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ActorID    uint      `json:"actor_id" gorm:"index"`
	Action     string    `json:"action" gorm:"index"`
	EntityType string    `json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}

// AuditRepository appends audit entries.
type AuditRepository interface {
	Create(entry *AuditEntry) error
}
