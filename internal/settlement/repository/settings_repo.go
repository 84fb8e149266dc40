package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

func (r *GormSettingsRepository) CoachCommissionPercent(coachID uint) (*float64, error) {
	var setting domain.CommissionSetting
	found, err := firstOrNil(&setting, r.db.Where("coach_id = ?", coachID).First(&setting).Error)
	if err != nil || found == nil {
		return nil, err
	}
	return &found.Percent, nil
}

// DefaultCommissionPercent reads the system-wide rate. A missing or
// out-of-range value is a fatal configuration error, never silently
// defaulted.
func (r *GormSettingsRepository) DefaultCommissionPercent() (float64, error) {
	var setting domain.CommissionSetting
	found, err := firstOrNil(&setting, r.db.Where("coach_id IS NULL").First(&setting).Error)
	if err != nil {
		return 0, err
	}
	if found == nil || found.Percent < 0 || found.Percent > 100 {
		return 0, domain.NewFatalError(
			domain.CodeCommissionConfigInvalid,
			"default commission percent is missing or invalid",
			"نسبة العمولة الافتراضية مفقودة أو غير صالحة",
		)
	}
	return found.Percent, nil
}

func (r *GormSettingsRepository) SetCoachCommissionPercent(coachID uint, percent float64) error {
	setting := domain.CommissionSetting{CoachID: &coachID, Percent: percent}
	return translateErr(r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "coach_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"percent", "updated_at"}),
	}).Create(&setting).Error)
}

func (r *GormSettingsRepository) SetDefaultCommissionPercent(percent float64) error {
	var existing domain.CommissionSetting
	found, err := firstOrNil(&existing, r.db.Where("coach_id IS NULL").First(&existing).Error)
	if err != nil {
		return err
	}
	if found != nil {
		found.Percent = percent
		return translateErr(r.db.Save(found).Error)
	}
	return translateErr(r.db.Create(&domain.CommissionSetting{Percent: percent}).Error)
}

type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Create(entry *domain.AuditEntry) error {
	return translateErr(r.db.Create(entry).Error)
}
