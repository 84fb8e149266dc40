package repository

import (
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

type GormCreditRepository struct {
	db *gorm.DB
}

func NewGormCreditRepository(db *gorm.DB) *GormCreditRepository {
	return &GormCreditRepository{db: db}
}

func (r *GormCreditRepository) Create(entry *domain.CreditEntry) error {
	return translateErr(r.db.Create(entry).Error)
}

func (r *GormCreditRepository) BalanceByMember(memberID uint) (float64, error) {
	var balance float64
	err := r.db.Model(&domain.CreditEntry{}).
		Select("COALESCE(SUM(delta),0)").
		Where("member_id = ?", memberID).
		Scan(&balance).Error
	return balance, err
}

func (r *GormCreditRepository) FindByMember(memberID uint, limit, offset int) ([]domain.CreditEntry, error) {
	var entries []domain.CreditEntry
	err := r.db.Where("member_id = ?", memberID).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

type GormShiftRepository struct {
	db *gorm.DB
}

func NewGormShiftRepository(db *gorm.DB) *GormShiftRepository {
	return &GormShiftRepository{db: db}
}

func (r *GormShiftRepository) Create(shift *domain.Shift) error {
	return translateErr(r.db.Create(shift).Error)
}

func (r *GormShiftRepository) FindByID(id uint) (*domain.Shift, error) {
	var shift domain.Shift
	err := r.db.First(&shift, id).Error
	return firstOrNil(&shift, err)
}

func (r *GormShiftRepository) OpenShiftForUser(userID uint) (*domain.Shift, error) {
	var shift domain.Shift
	err := r.db.
		Where("user_id = ? AND closed_at IS NULL", userID).
		Order("opened_at DESC").
		First(&shift).Error
	return firstOrNil(&shift, err)
}

func (r *GormShiftRepository) OpenShifts() ([]domain.Shift, error) {
	var shifts []domain.Shift
	err := r.db.Where("closed_at IS NULL").Find(&shifts).Error
	return shifts, err
}

func (r *GormShiftRepository) Update(shift *domain.Shift) error {
	return translateErr(r.db.Save(shift).Error)
}
