package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Create(appointment *domain.Appointment) error {
	return translateErr(r.db.Create(appointment).Error)
}

func (r *GormAppointmentRepository) FindByID(id uint) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.db.First(&appointment, id).Error
	return firstOrNil(&appointment, err)
}

func (r *GormAppointmentRepository) Update(appointment *domain.Appointment) error {
	return translateErr(r.db.Save(appointment).Error)
}

func (r *GormAppointmentRepository) FindOverdue(cutoff time.Time, limit int) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	err := r.db.
		Where("status = ? AND ends_at < ?", domain.AppointmentBooked, cutoff).
		Order("ends_at ASC").
		Limit(limit).
		Find(&appointments).Error
	return appointments, err
}

type GormFinancialRecordRepository struct {
	db *gorm.DB
}

func NewGormFinancialRecordRepository(db *gorm.DB) *GormFinancialRecordRepository {
	return &GormFinancialRecordRepository{db: db}
}

func (r *GormFinancialRecordRepository) FindByAppointment(appointmentID uint) (*domain.AppointmentFinancialRecord, error) {
	var record domain.AppointmentFinancialRecord
	err := r.db.Where("appointment_id = ?", appointmentID).First(&record).Error
	return firstOrNil(&record, err)
}

// Upsert inserts or revises the record atomically on the appointment_id
// unique key. The PAID freeze is enforced in the WHERE clause of the update,
// so a concurrent retry can never overwrite settled amounts.
func (r *GormFinancialRecordRepository) Upsert(record *domain.AppointmentFinancialRecord) error {
	return translateErr(r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "appointment_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"session_price":    record.SessionPrice,
			"coach_commission": record.CoachCommission,
			"gym_net_income":   record.GymNetIncome,
			"percent_used":     record.PercentUsed,
			"updated_at":       gorm.Expr("NOW()"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: "appointment_financial_records.status", Value: domain.FinancialRecordPending},
		}},
	}).Create(record).Error)
}

func (r *GormFinancialRecordRepository) Update(record *domain.AppointmentFinancialRecord) error {
	return translateErr(r.db.Save(record).Error)
}

// Delete removes the record for a voided appointment. Callers must ensure
// the record is still PENDING.
func (r *GormFinancialRecordRepository) Delete(appointmentID uint) error {
	return r.db.
		Where("appointment_id = ? AND status = ?", appointmentID, domain.FinancialRecordPending).
		Delete(&domain.AppointmentFinancialRecord{}).Error
}

func (r *GormFinancialRecordRepository) FindPendingByCoach(coachID uint, until time.Time) ([]domain.AppointmentFinancialRecord, error) {
	var records []domain.AppointmentFinancialRecord
	err := r.db.
		Where("coach_id = ? AND status = ? AND created_at < ?", coachID, domain.FinancialRecordPending, until).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

type GormEarningRepository struct {
	db *gorm.DB
}

func NewGormEarningRepository(db *gorm.DB) *GormEarningRepository {
	return &GormEarningRepository{db: db}
}

func (r *GormEarningRepository) Create(earning *domain.CoachEarning) error {
	return translateErr(r.db.Create(earning).Error)
}

func (r *GormEarningRepository) ExistsForAppointment(appointmentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&domain.CoachEarning{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormEarningRepository) FindByCoach(coachID uint, limit, offset int) ([]domain.CoachEarning, error) {
	var earnings []domain.CoachEarning
	err := r.db.Where("coach_id = ?", coachID).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&earnings).Error
	return earnings, err
}
