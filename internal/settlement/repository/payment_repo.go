package repository

import (
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(payment *domain.Payment) error {
	return translateErr(r.db.Create(payment).Error)
}

func (r *GormPaymentRepository) FindByID(id uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.First(&payment, id).Error
	return firstOrNil(&payment, err)
}

func (r *GormPaymentRepository) FindByIdempotencyKey(key string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.Where("idempotency_key = ?", key).First(&payment).Error
	return firstOrNil(&payment, err)
}

func (r *GormPaymentRepository) FindDuplicate(filter domain.DuplicateFilter) (*domain.Payment, error) {
	q := r.db.Where(
		"member_id = ? AND amount = ? AND status = ? AND method = ?",
		filter.MemberID, filter.Amount, filter.Status, filter.Method,
	)
	if filter.SubscriptionID != nil {
		q = q.Where("subscription_id = ?", *filter.SubscriptionID)
	}
	if filter.AppointmentID != nil {
		q = q.Where("appointment_id = ?", *filter.AppointmentID)
	}
	if filter.CreatedBy != 0 {
		q = q.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.ExternalReference != nil {
		q = q.Where("external_reference = ?", *filter.ExternalReference)
	} else {
		q = q.Where("paid_at >= ?", filter.PaidAfter)
	}

	var payment domain.Payment
	err := q.Order("paid_at DESC").First(&payment).Error
	return firstOrNil(&payment, err)
}

func (r *GormPaymentRepository) FindPendingByAppointment(appointmentID uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.
		Where("appointment_id = ? AND status = ?", appointmentID, domain.PaymentStatusPending).
		First(&payment).Error
	return firstOrNil(&payment, err)
}

func (r *GormPaymentRepository) FindByAppointment(appointmentID uint) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.Where("appointment_id = ?", appointmentID).
		Order("paid_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) FindAll(limit, offset int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) FindByMember(memberID uint, limit, offset int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.Where("member_id = ?", memberID).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) Update(payment *domain.Payment) error {
	return translateErr(r.db.Save(payment).Error)
}

func (r *GormPaymentRepository) SumBySubscription(subscriptionID uint) (float64, float64, error) {
	return r.sumWhere("subscription_id = ?", subscriptionID)
}

func (r *GormPaymentRepository) SumByAppointment(appointmentID uint) (float64, float64, error) {
	return r.sumWhere("appointment_id = ?", appointmentID)
}

func (r *GormPaymentRepository) sumWhere(cond string, arg uint) (float64, float64, error) {
	var row struct {
		Paid     float64
		Refunded float64
	}
	err := r.db.Model(&domain.Payment{}).
		Select("COALESCE(SUM(amount),0) AS paid, COALESCE(SUM(refunded_total),0) AS refunded").
		Where(cond, arg).
		Where("status IN ?", []string{
			domain.PaymentStatusCompleted,
			domain.PaymentStatusRefunded,
			domain.PaymentStatusPartialRefund,
		}).
		Scan(&row).Error
	return row.Paid, row.Refunded, err
}

func (r *GormPaymentRepository) PaidTotalsByMethod(scope domain.ShiftScope) (map[string]float64, error) {
	q := r.db.Model(&domain.Payment{}).
		Select("method, COALESCE(SUM(amount),0) AS total").
		Where("status IN ?", []string{
			domain.PaymentStatusCompleted,
			domain.PaymentStatusRefunded,
			domain.PaymentStatusPartialRefund,
		}).
		Group("method")

	q = applyScope(q, scope, "shift_id", "created_at")

	var rows []struct {
		Method string
		Total  float64
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(rows))
	for _, row := range rows {
		totals[row.Method] = row.Total
	}
	return totals, nil
}

func (r *GormPaymentRepository) NextReceiptSequence(day string) (int64, error) {
	var next int64
	err := r.db.Raw(`
		INSERT INTO receipt_counters (day, last_value)
		VALUES (?, 1)
		ON CONFLICT (day)
		DO UPDATE SET last_value = receipt_counters.last_value + 1
		RETURNING last_value`, day).Scan(&next).Error
	return next, err
}

// applyScope narrows an aggregation query to a shift set or a date range.
func applyScope(q *gorm.DB, scope domain.ShiftScope, shiftCol, dateCol string) *gorm.DB {
	if len(scope.ShiftIDs) > 0 {
		return q.Where(shiftCol+" IN ?", scope.ShiftIDs)
	}
	if !scope.Unscoped {
		// No shift and not unscoped: nothing matches.
		return q.Where("1 = 0")
	}
	if scope.From != nil {
		q = q.Where(dateCol+" >= ?", *scope.From)
	}
	if scope.To != nil {
		q = q.Where(dateCol+" < ?", *scope.To)
	}
	return q
}
