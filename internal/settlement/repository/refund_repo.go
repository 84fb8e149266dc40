package repository

import (
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

type GormRefundRepository struct {
	db *gorm.DB
}

func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

func (r *GormRefundRepository) Create(refund *domain.Refund) error {
	return translateErr(r.db.Create(refund).Error)
}

func (r *GormRefundRepository) FindByPayment(paymentID uint) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := r.db.Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&refunds).Error
	return refunds, err
}

func (r *GormRefundRepository) TotalByPayment(paymentID uint) (float64, error) {
	var total float64
	err := r.db.Model(&domain.Refund{}).
		Select("COALESCE(SUM(amount),0)").
		Where("payment_id = ?", paymentID).
		Scan(&total).Error
	return total, err
}

// RefundTotalsByMethod groups refund amounts by the original payment's
// method, scoped by the refund's own shift or date. A refund recorded in a
// later shift counts against that shift, not the payment's.
func (r *GormRefundRepository) RefundTotalsByMethod(scope domain.ShiftScope) (map[string]float64, error) {
	q := r.db.Model(&domain.Refund{}).
		Select("payments.method AS method, COALESCE(SUM(refunds.amount),0) AS total").
		Joins("JOIN payments ON payments.id = refunds.payment_id").
		Group("payments.method")

	q = applyScope(q, scope, "refunds.shift_id", "refunds.created_at")

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
