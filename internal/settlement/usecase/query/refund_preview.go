package query

import (
	"context"
	"fmt"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/usecase/command"
)

// RefundPreviewQuery computes what a refund against the payment could return
// without writing anything.
type RefundPreviewQuery struct {
	PaymentID uint
}

// RefundPreview reports the refund ceilings for a payment.
type RefundPreview struct {
	PaymentID     uint                 `json:"payment_id"`
	Amount        float64              `json:"amount"`
	RefundedTotal float64              `json:"refunded_total"`
	Limits        command.RefundLimits `json:"limits"`
}

type RefundPreviewHandler struct {
	uow domain.UnitOfWork
}

func NewRefundPreviewHandler(uow domain.UnitOfWork) *RefundPreviewHandler {
	return &RefundPreviewHandler{uow: uow}
}

func (h *RefundPreviewHandler) Handle(ctx context.Context, q RefundPreviewQuery) (*RefundPreview, error) {
	var preview *RefundPreview
	err := h.uow.View(ctx, func(tx domain.Tx) error {
		payment, err := tx.Payments().FindByID(q.PaymentID)
		if err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		if payment == nil {
			return domain.NewNotFoundError(domain.CodePaymentNotFound,
				"payment not found", "الدفعة غير موجودة")
		}

		limits, err := command.ComputeRefundLimits(tx, payment)
		if err != nil {
			return err
		}
		preview = &RefundPreview{
			PaymentID:     payment.ID,
			Amount:        payment.Amount,
			RefundedTotal: payment.RefundedTotal,
			Limits:        limits,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preview, nil
}
