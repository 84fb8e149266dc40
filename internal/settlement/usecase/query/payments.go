package query

import (
	"context"
	"fmt"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

// GetPaymentQuery fetches one payment with its refund history.
type GetPaymentQuery struct {
	PaymentID uint
}

// PaymentDetail is a payment together with its refunds.
type PaymentDetail struct {
	Payment domain.Payment  `json:"payment"`
	Refunds []domain.Refund `json:"refunds"`
}

type GetPaymentHandler struct {
	uow domain.UnitOfWork
}

func NewGetPaymentHandler(uow domain.UnitOfWork) *GetPaymentHandler {
	return &GetPaymentHandler{uow: uow}
}

func (h *GetPaymentHandler) Handle(ctx context.Context, q GetPaymentQuery) (*PaymentDetail, error) {
	var detail *PaymentDetail
	err := h.uow.View(ctx, func(tx domain.Tx) error {
		payment, err := tx.Payments().FindByID(q.PaymentID)
		if err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		if payment == nil {
			return domain.NewNotFoundError(domain.CodePaymentNotFound,
				"payment not found", "الدفعة غير موجودة")
		}
		refunds, err := tx.Refunds().FindByPayment(payment.ID)
		if err != nil {
			return fmt.Errorf("load refunds: %w", err)
		}
		detail = &PaymentDetail{Payment: *payment, Refunds: refunds}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ListPaymentsQuery pages through payments, optionally filtered to one member.
type ListPaymentsQuery struct {
	MemberID uint
	Limit    int
	Offset   int
}

type ListPaymentsHandler struct {
	uow domain.UnitOfWork
}

func NewListPaymentsHandler(uow domain.UnitOfWork) *ListPaymentsHandler {
	return &ListPaymentsHandler{uow: uow}
}

func (h *ListPaymentsHandler) Handle(ctx context.Context, q ListPaymentsQuery) ([]domain.Payment, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	var payments []domain.Payment
	err := h.uow.View(ctx, func(tx domain.Tx) error {
		var err error
		if q.MemberID != 0 {
			payments, err = tx.Payments().FindByMember(q.MemberID, q.Limit, q.Offset)
		} else {
			payments, err = tx.Payments().FindAll(q.Limit, q.Offset)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
