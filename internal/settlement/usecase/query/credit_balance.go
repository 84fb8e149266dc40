package query

import (
	"context"
	"fmt"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/money"
)

// GetCreditBalanceQuery reads a member's wallet balance and ledger history.
type GetCreditBalanceQuery struct {
	MemberID uint
	Limit    int
	Offset   int
}

// CreditBalance is the wallet view: the running balance plus the most recent
// ledger entries.
type CreditBalance struct {
	MemberID uint                 `json:"member_id"`
	Balance  float64              `json:"balance"`
	Entries  []domain.CreditEntry `json:"entries"`
}

type GetCreditBalanceHandler struct {
	uow domain.UnitOfWork
}

func NewGetCreditBalanceHandler(uow domain.UnitOfWork) *GetCreditBalanceHandler {
	return &GetCreditBalanceHandler{uow: uow}
}

func (h *GetCreditBalanceHandler) Handle(ctx context.Context, q GetCreditBalanceQuery) (*CreditBalance, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	var balance *CreditBalance
	err := h.uow.View(ctx, func(tx domain.Tx) error {
		member, err := tx.Members().FindByID(q.MemberID)
		if err != nil {
			return fmt.Errorf("load member: %w", err)
		}
		if member == nil {
			return domain.NewNotFoundError(domain.CodeMemberNotFound,
				"member not found", "العضو غير موجود")
		}

		total, err := tx.Credits().BalanceByMember(q.MemberID)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		entries, err := tx.Credits().FindByMember(q.MemberID, q.Limit, q.Offset)
		if err != nil {
			return fmt.Errorf("credit entries: %w", err)
		}

		balance = &CreditBalance{
			MemberID: q.MemberID,
			Balance:  money.Round2(total),
			Entries:  entries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}
