package command

import (
	"context"
	"fmt"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/money"
)

// AdjustCreditCommand grants or revokes store credit manually. Positive
// deltas grant, negative deltas revoke; a revoke may not push the balance
// below zero.
type AdjustCreditCommand struct {
	MemberID uint
	Delta    float64
	Note     string
	Actor    domain.Actor
}

type AdjustCreditHandler struct {
	uow domain.UnitOfWork
}

func NewAdjustCreditHandler(uow domain.UnitOfWork) *AdjustCreditHandler {
	return &AdjustCreditHandler{uow: uow}
}

// Handle appends the adjustment entry and returns the new balance.
func (h *AdjustCreditHandler) Handle(ctx context.Context, cmd AdjustCreditCommand) (float64, error) {
	delta := money.Round2(cmd.Delta)
	if money.ApproxZero(delta) {
		return 0, domain.NewValidationError(domain.CodeAmountInvalid,
			"credit delta must not be zero", "يجب ألا يكون تعديل الرصيد صفرًا")
	}

	var balance float64
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		member, err := tx.Members().FindByID(cmd.MemberID)
		if err != nil {
			return fmt.Errorf("load member: %w", err)
		}
		if member == nil {
			return domain.NewNotFoundError(domain.CodeMemberNotFound,
				"member not found", "العضو غير موجود")
		}

		current, err := tx.Credits().BalanceByMember(cmd.MemberID)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		if delta < 0 && money.Round2(current+delta) < -0.005 {
			return domain.NewValidationError(domain.CodeAmountInvalid,
				"revoke exceeds the member's credit balance",
				"يتجاوز السحب رصيد العضو")
		}

		err = tx.Credits().Create(&domain.CreditEntry{
			MemberID:  cmd.MemberID,
			Delta:     delta,
			Source:    domain.CreditSourceManual,
			CreatedBy: cmd.Actor.ID,
			Note:      cmd.Note,
		})
		if err != nil {
			return fmt.Errorf("append credit entry: %w", err)
		}

		balance = money.Round2(current + delta)
		return tx.Audit().Create(&domain.AuditEntry{
			ActorID:    cmd.Actor.ID,
			Action:     "credit.adjust",
			EntityType: "member",
			EntityID:   cmd.MemberID,
			Detail:     fmt.Sprintf("delta=%.2f note=%s", delta, cmd.Note),
		})
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
