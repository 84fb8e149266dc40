package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
)

// SettleEarningsCommand pays out a coach's pending commission records. Every
// record settled in one run shares a settlement id; afterwards the amounts
// are frozen.
type SettleEarningsCommand struct {
	CoachID uint
	// Until bounds which pending records settle; zero means everything up
	// to now.
	Until time.Time
	Actor domain.Actor
}

// SettleEarningsResult summarizes one payout run.
type SettleEarningsResult struct {
	SettlementID string  `json:"settlement_id"`
	Records      int     `json:"records"`
	Total        float64 `json:"total"`
}

type SettleEarningsHandler struct {
	uow domain.UnitOfWork
}

func NewSettleEarningsHandler(uow domain.UnitOfWork) *SettleEarningsHandler {
	return &SettleEarningsHandler{uow: uow}
}

func (h *SettleEarningsHandler) Handle(ctx context.Context, cmd SettleEarningsCommand) (*SettleEarningsResult, error) {
	until := cmd.Until
	if until.IsZero() {
		until = time.Now()
	}

	result := &SettleEarningsResult{SettlementID: uuid.New().String()}
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		pending, err := tx.FinancialRecords().FindPendingByCoach(cmd.CoachID, until)
		if err != nil {
			return fmt.Errorf("pending records: %w", err)
		}

		for i := range pending {
			record := pending[i]
			record.Status = domain.FinancialRecordPaid
			record.SettlementID = &result.SettlementID
			if err := tx.FinancialRecords().Update(&record); err != nil {
				return fmt.Errorf("settle record %d: %w", record.ID, err)
			}
			result.Records++
			result.Total += record.CoachCommission
		}

		if result.Records == 0 {
			return nil
		}
		return tx.Audit().Create(&domain.AuditEntry{
			ActorID:    cmd.Actor.ID,
			Action:     "earnings.settle",
			EntityType: "coach",
			EntityID:   cmd.CoachID,
			Detail: fmt.Sprintf("settlement=%s records=%d total=%.2f",
				result.SettlementID, result.Records, result.Total),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("coach_id", cmd.CoachID).
		Str("settlement_id", result.SettlementID).
		Int("records", result.Records).
		Float64("total", result.Total).
		Msg("Coach earnings settled")
	return result, nil
}
