package command

import (
	"context"
	"fmt"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
	"github.com/tair/gym-settlement/pkg/money"
)

// UpdateAppointmentPriceCommand adjusts the settled price of a completed
// appointment. The commission snapshot recalculates while it is still
// PENDING; once the coach has been paid out (PAID) it is frozen.
type UpdateAppointmentPriceCommand struct {
	AppointmentID uint
	NewPrice      float64
	Actor         domain.Actor
}

type UpdateAppointmentPriceHandler struct {
	uow domain.UnitOfWork
}

func NewUpdateAppointmentPriceHandler(uow domain.UnitOfWork) *UpdateAppointmentPriceHandler {
	return &UpdateAppointmentPriceHandler{uow: uow}
}

func (h *UpdateAppointmentPriceHandler) Handle(ctx context.Context, cmd UpdateAppointmentPriceCommand) (*domain.AppointmentFinancialRecord, error) {
	if cmd.NewPrice <= 0 {
		return nil, domain.NewValidationError(domain.CodeSessionPriceInvalid,
			"session price must be a positive amount",
			"يجب أن يكون سعر الجلسة مبلغًا موجبًا")
	}

	var record *domain.AppointmentFinancialRecord
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		appt, err := tx.Appointments().FindByID(cmd.AppointmentID)
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}
		if appt == nil {
			return domain.NewNotFoundError(domain.CodeAppointmentNotFound,
				"appointment not found", "الموعد غير موجود")
		}

		price := money.Round2(cmd.NewPrice)
		appt.Price = price
		if appt.Settled() {
			appt.FinalPrice = price
			appt.DueAmount = money.ClampNonNeg(price - appt.PaidAmount)
			appt.OverpaidAmount = money.ClampNonNeg(appt.PaidAmount - price)
			if money.ApproxZero(appt.DueAmount) {
				appt.PaymentStatus = domain.AppointmentPaid
			} else {
				appt.PaymentStatus = domain.AppointmentDue
			}
		}
		if err := tx.Appointments().Update(appt); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		record, err = tx.FinancialRecords().FindByAppointment(appt.ID)
		if err != nil {
			return fmt.Errorf("load financial record: %w", err)
		}
		if record == nil {
			return nil
		}
		if record.Status == domain.FinancialRecordPaid {
			logger.Warn(ctx).
				Uint("appointment_id", appt.ID).
				Msg("Price edit after payout; commission snapshot left frozen")
			return nil
		}

		breakdown, err := domain.ComputeCommission(price, record.PercentUsed)
		if err != nil {
			return err
		}
		record.SessionPrice = breakdown.SessionPrice
		record.CoachCommission = breakdown.CoachPayout
		record.GymNetIncome = breakdown.GymShare
		if err := tx.FinancialRecords().Update(record); err != nil {
			return fmt.Errorf("update financial record: %w", err)
		}

		return tx.Audit().Create(&domain.AuditEntry{
			ActorID:    cmd.Actor.ID,
			Action:     "appointment.price_update",
			EntityType: "appointment",
			EntityID:   appt.ID,
			Detail:     fmt.Sprintf("new_price=%.2f", price),
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
