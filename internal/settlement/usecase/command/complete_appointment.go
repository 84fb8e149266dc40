package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
	"github.com/tair/gym-settlement/pkg/money"
)

// memberCodeAttempts bounds regeneration on member code collisions during
// lead conversion.
const memberCodeAttempts = 3

// CompleteAppointmentCommand represents the command to settle a finished
// session.
type CompleteAppointmentCommand struct {
	AppointmentID uint
	Actor         domain.Actor

	// SessionPrice overrides the quoted price when set.
	SessionPrice *float64
	// CommissionPercent overrides per-coach and default rates when set.
	CommissionPercent *float64
	// AmountCollected is the cash/card taken now. Nil collects the full
	// remainder after credit; a smaller value leaves a pending invoice.
	AmountCollected *float64

	Method            string
	ExternalReference string
	IdempotencyKey    string
}

// CompleteAppointmentResult is the settlement snapshot for one appointment.
type CompleteAppointmentResult struct {
	Appointment      *domain.Appointment
	Payment          *domain.Payment
	FinancialRecord  *domain.AppointmentFinancialRecord
	Breakdown        domain.CommissionBreakdown
	CreditApplied    float64
	CreditGranted    float64
	AlreadyCompleted bool
}

// CompleteAppointmentHandler orchestrates payment, commission, credit and
// earning writes inside one transaction.
type CompleteAppointmentHandler struct {
	uow      domain.UnitOfWork
	recorder *RecordPaymentHandler
	events   EventPublisher
}

func NewCompleteAppointmentHandler(uow domain.UnitOfWork, recorder *RecordPaymentHandler, events EventPublisher) *CompleteAppointmentHandler {
	return &CompleteAppointmentHandler{uow: uow, recorder: recorder, events: events}
}

// Handle executes the completion. Any step failing rolls back every write.
func (h *CompleteAppointmentHandler) Handle(ctx context.Context, cmd CompleteAppointmentCommand) (*CompleteAppointmentResult, error) {
	var result *CompleteAppointmentResult
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		var err error
		result, err = h.settle(ctx, tx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyCompleted && h.events != nil {
		h.events.AppointmentCompleted(ctx, cmd.AppointmentID, result.Payment, result.Breakdown)
	}
	return result, nil
}

func (h *CompleteAppointmentHandler) settle(ctx context.Context, tx domain.Tx, cmd CompleteAppointmentCommand) (*CompleteAppointmentResult, error) {
	appt, err := tx.Appointments().FindByID(cmd.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt == nil {
		return nil, domain.NewNotFoundError(domain.CodeAppointmentNotFound,
			"appointment not found", "الموعد غير موجود")
	}

	// A second completion request returns the existing settlement unchanged.
	if appt.Settled() {
		return h.existingSettlement(tx, appt)
	}

	price := appt.Price
	if cmd.SessionPrice != nil {
		price = *cmd.SessionPrice
	}
	if price <= 0 {
		return nil, domain.NewValidationError(domain.CodeSessionPriceInvalid,
			"session price must be a positive amount",
			"يجب أن يكون سعر الجلسة مبلغًا موجبًا")
	}

	percent, err := h.resolvePercent(tx, appt.CoachID, cmd.CommissionPercent)
	if err != nil {
		return nil, err
	}
	breakdown, err := domain.ComputeCommission(price, percent)
	if err != nil {
		return nil, err
	}
	price = breakdown.SessionPrice

	memberID, err := h.resolveMember(ctx, tx, appt)
	if err != nil {
		return nil, err
	}

	// Automatic credit offset before any cash is requested.
	balance, err := tx.Credits().BalanceByMember(memberID)
	if err != nil {
		return nil, fmt.Errorf("credit balance: %w", err)
	}
	creditApplied := money.Round2(money.Min(money.ClampNonNeg(balance), price))
	remaining := money.Round2(price - creditApplied)

	cashCollected := remaining
	if cmd.AmountCollected != nil {
		cashCollected = money.Round2(*cmd.AmountCollected)
		if cashCollected < 0 {
			return nil, domain.NewValidationError(domain.CodeAmountInvalid,
				"collected amount must not be negative",
				"يجب ألا يكون المبلغ المحصل سالبًا")
		}
	}

	payment, err := h.settlePayment(ctx, tx, appt, memberID, cmd, remaining, cashCollected)
	if err != nil {
		return nil, err
	}

	if creditApplied > 0 {
		err = tx.Credits().Create(&domain.CreditEntry{
			MemberID:      memberID,
			Delta:         -creditApplied,
			Source:        domain.CreditSourceSpend,
			AppointmentID: &appt.ID,
			CreatedBy:     cmd.Actor.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("spend credit: %w", err)
		}
	}

	paidAmount := money.Round2(cashCollected + creditApplied)
	dueAmount := money.ClampNonNeg(price - paidAmount)
	overpaid := money.ClampNonNeg(paidAmount - price)

	creditGranted := 0.0
	if overpaid > 0 {
		// Overcollection flows back to the member as credit, closing the
		// loop for rounding and change-free counters.
		err = tx.Credits().Create(&domain.CreditEntry{
			MemberID:      memberID,
			Delta:         overpaid,
			Source:        domain.CreditSourceOverpayment,
			AppointmentID: &appt.ID,
			CreatedBy:     cmd.Actor.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("grant overpayment credit: %w", err)
		}
		creditGranted = overpaid
	}

	now := time.Now()
	appt.MemberID = &memberID
	appt.Status = domain.AppointmentCompleted
	appt.IsCompleted = true
	appt.CompletedAt = &now
	appt.FinalPrice = price
	appt.PaidAmount = paidAmount
	appt.DueAmount = dueAmount
	appt.OverpaidAmount = overpaid
	if money.ApproxZero(dueAmount) {
		appt.PaymentStatus = domain.AppointmentPaid
	} else {
		appt.PaymentStatus = domain.AppointmentDue
	}
	if err := tx.Appointments().Update(appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	record := &domain.AppointmentFinancialRecord{
		AppointmentID:   appt.ID,
		CoachID:         appt.CoachID,
		SessionPrice:    breakdown.SessionPrice,
		CoachCommission: breakdown.CoachPayout,
		GymNetIncome:    breakdown.GymShare,
		PercentUsed:     breakdown.PercentUsed,
		Status:          domain.FinancialRecordPending,
	}
	if err := tx.FinancialRecords().Upsert(record); err != nil {
		return nil, fmt.Errorf("upsert financial record: %w", err)
	}

	if err := h.recordEarning(tx, appt, memberID, breakdown); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("appointment_id", appt.ID).
		Float64("price", price).
		Float64("coach_payout", breakdown.CoachPayout).
		Float64("credit_applied", creditApplied).
		Float64("due", dueAmount).
		Msg("Appointment settled")

	return &CompleteAppointmentResult{
		Appointment:     appt,
		Payment:         payment,
		FinancialRecord: record,
		Breakdown:       breakdown,
		CreditApplied:   creditApplied,
		CreditGranted:   creditGranted,
	}, nil
}

func (h *CompleteAppointmentHandler) existingSettlement(tx domain.Tx, appt *domain.Appointment) (*CompleteAppointmentResult, error) {
	record, err := tx.FinancialRecords().FindByAppointment(appt.ID)
	if err != nil {
		return nil, fmt.Errorf("load financial record: %w", err)
	}
	payments, err := tx.Payments().FindByAppointment(appt.ID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	result := &CompleteAppointmentResult{
		Appointment:      appt,
		FinancialRecord:  record,
		AlreadyCompleted: true,
	}
	if len(payments) > 0 {
		result.Payment = &payments[0]
	}
	if record != nil {
		result.Breakdown = domain.CommissionBreakdown{
			SessionPrice: record.SessionPrice,
			PercentUsed:  record.PercentUsed,
			CoachPayout:  record.CoachCommission,
			GymShare:     record.GymNetIncome,
		}
	}
	return result, nil
}

// resolvePercent applies the commission rate resolution order: explicit
// override, then the coach-specific stored rate, then the system default.
func (h *CompleteAppointmentHandler) resolvePercent(tx domain.Tx, coachID uint, override *float64) (float64, error) {
	if override != nil {
		if err := domain.ValidateCommissionPercent(*override); err != nil {
			return 0, err
		}
		return *override, nil
	}

	coachRate, err := tx.Settings().CoachCommissionPercent(coachID)
	if err != nil {
		return 0, fmt.Errorf("coach commission rate: %w", err)
	}
	if coachRate != nil {
		if err := domain.ValidateCommissionPercent(*coachRate); err != nil {
			return 0, err
		}
		return *coachRate, nil
	}

	return tx.Settings().DefaultCommissionPercent()
}

// resolveMember returns the member the settlement bills. An appointment still
// attached to an unconverted lead converts it into a member first.
func (h *CompleteAppointmentHandler) resolveMember(ctx context.Context, tx domain.Tx, appt *domain.Appointment) (uint, error) {
	if appt.MemberID != nil {
		return *appt.MemberID, nil
	}
	if appt.LeadID == nil {
		return 0, domain.NewValidationError(domain.CodeMemberNotFound,
			"appointment has neither a member nor a lead",
			"الموعد ليس له عضو ولا عميل محتمل")
	}

	lead, err := tx.Leads().FindByID(*appt.LeadID)
	if err != nil {
		return 0, fmt.Errorf("load lead: %w", err)
	}
	if lead == nil {
		return 0, domain.NewNotFoundError(domain.CodeLeadNotFound,
			"lead not found", "العميل المحتمل غير موجود")
	}
	if lead.Converted && lead.MemberID != nil {
		return *lead.MemberID, nil
	}

	fullName := strings.TrimSpace(lead.FullName)
	phone := strings.TrimSpace(lead.Phone)
	if fullName == "" || phone == "" {
		return 0, domain.NewValidationError(domain.CodeLeadInvalid,
			"lead needs a full name and phone before conversion",
			"يحتاج العميل المحتمل إلى اسم كامل وهاتف قبل التحويل")
	}

	member := &domain.Member{FullName: fullName, Phone: phone}
	created := false
	for attempt := 1; attempt <= memberCodeAttempts; attempt++ {
		member.MemberCode = fmt.Sprintf("GM-%06d", uuid.New().ID()%1000000)
		err = tx.Members().Create(member)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return 0, fmt.Errorf("create member: %w", err)
		}
	}
	if !created {
		return 0, domain.NewConflictError(domain.CodeMemberCodeExhausted,
			"could not allocate a unique member code",
			"تعذر إنشاء رمز عضو فريد")
	}

	now := time.Now()
	lead.Converted = true
	lead.MemberID = &member.ID
	lead.ConvertedAt = &now
	if err := tx.Leads().Update(lead); err != nil {
		return 0, fmt.Errorf("mark lead converted: %w", err)
	}

	logger.Info(ctx).
		Uint("lead_id", lead.ID).
		Uint("member_id", member.ID).
		Str("member_code", member.MemberCode).
		Msg("Lead converted during completion")
	return member.ID, nil
}

// settlePayment records the money movement for the settlement. Whatever was
// actually collected lands as a completed payment on the collector's shift,
// so the drawer always reflects the cash taken; any shortfall after credit is
// carried by a single pending invoice holding only the amount still owed.
func (h *CompleteAppointmentHandler) settlePayment(ctx context.Context, tx domain.Tx, appt *domain.Appointment, memberID uint, cmd CompleteAppointmentCommand, remaining, cashCollected float64) (*domain.Payment, error) {
	if money.ApproxZero(remaining) && money.ApproxZero(cashCollected) {
		// Credit covered the whole session; no inflow to record.
		return nil, nil
	}

	var shiftID *uint
	if shift, err := tx.Shifts().OpenShiftForUser(cmd.Actor.ID); err != nil {
		return nil, fmt.Errorf("open shift lookup: %w", err)
	} else if shift != nil {
		shiftID = &shift.ID
	}

	pending, err := tx.Payments().FindPendingByAppointment(appt.ID)
	if err != nil {
		return nil, fmt.Errorf("pending invoice lookup: %w", err)
	}

	key := cmd.IdempotencyKey
	if key == "" {
		key = fmt.Sprintf("appt-%d-settlement", appt.ID)
	}

	var collected *domain.Payment
	if !money.ApproxZero(cashCollected) {
		if pending != nil {
			// A prior open invoice becomes the collection row.
			pending.Amount = money.Round2(cashCollected)
			pending.Method = domain.NormalizeMethod(cmd.Method)
			pending.Status = domain.PaymentStatusCompleted
			pending.ShiftID = shiftID
			pending.PaidAt = time.Now()
			if err := tx.Payments().Update(pending); err != nil {
				return nil, fmt.Errorf("complete pending invoice: %w", err)
			}
			collected, pending = pending, nil
		} else {
			result, err := h.recorder.HandleInTx(ctx, tx, RecordPaymentCommand{
				MemberID:          memberID,
				AppointmentID:     &appt.ID,
				Amount:            cashCollected,
				Method:            cmd.Method,
				Status:            domain.PaymentStatusCompleted,
				ExternalReference: cmd.ExternalReference,
				IdempotencyKey:    key,
				ShiftID:           shiftID,
				CreatedBy:         cmd.Actor.ID,
				CollectorName:     cmd.Actor.Username,
			})
			if err != nil {
				return nil, err
			}
			collected = result.Payment
		}
	}

	shortfall := money.ClampNonNeg(money.Round2(remaining - cashCollected))
	if !money.ApproxZero(shortfall) {
		if pending != nil {
			pending.Amount = shortfall
			if err := tx.Payments().Update(pending); err != nil {
				return nil, fmt.Errorf("update pending invoice: %w", err)
			}
		} else {
			result, err := h.recorder.HandleInTx(ctx, tx, RecordPaymentCommand{
				MemberID:       memberID,
				AppointmentID:  &appt.ID,
				Amount:         shortfall,
				Method:         cmd.Method,
				Status:         domain.PaymentStatusPending,
				IdempotencyKey: key + "-due",
				CreatedBy:      cmd.Actor.ID,
				CollectorName:  cmd.Actor.Username,
			})
			if err != nil {
				return nil, err
			}
			pending = result.Payment
		}
	}

	if collected != nil {
		return collected, nil
	}
	return pending, nil
}

func (h *CompleteAppointmentHandler) recordEarning(tx domain.Tx, appt *domain.Appointment, memberID uint, breakdown domain.CommissionBreakdown) error {
	exists, err := tx.Earnings().ExistsForAppointment(appt.ID)
	if err != nil {
		return fmt.Errorf("earning lookup: %w", err)
	}
	if exists {
		return nil
	}

	err = tx.Earnings().Create(&domain.CoachEarning{
		AppointmentID: appt.ID,
		CoachID:       appt.CoachID,
		MemberID:      memberID,
		Amount:        breakdown.CoachPayout,
		PercentUsed:   breakdown.PercentUsed,
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicate) {
		return fmt.Errorf("create earning: %w", err)
	}
	return nil
}
