package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
	"github.com/tair/gym-settlement/pkg/money"
)

// goodwillReasonMinLen is the minimum reason length required to override the
// non-refundable consumed amount.
const goodwillReasonMinLen = 10

// RefundPaymentCommand represents the command to refund part or all of a
// payment.
type RefundPaymentCommand struct {
	PaymentID uint
	Amount    float64
	Reason    string
	Goodwill  bool
	Actor     domain.Actor
}

// RefundPaymentHandler enforces the refund policy and records the reversal.
type RefundPaymentHandler struct {
	uow    domain.UnitOfWork
	events EventPublisher
}

func NewRefundPaymentHandler(uow domain.UnitOfWork, events EventPublisher) *RefundPaymentHandler {
	return &RefundPaymentHandler{uow: uow, events: events}
}

// RefundLimits is the policy computation for one payment.
type RefundLimits struct {
	Remaining     float64 `json:"remaining"`
	Consumed      float64 `json:"consumed"`
	MaxRefundable float64 `json:"max_refundable"`
	// GoodwillCeiling is the absolute cap even with the override: money
	// never collected cannot be refunded.
	GoodwillCeiling float64 `json:"goodwill_ceiling"`
}

// Handle executes the refund command.
func (h *RefundPaymentHandler) Handle(ctx context.Context, cmd RefundPaymentCommand) (*domain.Refund, error) {
	var refund *domain.Refund
	var payment *domain.Payment
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		var err error
		refund, payment, err = h.refund(ctx, tx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	if h.events != nil {
		h.events.RefundIssued(ctx, refund, payment)
	}
	return refund, nil
}

func (h *RefundPaymentHandler) refund(ctx context.Context, tx domain.Tx, cmd RefundPaymentCommand) (*domain.Refund, *domain.Payment, error) {
	cmd.Amount = money.Round2(cmd.Amount)
	if cmd.Amount <= 0 {
		return nil, nil, domain.NewValidationError(domain.CodeAmountInvalid,
			"refund amount must be a positive value",
			"يجب أن يكون مبلغ الاسترداد قيمة موجبة")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, nil, domain.NewValidationError(domain.CodeReasonRequired,
			"refund reason is required", "سبب الاسترداد مطلوب")
	}

	payment, err := tx.Payments().FindByID(cmd.PaymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, nil, domain.NewNotFoundError(domain.CodePaymentNotFound,
			"payment not found", "الدفعة غير موجودة")
	}
	// A pending invoice is a receivable, not money in the drawer; there is
	// nothing to hand back, goodwill or not.
	if !payment.Collected() {
		return nil, nil, domain.NewPolicyError(domain.CodePaymentNotCollected,
			"payment was never collected and cannot be refunded",
			"الدفعة لم تُحصَّل ولا يمكن استردادها")
	}

	// The refund is recorded against the acting user's own open shift,
	// whatever shift collected the original payment.
	shift, err := tx.Shifts().OpenShiftForUser(cmd.Actor.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("open shift lookup: %w", err)
	}
	if shift == nil {
		return nil, nil, domain.NewPolicyError(domain.CodeNoOpenShift,
			"an open shift is required to record a refund",
			"مطلوب وردية مفتوحة لتسجيل الاسترداد")
	}

	limits, err := ComputeRefundLimits(tx, payment)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Amount > limits.GoodwillCeiling+0.005 {
		return nil, nil, domain.NewValidationError(domain.CodeExceedsPaymentTotal,
			"refund exceeds the payment total minus prior refunds",
			"يتجاوز الاسترداد إجمالي الدفعة مطروحًا منه الاستردادات السابقة").
			WithMeta("maxRefundable", limits.GoodwillCeiling)
	}

	if cmd.Amount > limits.MaxRefundable+0.005 {
		if !cmd.Goodwill {
			return nil, nil, domain.NewPolicyError(domain.CodeNonRefundableUsage,
				"amount already consumed by rendered service is not refundable",
				"المبلغ المستهلك بالخدمة المقدمة غير قابل للاسترداد").
				WithMeta("maxRefundable", limits.MaxRefundable)
		}
		if cmd.Actor.Role != domain.RoleAdmin && !cmd.Actor.HasPermission(domain.PermGoodwillRefund) {
			return nil, nil, domain.NewPolicyError(domain.CodeGoodwillDenied,
				"goodwill refunds require an explicit permission",
				"يتطلب استرداد حسن النية إذنًا صريحًا")
		}
		if len(strings.TrimSpace(cmd.Reason)) < goodwillReasonMinLen {
			return nil, nil, domain.NewValidationError(domain.CodeGoodwillReasonTooShort,
				"goodwill refunds require a detailed reason",
				"يتطلب استرداد حسن النية سببًا مفصلًا")
		}
	}

	refund := &domain.Refund{
		PaymentID: payment.ID,
		Amount:    cmd.Amount,
		Reason:    strings.TrimSpace(cmd.Reason),
		Goodwill:  cmd.Goodwill,
		ShiftID:   &shift.ID,
		CreatedBy: cmd.Actor.ID,
		CreatedAt: time.Now(),
	}
	if err := tx.Refunds().Create(refund); err != nil {
		return nil, nil, fmt.Errorf("create refund: %w", err)
	}

	payment.RefundedTotal = money.Round2(payment.RefundedTotal + cmd.Amount)
	if money.ApproxZero(payment.Amount - payment.RefundedTotal) {
		payment.Status = domain.PaymentStatusRefunded
	} else {
		payment.Status = domain.PaymentStatusPartialRefund
	}
	if err := tx.Payments().Update(payment); err != nil {
		return nil, nil, fmt.Errorf("update payment: %w", err)
	}

	err = tx.Audit().Create(&domain.AuditEntry{
		ActorID:    cmd.Actor.ID,
		Action:     "payment.refund",
		EntityType: "payment",
		EntityID:   payment.ID,
		Detail: fmt.Sprintf("amount=%.2f goodwill=%t reason=%s",
			cmd.Amount, cmd.Goodwill, refund.Reason),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("audit refund: %w", err)
	}

	if err := h.cascadeSubscription(ctx, tx, payment); err != nil {
		return nil, nil, err
	}

	logger.Info(ctx).
		Uint("payment_id", payment.ID).
		Float64("amount", cmd.Amount).
		Bool("goodwill", cmd.Goodwill).
		Uint("shift_id", shift.ID).
		Msg("Refund recorded")
	return refund, payment, nil
}

// cascadeSubscription ends a linked subscription once its net paid amount
// reaches zero.
func (h *RefundPaymentHandler) cascadeSubscription(ctx context.Context, tx domain.Tx, payment *domain.Payment) error {
	if payment.SubscriptionID == nil {
		return nil
	}

	sub, err := tx.Subscriptions().FindByID(*payment.SubscriptionID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil || sub.Terminal() {
		return nil
	}

	paid, refunded, err := tx.Payments().SumBySubscription(sub.ID)
	if err != nil {
		return fmt.Errorf("subscription payment sums: %w", err)
	}
	if !money.ApproxZero(paid - refunded) {
		return nil
	}

	now := time.Now()
	sub.Status = domain.SubscriptionEnded
	sub.EndDate = &now
	sub.CancellationReason = "fully refunded"
	if err := tx.Subscriptions().Update(sub); err != nil {
		return fmt.Errorf("terminate subscription: %w", err)
	}

	logger.Info(ctx).
		Uint("subscription_id", sub.ID).
		Msg("Subscription auto-terminated after full refund")
	return nil
}

// ComputeRefundLimits evaluates the refund policy for a payment without
// writing anything. The refund preview query and the refund command share it.
func ComputeRefundLimits(tx domain.Tx, payment *domain.Payment) (RefundLimits, error) {
	// Uncollected payments cap at zero across the board: the invoice face
	// amount is owed money, not held money.
	if !payment.Collected() {
		return RefundLimits{}, nil
	}

	remaining := money.ClampNonNeg(payment.Amount - payment.RefundedTotal)

	limits := RefundLimits{
		Remaining:       remaining,
		MaxRefundable:   remaining,
		GoodwillCeiling: remaining,
	}

	var paid, refunded, consumed float64
	switch {
	case payment.SubscriptionID != nil:
		sub, err := tx.Subscriptions().FindByID(*payment.SubscriptionID)
		if err != nil {
			return limits, fmt.Errorf("load subscription: %w", err)
		}
		if sub == nil {
			return limits, nil
		}
		consumed = sub.ConsumedAmount
		paid, refunded, err = tx.Payments().SumBySubscription(sub.ID)
		if err != nil {
			return limits, fmt.Errorf("subscription payment sums: %w", err)
		}
	case payment.AppointmentID != nil:
		appt, err := tx.Appointments().FindByID(*payment.AppointmentID)
		if err != nil {
			return limits, fmt.Errorf("load appointment: %w", err)
		}
		if appt == nil {
			return limits, nil
		}
		if appt.Settled() {
			// A completed session is rendered service: its price counts as
			// consumed.
			consumed = appt.FinalPrice
		}
		paid, refunded, err = tx.Payments().SumByAppointment(appt.ID)
		if err != nil {
			return limits, fmt.Errorf("appointment payment sums: %w", err)
		}
	default:
		return limits, nil
	}

	globalRefundable := money.Round2(paid - refunded - consumed)
	limits.Consumed = consumed
	limits.MaxRefundable = money.Round2(money.Min(remaining, money.ClampNonNeg(globalRefundable)))
	return limits, nil
}
