package command

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
	"github.com/tair/gym-settlement/pkg/money"
)

// CancelSubscriptionCommand cancels a membership with a date-weighted
// prorated refund. DryRun returns the numbers without mutating anything.
type CancelSubscriptionCommand struct {
	SubscriptionID uint
	Actor          domain.Actor
	Reason         string
	// DailyRateOverride replaces planPrice/planDurationDays when set.
	DailyRateOverride *float64
	DryRun            bool
	// Now is injectable for tests; zero means time.Now().
	Now time.Time
}

// CancelSubscriptionResult carries the prorated math and, when executed, the
// refunds issued against the backing payments.
type CancelSubscriptionResult struct {
	TotalPaid     float64         `json:"total_paid"`
	TotalRefunded float64         `json:"total_refunded"`
	UsedDays      int             `json:"used_days"`
	DailyRate     float64         `json:"daily_rate"`
	Refundable    float64         `json:"refundable"`
	Executed      bool            `json:"executed"`
	Refunds       []domain.Refund `json:"refunds,omitempty"`

	// payments[i] is the post-update payment behind Refunds[i].
	payments []domain.Payment
}

// CancelSubscriptionHandler handles prorated membership cancellation.
type CancelSubscriptionHandler struct {
	uow    domain.UnitOfWork
	events EventPublisher
}

func NewCancelSubscriptionHandler(uow domain.UnitOfWork, events EventPublisher) *CancelSubscriptionHandler {
	return &CancelSubscriptionHandler{uow: uow, events: events}
}

func (h *CancelSubscriptionHandler) Handle(ctx context.Context, cmd CancelSubscriptionCommand) (*CancelSubscriptionResult, error) {
	var result *CancelSubscriptionResult

	if cmd.DryRun {
		err := h.uow.View(ctx, func(tx domain.Tx) error {
			var err error
			result, _, err = h.preview(tx, cmd)
			return err
		})
		return result, err
	}

	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		var err error
		result, err = h.execute(ctx, tx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	if h.events != nil {
		for i := range result.Refunds {
			h.events.RefundIssued(ctx, &result.Refunds[i], &result.payments[i])
		}
	}
	return result, nil
}

func (h *CancelSubscriptionHandler) preview(tx domain.Tx, cmd CancelSubscriptionCommand) (*CancelSubscriptionResult, *domain.Subscription, error) {
	sub, err := tx.Subscriptions().FindByID(cmd.SubscriptionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return nil, nil, domain.NewNotFoundError(domain.CodeSubscriptionNotFound,
			"subscription not found", "الاشتراك غير موجود")
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	paid, refunded, err := tx.Payments().SumBySubscription(sub.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("subscription payment sums: %w", err)
	}

	pauses, err := tx.Subscriptions().PausesBySubscription(sub.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load pauses: %w", err)
	}
	pausedDays := 0
	for _, p := range pauses {
		pausedDays += p.PausedDaysUntil(now)
	}

	usedDays := 0
	if now.After(sub.StartDate) {
		usedDays = int(now.Sub(sub.StartDate).Hours()/24) - pausedDays
		if usedDays < 0 {
			usedDays = 0
		}
	}

	dailyRate := 0.0
	if cmd.DailyRateOverride != nil {
		dailyRate = *cmd.DailyRateOverride
	} else if sub.PlanDurationDays > 0 {
		dailyRate = sub.PlanPrice / float64(sub.PlanDurationDays)
	}

	refundable := money.ClampNonNeg(paid - float64(usedDays)*dailyRate)
	// Never more than what is still held.
	refundable = money.Round2(money.Min(refundable, money.ClampNonNeg(paid-refunded)))

	return &CancelSubscriptionResult{
		TotalPaid:     money.Round2(paid),
		TotalRefunded: money.Round2(refunded),
		UsedDays:      usedDays,
		DailyRate:     money.Round2(dailyRate),
		Refundable:    refundable,
	}, sub, nil
}

func (h *CancelSubscriptionHandler) execute(ctx context.Context, tx domain.Tx, cmd CancelSubscriptionCommand) (*CancelSubscriptionResult, error) {
	result, sub, err := h.preview(tx, cmd)
	if err != nil {
		return nil, err
	}
	if sub.Terminal() {
		return nil, domain.NewPolicyError(domain.CodeSubscriptionNotFound,
			"subscription is already terminated", "الاشتراك منتهي بالفعل")
	}

	shift, err := tx.Shifts().OpenShiftForUser(cmd.Actor.ID)
	if err != nil {
		return nil, fmt.Errorf("open shift lookup: %w", err)
	}
	if shift == nil {
		return nil, domain.NewPolicyError(domain.CodeNoOpenShift,
			"an open shift is required to record a refund",
			"مطلوب وردية مفتوحة لتسجيل الاسترداد")
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "prorated cancellation"
	}

	// Spread the prorated amount over backing payments, newest first, each
	// capped at what that payment still holds.
	payments, err := tx.Payments().FindByMember(sub.MemberID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	var backing []domain.Payment
	for _, p := range payments {
		if p.SubscriptionID != nil && *p.SubscriptionID == sub.ID && countable(p.Status) {
			backing = append(backing, p)
		}
	}
	sort.Slice(backing, func(i, j int) bool {
		return backing[i].PaidAt.After(backing[j].PaidAt)
	})

	left := result.Refundable
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	for i := range backing {
		if money.ApproxZero(left) {
			break
		}
		p := backing[i]
		held := money.ClampNonNeg(p.Amount - p.RefundedTotal)
		if money.ApproxZero(held) {
			continue
		}
		amount := money.Round2(money.Min(left, held))

		refund := domain.Refund{
			PaymentID: p.ID,
			Amount:    amount,
			Reason:    reason,
			ShiftID:   &shift.ID,
			CreatedBy: cmd.Actor.ID,
			CreatedAt: now,
		}
		if err := tx.Refunds().Create(&refund); err != nil {
			return nil, fmt.Errorf("create refund: %w", err)
		}

		p.RefundedTotal = money.Round2(p.RefundedTotal + amount)
		if money.ApproxZero(p.Amount - p.RefundedTotal) {
			p.Status = domain.PaymentStatusRefunded
		} else {
			p.Status = domain.PaymentStatusPartialRefund
		}
		if err := tx.Payments().Update(&p); err != nil {
			return nil, fmt.Errorf("update payment: %w", err)
		}

		result.Refunds = append(result.Refunds, refund)
		result.payments = append(result.payments, p)
		left = money.Round2(left - amount)
	}

	sub.Status = domain.SubscriptionCancelled
	sub.EndDate = &now
	sub.CancellationReason = reason
	if err := tx.Subscriptions().Update(sub); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}

	err = tx.Audit().Create(&domain.AuditEntry{
		ActorID:    cmd.Actor.ID,
		Action:     "subscription.cancel",
		EntityType: "subscription",
		EntityID:   sub.ID,
		Detail: fmt.Sprintf("refundable=%.2f used_days=%d daily_rate=%.2f",
			result.Refundable, result.UsedDays, result.DailyRate),
	})
	if err != nil {
		return nil, fmt.Errorf("audit cancellation: %w", err)
	}

	result.Executed = true
	logger.Info(ctx).
		Uint("subscription_id", sub.ID).
		Float64("refundable", result.Refundable).
		Int("used_days", result.UsedDays).
		Msg("Subscription cancelled with prorated refund")
	return result, nil
}

func countable(status string) bool {
	return status == domain.PaymentStatusCompleted ||
		status == domain.PaymentStatusPartialRefund
}
