package command

import (
	"context"
	"testing"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

var cancelStart = time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

func seedCancellableSubscription(store *repository.MemoryStore) domain.Subscription {
	store.SeedShift(domain.Shift{UserID: 9, OpenedAt: cancelStart})
	sub := store.SeedSubscription(domain.Subscription{
		MemberID:         1,
		PlanName:         "monthly",
		PlanPrice:        300,
		PlanDurationDays: 30,
		StartDate:        cancelStart,
		Status:           domain.SubscriptionActive,
	})
	store.SeedPayment(domain.Payment{
		MemberID:       1,
		SubscriptionID: &sub.ID,
		Amount:         300,
		Method:         domain.MethodCash,
		Status:         domain.PaymentStatusCompleted,
		ReceiptNumber:  "RC-CANCEL-000001",
		PaidAt:         cancelStart,
	})
	return sub
}

func TestCancelSubscriptionDryRunComputesWithoutWriting(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewCancelSubscriptionHandler(store, nil)
	sub := seedCancellableSubscription(store)

	res, err := h.Handle(context.Background(), CancelSubscriptionCommand{
		SubscriptionID: sub.ID,
		Actor:          domain.Actor{ID: 9},
		DryRun:         true,
		Now:            cancelStart.AddDate(0, 0, 10),
	})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	if res.UsedDays != 10 || res.DailyRate != 10 {
		t.Fatalf("proration: used=%d rate=%v, want 10/10", res.UsedDays, res.DailyRate)
	}
	if res.Refundable != 200 {
		t.Fatalf("refundable: got %v, want 200", res.Refundable)
	}
	if res.Executed {
		t.Fatal("dry run must not execute")
	}
	if got := len(store.Refunds()); got != 0 {
		t.Fatalf("dry run wrote %d refunds", got)
	}

	var fresh *domain.Subscription
	_ = store.View(context.Background(), func(tx domain.Tx) error {
		fresh, _ = tx.Subscriptions().FindByID(sub.ID)
		return nil
	})
	if fresh.Status != domain.SubscriptionActive {
		t.Fatalf("dry run changed subscription status to %s", fresh.Status)
	}
}

func TestCancelSubscriptionExecutesProratedRefund(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewCancelSubscriptionHandler(store, nil)
	sub := seedCancellableSubscription(store)

	res, err := h.Handle(context.Background(), CancelSubscriptionCommand{
		SubscriptionID: sub.ID,
		Actor:          domain.Actor{ID: 9},
		Reason:         "moving away",
		Now:            cancelStart.AddDate(0, 0, 10),
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if !res.Executed || res.Refundable != 200 {
		t.Fatalf("result: executed=%t refundable=%v", res.Executed, res.Refundable)
	}
	if len(res.Refunds) != 1 || res.Refunds[0].Amount != 200 {
		t.Fatalf("refunds: %+v", res.Refunds)
	}

	payments := store.Payments()
	if payments[0].RefundedTotal != 200 || payments[0].Status != domain.PaymentStatusPartialRefund {
		t.Fatalf("backing payment: %+v", payments[0])
	}

	var fresh *domain.Subscription
	_ = store.View(context.Background(), func(tx domain.Tx) error {
		fresh, _ = tx.Subscriptions().FindByID(sub.ID)
		return nil
	})
	if fresh.Status != domain.SubscriptionCancelled || fresh.EndDate == nil {
		t.Fatalf("subscription after cancel: %+v", fresh)
	}
	if fresh.CancellationReason != "moving away" {
		t.Fatalf("cancellation reason: got %q", fresh.CancellationReason)
	}
}

// Paused days do not count as usage.
func TestCancelSubscriptionExcludesPausedDays(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewCancelSubscriptionHandler(store, nil)
	sub := seedCancellableSubscription(store)

	resumed := cancelStart.AddDate(0, 0, 6)
	store.SeedPause(domain.SubscriptionPause{
		SubscriptionID: sub.ID,
		PausedAt:       cancelStart.AddDate(0, 0, 2),
		ResumedAt:      &resumed,
	})

	res, err := h.Handle(context.Background(), CancelSubscriptionCommand{
		SubscriptionID: sub.ID,
		Actor:          domain.Actor{ID: 9},
		DryRun:         true,
		Now:            cancelStart.AddDate(0, 0, 10),
	})
	if err != nil {
		t.Fatalf("dry run with pause: %v", err)
	}
	if res.UsedDays != 6 {
		t.Fatalf("used days with 4-day pause: got %d, want 6", res.UsedDays)
	}
	if res.Refundable != 240 {
		t.Fatalf("refundable: got %v, want 240", res.Refundable)
	}
}

// The prorated amount is spread over backing payments newest first, each
// capped at what that payment still holds.
func TestCancelSubscriptionSpreadsAcrossPayments(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewCancelSubscriptionHandler(store, nil)

	store.SeedShift(domain.Shift{UserID: 9, OpenedAt: cancelStart})
	sub := store.SeedSubscription(domain.Subscription{
		MemberID:         1,
		PlanPrice:        300,
		PlanDurationDays: 30,
		StartDate:        cancelStart,
		Status:           domain.SubscriptionActive,
	})
	store.SeedPayment(domain.Payment{
		MemberID: 1, SubscriptionID: &sub.ID, Amount: 100,
		Method: domain.MethodCash, Status: domain.PaymentStatusCompleted,
		ReceiptNumber: "RC-CANCEL-000002", PaidAt: cancelStart,
	})
	store.SeedPayment(domain.Payment{
		MemberID: 1, SubscriptionID: &sub.ID, Amount: 200,
		Method: domain.MethodCard, Status: domain.PaymentStatusCompleted,
		ReceiptNumber: "RC-CANCEL-000003", PaidAt: cancelStart.AddDate(0, 0, 1),
	})

	res, err := h.Handle(context.Background(), CancelSubscriptionCommand{
		SubscriptionID: sub.ID,
		Actor:          domain.Actor{ID: 9},
		Now:            cancelStart.AddDate(0, 0, 5),
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// 5 used days at 10/day leaves 250 refundable.
	if res.Refundable != 250 {
		t.Fatalf("refundable: got %v, want 250", res.Refundable)
	}
	if len(res.Refunds) != 2 {
		t.Fatalf("expected refunds against both payments, got %d", len(res.Refunds))
	}
	if res.Refunds[0].Amount != 200 || res.Refunds[1].Amount != 50 {
		t.Fatalf("refund spread: got %v then %v, want 200 then 50",
			res.Refunds[0].Amount, res.Refunds[1].Amount)
	}
}

func TestCancelSubscriptionRejectsTerminated(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewCancelSubscriptionHandler(store, nil)
	store.SeedShift(domain.Shift{UserID: 9, OpenedAt: cancelStart})
	sub := store.SeedSubscription(domain.Subscription{
		MemberID: 1, PlanPrice: 300, PlanDurationDays: 30,
		StartDate: cancelStart, Status: domain.SubscriptionCancelled,
	})

	_, err := h.Handle(context.Background(), CancelSubscriptionCommand{
		SubscriptionID: sub.ID,
		Actor:          domain.Actor{ID: 9},
		Now:            cancelStart.AddDate(0, 0, 3),
	})
	if err == nil {
		t.Fatal("cancelling a terminated subscription must fail")
	}
}
