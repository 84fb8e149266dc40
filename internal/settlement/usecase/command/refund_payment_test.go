package command

import (
	"context"
	"testing"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

// seedSubscriptionPayment builds the standard refund fixture: one completed
// 500 payment backing a subscription with a given consumed amount, and an
// open shift for actor 9.
func seedSubscriptionPayment(store *repository.MemoryStore, consumed float64) domain.Payment {
	store.SeedShift(domain.Shift{UserID: 9, OpenedAt: time.Now()})
	sub := store.SeedSubscription(domain.Subscription{
		MemberID:       1,
		PlanPrice:      500,
		Status:         domain.SubscriptionActive,
		ConsumedAmount: consumed,
		StartDate:      time.Now().AddDate(0, 0, -10),
	})
	return store.SeedPayment(domain.Payment{
		MemberID:       1,
		SubscriptionID: &sub.ID,
		Amount:         500,
		Method:         domain.MethodCash,
		Status:         domain.PaymentStatusCompleted,
		ReceiptNumber:  "RC-TEST-000001",
		PaidAt:         time.Now().AddDate(0, 0, -10),
	})
}

func TestRefundWithinConsumedCap(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := seedSubscriptionPayment(store, 20)

	refund, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    480,
		Reason:    "customer request",
		Actor:     domain.Actor{ID: 9, Role: domain.RoleStaff},
	})
	if err != nil {
		t.Fatalf("refund 480 of 500 with 20 consumed: %v", err)
	}
	if refund.Amount != 480 {
		t.Fatalf("refund amount: got %v, want 480", refund.Amount)
	}
	if refund.ShiftID == nil {
		t.Fatal("refund must record the acting user's open shift")
	}

	payments := store.Payments()
	if payments[0].RefundedTotal != 480 || payments[0].Status != domain.PaymentStatusPartialRefund {
		t.Fatalf("payment after refund: %+v", payments[0])
	}
}

func TestRefundBeyondConsumedCapNeedsGoodwill(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := seedSubscriptionPayment(store, 20)

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    481,
		Reason:    "customer request",
		Actor:     domain.Actor{ID: 9, Role: domain.RoleStaff},
	})
	e, ok := domain.AsError(err)
	if !ok || e.Code != domain.CodeNonRefundableUsage {
		t.Fatalf("expected %s, got %v", domain.CodeNonRefundableUsage, err)
	}
	if got := e.Meta["maxRefundable"]; got != 480.0 {
		t.Fatalf("maxRefundable meta: got %v, want 480", got)
	}
	if got := len(store.Refunds()); got != 0 {
		t.Fatalf("rejected refund must write nothing, got %d rows", got)
	}
}

func TestGoodwillOverridePermissions(t *testing.T) {
	// Staff without the permission is denied.
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := seedSubscriptionPayment(store, 20)

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    481,
		Reason:    "long detailed goodwill reason",
		Goodwill:  true,
		Actor:     domain.Actor{ID: 9, Role: domain.RoleStaff},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeGoodwillDenied {
		t.Fatalf("staff goodwill: expected %s, got %v", domain.CodeGoodwillDenied, err)
	}

	// Staff holding the explicit permission may override.
	store = repository.NewMemoryStore()
	h = NewRefundPaymentHandler(store, nil)
	payment = seedSubscriptionPayment(store, 20)

	refund, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    481,
		Reason:    "long detailed goodwill reason",
		Goodwill:  true,
		Actor: domain.Actor{
			ID: 9, Role: domain.RoleStaff,
			Permissions: []string{domain.PermGoodwillRefund},
		},
	})
	if err != nil {
		t.Fatalf("permitted goodwill refund: %v", err)
	}
	if !refund.Goodwill {
		t.Fatal("refund must be flagged goodwill")
	}
}

func TestGoodwillRequiresDetailedReason(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := seedSubscriptionPayment(store, 20)

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    481,
		Reason:    "short",
		Goodwill:  true,
		Actor:     domain.Actor{ID: 9, Role: domain.RoleAdmin},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeGoodwillReasonTooShort {
		t.Fatalf("expected %s, got %v", domain.CodeGoodwillReasonTooShort, err)
	}
}

// Goodwill can waive the consumed cap but never the collected ceiling.
func TestRefundNeverExceedsCollectedTotal(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := seedSubscriptionPayment(store, 20)

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    501,
		Reason:    "long detailed goodwill reason",
		Goodwill:  true,
		Actor:     domain.Actor{ID: 9, Role: domain.RoleAdmin},
	})
	e, ok := domain.AsError(err)
	if !ok || e.Code != domain.CodeExceedsPaymentTotal {
		t.Fatalf("expected %s, got %v", domain.CodeExceedsPaymentTotal, err)
	}
	if got := e.Meta["maxRefundable"]; got != 500.0 {
		t.Fatalf("goodwill ceiling meta: got %v, want 500", got)
	}
}

func TestRefundRequiresOpenShift(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := store.SeedPayment(domain.Payment{
		MemberID: 1, Amount: 100, Method: domain.MethodCash,
		Status: domain.PaymentStatusCompleted, ReceiptNumber: "RC-TEST-000009",
		PaidAt: time.Now(),
	})

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    50,
		Reason:    "no shift open",
		Actor:     domain.Actor{ID: 9, Role: domain.RoleStaff},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeNoOpenShift {
		t.Fatalf("expected %s, got %v", domain.CodeNoOpenShift, err)
	}
}

func TestFullRefundTerminatesSubscription(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := seedSubscriptionPayment(store, 0)

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID,
		Amount:    500,
		Reason:    "membership reversal",
		Actor:     domain.Actor{ID: 9, Role: domain.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("full refund: %v", err)
	}

	var sub *domain.Subscription
	_ = store.View(context.Background(), func(tx domain.Tx) error {
		sub, _ = tx.Subscriptions().FindByID(*payment.SubscriptionID)
		return nil
	})
	if sub.Status != domain.SubscriptionEnded {
		t.Fatalf("subscription status: got %s, want ended", sub.Status)
	}
	if sub.CancellationReason != "fully refunded" {
		t.Fatalf("cancellation reason: got %q", sub.CancellationReason)
	}

	payments := store.Payments()
	if payments[0].Status != domain.PaymentStatusRefunded {
		t.Fatalf("payment status: got %s, want refunded", payments[0].Status)
	}
}

// A settled session is rendered service: its final price counts as consumed,
// so the plain refund path has nothing left to give back.
func TestRefundLimitsForSettledAppointment(t *testing.T) {
	store := repository.NewMemoryStore()
	appt := store.SeedAppointment(domain.Appointment{
		CoachID: 2, Price: 100, FinalPrice: 100, PaidAmount: 100,
		Status: domain.AppointmentCompleted, IsCompleted: true,
	})
	payment := store.SeedPayment(domain.Payment{
		MemberID: 1, AppointmentID: &appt.ID, Amount: 100,
		Method: domain.MethodCash, Status: domain.PaymentStatusCompleted,
		ReceiptNumber: "RC-TEST-000010", PaidAt: time.Now(),
	})

	err := store.View(context.Background(), func(tx domain.Tx) error {
		limits, err := ComputeRefundLimits(tx, &payment)
		if err != nil {
			return err
		}
		if limits.Consumed != 100 {
			t.Fatalf("consumed: got %v, want 100", limits.Consumed)
		}
		if limits.MaxRefundable != 0 {
			t.Fatalf("max refundable: got %v, want 0", limits.MaxRefundable)
		}
		if limits.GoodwillCeiling != 100 {
			t.Fatalf("goodwill ceiling: got %v, want 100", limits.GoodwillCeiling)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("compute limits: %v", err)
	}
}

// A pending invoice is owed money, not held money: no refund path, not even
// an admin goodwill override, may pay it out.
func TestRefundRejectsUncollectedInvoice(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	store.SeedShift(domain.Shift{UserID: 9, OpenedAt: time.Now()})
	appt := store.SeedAppointment(domain.Appointment{
		CoachID: 2, Price: 200, FinalPrice: 200, DueAmount: 200,
		Status: domain.AppointmentCompleted, IsCompleted: true,
	})
	invoice := store.SeedPayment(domain.Payment{
		MemberID: 1, AppointmentID: &appt.ID, Amount: 200,
		Method: domain.MethodCash, Status: domain.PaymentStatusPending,
		ReceiptNumber: "RC-TEST-000011", PaidAt: time.Now(),
	})

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: invoice.ID,
		Amount:    200,
		Reason:    "long detailed goodwill reason",
		Goodwill:  true,
		Actor:     domain.Actor{ID: 9, Role: domain.RoleAdmin},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodePaymentNotCollected {
		t.Fatalf("expected %s, got %v", domain.CodePaymentNotCollected, err)
	}
	if got := len(store.Refunds()); got != 0 {
		t.Fatalf("rejected refund must write nothing, got %d rows", got)
	}

	// The preview shows zeros across the board for the same invoice.
	err = store.View(context.Background(), func(tx domain.Tx) error {
		limits, err := ComputeRefundLimits(tx, &invoice)
		if err != nil {
			return err
		}
		if limits.Remaining != 0 || limits.MaxRefundable != 0 || limits.GoodwillCeiling != 0 {
			t.Fatalf("uncollected limits: %+v, want all zero", limits)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("compute limits: %v", err)
	}
}

func TestRefundValidation(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRefundPaymentHandler(store, nil)
	payment := seedSubscriptionPayment(store, 0)

	_, err := h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID, Amount: 0, Reason: "x",
		Actor: domain.Actor{ID: 9},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeAmountInvalid {
		t.Fatalf("zero amount: got %v", err)
	}

	_, err = h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: payment.ID, Amount: 10, Reason: "   ",
		Actor: domain.Actor{ID: 9},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeReasonRequired {
		t.Fatalf("blank reason: got %v", err)
	}

	_, err = h.Handle(context.Background(), RefundPaymentCommand{
		PaymentID: 9999, Amount: 10, Reason: "missing payment",
		Actor: domain.Actor{ID: 9},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodePaymentNotFound {
		t.Fatalf("unknown payment: got %v", err)
	}
}
