package query

import (
	"context"
	"testing"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

func seedShiftPayment(store *repository.MemoryStore, shiftID uint, method string, amount float64, receipt string) domain.Payment {
	id := shiftID
	return store.SeedPayment(domain.Payment{
		MemberID:      1,
		Amount:        amount,
		Method:        method,
		Status:        domain.PaymentStatusCompleted,
		ReceiptNumber: receipt,
		ShiftID:       &id,
		PaidAt:        time.Now(),
		CreatedAt:     time.Now(),
	})
}

func addRefund(t *testing.T, store *repository.MemoryStore, paymentID, shiftID uint, amount float64) {
	t.Helper()
	id := shiftID
	err := store.Do(context.Background(), func(tx domain.Tx) error {
		return tx.Refunds().Create(&domain.Refund{
			PaymentID: paymentID,
			Amount:    amount,
			Reason:    "test refund",
			ShiftID:   &id,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("seed refund: %v", err)
	}
}

func TestShiftBreakdownPinsStaffToOwnShift(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewShiftBreakdownHandler(store)

	mine := store.SeedShift(domain.Shift{UserID: 4, OpenedAt: time.Now()})
	other := store.SeedShift(domain.Shift{UserID: 5, OpenedAt: time.Now()})

	seedShiftPayment(store, mine.ID, domain.MethodCash, 100, "RC-BRK-000001")
	seedShiftPayment(store, mine.ID, domain.MethodCard, 50, "RC-BRK-000002")
	seedShiftPayment(store, other.ID, domain.MethodCash, 999, "RC-BRK-000003")

	// Staff asking for "all" still only sees their own drawer.
	b, err := h.Handle(context.Background(), ShiftBreakdownQuery{
		Scope: ScopeAll,
		Actor: domain.Actor{ID: 4, Role: domain.RoleStaff},
	})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if b.Cash.Paid != 100 || b.Card.Paid != 50 {
		t.Fatalf("staff drawer: cash=%v card=%v, want 100/50", b.Cash.Paid, b.Card.Paid)
	}
	if b.Total.Paid != 150 {
		t.Fatalf("staff total: got %v, want 150", b.Total.Paid)
	}
}

func TestShiftBreakdownStaffWithoutOpenShiftSeesZeros(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewShiftBreakdownHandler(store)

	shift := store.SeedShift(domain.Shift{UserID: 5, OpenedAt: time.Now()})
	seedShiftPayment(store, shift.ID, domain.MethodCash, 100, "RC-BRK-000004")

	b, err := h.Handle(context.Background(), ShiftBreakdownQuery{
		Actor: domain.Actor{ID: 4, Role: domain.RoleStaff},
	})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if b.Total.Paid != 0 || b.Cash.Paid != 0 {
		t.Fatalf("no open shift must mean zeros, got %+v", b)
	}
}

// A refund counts against the shift in which the refund itself was recorded,
// not the shift that collected the original payment. A drawer that refunds an
// earlier shift's payment can therefore go negative.
func TestShiftBreakdownRefundHitsRefundersShift(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewShiftBreakdownHandler(store)

	earlier := store.SeedShift(domain.Shift{UserID: 5, OpenedAt: time.Now().Add(-12 * time.Hour)})
	mine := store.SeedShift(domain.Shift{UserID: 4, OpenedAt: time.Now()})

	old := seedShiftPayment(store, earlier.ID, domain.MethodCash, 200, "RC-BRK-000005")
	seedShiftPayment(store, mine.ID, domain.MethodCash, 30, "RC-BRK-000006")
	addRefund(t, store, old.ID, mine.ID, 80)

	b, err := h.Handle(context.Background(), ShiftBreakdownQuery{
		Actor: domain.Actor{ID: 4, Role: domain.RoleStaff},
	})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if b.Cash.Paid != 30 || b.Cash.Refunded != 80 {
		t.Fatalf("cash drawer: paid=%v refunded=%v, want 30/80", b.Cash.Paid, b.Cash.Refunded)
	}
	if b.Cash.Net != -50 {
		t.Fatalf("cash net: got %v, want -50", b.Cash.Net)
	}

	// The earlier shift keeps its collected total untouched.
	earlierView, err := h.Handle(context.Background(), ShiftBreakdownQuery{
		Actor: domain.Actor{ID: 5, Role: domain.RoleStaff},
	})
	if err != nil {
		t.Fatalf("earlier breakdown: %v", err)
	}
	if earlierView.Cash.Paid != 200 || earlierView.Cash.Refunded != 0 {
		t.Fatalf("earlier drawer: %+v", earlierView.Cash)
	}
}

func TestShiftBreakdownPrivilegedScopes(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewShiftBreakdownHandler(store)

	openShift := store.SeedShift(domain.Shift{UserID: 4, OpenedAt: time.Now()})
	closedAt := time.Now().Add(-time.Hour)
	closedShift := store.SeedShift(domain.Shift{UserID: 5, OpenedAt: time.Now().Add(-8 * time.Hour), ClosedAt: &closedAt})

	seedShiftPayment(store, openShift.ID, domain.MethodCash, 100, "RC-BRK-000007")
	seedShiftPayment(store, closedShift.ID, domain.MethodTransfer, 70, "RC-BRK-000008")

	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	// current: only open shifts.
	b, err := h.Handle(context.Background(), ShiftBreakdownQuery{Scope: ScopeCurrent, Actor: admin})
	if err != nil {
		t.Fatalf("current scope: %v", err)
	}
	if b.Total.Paid != 100 || b.Transfer.Paid != 0 {
		t.Fatalf("current scope totals: %+v", b)
	}

	// default: everything.
	b, err = h.Handle(context.Background(), ShiftBreakdownQuery{Actor: admin})
	if err != nil {
		t.Fatalf("all scope: %v", err)
	}
	if b.Total.Paid != 170 || b.Transfer.Paid != 70 {
		t.Fatalf("all scope totals: %+v", b)
	}
}

func TestShiftBreakdownDateRange(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewShiftBreakdownHandler(store)

	shift := store.SeedShift(domain.Shift{UserID: 4, OpenedAt: time.Now()})
	store.SeedPayment(domain.Payment{
		MemberID: 1, Amount: 60, Method: domain.MethodCash,
		Status: domain.PaymentStatusCompleted, ReceiptNumber: "RC-BRK-000009",
		ShiftID: &shift.ID, PaidAt: time.Now(),
		CreatedAt: time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
	})
	store.SeedPayment(domain.Payment{
		MemberID: 1, Amount: 40, Method: domain.MethodCash,
		Status: domain.PaymentStatusCompleted, ReceiptNumber: "RC-BRK-000010",
		ShiftID: &shift.ID, PaidAt: time.Now(),
		CreatedAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
	})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	b, err := h.Handle(context.Background(), ShiftBreakdownQuery{
		Scope: ScopeRange,
		From:  &from,
		To:    &to,
		Actor: domain.Actor{ID: 1, Role: domain.RoleManager},
	})
	if err != nil {
		t.Fatalf("range scope: %v", err)
	}
	if b.Cash.Paid != 60 {
		t.Fatalf("range cash: got %v, want 60", b.Cash.Paid)
	}
}
