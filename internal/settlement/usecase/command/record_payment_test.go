package command

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

func TestRecordPaymentRejectsInvalidInput(t *testing.T) {
	h := NewRecordPaymentHandler(repository.NewMemoryStore(), nil)

	_, err := h.Handle(context.Background(), RecordPaymentCommand{Amount: 100})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeMemberNotFound {
		t.Fatalf("missing member: got %v, want %s", err, domain.CodeMemberNotFound)
	}

	_, err = h.Handle(context.Background(), RecordPaymentCommand{MemberID: 1, Amount: 0})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeAmountInvalid {
		t.Fatalf("zero amount: got %v, want %s", err, domain.CodeAmountInvalid)
	}
}

func TestRecordPaymentIdempotencyKeyReplay(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRecordPaymentHandler(store, nil)

	cmd := RecordPaymentCommand{
		MemberID:       1,
		Amount:         250,
		Method:         domain.MethodCash,
		IdempotencyKey: "client-key-1",
		CreatedBy:      7,
	}

	first, err := h.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if !first.Created {
		t.Fatal("first request must create the payment")
	}

	second, err := h.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.Created {
		t.Fatal("replay must not create a second payment")
	}
	if second.Payment.ID != first.Payment.ID {
		t.Fatalf("replay returned payment %d, want %d", second.Payment.ID, first.Payment.ID)
	}
	if got := len(store.Payments()); got != 1 {
		t.Fatalf("expected 1 stored payment, got %d", got)
	}
}

// With no shared key, an identical completed cash payment inside the trailing
// window is a client retry; the same request past the window is a new charge.
func TestRecordPaymentDuplicateWindow(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRecordPaymentHandler(store, nil)

	now := time.Now()
	base := RecordPaymentCommand{
		MemberID:  3,
		Amount:    100,
		Method:    domain.MethodCash,
		CreatedBy: 7,
	}

	first := base
	first.IdempotencyKey = "key-a"
	first.PaidAt = now.Add(-10 * time.Second)
	if _, err := h.Handle(context.Background(), first); err != nil {
		t.Fatalf("first record: %v", err)
	}

	retry := base
	retry.IdempotencyKey = "key-b"
	retry.PaidAt = now
	res, err := h.Handle(context.Background(), retry)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Created {
		t.Fatal("identical payment 10s later must be suppressed")
	}

	// Age the stored payment beyond the window and try again.
	store2 := repository.NewMemoryStore()
	h2 := NewRecordPaymentHandler(store2, nil)

	old := base
	old.IdempotencyKey = "key-a"
	old.PaidAt = now.Add(-duplicateWindow - time.Second)
	if _, err := h2.Handle(context.Background(), old); err != nil {
		t.Fatalf("old record: %v", err)
	}

	fresh := base
	fresh.IdempotencyKey = "key-b"
	fresh.PaidAt = now
	res, err = h2.Handle(context.Background(), fresh)
	if err != nil {
		t.Fatalf("fresh record: %v", err)
	}
	if !res.Created {
		t.Fatal("payment outside the duplicate window must create a new row")
	}
}

func TestRecordPaymentSkipIdempotencyForcesNewRow(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRecordPaymentHandler(store, nil)

	cmd := RecordPaymentCommand{MemberID: 2, Amount: 50, CreatedBy: 7}
	if _, err := h.Handle(context.Background(), cmd); err != nil {
		t.Fatalf("first record: %v", err)
	}

	cmd.SkipIdempotency = true
	cmd.IdempotencyKey = "forced-second"
	res, err := h.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("forced record: %v", err)
	}
	if !res.Created {
		t.Fatal("SkipIdempotency must bypass duplicate suppression")
	}
	if got := len(store.Payments()); got != 2 {
		t.Fatalf("expected 2 stored payments, got %d", got)
	}
}

func TestRecordPaymentSequentialReceipts(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRecordPaymentHandler(store, nil)

	day := time.Now().Format("20060102")
	for i := 1; i <= 2; i++ {
		res, err := h.Handle(context.Background(), RecordPaymentCommand{
			MemberID:          1,
			Amount:            float64(100 * i),
			SequentialReceipt: true,
			CreatedBy:         7,
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		want := fmt.Sprintf("RC-%s-%06d", day, i)
		if res.Payment.ReceiptNumber != want {
			t.Fatalf("receipt %d: got %s, want %s", i, res.Payment.ReceiptNumber, want)
		}
	}
}

func TestRecordPaymentNormalizesMethodAndReference(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewRecordPaymentHandler(store, nil)

	res, err := h.Handle(context.Background(), RecordPaymentCommand{
		MemberID:          1,
		Amount:            75,
		Method:            " CARD ",
		ExternalReference: " tx-991 ",
		CreatedBy:         7,
	})
	if err != nil {
		t.Fatalf("record card payment: %v", err)
	}
	if res.Payment.Method != domain.MethodCard {
		t.Fatalf("method: got %s, want card", res.Payment.Method)
	}
	if res.Payment.ExternalReference == nil || *res.Payment.ExternalReference != "TX-991" {
		t.Fatalf("external reference not normalized: %v", res.Payment.ExternalReference)
	}
	if !strings.HasPrefix(res.Payment.ReceiptNumber, "RCP-") {
		t.Fatalf("random receipt form expected, got %s", res.Payment.ReceiptNumber)
	}

	cash, err := h.Handle(context.Background(), RecordPaymentCommand{
		MemberID:          2,
		Amount:            20,
		Method:            "cash",
		ExternalReference: "ignored",
		CreatedBy:         7,
	})
	if err != nil {
		t.Fatalf("record cash payment: %v", err)
	}
	if cash.Payment.ExternalReference != nil {
		t.Fatal("cash payments must not carry an external reference")
	}
}
