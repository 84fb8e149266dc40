package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.Do(context.Background(), func(tx domain.Tx) error {
		if err := tx.Payments().Create(&domain.Payment{
			MemberID: 1, Amount: 100, Method: domain.MethodCash,
			Status: domain.PaymentStatusCompleted, ReceiptNumber: "RC-MEM-000001",
			PaidAt: time.Now(),
		}); err != nil {
			return err
		}
		if err := tx.Credits().Create(&domain.CreditEntry{MemberID: 1, Delta: 10}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the inner error back, got %v", err)
	}

	if got := len(store.Payments()); got != 0 {
		t.Fatalf("payments survived rollback: %d", got)
	}
	if got := len(store.CreditEntries()); got != 0 {
		t.Fatalf("credit entries survived rollback: %d", got)
	}
}

func TestMemoryStoreUniqueConstraints(t *testing.T) {
	store := NewMemoryStore()
	key := "idem-1"
	ref := "TX-1"

	err := store.Do(context.Background(), func(tx domain.Tx) error {
		return tx.Payments().Create(&domain.Payment{
			MemberID: 1, Amount: 100, Method: domain.MethodCard,
			Status: domain.PaymentStatusCompleted, ReceiptNumber: "RC-MEM-000002",
			IdempotencyKey: &key, ExternalReference: &ref, PaidAt: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	cases := []domain.Payment{
		{MemberID: 2, Amount: 50, Method: domain.MethodCash,
			ReceiptNumber: "RC-MEM-000002", PaidAt: time.Now()}, // receipt collision
		{MemberID: 2, Amount: 50, Method: domain.MethodCash,
			ReceiptNumber: "RC-MEM-000003", IdempotencyKey: &key, PaidAt: time.Now()}, // key collision
		{MemberID: 2, Amount: 50, Method: domain.MethodCard,
			ReceiptNumber: "RC-MEM-000004", ExternalReference: &ref, PaidAt: time.Now()}, // method+ref collision
	}
	for i, p := range cases {
		payment := p
		err := store.Do(context.Background(), func(tx domain.Tx) error {
			return tx.Payments().Create(&payment)
		})
		if !errors.Is(err, domain.ErrDuplicate) {
			t.Errorf("case %d: expected ErrDuplicate, got %v", i, err)
		}
	}
}

func TestMemoryStoreFinancialRecordUpsertFreezesPaid(t *testing.T) {
	store := NewMemoryStore()

	err := store.Do(context.Background(), func(tx domain.Tx) error {
		return tx.FinancialRecords().Upsert(&domain.AppointmentFinancialRecord{
			AppointmentID: 10, CoachID: 7, SessionPrice: 200,
			CoachCommission: 100, GymNetIncome: 100, PercentUsed: 50,
			Status: domain.FinancialRecordPaid,
		})
	})
	if err != nil {
		t.Fatalf("seed paid record: %v", err)
	}

	revised := &domain.AppointmentFinancialRecord{
		AppointmentID: 10, CoachID: 7, SessionPrice: 150,
		CoachCommission: 75, GymNetIncome: 75, PercentUsed: 50,
		Status: domain.FinancialRecordPending,
	}
	err = store.Do(context.Background(), func(tx domain.Tx) error {
		return tx.FinancialRecords().Upsert(revised)
	})
	if err != nil {
		t.Fatalf("upsert against paid record: %v", err)
	}

	// The upsert must echo the frozen row back, not overwrite it.
	if revised.SessionPrice != 200 || revised.Status != domain.FinancialRecordPaid {
		t.Fatalf("paid record was not frozen: %+v", revised)
	}
	records := store.FinancialRecords()
	if len(records) != 1 || records[0].SessionPrice != 200 {
		t.Fatalf("stored records: %+v", records)
	}
}

func TestMemoryStoreReceiptSequencePerDay(t *testing.T) {
	store := NewMemoryStore()

	err := store.Do(context.Background(), func(tx domain.Tx) error {
		for i := int64(1); i <= 3; i++ {
			n, err := tx.Payments().NextReceiptSequence("20260828")
			if err != nil {
				return err
			}
			if n != i {
				t.Fatalf("sequence step %d: got %d", i, n)
			}
		}
		n, err := tx.Payments().NextReceiptSequence("20260829")
		if err != nil {
			return err
		}
		if n != 1 {
			t.Fatalf("new day must restart at 1, got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
}
