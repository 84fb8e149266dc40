package query

import (
	"context"
	"testing"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

func TestGetCreditBalanceSumsLedger(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewGetCreditBalanceHandler(store)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000300", FullName: "Aya", Phone: "063"})

	err := store.Do(context.Background(), func(tx domain.Tx) error {
		for _, delta := range []float64{50, -20, 12.345} {
			if err := tx.Credits().Create(&domain.CreditEntry{
				MemberID: member.ID, Delta: delta, Source: domain.CreditSourceManual,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	balance, err := h.Handle(context.Background(), GetCreditBalanceQuery{MemberID: member.ID})
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.Balance != 42.35 {
		t.Fatalf("balance: got %v, want 42.35", balance.Balance)
	}
	if len(balance.Entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(balance.Entries))
	}
}

func TestGetCreditBalanceUnknownMember(t *testing.T) {
	h := NewGetCreditBalanceHandler(repository.NewMemoryStore())

	_, err := h.Handle(context.Background(), GetCreditBalanceQuery{MemberID: 404})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeMemberNotFound {
		t.Fatalf("expected %s, got %v", domain.CodeMemberNotFound, err)
	}
}
