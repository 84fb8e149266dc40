package command

import (
	"context"
	"testing"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

func TestOpenShiftOnePerUser(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewOpenShiftHandler(store)
	actor := domain.Actor{ID: 4, Username: "reception"}

	shift, err := h.Handle(context.Background(), OpenShiftCommand{Actor: actor, Notes: "morning"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if shift.UserID != 4 || !shift.Open() {
		t.Fatalf("opened shift: %+v", shift)
	}

	_, err = h.Handle(context.Background(), OpenShiftCommand{Actor: actor})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeShiftAlreadyOpen {
		t.Fatalf("second open: got %v, want %s", err, domain.CodeShiftAlreadyOpen)
	}

	// A different user opens independently.
	if _, err := h.Handle(context.Background(), OpenShiftCommand{Actor: domain.Actor{ID: 5}}); err != nil {
		t.Fatalf("open for other user: %v", err)
	}
}

func TestCloseShiftLifecycle(t *testing.T) {
	store := repository.NewMemoryStore()
	open := NewOpenShiftHandler(store)
	closeH := NewCloseShiftHandler(store)
	actor := domain.Actor{ID: 4}

	_, err := closeH.Handle(context.Background(), CloseShiftCommand{Actor: actor})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeNoOpenShift {
		t.Fatalf("close without open shift: got %v", err)
	}

	if _, err := open.Handle(context.Background(), OpenShiftCommand{Actor: actor}); err != nil {
		t.Fatalf("open: %v", err)
	}

	closed, err := closeH.Handle(context.Background(), CloseShiftCommand{Actor: actor})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatal("closed shift must carry a close timestamp")
	}

	// Closing again fails; reopening succeeds.
	if _, err := closeH.Handle(context.Background(), CloseShiftCommand{Actor: actor}); err == nil {
		t.Fatal("double close must fail")
	}
	if _, err := open.Handle(context.Background(), OpenShiftCommand{Actor: actor}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
}
