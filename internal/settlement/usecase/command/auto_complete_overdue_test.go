package command

import (
	"context"
	"testing"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

func TestAutoCompleteOverdueSweep(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SeedDefaultCommission(50)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000200", FullName: "Tala", Phone: "061"})

	overdue := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 100,
		Status: domain.AppointmentBooked,
		EndsAt: time.Now().Add(-2 * time.Hour),
	})
	upcoming := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 100,
		Status: domain.AppointmentBooked,
		EndsAt: time.Now().Add(2 * time.Hour),
	})

	recorder := NewRecordPaymentHandler(store, nil)
	complete := NewCompleteAppointmentHandler(store, recorder, nil)
	h := NewAutoCompleteOverdueHandler(store, complete)

	processed, err := h.Handle(context.Background(), AutoCompleteOverdueCommand{
		Grace: 15 * time.Minute,
		Actor: domain.Actor{ID: 1, Username: "system"},
	})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed: got %d, want 1", processed)
	}

	var swept, untouched *domain.Appointment
	_ = store.View(context.Background(), func(tx domain.Tx) error {
		swept, _ = tx.Appointments().FindByID(overdue.ID)
		untouched, _ = tx.Appointments().FindByID(upcoming.ID)
		return nil
	})
	if swept.Status != domain.AppointmentAutoCompleted {
		t.Fatalf("overdue appointment status: got %s, want auto_completed", swept.Status)
	}
	if untouched.Status != domain.AppointmentBooked {
		t.Fatalf("future appointment must stay booked, got %s", untouched.Status)
	}

	// Rerunning finds nothing bookable.
	processed, err = h.Handle(context.Background(), AutoCompleteOverdueCommand{
		Grace: 15 * time.Minute,
		Actor: domain.Actor{ID: 1},
	})
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if processed != 0 {
		t.Fatalf("second sweep processed %d, want 0", processed)
	}
}

// A session the sweep cannot settle (no commission config here) is skipped
// without failing the whole run.
func TestAutoCompleteOverdueSkipsBadRows(t *testing.T) {
	store := repository.NewMemoryStore()
	member := store.SeedMember(domain.Member{MemberCode: "GM-000201", FullName: "Rana", Phone: "062"})
	store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 100,
		Status: domain.AppointmentBooked,
		EndsAt: time.Now().Add(-2 * time.Hour),
	})

	recorder := NewRecordPaymentHandler(store, nil)
	complete := NewCompleteAppointmentHandler(store, recorder, nil)
	h := NewAutoCompleteOverdueHandler(store, complete)

	processed, err := h.Handle(context.Background(), AutoCompleteOverdueCommand{
		Grace: 15 * time.Minute,
		Actor: domain.Actor{ID: 1},
	})
	if err != nil {
		t.Fatalf("sweep must not fail on a bad row: %v", err)
	}
	if processed != 0 {
		t.Fatalf("processed: got %d, want 0", processed)
	}
}
