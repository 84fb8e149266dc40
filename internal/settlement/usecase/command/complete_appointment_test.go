package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
)

func fptr(v float64) *float64 { return &v }

func uptr(v uint) *uint { return &v }

func newCompletionFixture(t *testing.T) (*repository.MemoryStore, *CompleteAppointmentHandler) {
	t.Helper()
	store := repository.NewMemoryStore()
	recorder := NewRecordPaymentHandler(store, nil)
	return store, NewCompleteAppointmentHandler(store, recorder, nil)
}

func grantCredit(t *testing.T, store *repository.MemoryStore, memberID uint, amount float64) {
	t.Helper()
	err := store.Do(context.Background(), func(tx domain.Tx) error {
		return tx.Credits().Create(&domain.CreditEntry{
			MemberID: memberID,
			Delta:    amount,
			Source:   domain.CreditSourceManual,
		})
	})
	if err != nil {
		t.Fatalf("grant credit: %v", err)
	}
}

func TestCompleteAppointmentFullCollection(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(50)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000001", FullName: "Sara", Phone: "050"})
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 7, Price: 200, Status: domain.AppointmentBooked,
	})
	shift := store.SeedShift(domain.Shift{UserID: 1, OpenedAt: time.Now()})

	res, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID: appt.ID,
		Actor:         domain.Actor{ID: 1, Username: "reception"},
		Method:        domain.MethodCash,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if res.Payment == nil || res.Payment.Amount != 200 || res.Payment.Status != domain.PaymentStatusCompleted {
		t.Fatalf("payment: got %+v, want completed 200", res.Payment)
	}
	if res.Payment.ShiftID == nil || *res.Payment.ShiftID != shift.ID {
		t.Fatalf("payment must attach to the actor's open shift, got %v", res.Payment.ShiftID)
	}
	if res.Breakdown.CoachPayout != 100 || res.Breakdown.GymShare != 100 {
		t.Fatalf("breakdown: got %+v, want 100/100", res.Breakdown)
	}
	if res.Appointment.PaymentStatus != domain.AppointmentPaid || res.Appointment.DueAmount != 0 {
		t.Fatalf("appointment: got status=%s due=%v", res.Appointment.PaymentStatus, res.Appointment.DueAmount)
	}
	if res.FinancialRecord.Status != domain.FinancialRecordPending {
		t.Fatalf("financial record status: got %s, want PENDING", res.FinancialRecord.Status)
	}

	earnings := store.Earnings()
	if len(earnings) != 1 || earnings[0].Amount != 100 || earnings[0].CoachID != 7 {
		t.Fatalf("earnings: got %+v", earnings)
	}
}

func TestCompleteAppointmentIdempotent(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(50)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000002", FullName: "Omar", Phone: "051"})
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 3, Price: 120, Status: domain.AppointmentBooked,
	})

	cmd := CompleteAppointmentCommand{AppointmentID: appt.ID, Actor: domain.Actor{ID: 1}}
	if _, err := h.Handle(context.Background(), cmd); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	res, err := h.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if !res.AlreadyCompleted {
		t.Fatal("second completion must report AlreadyCompleted")
	}
	if got := len(store.Payments()); got != 1 {
		t.Fatalf("payments after replay: got %d, want 1", got)
	}
	if got := len(store.Earnings()); got != 1 {
		t.Fatalf("earnings after replay: got %d, want 1", got)
	}
}

func TestCompleteAppointmentAppliesCreditFirst(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(40)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000003", FullName: "Lina", Phone: "052"})
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 200, Status: domain.AppointmentBooked,
	})
	grantCredit(t, store, member.ID, 80)

	res, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID: appt.ID, Actor: domain.Actor{ID: 1},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if res.CreditApplied != 80 {
		t.Fatalf("credit applied: got %v, want 80", res.CreditApplied)
	}
	if res.Payment == nil || res.Payment.Amount != 120 {
		t.Fatalf("cash payment: got %+v, want 120", res.Payment)
	}

	var balance float64
	err = store.View(context.Background(), func(tx domain.Tx) error {
		var e error
		balance, e = tx.Credits().BalanceByMember(member.ID)
		return e
	})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("credit balance after spend: got %v, want 0", balance)
	}
}

func TestCompleteAppointmentCreditCoversWholeSession(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(50)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000004", FullName: "Nour", Phone: "053"})
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 100, Status: domain.AppointmentBooked,
	})
	grantCredit(t, store, member.ID, 250)

	res, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID: appt.ID, Actor: domain.Actor{ID: 1},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if res.Payment != nil {
		t.Fatalf("no cash payment expected, got %+v", res.Payment)
	}
	if res.CreditApplied != 100 {
		t.Fatalf("credit applied: got %v, want 100", res.CreditApplied)
	}
	if res.Appointment.PaymentStatus != domain.AppointmentPaid {
		t.Fatalf("appointment payment status: got %s", res.Appointment.PaymentStatus)
	}
	if got := len(store.Payments()); got != 0 {
		t.Fatalf("payments: got %d, want 0", got)
	}
}

func TestCompleteAppointmentPartialCollectionLeavesInvoice(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(50)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000005", FullName: "Hadi", Phone: "054"})
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 200, Status: domain.AppointmentBooked,
	})
	shift := store.SeedShift(domain.Shift{UserID: 1, OpenedAt: time.Now()})

	res, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID:   appt.ID,
		Actor:           domain.Actor{ID: 1},
		AmountCollected: fptr(50),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	// The 50 actually taken is a completed payment in the collector's drawer.
	if res.Payment == nil || res.Payment.Status != domain.PaymentStatusCompleted || res.Payment.Amount != 50 {
		t.Fatalf("collected payment: got %+v, want completed 50", res.Payment)
	}
	if res.Payment.ShiftID == nil || *res.Payment.ShiftID != shift.ID {
		t.Fatalf("collected payment must attach to the actor's shift, got %v", res.Payment.ShiftID)
	}
	if res.Appointment.PaidAmount != 50 || res.Appointment.DueAmount != 150 {
		t.Fatalf("appointment amounts: paid=%v due=%v", res.Appointment.PaidAmount, res.Appointment.DueAmount)
	}
	if res.Appointment.PaymentStatus != domain.AppointmentDue {
		t.Fatalf("appointment payment status: got %s, want due", res.Appointment.PaymentStatus)
	}

	// The invoice carries only what is still owed, and the drawer sees the
	// partial cash.
	err = store.View(context.Background(), func(tx domain.Tx) error {
		invoice, err := tx.Payments().FindPendingByAppointment(appt.ID)
		if err != nil {
			return err
		}
		if invoice == nil || invoice.Amount != 150 {
			t.Fatalf("pending invoice: got %+v, want 150 owed", invoice)
		}
		totals, err := tx.Payments().PaidTotalsByMethod(domain.ShiftScope{ShiftIDs: []uint{shift.ID}})
		if err != nil {
			return err
		}
		if totals[domain.MethodCash] != 50 {
			t.Fatalf("drawer cash: got %v, want 50", totals[domain.MethodCash])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCompleteAppointmentOverpaymentBecomesCredit(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(50)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000006", FullName: "Maya", Phone: "055"})
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 200, Status: domain.AppointmentBooked,
	})

	res, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID:   appt.ID,
		Actor:           domain.Actor{ID: 1},
		AmountCollected: fptr(250),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if res.CreditGranted != 50 {
		t.Fatalf("credit granted: got %v, want 50", res.CreditGranted)
	}
	if res.Appointment.OverpaidAmount != 50 || res.Appointment.PaymentStatus != domain.AppointmentPaid {
		t.Fatalf("appointment: overpaid=%v status=%s", res.Appointment.OverpaidAmount, res.Appointment.PaymentStatus)
	}

	entries := store.CreditEntries()
	if len(entries) != 1 || entries[0].Delta != 50 || entries[0].Source != domain.CreditSourceOverpayment {
		t.Fatalf("credit ledger: got %+v", entries)
	}
}

func TestCompleteAppointmentConvertsLead(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(50)
	lead := store.SeedLead(domain.Lead{FullName: "Walk In", Phone: "056"})
	appt := store.SeedAppointment(domain.Appointment{
		LeadID: &lead.ID, CoachID: 4, Price: 150, Status: domain.AppointmentBooked,
	})

	res, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID: appt.ID, Actor: domain.Actor{ID: 1},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if res.Appointment.MemberID == nil {
		t.Fatal("appointment must point at the converted member")
	}

	var member *domain.Member
	err = store.View(context.Background(), func(tx domain.Tx) error {
		var e error
		member, e = tx.Members().FindByID(*res.Appointment.MemberID)
		if e != nil {
			return e
		}
		converted, e := tx.Leads().FindByID(lead.ID)
		if e != nil {
			return e
		}
		if !converted.Converted || converted.MemberID == nil || *converted.MemberID != member.ID {
			t.Fatalf("lead not marked converted: %+v", converted)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if member == nil || !strings.HasPrefix(member.MemberCode, "GM-") {
		t.Fatalf("converted member: got %+v", member)
	}
}

func TestCompleteAppointmentRateResolutionOrder(t *testing.T) {
	store, h := newCompletionFixture(t)
	store.SeedDefaultCommission(50)
	store.SeedCoachCommission(7, 60)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000007", FullName: "Zain", Phone: "057"})

	// Stored per-coach rate wins over the default.
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 7, Price: 200, Status: domain.AppointmentBooked,
	})
	res, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID: appt.ID, Actor: domain.Actor{ID: 1},
	})
	if err != nil {
		t.Fatalf("coach rate completion: %v", err)
	}
	if res.Breakdown.CoachPayout != 120 {
		t.Fatalf("coach rate payout: got %v, want 120", res.Breakdown.CoachPayout)
	}

	// An explicit override wins over both.
	appt2 := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 7, Price: 200, Status: domain.AppointmentBooked,
	})
	res, err = h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID:     appt2.ID,
		Actor:             domain.Actor{ID: 1},
		CommissionPercent: fptr(10),
		IdempotencyKey:    "appt2-settlement",
	})
	if err != nil {
		t.Fatalf("override completion: %v", err)
	}
	if res.Breakdown.CoachPayout != 20 {
		t.Fatalf("override payout: got %v, want 20", res.Breakdown.CoachPayout)
	}
}

func TestCompleteAppointmentMissingCommissionConfigAborts(t *testing.T) {
	store, h := newCompletionFixture(t)
	member := store.SeedMember(domain.Member{MemberCode: "GM-000008", FullName: "Rami", Phone: "058"})
	appt := store.SeedAppointment(domain.Appointment{
		MemberID: &member.ID, CoachID: 2, Price: 100, Status: domain.AppointmentBooked,
	})

	_, err := h.Handle(context.Background(), CompleteAppointmentCommand{
		AppointmentID: appt.ID, Actor: domain.Actor{ID: 1},
	})
	if e, ok := domain.AsError(err); !ok || e.Code != domain.CodeCommissionConfigInvalid {
		t.Fatalf("expected %s, got %v", domain.CodeCommissionConfigInvalid, err)
	}

	if got := len(store.Payments()); got != 0 {
		t.Fatalf("aborted completion must write nothing, got %d payments", got)
	}
	var fresh *domain.Appointment
	_ = store.View(context.Background(), func(tx domain.Tx) error {
		fresh, _ = tx.Appointments().FindByID(appt.ID)
		return nil
	})
	if fresh.Settled() {
		t.Fatal("appointment must stay unsettled after the abort")
	}
}
