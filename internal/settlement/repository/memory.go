package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

// MemoryStore is an in-memory implementation of the settlement unit of work.
// It backs the dev mode (no Postgres required) and the usecase tests. Do
// snapshots the whole state up front and restores it when fn fails, so the
// rollback contract matches the transactional store.
type MemoryStore struct {
	mu sync.Mutex

	payments      []domain.Payment
	refunds       []domain.Refund
	appointments  []domain.Appointment
	records       []domain.AppointmentFinancialRecord
	earnings      []domain.CoachEarning
	credits       []domain.CreditEntry
	shifts        []domain.Shift
	subscriptions []domain.Subscription
	pauses        []domain.SubscriptionPause
	members       []domain.Member
	leads         []domain.Lead
	settings      []domain.CommissionSetting
	audits        []domain.AuditEntry

	nextID     map[string]uint
	receiptSeq map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     map[string]uint{},
		receiptSeq: map[string]int64{},
	}
}

func (s *MemoryStore) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.clone()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{store: s})
}

func (s *MemoryStore) clone() *MemoryStore {
	c := &MemoryStore{
		payments:      append([]domain.Payment(nil), s.payments...),
		refunds:       append([]domain.Refund(nil), s.refunds...),
		appointments:  append([]domain.Appointment(nil), s.appointments...),
		records:       append([]domain.AppointmentFinancialRecord(nil), s.records...),
		earnings:      append([]domain.CoachEarning(nil), s.earnings...),
		credits:       append([]domain.CreditEntry(nil), s.credits...),
		shifts:        append([]domain.Shift(nil), s.shifts...),
		subscriptions: append([]domain.Subscription(nil), s.subscriptions...),
		pauses:        append([]domain.SubscriptionPause(nil), s.pauses...),
		members:       append([]domain.Member(nil), s.members...),
		leads:         append([]domain.Lead(nil), s.leads...),
		settings:      append([]domain.CommissionSetting(nil), s.settings...),
		audits:        append([]domain.AuditEntry(nil), s.audits...),
		nextID:        map[string]uint{},
		receiptSeq:    map[string]int64{},
	}
	for k, v := range s.nextID {
		c.nextID[k] = v
	}
	for k, v := range s.receiptSeq {
		c.receiptSeq[k] = v
	}
	return c
}

func (s *MemoryStore) restore(c *MemoryStore) {
	s.payments = c.payments
	s.refunds = c.refunds
	s.appointments = c.appointments
	s.records = c.records
	s.earnings = c.earnings
	s.credits = c.credits
	s.shifts = c.shifts
	s.subscriptions = c.subscriptions
	s.pauses = c.pauses
	s.members = c.members
	s.leads = c.leads
	s.settings = c.settings
	s.audits = c.audits
	s.nextID = c.nextID
	s.receiptSeq = c.receiptSeq
}

func (s *MemoryStore) id(table string) uint {
	s.nextID[table]++
	return s.nextID[table]
}

// Seed helpers for tests and dev fixtures.

func (s *MemoryStore) SeedAppointment(a domain.Appointment) domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.id("appointments")
	}
	s.appointments = append(s.appointments, a)
	return a
}

func (s *MemoryStore) SeedMember(m domain.Member) domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.id("members")
	}
	s.members = append(s.members, m)
	return m
}

func (s *MemoryStore) SeedLead(l domain.Lead) domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		l.ID = s.id("leads")
	}
	s.leads = append(s.leads, l)
	return l
}

func (s *MemoryStore) SeedShift(sh domain.Shift) domain.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == 0 {
		sh.ID = s.id("shifts")
	}
	s.shifts = append(s.shifts, sh)
	return sh
}

func (s *MemoryStore) SeedSubscription(sub domain.Subscription) domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == 0 {
		sub.ID = s.id("subscriptions")
	}
	s.subscriptions = append(s.subscriptions, sub)
	return sub
}

func (s *MemoryStore) SeedPause(p domain.SubscriptionPause) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id("pauses")
	s.pauses = append(s.pauses, p)
}

func (s *MemoryStore) SeedPayment(p domain.Payment) domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id("payments")
	}
	s.payments = append(s.payments, p)
	return p
}

func (s *MemoryStore) SeedDefaultCommission(percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = append(s.settings, domain.CommissionSetting{ID: s.id("settings"), Percent: percent})
}

func (s *MemoryStore) SeedCoachCommission(coachID uint, percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := coachID
	s.settings = append(s.settings, domain.CommissionSetting{ID: s.id("settings"), CoachID: &id, Percent: percent})
}

// Snapshots for assertions.

func (s *MemoryStore) Payments() []domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Payment(nil), s.payments...)
}

func (s *MemoryStore) Refunds() []domain.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Refund(nil), s.refunds...)
}

func (s *MemoryStore) CreditEntries() []domain.CreditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CreditEntry(nil), s.credits...)
}

func (s *MemoryStore) Earnings() []domain.CoachEarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CoachEarning(nil), s.earnings...)
}

func (s *MemoryStore) FinancialRecords() []domain.AppointmentFinancialRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AppointmentFinancialRecord(nil), s.records...)
}

func (s *MemoryStore) AuditEntries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.audits...)
}

// memTx implements domain.Tx against the locked store.
type memTx struct {
	store *MemoryStore
}

func (t *memTx) Payments() domain.PaymentRepository           { return &memPayments{t.store} }
func (t *memTx) Appointments() domain.AppointmentRepository   { return &memAppointments{t.store} }
func (t *memTx) Refunds() domain.RefundRepository             { return &memRefunds{t.store} }
func (t *memTx) Credits() domain.CreditRepository             { return &memCredits{t.store} }
func (t *memTx) Shifts() domain.ShiftRepository               { return &memShifts{t.store} }
func (t *memTx) Subscriptions() domain.SubscriptionRepository { return &memSubscriptions{t.store} }
func (t *memTx) Members() domain.MemberRepository             { return &memMembers{t.store} }
func (t *memTx) Leads() domain.LeadRepository                 { return &memLeads{t.store} }
func (t *memTx) FinancialRecords() domain.FinancialRecordRepository {
	return &memRecords{t.store}
}
func (t *memTx) Earnings() domain.EarningRepository   { return &memEarnings{t.store} }
func (t *memTx) Settings() domain.SettingsRepository  { return &memSettings{t.store} }
func (t *memTx) Audit() domain.AuditRepository        { return &memAudit{t.store} }

type memPayments struct{ s *MemoryStore }

func (m *memPayments) Create(p *domain.Payment) error {
	for _, existing := range m.s.payments {
		if existing.ReceiptNumber == p.ReceiptNumber {
			return domain.ErrDuplicate
		}
		if p.IdempotencyKey != nil && existing.IdempotencyKey != nil &&
			*existing.IdempotencyKey == *p.IdempotencyKey {
			return domain.ErrDuplicate
		}
		if p.ExternalReference != nil && existing.ExternalReference != nil &&
			existing.Method == p.Method && *existing.ExternalReference == *p.ExternalReference {
			return domain.ErrDuplicate
		}
	}
	p.ID = m.s.id("payments")
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.s.payments = append(m.s.payments, *p)
	return nil
}

func (m *memPayments) FindByID(id uint) (*domain.Payment, error) {
	for i := range m.s.payments {
		if m.s.payments[i].ID == id {
			p := m.s.payments[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memPayments) FindByIdempotencyKey(key string) (*domain.Payment, error) {
	for i := range m.s.payments {
		if m.s.payments[i].IdempotencyKey != nil && *m.s.payments[i].IdempotencyKey == key {
			p := m.s.payments[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memPayments) FindDuplicate(f domain.DuplicateFilter) (*domain.Payment, error) {
	var best *domain.Payment
	for i := range m.s.payments {
		p := m.s.payments[i]
		if p.MemberID != f.MemberID || p.Amount != f.Amount ||
			p.Status != f.Status || p.Method != f.Method {
			continue
		}
		if f.SubscriptionID != nil &&
			(p.SubscriptionID == nil || *p.SubscriptionID != *f.SubscriptionID) {
			continue
		}
		if f.AppointmentID != nil &&
			(p.AppointmentID == nil || *p.AppointmentID != *f.AppointmentID) {
			continue
		}
		if f.CreatedBy != 0 && p.CreatedBy != f.CreatedBy {
			continue
		}
		if f.ExternalReference != nil {
			if p.ExternalReference == nil || *p.ExternalReference != *f.ExternalReference {
				continue
			}
		} else if p.PaidAt.Before(f.PaidAfter) {
			continue
		}
		if best == nil || p.PaidAt.After(best.PaidAt) {
			match := p
			best = &match
		}
	}
	return best, nil
}

func (m *memPayments) FindPendingByAppointment(appointmentID uint) (*domain.Payment, error) {
	for i := range m.s.payments {
		p := m.s.payments[i]
		if p.AppointmentID != nil && *p.AppointmentID == appointmentID &&
			p.Status == domain.PaymentStatusPending {
			match := p
			return &match, nil
		}
	}
	return nil, nil
}

func (m *memPayments) FindByAppointment(appointmentID uint) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range m.s.payments {
		if p.AppointmentID != nil && *p.AppointmentID == appointmentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPayments) FindAll(limit, offset int) ([]domain.Payment, error) {
	return paginate(m.s.payments, limit, offset), nil
}

func (m *memPayments) FindByMember(memberID uint, limit, offset int) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range m.s.payments {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return paginate(out, limit, offset), nil
}

func (m *memPayments) Update(p *domain.Payment) error {
	for i := range m.s.payments {
		if m.s.payments[i].ID == p.ID {
			p.UpdatedAt = time.Now()
			m.s.payments[i] = *p
			return nil
		}
	}
	return fmt.Errorf("payment %d not found", p.ID)
}

func (m *memPayments) SumBySubscription(subscriptionID uint) (float64, float64, error) {
	var paid, refunded float64
	for _, p := range m.s.payments {
		if p.SubscriptionID != nil && *p.SubscriptionID == subscriptionID && countedStatus(p.Status) {
			paid += p.Amount
			refunded += p.RefundedTotal
		}
	}
	return paid, refunded, nil
}

func (m *memPayments) SumByAppointment(appointmentID uint) (float64, float64, error) {
	var paid, refunded float64
	for _, p := range m.s.payments {
		if p.AppointmentID != nil && *p.AppointmentID == appointmentID && countedStatus(p.Status) {
			paid += p.Amount
			refunded += p.RefundedTotal
		}
	}
	return paid, refunded, nil
}

func (m *memPayments) PaidTotalsByMethod(scope domain.ShiftScope) (map[string]float64, error) {
	totals := map[string]float64{}
	for _, p := range m.s.payments {
		if !countedStatus(p.Status) {
			continue
		}
		if !inScope(scope, p.ShiftID, p.CreatedAt) {
			continue
		}
		totals[p.Method] += p.Amount
	}
	return totals, nil
}

func (m *memPayments) NextReceiptSequence(day string) (int64, error) {
	m.s.receiptSeq[day]++
	return m.s.receiptSeq[day], nil
}

func countedStatus(status string) bool {
	return status == domain.PaymentStatusCompleted ||
		status == domain.PaymentStatusRefunded ||
		status == domain.PaymentStatusPartialRefund
}

func inScope(scope domain.ShiftScope, shiftID *uint, at time.Time) bool {
	if len(scope.ShiftIDs) > 0 {
		if shiftID == nil {
			return false
		}
		for _, id := range scope.ShiftIDs {
			if id == *shiftID {
				return true
			}
		}
		return false
	}
	if !scope.Unscoped {
		return false
	}
	if scope.From != nil && at.Before(*scope.From) {
		return false
	}
	if scope.To != nil && !at.Before(*scope.To) {
		return false
	}
	return true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return append([]T(nil), items...)
}

type memRefunds struct{ s *MemoryStore }

func (m *memRefunds) Create(r *domain.Refund) error {
	r.ID = m.s.id("refunds")
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.s.refunds = append(m.s.refunds, *r)
	return nil
}

func (m *memRefunds) FindByPayment(paymentID uint) ([]domain.Refund, error) {
	var out []domain.Refund
	for _, r := range m.s.refunds {
		if r.PaymentID == paymentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRefunds) TotalByPayment(paymentID uint) (float64, error) {
	var total float64
	for _, r := range m.s.refunds {
		if r.PaymentID == paymentID {
			total += r.Amount
		}
	}
	return total, nil
}

func (m *memRefunds) RefundTotalsByMethod(scope domain.ShiftScope) (map[string]float64, error) {
	totals := map[string]float64{}
	for _, r := range m.s.refunds {
		if !inScope(scope, r.ShiftID, r.CreatedAt) {
			continue
		}
		method := domain.MethodCash
		for _, p := range m.s.payments {
			if p.ID == r.PaymentID {
				method = p.Method
				break
			}
		}
		totals[method] += r.Amount
	}
	return totals, nil
}

type memAppointments struct{ s *MemoryStore }

func (m *memAppointments) Create(a *domain.Appointment) error {
	a.ID = m.s.id("appointments")
	m.s.appointments = append(m.s.appointments, *a)
	return nil
}

func (m *memAppointments) FindByID(id uint) (*domain.Appointment, error) {
	for i := range m.s.appointments {
		if m.s.appointments[i].ID == id {
			a := m.s.appointments[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAppointments) Update(a *domain.Appointment) error {
	for i := range m.s.appointments {
		if m.s.appointments[i].ID == a.ID {
			m.s.appointments[i] = *a
			return nil
		}
	}
	return fmt.Errorf("appointment %d not found", a.ID)
}

func (m *memAppointments) FindOverdue(cutoff time.Time, limit int) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range m.s.appointments {
		if a.Status == domain.AppointmentBooked && a.EndsAt.Before(cutoff) {
			out = append(out, a)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type memCredits struct{ s *MemoryStore }

func (m *memCredits) Create(e *domain.CreditEntry) error {
	e.ID = m.s.id("credits")
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.s.credits = append(m.s.credits, *e)
	return nil
}

func (m *memCredits) BalanceByMember(memberID uint) (float64, error) {
	var balance float64
	for _, e := range m.s.credits {
		if e.MemberID == memberID {
			balance += e.Delta
		}
	}
	return balance, nil
}

func (m *memCredits) FindByMember(memberID uint, limit, offset int) ([]domain.CreditEntry, error) {
	var out []domain.CreditEntry
	for _, e := range m.s.credits {
		if e.MemberID == memberID {
			out = append(out, e)
		}
	}
	return paginate(out, limit, offset), nil
}

type memShifts struct{ s *MemoryStore }

func (m *memShifts) Create(sh *domain.Shift) error {
	sh.ID = m.s.id("shifts")
	m.s.shifts = append(m.s.shifts, *sh)
	return nil
}

func (m *memShifts) FindByID(id uint) (*domain.Shift, error) {
	for i := range m.s.shifts {
		if m.s.shifts[i].ID == id {
			sh := m.s.shifts[i]
			return &sh, nil
		}
	}
	return nil, nil
}

func (m *memShifts) OpenShiftForUser(userID uint) (*domain.Shift, error) {
	for i := range m.s.shifts {
		sh := m.s.shifts[i]
		if sh.UserID == userID && sh.ClosedAt == nil {
			match := sh
			return &match, nil
		}
	}
	return nil, nil
}

func (m *memShifts) OpenShifts() ([]domain.Shift, error) {
	var out []domain.Shift
	for _, sh := range m.s.shifts {
		if sh.ClosedAt == nil {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (m *memShifts) Update(sh *domain.Shift) error {
	for i := range m.s.shifts {
		if m.s.shifts[i].ID == sh.ID {
			m.s.shifts[i] = *sh
			return nil
		}
	}
	return fmt.Errorf("shift %d not found", sh.ID)
}

type memSubscriptions struct{ s *MemoryStore }

func (m *memSubscriptions) FindByID(id uint) (*domain.Subscription, error) {
	for i := range m.s.subscriptions {
		if m.s.subscriptions[i].ID == id {
			sub := m.s.subscriptions[i]
			return &sub, nil
		}
	}
	return nil, nil
}

func (m *memSubscriptions) Update(sub *domain.Subscription) error {
	for i := range m.s.subscriptions {
		if m.s.subscriptions[i].ID == sub.ID {
			m.s.subscriptions[i] = *sub
			return nil
		}
	}
	return fmt.Errorf("subscription %d not found", sub.ID)
}

func (m *memSubscriptions) PausesBySubscription(subscriptionID uint) ([]domain.SubscriptionPause, error) {
	var out []domain.SubscriptionPause
	for _, p := range m.s.pauses {
		if p.SubscriptionID == subscriptionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memMembers struct{ s *MemoryStore }

func (m *memMembers) Create(member *domain.Member) error {
	for _, existing := range m.s.members {
		if existing.MemberCode == member.MemberCode {
			return domain.ErrDuplicate
		}
	}
	member.ID = m.s.id("members")
	m.s.members = append(m.s.members, *member)
	return nil
}

func (m *memMembers) FindByID(id uint) (*domain.Member, error) {
	for i := range m.s.members {
		if m.s.members[i].ID == id {
			member := m.s.members[i]
			return &member, nil
		}
	}
	return nil, nil
}

type memLeads struct{ s *MemoryStore }

func (m *memLeads) FindByID(id uint) (*domain.Lead, error) {
	for i := range m.s.leads {
		if m.s.leads[i].ID == id {
			lead := m.s.leads[i]
			return &lead, nil
		}
	}
	return nil, nil
}

func (m *memLeads) Update(lead *domain.Lead) error {
	for i := range m.s.leads {
		if m.s.leads[i].ID == lead.ID {
			m.s.leads[i] = *lead
			return nil
		}
	}
	return fmt.Errorf("lead %d not found", lead.ID)
}

type memRecords struct{ s *MemoryStore }

func (m *memRecords) FindByAppointment(appointmentID uint) (*domain.AppointmentFinancialRecord, error) {
	for i := range m.s.records {
		if m.s.records[i].AppointmentID == appointmentID {
			record := m.s.records[i]
			return &record, nil
		}
	}
	return nil, nil
}

func (m *memRecords) Upsert(record *domain.AppointmentFinancialRecord) error {
	for i := range m.s.records {
		if m.s.records[i].AppointmentID == record.AppointmentID {
			if m.s.records[i].Status == domain.FinancialRecordPaid {
				*record = m.s.records[i]
				return nil
			}
			record.ID = m.s.records[i].ID
			record.Status = m.s.records[i].Status
			record.UpdatedAt = time.Now()
			m.s.records[i] = *record
			return nil
		}
	}
	record.ID = m.s.id("records")
	now := time.Now()
	record.CreatedAt, record.UpdatedAt = now, now
	m.s.records = append(m.s.records, *record)
	return nil
}

func (m *memRecords) Update(record *domain.AppointmentFinancialRecord) error {
	for i := range m.s.records {
		if m.s.records[i].ID == record.ID {
			m.s.records[i] = *record
			return nil
		}
	}
	return fmt.Errorf("financial record %d not found", record.ID)
}

func (m *memRecords) Delete(appointmentID uint) error {
	for i := range m.s.records {
		if m.s.records[i].AppointmentID == appointmentID &&
			m.s.records[i].Status == domain.FinancialRecordPending {
			m.s.records = append(m.s.records[:i], m.s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memRecords) FindPendingByCoach(coachID uint, until time.Time) ([]domain.AppointmentFinancialRecord, error) {
	var out []domain.AppointmentFinancialRecord
	for _, r := range m.s.records {
		if r.CoachID == coachID && r.Status == domain.FinancialRecordPending && r.CreatedAt.Before(until) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memEarnings struct{ s *MemoryStore }

func (m *memEarnings) Create(e *domain.CoachEarning) error {
	for _, existing := range m.s.earnings {
		if existing.AppointmentID == e.AppointmentID {
			return domain.ErrDuplicate
		}
	}
	e.ID = m.s.id("earnings")
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.s.earnings = append(m.s.earnings, *e)
	return nil
}

func (m *memEarnings) ExistsForAppointment(appointmentID uint) (bool, error) {
	for _, e := range m.s.earnings {
		if e.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEarnings) FindByCoach(coachID uint, limit, offset int) ([]domain.CoachEarning, error) {
	var out []domain.CoachEarning
	for _, e := range m.s.earnings {
		if e.CoachID == coachID {
			out = append(out, e)
		}
	}
	return paginate(out, limit, offset), nil
}

type memSettings struct{ s *MemoryStore }

func (m *memSettings) CoachCommissionPercent(coachID uint) (*float64, error) {
	for _, setting := range m.s.settings {
		if setting.CoachID != nil && *setting.CoachID == coachID {
			percent := setting.Percent
			return &percent, nil
		}
	}
	return nil, nil
}

func (m *memSettings) DefaultCommissionPercent() (float64, error) {
	for _, setting := range m.s.settings {
		if setting.CoachID == nil {
			if setting.Percent < 0 || setting.Percent > 100 {
				break
			}
			return setting.Percent, nil
		}
	}
	return 0, domain.NewFatalError(
		domain.CodeCommissionConfigInvalid,
		"default commission percent is missing or invalid",
		"نسبة العمولة الافتراضية مفقودة أو غير صالحة",
	)
}

func (m *memSettings) SetCoachCommissionPercent(coachID uint, percent float64) error {
	for i := range m.s.settings {
		if m.s.settings[i].CoachID != nil && *m.s.settings[i].CoachID == coachID {
			m.s.settings[i].Percent = percent
			return nil
		}
	}
	id := coachID
	m.s.settings = append(m.s.settings, domain.CommissionSetting{
		ID: m.s.id("settings"), CoachID: &id, Percent: percent,
	})
	return nil
}

func (m *memSettings) SetDefaultCommissionPercent(percent float64) error {
	for i := range m.s.settings {
		if m.s.settings[i].CoachID == nil {
			m.s.settings[i].Percent = percent
			return nil
		}
	}
	m.s.settings = append(m.s.settings, domain.CommissionSetting{
		ID: m.s.id("settings"), Percent: percent,
	})
	return nil
}

type memAudit struct{ s *MemoryStore }

func (m *memAudit) Create(entry *domain.AuditEntry) error {
	entry.ID = m.s.id("audits")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.s.audits = append(m.s.audits, *entry)
	return nil
}
