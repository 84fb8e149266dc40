package domain

import (
	"context"
)

// Tx groups the repositories participating in one settlement transaction.
// Every repository obtained from the same Tx reads and writes inside the same
// database transaction.
type Tx interface {
	Payments() PaymentRepository
	Appointments() AppointmentRepository
	Refunds() RefundRepository
	Credits() CreditRepository
	Shifts() ShiftRepository
	Subscriptions() SubscriptionRepository
	Members() MemberRepository
	Leads() LeadRepository
	FinancialRecords() FinancialRecordRepository
	Earnings() EarningRepository
	Settings() SettingsRepository
	Audit() AuditRepository
}

// UnitOfWork runs a function inside a single atomic transaction. Any error
// returned by fn rolls back every write made through the Tx.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn without transactional guarantees, for read-only queries.
	View(ctx context.Context, fn func(tx Tx) error) error
}
