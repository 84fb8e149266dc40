package command

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
	"github.com/tair/gym-settlement/pkg/money"
)

const (
	// duplicateWindow is the trailing window within which an identical
	// completed payment with no external reference is treated as a client
	// retry rather than a second charge.
	duplicateWindow = 30 * time.Second

	// receiptAttempts bounds regeneration on receipt number collisions.
	receiptAttempts = 3
)

// RecordPaymentCommand represents the command to record a payment.
type RecordPaymentCommand struct {
	MemberID          uint
	SubscriptionID    *uint
	AppointmentID     *uint
	Amount            float64
	Method            string
	Status            string
	ExternalReference string
	IdempotencyKey    string
	SkipIdempotency   bool
	SequentialReceipt bool
	ShiftID           *uint
	CreatedBy         uint
	CollectorName     string
	PaidAt            time.Time
}

// RecordPaymentResult carries the payment and whether a new row was created.
// Created=false means an earlier identical request already succeeded; callers
// must treat it as success, not as a new charge.
type RecordPaymentResult struct {
	Payment *domain.Payment
	Created bool
}

// RecordPaymentHandler handles the record payment command.
type RecordPaymentHandler struct {
	uow    domain.UnitOfWork
	events EventPublisher
}

// EventPublisher is the slice of the Kafka publisher the commands need.
type EventPublisher interface {
	PaymentRecorded(ctx context.Context, payment *domain.Payment)
	AppointmentCompleted(ctx context.Context, appointmentID uint, payment *domain.Payment, breakdown domain.CommissionBreakdown)
	RefundIssued(ctx context.Context, refund *domain.Refund, payment *domain.Payment)
}

// NewRecordPaymentHandler creates a new record payment handler. events may be
// nil when no broker is configured.
func NewRecordPaymentHandler(uow domain.UnitOfWork, events EventPublisher) *RecordPaymentHandler {
	return &RecordPaymentHandler{uow: uow, events: events}
}

// Handle executes the record payment command in its own transaction.
func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (*RecordPaymentResult, error) {
	var result *RecordPaymentResult
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		var err error
		result, err = h.HandleInTx(ctx, tx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Created && h.events != nil {
		// Event delivery is best-effort and never rolls back the payment.
		h.events.PaymentRecorded(ctx, result.Payment)
	}
	return result, nil
}

// HandleInTx records the payment inside an existing transaction. The
// appointment completion orchestrator uses this form so payment, credit and
// earnings land atomically.
func (h *RecordPaymentHandler) HandleInTx(ctx context.Context, tx domain.Tx, cmd RecordPaymentCommand) (*RecordPaymentResult, error) {
	if cmd.MemberID == 0 {
		return nil, domain.NewValidationError(domain.CodeMemberNotFound,
			"member is required", "العضو مطلوب")
	}
	if cmd.Amount <= 0 {
		return nil, domain.NewValidationError(domain.CodeAmountInvalid,
			"amount must be a positive value", "يجب أن يكون المبلغ قيمة موجبة")
	}

	cmd.Amount = money.Round2(cmd.Amount)
	cmd.Method = domain.NormalizeMethod(cmd.Method)
	if cmd.Status == "" {
		cmd.Status = domain.PaymentStatusCompleted
	}
	if cmd.PaidAt.IsZero() {
		cmd.PaidAt = time.Now()
	}
	externalRef := domain.NormalizeExternalReference(cmd.Method, cmd.ExternalReference)

	key := cmd.IdempotencyKey
	if key == "" {
		key = fallbackIdempotencyKey(cmd)
	}

	if cmd.Status == domain.PaymentStatusCompleted && !cmd.SkipIdempotency {
		existing, err := h.findExisting(tx, cmd, externalRef, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Info(ctx).
				Uint("payment_id", existing.ID).
				Str("receipt", existing.ReceiptNumber).
				Msg("Duplicate payment suppressed")
			return &RecordPaymentResult{Payment: existing, Created: false}, nil
		}
	}

	payment := &domain.Payment{
		MemberID:          cmd.MemberID,
		SubscriptionID:    cmd.SubscriptionID,
		AppointmentID:     cmd.AppointmentID,
		Amount:            cmd.Amount,
		Method:            cmd.Method,
		Status:            cmd.Status,
		ExternalReference: externalRef,
		IdempotencyKey:    &key,
		ShiftID:           cmd.ShiftID,
		CreatedBy:         cmd.CreatedBy,
		CollectorName:     cmd.CollectorName,
		PaidAt:            cmd.PaidAt,
	}

	if err := h.insertWithReceiptRetry(ctx, tx, payment, cmd.SequentialReceipt); err != nil {
		return nil, err
	}
	return &RecordPaymentResult{Payment: payment, Created: true}, nil
}

func (h *RecordPaymentHandler) findExisting(tx domain.Tx, cmd RecordPaymentCommand, externalRef *string, key string) (*domain.Payment, error) {
	byKey, err := tx.Payments().FindByIdempotencyKey(key)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if byKey != nil {
		return byKey, nil
	}

	filter := domain.DuplicateFilter{
		MemberID:          cmd.MemberID,
		Amount:            cmd.Amount,
		Status:            domain.PaymentStatusCompleted,
		Method:            cmd.Method,
		SubscriptionID:    cmd.SubscriptionID,
		AppointmentID:     cmd.AppointmentID,
		CreatedBy:         cmd.CreatedBy,
		ExternalReference: externalRef,
		PaidAfter:         cmd.PaidAt.Add(-duplicateWindow),
	}
	dup, err := tx.Payments().FindDuplicate(filter)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup: %w", err)
	}
	return dup, nil
}

func (h *RecordPaymentHandler) insertWithReceiptRetry(ctx context.Context, tx domain.Tx, payment *domain.Payment, sequential bool) error {
	for attempt := 1; attempt <= receiptAttempts; attempt++ {
		receipt, err := h.nextReceiptNumber(tx, payment.PaidAt, sequential)
		if err != nil {
			return err
		}
		payment.ReceiptNumber = receipt

		err = tx.Payments().Create(payment)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		logger.Warn(ctx).
			Str("receipt", receipt).
			Int("attempt", attempt).
			Msg("Receipt number collision, regenerating")
	}

	return domain.NewConflictError(domain.CodeReceiptExhausted,
		"could not allocate a unique receipt number",
		"تعذر إنشاء رقم إيصال فريد")
}

// nextReceiptNumber builds either the random RCP-YYYYMM-HHMMSS-RRRR form or
// the date-keyed sequential RC-YYYYMMDD-NNNNNN unified form.
func (h *RecordPaymentHandler) nextReceiptNumber(tx domain.Tx, at time.Time, sequential bool) (string, error) {
	if sequential {
		day := at.Format("20060102")
		seq, err := tx.Payments().NextReceiptSequence(day)
		if err != nil {
			return "", fmt.Errorf("receipt sequence: %w", err)
		}
		return fmt.Sprintf("RC-%s-%06d", day, seq), nil
	}
	suffix := uuid.New().ID() % 10000
	return fmt.Sprintf("RCP-%s-%s-%04d", at.Format("200601"), at.Format("150405"), suffix), nil
}

// fallbackIdempotencyKey derives a server-side key when the client sent none.
// It hashes only the business identity of the request, so two legitimately
// distinct but identical requests collapse into one payment; that is the
// accepted trade-off of the fallback path.
func fallbackIdempotencyKey(cmd RecordPaymentCommand) string {
	sub := uint(0)
	if cmd.SubscriptionID != nil {
		sub = *cmd.SubscriptionID
	}
	appt := uint(0)
	if cmd.AppointmentID != nil {
		appt = *cmd.AppointmentID
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%d|%d|%s|%s|%.2f",
		cmd.MemberID, sub, appt, cmd.Status, cmd.Method, cmd.Amount))
	return "auto-" + hex.EncodeToString(sum[:16])
}
