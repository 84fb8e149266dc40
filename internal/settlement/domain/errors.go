package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned by repositories when an insert violates a unique
// constraint. Usecases decide whether that means "retry" or "already done".
var ErrDuplicate = errors.New("duplicate key")

// ErrorKind classifies a settlement error for the HTTP boundary.
type ErrorKind int

const (
	KindValidation ErrorKind = iota // bad amount/price/percent, recoverable client-side
	KindConflict                    // duplicate receipt/idempotency key after retries
	KindPolicy                      // refund caps, permission denials
	KindNotFound
	KindFatal // configuration errors, aborts with no partial state
)

// Error is a tagged settlement error carrying a machine code and bilingual
// messages. The handler layer maps Kind and Code to an HTTP status.
type Error struct {
	Kind      ErrorKind
	Code      string
	MessageEN string
	MessageAR string
	Meta      map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.MessageEN)
}

// WithMeta attaches a key/value pair (e.g. maxRefundable) to the error so the
// client can present an actionable choice.
func (e *Error) WithMeta(key string, value interface{}) *Error {
	if e.Meta == nil {
		e.Meta = map[string]interface{}{}
	}
	e.Meta[key] = value
	return e
}

func NewValidationError(code, en, ar string) *Error {
	return &Error{Kind: KindValidation, Code: code, MessageEN: en, MessageAR: ar}
}

func NewConflictError(code, en, ar string) *Error {
	return &Error{Kind: KindConflict, Code: code, MessageEN: en, MessageAR: ar}
}

func NewPolicyError(code, en, ar string) *Error {
	return &Error{Kind: KindPolicy, Code: code, MessageEN: en, MessageAR: ar}
}

func NewNotFoundError(code, en, ar string) *Error {
	return &Error{Kind: KindNotFound, Code: code, MessageEN: en, MessageAR: ar}
}

func NewFatalError(code, en, ar string) *Error {
	return &Error{Kind: KindFatal, Code: code, MessageEN: en, MessageAR: ar}
}

// Error codes surfaced at the API boundary.
const (
	CodeSessionPriceInvalid      = "SESSION_PRICE_INVALID"
	CodeCommissionPercentInvalid = "COMMISSION_PERCENT_INVALID"
	CodeCommissionConfigInvalid  = "COMMISSION_CONFIG_INVALID"
	CodeNonRefundableUsage       = "NON_REFUNDABLE_USAGE"
	CodeGoodwillDenied           = "GOODWILL_DENIED"
	CodeGoodwillReasonTooShort   = "GOODWILL_REASON_TOO_SHORT"
	CodeExceedsPaymentTotal      = "EXCEEDS_PAYMENT_TOTAL"
	CodePaymentNotCollected      = "PAYMENT_NOT_COLLECTED"
	CodeNoOpenShift              = "NO_OPEN_SHIFT"
	CodeShiftAlreadyOpen         = "SHIFT_ALREADY_OPEN"
	CodeAppointmentNotFound      = "APPOINTMENT_NOT_FOUND"
	CodePaymentNotFound          = "PAYMENT_NOT_FOUND"
	CodeSubscriptionNotFound     = "SUBSCRIPTION_NOT_FOUND"
	CodeMemberNotFound           = "MEMBER_NOT_FOUND"
	CodeLeadNotFound             = "LEAD_NOT_FOUND"
	CodeLeadInvalid              = "LEAD_INVALID"
	CodeReceiptExhausted         = "RECEIPT_NUMBER_EXHAUSTED"
	CodeMemberCodeExhausted      = "MEMBER_CODE_EXHAUSTED"
	CodeAmountInvalid            = "AMOUNT_INVALID"
	CodeReasonRequired           = "REASON_REQUIRED"
	CodeForbidden                = "FORBIDDEN"
)

// AsError unwraps err into a *Error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
