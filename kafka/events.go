package kafka

import "time"

// PaymentRecordedEvent is emitted after a payment row is committed.
type PaymentRecordedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	PaymentID     uint      `json:"payment_id"`
	MemberID      uint      `json:"member_id"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	ReceiptNumber string    `json:"receipt_number"`
	ShiftID       *uint     `json:"shift_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// AppointmentCompletedEvent is emitted once per appointment settlement.
type AppointmentCompletedEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	AppointmentID   uint      `json:"appointment_id"`
	PaymentID       *uint     `json:"payment_id,omitempty"`
	SessionPrice    float64   `json:"session_price"`
	CoachCommission float64   `json:"coach_commission"`
	GymNetIncome    float64   `json:"gym_net_income"`
	PercentUsed     float64   `json:"percent_used"`
	Timestamp       time.Time `json:"timestamp"`
}

// RefundIssuedEvent is emitted after a refund row is committed.
type RefundIssuedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	RefundID  uint      `json:"refund_id"`
	PaymentID uint      `json:"payment_id"`
	MemberID  uint      `json:"member_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Goodwill  bool      `json:"goodwill"`
	ShiftID   *uint     `json:"shift_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypePaymentRecorded      = "payment.recorded"
	EventTypeAppointmentCompleted = "appointment.completed"
	EventTypeRefundIssued         = "refund.issued"
)

// Kafka topics
const (
	TopicPaymentRecorded      = "payment-recorded"
	TopicAppointmentCompleted = "appointment-completed"
	TopicRefundIssued         = "refund-issued"
)
