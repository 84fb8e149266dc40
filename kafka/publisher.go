package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
)

// Publisher wraps a synchronous Kafka producer. It satisfies the command
// layer's EventPublisher interface; delivery is best-effort and failures are
// logged, never propagated into the business transaction.
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PaymentRecorded publishes a payment recorded event.
func (p *Publisher) PaymentRecorded(ctx context.Context, payment *domain.Payment) {
	event := PaymentRecordedEvent{
		EventID:       uuid.New().String(),
		EventType:     EventTypePaymentRecorded,
		PaymentID:     payment.ID,
		MemberID:      payment.MemberID,
		Amount:        payment.Amount,
		Method:        payment.Method,
		Status:        payment.Status,
		ReceiptNumber: payment.ReceiptNumber,
		ShiftID:       payment.ShiftID,
		Timestamp:     time.Now(),
	}
	key := fmt.Sprintf("payment_%d", payment.ID)
	p.publish(ctx, TopicPaymentRecorded, event.EventType, event.EventID, key, event,
		attribute.Int64("payment.id", int64(payment.ID)),
		attribute.Float64("payment.amount", payment.Amount),
	)
}

// AppointmentCompleted publishes an appointment settlement event.
func (p *Publisher) AppointmentCompleted(ctx context.Context, appointmentID uint, payment *domain.Payment, breakdown domain.CommissionBreakdown) {
	event := AppointmentCompletedEvent{
		EventID:         uuid.New().String(),
		EventType:       EventTypeAppointmentCompleted,
		AppointmentID:   appointmentID,
		SessionPrice:    breakdown.SessionPrice,
		CoachCommission: breakdown.CoachPayout,
		GymNetIncome:    breakdown.GymShare,
		PercentUsed:     breakdown.PercentUsed,
		Timestamp:       time.Now(),
	}
	if payment != nil {
		event.PaymentID = &payment.ID
	}
	key := fmt.Sprintf("appointment_%d", appointmentID)
	p.publish(ctx, TopicAppointmentCompleted, event.EventType, event.EventID, key, event,
		attribute.Int64("appointment.id", int64(appointmentID)),
		attribute.Float64("commission.coach", breakdown.CoachPayout),
	)
}

// RefundIssued publishes a refund issued event.
func (p *Publisher) RefundIssued(ctx context.Context, refund *domain.Refund, payment *domain.Payment) {
	event := RefundIssuedEvent{
		EventID:   uuid.New().String(),
		EventType: EventTypeRefundIssued,
		RefundID:  refund.ID,
		PaymentID: payment.ID,
		MemberID:  payment.MemberID,
		Amount:    refund.Amount,
		Method:    payment.Method,
		Goodwill:  refund.Goodwill,
		ShiftID:   refund.ShiftID,
		Timestamp: time.Now(),
	}
	key := fmt.Sprintf("payment_%d", payment.ID)
	p.publish(ctx, TopicRefundIssued, event.EventType, event.EventID, key, event,
		attribute.Int64("refund.id", int64(refund.ID)),
		attribute.Float64("refund.amount", refund.Amount),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, eventID, key string, event any, attrs ...attribute.KeyValue) {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		}, attrs...)...),
	)
	defer span.End()

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		logger.Error(ctx).Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Error(ctx).
			Err(err).
			Str("topic", topic).
			Str("event_id", eventID).
			Msg("Failed to publish event")
		return
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Info(ctx).
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
