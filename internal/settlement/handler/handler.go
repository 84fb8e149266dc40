package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/usecase/command"
	"github.com/tair/gym-settlement/internal/settlement/usecase/query"
	"github.com/tair/gym-settlement/pkg/logger"
)

// SettlementHandler handles HTTP requests for the settlement service using
// CQRS pattern
type SettlementHandler struct {
	// Command handlers
	recordPayment   *command.RecordPaymentHandler
	completeAppt    *command.CompleteAppointmentHandler
	refundPayment   *command.RefundPaymentHandler
	cancelSub       *command.CancelSubscriptionHandler
	adjustCredit    *command.AdjustCreditHandler
	updatePrice     *command.UpdateAppointmentPriceHandler
	openShift       *command.OpenShiftHandler
	closeShift      *command.CloseShiftHandler
	settleEarnings  *command.SettleEarningsHandler

	// Query handlers
	getPayment     *query.GetPaymentHandler
	listPayments   *query.ListPaymentsHandler
	refundPreview  *query.RefundPreviewHandler
	creditBalance  *query.GetCreditBalanceHandler
	shiftBreakdown *query.ShiftBreakdownHandler
}

// NewSettlementHandler creates a new settlement handler using dependency
// injection.
func NewSettlementHandler(
	recordPayment *command.RecordPaymentHandler,
	completeAppt *command.CompleteAppointmentHandler,
	refundPayment *command.RefundPaymentHandler,
	cancelSub *command.CancelSubscriptionHandler,
	adjustCredit *command.AdjustCreditHandler,
	updatePrice *command.UpdateAppointmentPriceHandler,
	openShift *command.OpenShiftHandler,
	closeShift *command.CloseShiftHandler,
	settleEarnings *command.SettleEarningsHandler,
	getPayment *query.GetPaymentHandler,
	listPayments *query.ListPaymentsHandler,
	refundPreview *query.RefundPreviewHandler,
	creditBalance *query.GetCreditBalanceHandler,
	shiftBreakdown *query.ShiftBreakdownHandler,
) *SettlementHandler {
	return &SettlementHandler{
		recordPayment:  recordPayment,
		completeAppt:   completeAppt,
		refundPayment:  refundPayment,
		cancelSub:      cancelSub,
		adjustCredit:   adjustCredit,
		updatePrice:    updatePrice,
		openShift:      openShift,
		closeShift:     closeShift,
		settleEarnings: settleEarnings,
		getPayment:     getPayment,
		listPayments:   listPayments,
		refundPreview:  refundPreview,
		creditBalance:  creditBalance,
		shiftBreakdown: shiftBreakdown,
	}
}

type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
	MessageEN string      `json:"message_en,omitempty"`
	MessageAR string      `json:"message_ar,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
}

// RecordPayment handles POST /api/payments
func (h *SettlementHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID          uint    `json:"member_id"`
		SubscriptionID    *uint   `json:"subscription_id"`
		AppointmentID     *uint   `json:"appointment_id"`
		Amount            float64 `json:"amount"`
		Method            string  `json:"method"`
		Status            string  `json:"status"`
		ExternalReference string  `json:"external_reference"`
		IdempotencyKey    string  `json:"idempotency_key"`
		SequentialReceipt bool    `json:"sequential_receipt"`
		ShiftID           *uint   `json:"shift_id"`
		CollectorName     string  `json:"collector_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	actor := ActorFromContext(r.Context())
	if key := r.Header.Get("Idempotency-Key"); key != "" && req.IdempotencyKey == "" {
		req.IdempotencyKey = key
	}

	result, err := h.recordPayment.Handle(r.Context(), command.RecordPaymentCommand{
		MemberID:          req.MemberID,
		SubscriptionID:    req.SubscriptionID,
		AppointmentID:     req.AppointmentID,
		Amount:            req.Amount,
		Method:            req.Method,
		Status:            req.Status,
		ExternalReference: req.ExternalReference,
		IdempotencyKey:    req.IdempotencyKey,
		SequentialReceipt: req.SequentialReceipt,
		ShiftID:           req.ShiftID,
		CreatedBy:         actor.ID,
		CollectorName:     req.CollectorName,
		PaidAt:            time.Now(),
	})
	if err != nil {
		respondError(w, r, err, "Failed to record payment")
		return
	}

	status := http.StatusCreated
	message := "Payment recorded successfully"
	if !result.Created {
		// Replay of an identical request; return the original row.
		status = http.StatusOK
		message = "Payment already recorded"
	}
	respondJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    result.Payment,
	})
}

// GetPayment handles GET /api/payments/{id}
func (h *SettlementHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid payment ID")
	if !ok {
		return
	}

	detail, err := h.getPayment.Handle(r.Context(), query.GetPaymentQuery{PaymentID: id})
	if err != nil {
		respondError(w, r, err, "Failed to get payment")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: detail})
}

// ListPayments handles GET /api/payments
func (h *SettlementHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	memberID, _ := strconv.ParseUint(r.URL.Query().Get("member_id"), 10, 32)

	payments, err := h.listPayments.Handle(r.Context(), query.ListPaymentsQuery{
		MemberID: uint(memberID),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(w, r, err, "Failed to list payments")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"payments": payments,
			"total":    len(payments),
		},
	})
}

// RefundPayment handles POST /api/payments/{id}/refunds
func (h *SettlementHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid payment ID")
	if !ok {
		return
	}

	var req struct {
		Amount   float64 `json:"amount"`
		Reason   string  `json:"reason"`
		Goodwill bool    `json:"goodwill"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	refund, err := h.refundPayment.Handle(r.Context(), command.RefundPaymentCommand{
		PaymentID: id,
		Amount:    req.Amount,
		Reason:    req.Reason,
		Goodwill:  req.Goodwill,
		Actor:     ActorFromContext(r.Context()),
	})
	if err != nil {
		respondError(w, r, err, "Failed to refund payment")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Refund recorded successfully",
		Data:    refund,
	})
}

// RefundPreview handles GET /api/payments/{id}/refund-preview
func (h *SettlementHandler) RefundPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid payment ID")
	if !ok {
		return
	}

	preview, err := h.refundPreview.Handle(r.Context(), query.RefundPreviewQuery{PaymentID: id})
	if err != nil {
		respondError(w, r, err, "Failed to preview refund")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: preview})
}

// CompleteAppointment handles POST /api/appointments/{id}/complete
func (h *SettlementHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid appointment ID")
	if !ok {
		return
	}

	var req struct {
		SessionPrice      *float64 `json:"session_price"`
		CommissionPercent *float64 `json:"commission_percent"`
		AmountCollected   *float64 `json:"amount_collected"`
		Method            string   `json:"method"`
		ExternalReference string   `json:"external_reference"`
		IdempotencyKey    string   `json:"idempotency_key"`
	}
	// Empty body means: settle at quoted price, collect everything.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result, err := h.completeAppt.Handle(r.Context(), command.CompleteAppointmentCommand{
		AppointmentID:     id,
		Actor:             ActorFromContext(r.Context()),
		SessionPrice:      req.SessionPrice,
		CommissionPercent: req.CommissionPercent,
		AmountCollected:   req.AmountCollected,
		Method:            req.Method,
		ExternalReference: req.ExternalReference,
		IdempotencyKey:    req.IdempotencyKey,
	})
	if err != nil {
		respondError(w, r, err, "Failed to complete appointment")
		return
	}

	message := "Appointment completed successfully"
	if result.AlreadyCompleted {
		message = "Appointment was already completed"
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    result,
	})
}

// UpdateAppointmentPrice handles PATCH /api/appointments/{id}/price
func (h *SettlementHandler) UpdateAppointmentPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid appointment ID")
	if !ok {
		return
	}

	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	record, err := h.updatePrice.Handle(r.Context(), command.UpdateAppointmentPriceCommand{
		AppointmentID: id,
		NewPrice:      req.Price,
		Actor:         ActorFromContext(r.Context()),
	})
	if err != nil {
		respondError(w, r, err, "Failed to update appointment price")
		return
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Appointment price updated",
		Data:    record,
	})
}

// ShiftBreakdown handles GET /api/shifts/breakdown
func (h *SettlementHandler) ShiftBreakdown(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid 'from' timestamp, want RFC3339",
			})
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid 'to' timestamp, want RFC3339",
			})
			return
		}
		to = &t
	}

	breakdown, err := h.shiftBreakdown.Handle(r.Context(), query.ShiftBreakdownQuery{
		Scope: r.URL.Query().Get("scope"),
		From:  from,
		To:    to,
		Actor: ActorFromContext(r.Context()),
	})
	if err != nil {
		respondError(w, r, err, "Failed to compute shift breakdown")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: breakdown})
}

// OpenShift handles POST /api/shifts/open
func (h *SettlementHandler) OpenShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	shift, err := h.openShift.Handle(r.Context(), command.OpenShiftCommand{
		Actor: ActorFromContext(r.Context()),
		Notes: req.Notes,
	})
	if err != nil {
		respondError(w, r, err, "Failed to open shift")
		return
	}
	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Shift opened",
		Data:    shift,
	})
}

// CloseShift handles POST /api/shifts/close
func (h *SettlementHandler) CloseShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.closeShift.Handle(r.Context(), command.CloseShiftCommand{
		Actor: ActorFromContext(r.Context()),
	})
	if err != nil {
		respondError(w, r, err, "Failed to close shift")
		return
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Shift closed",
		Data:    shift,
	})
}

// GetCreditBalance handles GET /api/members/{id}/credit
func (h *SettlementHandler) GetCreditBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid member ID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	balance, err := h.creditBalance.Handle(r.Context(), query.GetCreditBalanceQuery{
		MemberID: id,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(w, r, err, "Failed to get credit balance")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: balance})
}

// AdjustCredit handles POST /api/members/{id}/credit/adjust
func (h *SettlementHandler) AdjustCredit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid member ID")
	if !ok {
		return
	}

	var req struct {
		Delta float64 `json:"delta"`
		Note  string  `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	balance, err := h.adjustCredit.Handle(r.Context(), command.AdjustCreditCommand{
		MemberID: id,
		Delta:    req.Delta,
		Note:     req.Note,
		Actor:    ActorFromContext(r.Context()),
	})
	if err != nil {
		respondError(w, r, err, "Failed to adjust credit")
		return
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Credit adjusted",
		Data:    map[string]interface{}{"member_id": id, "balance": balance},
	})
}

// CancelSubscription handles POST /api/subscriptions/{id}/cancel
func (h *SettlementHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid subscription ID")
	if !ok {
		return
	}

	var req struct {
		Reason            string   `json:"reason"`
		DailyRateOverride *float64 `json:"daily_rate_override"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	result, err := h.cancelSub.Handle(r.Context(), command.CancelSubscriptionCommand{
		SubscriptionID:    id,
		Actor:             ActorFromContext(r.Context()),
		Reason:            req.Reason,
		DailyRateOverride: req.DailyRateOverride,
		DryRun:            dryRun,
	})
	if err != nil {
		respondError(w, r, err, "Failed to cancel subscription")
		return
	}

	message := "Subscription cancelled"
	if dryRun {
		message = "Cancellation preview"
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    result,
	})
}

// SettleEarnings handles POST /api/coaches/{id}/earnings/settle
func (h *SettlementHandler) SettleEarnings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid coach ID")
	if !ok {
		return
	}

	result, err := h.settleEarnings.Handle(r.Context(), command.SettleEarningsCommand{
		CoachID: id,
		Actor:   ActorFromContext(r.Context()),
	})
	if err != nil {
		respondError(w, r, err, "Failed to settle earnings")
		return
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Earnings settled",
		Data:    result,
	})
}

// RegisterRoutes registers all settlement routes
func (h *SettlementHandler) RegisterRoutes(router *mux.Router) {
	// Payments
	router.HandleFunc("/api/payments", ActorMiddleware(h.RecordPayment)).Methods("POST")
	router.HandleFunc("/api/payments", ActorMiddleware(h.ListPayments)).Methods("GET")
	router.HandleFunc("/api/payments/{id}", ActorMiddleware(h.GetPayment)).Methods("GET")
	router.HandleFunc("/api/payments/{id}/refunds", ActorMiddleware(h.RefundPayment)).Methods("POST")
	router.HandleFunc("/api/payments/{id}/refund-preview", ActorMiddleware(h.RefundPreview)).Methods("GET")

	// Appointments
	router.HandleFunc("/api/appointments/{id}/complete", ActorMiddleware(h.CompleteAppointment)).Methods("POST")
	router.HandleFunc("/api/appointments/{id}/price", AdminMiddleware(h.UpdateAppointmentPrice)).Methods("PATCH")

	// Shifts
	router.HandleFunc("/api/shifts/breakdown", ActorMiddleware(h.ShiftBreakdown)).Methods("GET")
	router.HandleFunc("/api/shifts/open", ActorMiddleware(h.OpenShift)).Methods("POST")
	router.HandleFunc("/api/shifts/close", ActorMiddleware(h.CloseShift)).Methods("POST")

	// Members / credit
	router.HandleFunc("/api/members/{id}/credit", ActorMiddleware(h.GetCreditBalance)).Methods("GET")
	router.HandleFunc("/api/members/{id}/credit/adjust", AdminMiddleware(h.AdjustCredit)).Methods("POST")

	// Subscriptions
	router.HandleFunc("/api/subscriptions/{id}/cancel", ActorMiddleware(h.CancelSubscription)).Methods("POST")

	// Coach payouts
	router.HandleFunc("/api/coaches/{id}/earnings/settle", AdminMiddleware(h.SettleEarnings)).Methods("POST")
}

// RegisterHealthCheck registers health check endpoint
func (h *SettlementHandler) RegisterHealthCheck(router *mux.Router, db *gorm.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}
		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Settlement service is healthy",
		})
	}).Methods("GET")
}

func pathID(w http.ResponseWriter, r *http.Request, name, msg string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: msg})
		return 0, false
	}
	return uint(id), true
}

// respondError maps a settlement error to an HTTP status with both language
// messages and the machine code; anything untagged becomes a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if e, ok := domain.AsError(err); ok {
		respondJSON(w, statusFor(e), Response{
			Success:   false,
			Error:     e.MessageEN,
			ErrorCode: e.Code,
			MessageEN: e.MessageEN,
			MessageAR: e.MessageAR,
			Meta:      metaOrNil(e),
		})
		return
	}

	logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg(fallback)
	respondJSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Error:   fallback,
	})
}

func statusFor(e *domain.Error) int {
	// Code-level overrides first
	switch e.Code {
	case domain.CodeGoodwillDenied, domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNonRefundableUsage:
		return http.StatusConflict
	}

	switch e.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindPolicy:
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func metaOrNil(e *domain.Error) interface{} {
	if len(e.Meta) == 0 {
		return nil
	}
	return e.Meta
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
