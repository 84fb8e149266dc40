package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// RecordPayment godoc
// @Summary Record a payment
// @Description Record a payment idempotently; replays of the same request return the original row
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{member_id=int,subscription_id=int,appointment_id=int,amount=number,method=string,external_reference=string,idempotency_key=string} true "Payment data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string,error_code=string}
// @Router /api/payments [post]
func (h *SettlementHandler) RecordPaymentDoc() {}

// RefundPayment godoc
// @Summary Refund a payment
// @Description Refund part or all of a payment, subject to the consumed-amount policy
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Payment ID"
// @Param request body object{amount=number,reason=string,goodwill=bool} true "Refund data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string,error_code=string}
// @Failure 403 {object} object{success=bool,error=string,error_code=string}
// @Failure 409 {object} object{success=bool,error=string,error_code=string,meta=object}
// @Router /api/payments/{id}/refunds [post]
func (h *SettlementHandler) RefundPaymentDoc() {}

// CompleteAppointment godoc
// @Summary Complete an appointment
// @Description Atomically settle payment, commission, credit and coach earning for a session
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param request body object{session_price=number,commission_percent=number,amount_collected=number,method=string} false "Settlement overrides"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string,error_code=string}
// @Failure 404 {object} object{success=bool,error=string,error_code=string}
// @Router /api/appointments/{id}/complete [post]
func (h *SettlementHandler) CompleteAppointmentDoc() {}

// ShiftBreakdown godoc
// @Summary Cash drawer breakdown
// @Description Paid/refunded/net per payment method for the selected shift scope
// @Tags Shifts
// @Security BearerAuth
// @Produce json
// @Param scope query string false "current | all | range"
// @Param from query string false "RFC3339 lower bound (range scope)"
// @Param to query string false "RFC3339 upper bound (range scope)"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/shifts/breakdown [get]
func (h *SettlementHandler) ShiftBreakdownDoc() {}

// CancelSubscription godoc
// @Summary Cancel a subscription
// @Description Prorated cancellation; dry_run=true previews the refund without writes
// @Tags Subscriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Subscription ID"
// @Param dry_run query bool false "Preview only"
// @Param request body object{reason=string,daily_rate_override=number} false "Cancellation data"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 404 {object} object{success=bool,error=string,error_code=string}
// @Router /api/subscriptions/{id}/cancel [post]
func (h *SettlementHandler) CancelSubscriptionDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *SettlementHandler) HealthCheckDoc() {}
