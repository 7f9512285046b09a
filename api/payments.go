package api

import (
	"encoding/json"
	"net/http"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	service     booking.BookingUseCase
	idempotency gin.HandlerFunc
}

type recordPaymentRequest struct {
	TicketID string          `json:"ticket_id"`
	Amount   json.RawMessage `json:"amount"`
	Method   string          `json:"method"`
	// Mode is the older name of Method.
	Mode    string          `json:"mode"`
	UserID  string          `json:"user_id"`
	Cancel  bool            `json:"cancel"`
	Booking *bookingDetails `json:"booking_details"`
}

type recordPaymentResponse struct {
	PaymentID string          `json:"payment_id,omitempty"`
	TicketID  string          `json:"ticket_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Created   bool            `json:"booking_created"`
}

type paymentResponse struct {
	PaymentID string          `json:"payment_id"`
	TicketID  string          `json:"ticket_id"`
	UserID    string          `json:"user_id"`
	FlightID  string          `json:"flight_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Refund    bool            `json:"refund"`
	CreatedAt string          `json:"created_at"`
}

// NewPaymentHandler wires the payment routes. idempotency guards recording
// and may be nil.
func NewPaymentHandler(service booking.BookingUseCase, idempotency gin.HandlerFunc) *PaymentHandler {
	return &PaymentHandler{service: service, idempotency: idempotency}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	if h.idempotency != nil {
		router.POST("", h.idempotency, h.record)
	} else {
		router.POST("", h.record)
	}
	router.GET("", h.list)
	router.GET("/user/:userId", h.byUser)
	router.GET("/ticket/:ticket", h.byTicket)
}

func (h *PaymentHandler) record(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	in := booking.PaymentInput{
		TicketID: req.TicketID,
		Amount:   rawValue(req.Amount),
		Method:   req.Method,
		OwnerID:  req.UserID,
		Cancel:   req.Cancel,
	}
	if in.Method == "" {
		in.Method = req.Mode
	}
	if req.Booking != nil {
		fields, err := req.Booking.fields()
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		in.Details = &fields
	}

	res, err := h.service.RecordPayment(c.Request.Context(), principal(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, recordPaymentResponse{
		PaymentID: res.PaymentID,
		TicketID:  res.TicketID,
		Amount:    res.Amount,
		Status:    string(res.Status),
		Created:   res.Created,
	})
}

func (h *PaymentHandler) list(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context(), principal(c))
	respondPayments(c, payments, err)
}

func (h *PaymentHandler) byUser(c *gin.Context) {
	payments, err := h.service.ListUserPayments(c.Request.Context(), principal(c), c.Param("userId"))
	respondPayments(c, payments, err)
}

func (h *PaymentHandler) byTicket(c *gin.Context) {
	payments, err := h.service.TicketPayments(c.Request.Context(), principal(c), c.Param("ticket"))
	respondPayments(c, payments, err)
}

func respondPayments(c *gin.Context, payments []domain.Payment, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		p := &payments[i]
		resp = append(resp, paymentResponse{
			PaymentID: p.PaymentID,
			TicketID:  p.TicketID,
			UserID:    p.UserID,
			FlightID:  p.FlightID,
			Amount:    p.Amount,
			Method:    string(p.Method),
			Kind:      string(p.Kind),
			Status:    p.Status,
			Refund:    p.IsRefund(),
			CreatedAt: formatTime(p.CreatedAt),
		})
	}
	c.JSON(http.StatusOK, resp)
}
