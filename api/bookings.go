package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

// bookingDetails is the editable part of a booking as sent by clients.
type bookingDetails struct {
	FlightID    string          `json:"flight_id"`
	FlightName  string          `json:"flight_name"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Date        string          `json:"date"`
	Duration    string          `json:"duration"`
	Class       string          `json:"class"`
	Price       json.RawMessage `json:"price"`
	Username    string          `json:"username"`
	Cancelled   bool            `json:"cancelled"`
	Reason      string          `json:"reason"`
}

type upsertBookingRequest struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	bookingDetails
}

type upsertBookingResponse struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	Created  bool   `json:"created"`
	Status   string `json:"status"`
}

type cancelBookingRequest struct {
	Reason string          `json:"reason"`
	Amount json.RawMessage `json:"amount"`
}

type cancelBookingResponse struct {
	TicketID string          `json:"ticket_id"`
	Status   string          `json:"status"`
	Reason   string          `json:"reason"`
	Refund   decimal.Decimal `json:"refund"`
	Charge   decimal.Decimal `json:"charge"`
	Price    decimal.Decimal `json:"price"`
}

type bookingResponse struct {
	ID           int64           `json:"id"`
	TicketID     string          `json:"ticket_id"`
	UserID       string          `json:"user_id"`
	FlightID     string          `json:"flight_id"`
	FlightName   string          `json:"flight_name"`
	Source       string          `json:"source"`
	Destination  string          `json:"destination"`
	Date         string          `json:"date"`
	Duration     string          `json:"duration"`
	Class        string          `json:"class"`
	Price        decimal.Decimal `json:"price"`
	Username     string          `json:"username"`
	Status       string          `json:"status"`
	Cancelled    bool            `json:"cancelled"`
	CancelReason string          `json:"cancel_reason,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.upsert)
	router.GET("", h.list)
	router.GET("/:ticket", h.get)
	router.POST("/:ticket/cancel", h.cancel)
	router.POST("/id/:id/cancel", h.cancelByID)
}

func (h *BookingHandler) upsert(c *gin.Context) {
	var req upsertBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	res, err := h.service.UpsertBooking(c.Request.Context(), principal(c), booking.UpsertInput{
		TicketID: req.TicketID,
		OwnerID:  req.UserID,
		Fields:   fields,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, upsertBookingResponse{
		TicketID: res.TicketID,
		UserID:   res.UserID,
		Created:  res.Created,
		Status:   string(res.Status),
	})
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, newBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), principal(c), c.Param("ticket"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.doCancel(c, booking.BookingRef{TicketID: c.Param("ticket")})
}

func (h *BookingHandler) cancelByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "bad_request", "invalid booking id")
		return
	}
	h.doCancel(c, booking.BookingRef{ID: id})
}

func (h *BookingHandler) doCancel(c *gin.Context, ref booking.BookingRef) {
	var req cancelBookingRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBadRequest(c, err)
		return
	}
	in := booking.CancelInput{Ref: ref, Reason: req.Reason}
	if raw := rawValue(req.Amount); raw != "" {
		amount := booking.ParseAmount(raw)
		in.Amount = &amount
	}

	res, err := h.service.CancelBooking(c.Request.Context(), principal(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelBookingResponse{
		TicketID: res.TicketID,
		Status:   string(domain.BookingStatusCancelled),
		Reason:   res.Reason,
		Refund:   res.Refund,
		Charge:   res.Charge,
		Price:    res.Price,
	})
}

func (d bookingDetails) fields() (booking.BookingFields, error) {
	price, err := parsePrice(d.Price)
	if err != nil {
		return booking.BookingFields{}, err
	}
	return booking.BookingFields{
		FlightID:    d.FlightID,
		FlightName:  d.FlightName,
		Source:      d.Source,
		Destination: d.Destination,
		Date:        d.Date,
		Duration:    d.Duration,
		Class:       booking.ParseFareClass(d.Class),
		Price:       price,
		Username:    d.Username,
		Cancelled:   d.Cancelled,
		Reason:      d.Reason,
	}, nil
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:           b.ID,
		TicketID:     b.TicketID,
		UserID:       b.UserID,
		FlightID:     b.FlightID,
		FlightName:   b.FlightName,
		Source:       b.Source,
		Destination:  b.Destination,
		Date:         b.Date,
		Duration:     b.Duration,
		Class:        string(b.Class),
		Price:        b.Price,
		Username:     b.Username,
		Status:       string(b.Status),
		Cancelled:    b.Cancelled,
		CancelReason: b.DisplayReason(),
		CreatedAt:    formatTime(b.CreatedAt),
		UpdatedAt:    formatTime(b.UpdatedAt),
	}
}

// rawValue returns a JSON scalar as text. Strings are unquoted, null is empty.
func rawValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

func parsePrice(raw json.RawMessage) (*decimal.Decimal, error) {
	v := rawValue(raw)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, domain.Invalid("price", "must be a number")
	}
	return &d, nil
}

// bindOptionalJSON decodes the body when there is one.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
