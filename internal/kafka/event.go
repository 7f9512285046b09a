package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingSaved     = "booking_saved"
	EventBookingCancelled = "booking_cancelled"
	EventPaymentRecorded  = "payment_recorded"
)

// BookingEvent is published after a ledger transaction commits.
type BookingEvent struct {
	Type       string          `json:"type"`
	TicketID   string          `json:"ticket_id"`
	UserID     string          `json:"user_id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
