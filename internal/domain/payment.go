package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "UPI"
	PaymentMethodCash       PaymentMethod = "Cash"
	PaymentMethodCard       PaymentMethod = "Card"
	PaymentMethodNetBanking PaymentMethod = "NetBanking"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodCash, PaymentMethodCard, PaymentMethodNetBanking:
		return true
	}
	return false
}

const PaymentStatusSuccess = "Success"

// PaymentKind tells ledger entries apart by origin.
type PaymentKind string

const (
	PaymentKindPayment PaymentKind = "payment"
	// PaymentKindRefund rows are written by user cancellations and carry a negative amount.
	PaymentKindRefund PaymentKind = "refund"
	PaymentKindCharge PaymentKind = "charge"
)

// Payment is an append-only ledger entry. Negative amounts are refunds.
type Payment struct {
	PaymentID string
	TicketID  string
	UserID    string
	FlightID  string
	Amount    decimal.Decimal
	Method    PaymentMethod
	Kind      PaymentKind
	Status    string
	CreatedAt time.Time
}

// Clampable reports whether sanitize may zero this entry: a negative amount
// that is not a cancellation refund.
func (p *Payment) Clampable() bool {
	return p.Amount.IsNegative() && p.Kind != PaymentKindRefund
}

func (p *Payment) IsRefund() bool {
	return p.Amount.IsNegative()
}
