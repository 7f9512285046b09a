package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusPaid      BookingStatus = "Paid"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

type FareClass string

const (
	FareClassEconomy  FareClass = "Economy"
	FareClassBusiness FareClass = "Business"
	FareClassFirst    FareClass = "First"
)

// Itinerary is the caller-editable part of a booking.
type Itinerary struct {
	FlightID    string
	FlightName  string
	Source      string
	Destination string
	Date        string
	Duration    string
	Class       FareClass
	Price       decimal.Decimal
	Username    string
}

type Booking struct {
	ID           int64
	TicketID     string
	UserID       string
	Itinerary
	Status       BookingStatus
	Cancelled    bool
	Reason       string
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayReason prefers the dedicated cancellation reason over the legacy one.
func (b *Booking) DisplayReason() string {
	if b.CancelReason != "" {
		return b.CancelReason
	}
	return b.Reason
}
