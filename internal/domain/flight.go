package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Flight struct {
	FlightID    string
	FlightName  string
	Source      string
	Destination string
	Price       decimal.Decimal
	Date        string
	Duration    string
	AircraftID  string
	CreatedAt   time.Time
}
