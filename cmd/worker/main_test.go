package main

import (
	"context"
	"testing"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeLoop_KeepsRefundRows(t *testing.T) {
	log, hook := test.NewNullLogger()
	store := repository.NewMemory()
	svc := booking.NewBookingService(store, booking.WithLogger(log))
	ctx := context.Background()
	alice := auth.User("U001")

	price := decimal.NewFromInt(1000)
	_, err := svc.UpsertBooking(ctx, alice, booking.UpsertInput{TicketID: "TKT-A", Fields: booking.BookingFields{
		FlightID: "AI101",
		Class:    domain.FareClassBusiness,
		Price:    &price,
	}})
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, alice, booking.CancelInput{Ref: booking.BookingRef{TicketID: "TKT-A"}})
	require.NoError(t, err)

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		sanitizeLoop(loopCtx, svc, 10*time.Millisecond, log)
		close(done)
	}()

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "ledger sanitized" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	payments, err := store.PaymentsByTicket(ctx, "TKT-A")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, decimal.NewFromInt(-2020).Equal(payments[0].Amount), payments[0].Amount.String())
}
