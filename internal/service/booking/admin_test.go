package booking

import (
	"context"
	"testing"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedLegacy writes rows the current rules would never produce.
func seedLegacy(t *testing.T, store repository.Store) {
	t.Helper()
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		b := &domain.Booking{
			TicketID:  "TKT-OLD",
			UserID:    "U001",
			Itinerary: domain.Itinerary{FlightID: "AI1", Price: decimal.NewFromInt(-40)},
			Status:    domain.BookingStatusConfirmed,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		for i, amount := range []int64{-10, -20, 30} {
			if err := tx.InsertPayment(ctx, &domain.Payment{
				PaymentID: "PAY-OLD-" + string(rune('0'+i)),
				TicketID:  "TKT-OLD",
				UserID:    "U001",
				Amount:    decimal.NewFromInt(amount),
				Method:    domain.PaymentMethodCash,
				Status:    domain.PaymentStatusSuccess,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBookingService_Sanitize(t *testing.T) {
	store := repository.NewMemory()
	svc := newTestService(t, store)
	seedLegacy(t, store)
	ctx := context.Background()

	_, err := svc.Sanitize(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := svc.Sanitize(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.PaymentsFixed)
	assert.Equal(t, int64(1), res.BookingsFixed)

	for _, p := range mustPayments(t, store, "TKT-OLD") {
		assert.False(t, p.Amount.IsNegative())
	}
	assert.True(t, mustBooking(t, store, "TKT-OLD").Price.IsZero())

	res, err = svc.Sanitize(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, &SanitizeResult{}, res)
}

func TestBookingService_Sanitize_KeepsRefunds(t *testing.T) {
	store := repository.NewMemory()
	svc := newTestService(t, store)
	seedLegacy(t, store)
	ctx := context.Background()
	mustUpsert(t, svc, alice, "TKT-A", "1000", domain.FareClassBusiness)

	cancelled, err := svc.CancelBooking(ctx, alice, CancelInput{Ref: BookingRef{TicketID: "TKT-A"}})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2020).Equal(cancelled.Refund))

	res, err := svc.Sanitize(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.PaymentsFixed, "only the legacy rows")

	payments := mustPayments(t, store, "TKT-A")
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentKindRefund, payments[0].Kind)
	assert.True(t, decimal.NewFromInt(-2020).Equal(payments[0].Amount), payments[0].Amount.String())
}

func TestBookingService_DeleteAllBookings(t *testing.T) {
	store := repository.NewMemory()
	svc := newTestService(t, store)
	seedLegacy(t, store)
	mustUpsert(t, svc, alice, "TKT-A", "100", "")
	ctx := context.Background()

	_, err := svc.DeleteAllBookings(ctx, guest)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	n, err := svc.DeleteAllBookings(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	payments, err := store.ListPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestBookingService_ClearPayments(t *testing.T) {
	store := repository.NewMemory()
	svc := newTestService(t, store)
	seedLegacy(t, store)
	ctx := context.Background()

	_, err := svc.ClearPayments(ctx, bob)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	n, err := svc.ClearPayments(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	bookings, err := store.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 1, "bookings survive")
}

func TestBookingService_Listings(t *testing.T) {
	store := repository.NewMemory()
	svc := newTestService(t, store)
	ctx := context.Background()
	mustUpsert(t, svc, alice, "TKT-A", "100", "")
	mustUpsert(t, svc, bob, "TKT-B", "200", "")
	_, err := svc.RecordPayment(ctx, alice, PaymentInput{TicketID: "TKT-A", Amount: "100", Method: "UPI"})
	require.NoError(t, err)

	all, err := svc.ListBookings(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListBookings(ctx, bob)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "TKT-B", own[0].TicketID)

	_, err = svc.ListBookings(ctx, guest)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	b, err := svc.GetBooking(ctx, alice, "TKT-A")
	require.NoError(t, err)
	assert.Equal(t, "U001", b.UserID)
	_, err = svc.GetBooking(ctx, bob, "TKT-A")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListPayments(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	payments, err := svc.ListPayments(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	payments, err = svc.ListUserPayments(ctx, alice, "U001")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	_, err = svc.ListUserPayments(ctx, bob, "U001")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	payments, err = svc.TicketPayments(ctx, admin, "TKT-A")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	_, err = svc.TicketPayments(ctx, bob, "TKT-A")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.TicketPayments(ctx, alice, "TKT-NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
