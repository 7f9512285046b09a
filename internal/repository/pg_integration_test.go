package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("RUN_CONTAINER_TESTS") != "1" {
		t.Skip("set RUN_CONTAINER_TESTS=1 to run Postgres integration tests")
	}
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		postgres.WithDatabase("flights"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))
	require.NoError(t, EnsureSchema(ctx, pool), "schema must be re-runnable")
	return pool
}

func TestPGStore_Integration(t *testing.T) {
	pool := startPostgres(t)
	store := NewStore(pool, 5*time.Second)
	ctx := context.Background()

	booking := &domain.Booking{
		TicketID: "TKT-1",
		UserID:   "U001",
		Itinerary: domain.Itinerary{
			FlightID: "AI101",
			Class:    domain.FareClassBusiness,
			Price:    decimal.RequireFromString("1000.50"),
		},
		Status: domain.BookingStatusConfirmed,
	}
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertBooking(ctx, booking)
	}))
	assert.NotZero(t, booking.ID)

	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertBooking(ctx, &domain.Booking{TicketID: "TKT-1", UserID: "U002", Itinerary: domain.Itinerary{FlightID: "X"}})
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.BookingByIDForUpdate(ctx, booking.ID)
		if err != nil {
			return err
		}
		b.Status = domain.BookingStatusCancelled
		b.Cancelled = true
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if err := tx.InsertPayment(ctx, &domain.Payment{
			PaymentID: "PAY-1", TicketID: b.TicketID, UserID: b.UserID, FlightID: b.FlightID,
			Amount: decimal.NewFromInt(-20), Method: domain.PaymentMethodCard, Status: domain.PaymentStatusSuccess,
		}); err != nil {
			return err
		}
		return tx.InsertPayment(ctx, &domain.Payment{
			PaymentID: "PAY-2", TicketID: b.TicketID, UserID: b.UserID, FlightID: b.FlightID,
			Amount: decimal.NewFromInt(-500), Method: domain.PaymentMethodCard, Kind: domain.PaymentKindRefund,
			Status: domain.PaymentStatusSuccess,
		})
	}))

	got, err := store.BookingByTicket(ctx, "TKT-1")
	require.NoError(t, err)
	assert.True(t, got.Cancelled)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1000.50")))

	var fixed int64
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		fixed, err = tx.ClampNegativePayments(ctx)
		return err
	}))
	assert.Equal(t, int64(1), fixed)

	kept, err := store.PaymentsByTicket(ctx, "TKT-1")
	require.NoError(t, err)
	require.Len(t, kept, 2)
	for _, p := range kept {
		if p.PaymentID == "PAY-2" {
			assert.Equal(t, domain.PaymentKindRefund, p.Kind)
			assert.True(t, p.Amount.Equal(decimal.NewFromInt(-500)))
		} else {
			assert.Equal(t, domain.PaymentKindPayment, p.Kind)
			assert.True(t, p.Amount.IsZero())
		}
	}

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.DeleteAllBookings(ctx)
		return err
	}))
	payments, err := store.ListPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestPGStore_ConcurrentFirstInsert(t *testing.T) {
	pool := startPostgres(t)
	store := NewStore(pool, 5*time.Second)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		conflicts int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
				return tx.InsertBooking(ctx, &domain.Booking{TicketID: "TKT-RACE", UserID: "U001", Itinerary: domain.Itinerary{FlightID: "AI1"}})
			})
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrConflict)
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, conflicts)
}

func TestPGUserRepository_Integration(t *testing.T) {
	pool := startPostgres(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &domain.User{UserID: "U009", Username: "a", Email: "a@x", PasswordHash: "h", Role: domain.RoleUser}))
	require.NoError(t, users.Create(ctx, &domain.User{UserID: "U010", Username: "b", Email: "b@x", PasswordHash: "h", Role: domain.RoleUser}))

	last, err := users.LastUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "U010", last)

	err = users.Create(ctx, &domain.User{UserID: "U010", Username: "c", Email: "c@x", PasswordHash: "h", Role: domain.RoleUser})
	assert.ErrorIs(t, err, ErrUserIDTaken)

	err = users.Create(ctx, &domain.User{UserID: "U011", Username: "a", Email: "c@x", PasswordHash: "h", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, users.Delete(ctx, "U009"))
	assert.ErrorIs(t, users.Delete(ctx, "U009"), domain.ErrNotFound)
}
