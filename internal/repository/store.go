package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUserIDTaken is returned when a generated user id collides with an
// existing one. Callers regenerate and retry.
var ErrUserIDTaken = errors.New("user id already taken")

// Store is the transactional ledger over bookings and payments.
type Store interface {
	// WithinTx runs fn in one transaction. Any error from fn rolls back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListBookings(ctx context.Context) ([]domain.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	BookingByTicket(ctx context.Context, ticketID string) (*domain.Booking, error)

	ListPayments(ctx context.Context) ([]domain.Payment, error)
	PaymentsByUser(ctx context.Context, userID string) ([]domain.Payment, error)
	PaymentsByTicket(ctx context.Context, ticketID string) ([]domain.Payment, error)
}

// Tx is the set of writes available inside a ledger transaction.
// Lookups lock the returned row until the transaction ends.
type Tx interface {
	BookingByTicketForUpdate(ctx context.Context, ticketID string) (*domain.Booking, error)
	BookingByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	InsertBooking(ctx context.Context, b *domain.Booking) error
	UpdateBooking(ctx context.Context, b *domain.Booking) error

	InsertPayment(ctx context.Context, p *domain.Payment) error

	ClampNegativePayments(ctx context.Context) (int64, error)
	ClampNegativePrices(ctx context.Context) (int64, error)
	DeleteAllBookings(ctx context.Context) (int64, error)
	DeleteAllPayments(ctx context.Context) (int64, error)
}

type FlightQuery struct {
	Source      string
	Destination string
	Date        string
}

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, flightID string) (*domain.Flight, error)
	Search(ctx context.Context, q FlightQuery) ([]domain.Flight, error)
	Create(ctx context.Context, f *domain.Flight) error
}

type UserRepository interface {
	// LastUserID returns the numerically greatest U<digits> id, or "".
	LastUserID(ctx context.Context) (string, error)
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	// GetByLogin matches either the username or the email.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Delete removes the user and every booking they own; payments cascade.
	Delete(ctx context.Context, userID string) error
}

const pgUniqueViolation = "23505"

// paymentKind matches the column default for entries stored without a kind.
func paymentKind(k domain.PaymentKind) domain.PaymentKind {
	if k == "" {
		return domain.PaymentKindPayment
	}
	return k
}

// mapError translates driver errors into the domain taxonomy. Everything that
// is not a uniqueness violation, including timeouts, serialization failures
// and deadlocks, aborts the transaction and is reported as a storage failure.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == "users_pkey" {
			return fmt.Errorf("%s: %w", op, ErrUserIDTaken)
		}
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return &domain.StorageError{Op: op, Err: err}
}
