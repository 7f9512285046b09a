package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const defaultTxTimeout = 5 * time.Second

const bookingColumns = `id, ticket_id, user_id, flight_id, flight_name, source, destination,
	flight_date, duration, class, price::text, username, status, cancelled, reason,
	cancel_reason, created_at, updated_at`

const paymentColumns = `payment_id, ticket_id, user_id, flight_id, amount::text, method, kind, status, created_at`

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct {
	db        *pgxpool.Pool
	txTimeout time.Duration
}

// NewStore returns the Postgres ledger. A non-positive txTimeout selects the default.
func NewStore(db *pgxpool.Pool, txTimeout time.Duration) *PGStore {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &PGStore{db: db, txTimeout: txTimeout}
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit tx", err)
	}
	return nil
}

func (s *PGStore) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return queryBookings(ctx, s.db, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
}

func (s *PGStore) ListBookingsByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return queryBookings(ctx, s.db, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY id`, userID)
}

func (s *PGStore) BookingByTicket(ctx context.Context, ticketID string) (*domain.Booking, error) {
	return getBooking(ctx, s.db, `SELECT `+bookingColumns+` FROM bookings WHERE ticket_id=$1`, ticketID)
}

func (s *PGStore) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	return queryPayments(ctx, s.db, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at, payment_id`)
}

func (s *PGStore) PaymentsByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	return queryPayments(ctx, s.db, `SELECT `+paymentColumns+` FROM payments WHERE user_id=$1 ORDER BY created_at, payment_id`, userID)
}

func (s *PGStore) PaymentsByTicket(ctx context.Context, ticketID string) ([]domain.Payment, error) {
	return queryPayments(ctx, s.db, `SELECT `+paymentColumns+` FROM payments WHERE ticket_id=$1 ORDER BY created_at, payment_id`, ticketID)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) BookingByTicketForUpdate(ctx context.Context, ticketID string) (*domain.Booking, error) {
	return getBooking(ctx, t.tx, `SELECT `+bookingColumns+` FROM bookings WHERE ticket_id=$1 FOR UPDATE`, ticketID)
}

func (t *pgTx) BookingByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return getBooking(ctx, t.tx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id)
}

func (t *pgTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO bookings (ticket_id, user_id, flight_id, flight_name, source,
		destination, flight_date, duration, class, price, username, status, cancelled, reason, cancel_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`,
		b.TicketID, b.UserID, b.FlightID, b.FlightName, b.Source, b.Destination, b.Date, b.Duration,
		string(b.Class), b.Price.String(), b.Username, string(b.Status), b.Cancelled, b.Reason, b.CancelReason).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapError("insert booking", err)
}

func (t *pgTx) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	err := t.tx.QueryRow(ctx, `UPDATE bookings SET user_id=$2, flight_id=$3, flight_name=$4, source=$5,
		destination=$6, flight_date=$7, duration=$8, class=$9, price=$10::numeric, username=$11, status=$12,
		cancelled=$13, reason=$14, cancel_reason=$15, updated_at=now()
		WHERE ticket_id=$1 RETURNING updated_at`,
		b.TicketID, b.UserID, b.FlightID, b.FlightName, b.Source, b.Destination, b.Date, b.Duration,
		string(b.Class), b.Price.String(), b.Username, string(b.Status), b.Cancelled, b.Reason, b.CancelReason).
		Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Resource: "booking", Key: b.TicketID}
	}
	return mapError("update booking", err)
}

func (t *pgTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO payments (payment_id, ticket_id, user_id, flight_id, amount, method, kind, status)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8) RETURNING created_at`,
		p.PaymentID, p.TicketID, p.UserID, p.FlightID, p.Amount.String(), string(p.Method), string(paymentKind(p.Kind)), p.Status).
		Scan(&p.CreatedAt)
	return mapError("insert payment", err)
}

func (t *pgTx) ClampNegativePayments(ctx context.Context) (int64, error) {
	return t.exec(ctx, "clamp payments", `UPDATE payments SET amount=0 WHERE amount < 0 AND kind <> 'refund'`)
}

func (t *pgTx) ClampNegativePrices(ctx context.Context) (int64, error) {
	return t.exec(ctx, "clamp prices", `UPDATE bookings SET price=0, updated_at=now() WHERE price < 0`)
}

func (t *pgTx) DeleteAllBookings(ctx context.Context) (int64, error) {
	return t.exec(ctx, "delete bookings", `DELETE FROM bookings`)
}

func (t *pgTx) DeleteAllPayments(ctx context.Context) (int64, error) {
	return t.exec(ctx, "delete payments", `DELETE FROM payments`)
}

func (t *pgTx) exec(ctx context.Context, op, sql string) (int64, error) {
	tag, err := t.tx.Exec(ctx, sql)
	if err != nil {
		return 0, mapError(op, err)
	}
	return tag.RowsAffected(), nil
}

func getBooking(ctx context.Context, q querier, sql string, key any) (*domain.Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, sql, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Resource: "booking", Key: fmt.Sprint(key)}
	}
	if err != nil {
		return nil, mapError("get booking", err)
	}
	return b, nil
}

func queryBookings(ctx context.Context, q querier, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError("scan booking", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, mapError("list bookings", rows.Err())
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		class  string
		price  string
		status string
	)
	if err := row.Scan(&b.ID, &b.TicketID, &b.UserID, &b.FlightID, &b.FlightName, &b.Source, &b.Destination,
		&b.Date, &b.Duration, &class, &price, &b.Username, &status, &b.Cancelled, &b.Reason,
		&b.CancelReason, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	b.Class = domain.FareClass(class)
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

func queryPayments(ctx context.Context, q querier, sql string, args ...any) ([]domain.Payment, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list payments", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var (
			p      domain.Payment
			amount string
			method string
			kind   string
		)
		if err := rows.Scan(&p.PaymentID, &p.TicketID, &p.UserID, &p.FlightID, &amount, &method, &kind, &p.Status, &p.CreatedAt); err != nil {
			return nil, mapError("scan payment", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, mapError("scan payment", fmt.Errorf("parse amount %q: %w", amount, err))
		}
		p.Method = domain.PaymentMethod(method)
		p.Kind = domain.PaymentKind(kind)
		payments = append(payments, p)
	}
	return payments, mapError("list payments", rows.Err())
}

var (
	_ Store = (*PGStore)(nil)
	_ Tx    = (*pgTx)(nil)
)
