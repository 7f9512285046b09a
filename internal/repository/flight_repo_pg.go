package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const flightColumns = `flight_id, flight_name, source, destination, price::text, flight_date, duration, aircraft_id, created_at`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY flight_date, flight_id`)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, flightID string) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_id=$1`, flightID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Resource: "flight", Key: flightID}
	}
	if err != nil {
		return nil, mapError("get flight", err)
	}
	return f, nil
}

// Search matches source and destination case-insensitively. Empty fields match anything.
func (r *PGFlightRepository) Search(ctx context.Context, q FlightQuery) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE ($1 = '' OR lower(source) = lower($1))
		AND ($2 = '' OR lower(destination) = lower($2))
		AND ($3 = '' OR flight_date = $3)
		ORDER BY flight_date, flight_id`, q.Source, q.Destination, q.Date)
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (flight_id, flight_name, source, destination, price, flight_date, duration, aircraft_id)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8) RETURNING created_at`,
		f.FlightID, f.FlightName, f.Source, f.Destination, f.Price.String(), f.Date, f.Duration, f.AircraftID).
		Scan(&f.CreatedAt)
	return mapError("insert flight", err)
}

func (r *PGFlightRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, mapError("scan flight", err)
		}
		flights = append(flights, *f)
	}
	return flights, mapError("list flights", rows.Err())
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var (
		f     domain.Flight
		price string
	)
	if err := row.Scan(&f.FlightID, &f.FlightName, &f.Source, &f.Destination, &price, &f.Date, &f.Duration, &f.AircraftID, &f.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if f.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
