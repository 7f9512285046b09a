package bootstrap

import (
	"context"
	"fmt"

	"github.com/darshanhv296/Flight-Management-System/config"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Storage bundles the repositories of one backend.
type Storage struct {
	Ledger  repository.Store
	Flights repository.FlightRepository
	Users   repository.UserRepository
	// Ping reports whether the backend is reachable.
	Ping  func(ctx context.Context) error
	Close func()
}

// OpenStorage connects the configured backend. The postgres schema is applied
// when migrate_on_start is set.
func OpenStorage(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*Storage, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on exit")
		mem := repository.NewMemory()
		return &Storage{
			Ledger:  mem,
			Flights: mem.Flights(),
			Users:   mem.Users(),
			Ping:    func(context.Context) error { return nil },
			Close:   func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.MigrateOnStart {
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("database schema ensured")
	}

	return &Storage{
		Ledger:  repository.NewStore(pool, cfg.TxTimeout()),
		Flights: repository.NewFlightRepository(pool),
		Users:   repository.NewUserRepository(pool),
		Ping:    pool.Ping,
		Close:   pool.Close,
	}, nil
}
