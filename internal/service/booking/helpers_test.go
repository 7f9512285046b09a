package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// sequentialIDs hands out predictable ids.
type sequentialIDs struct {
	mu       sync.Mutex
	tickets  int
	payments int
}

func (g *sequentialIDs) NewTicketID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tickets++
	return fmt.Sprintf("TKT-%d", g.tickets)
}

func (g *sequentialIDs) NewPaymentID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments++
	return fmt.Sprintf("PAY-%d", g.payments)
}

var (
	admin = auth.Admin("")
	alice = auth.User("U001")
	bob   = auth.User("U002")
	guest = auth.Anonymous
)

func newTestService(t *testing.T, store repository.Store, opts ...BookingServiceOption) *BookingService {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts = append([]BookingServiceOption{WithLogger(logger), WithIDGenerator(&sequentialIDs{})}, opts...)
	return NewBookingService(store, opts...)
}

func priceOf(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func fields(price string, class domain.FareClass) BookingFields {
	return BookingFields{
		FlightID:    "AI101",
		FlightName:  "Air India 101",
		Source:      "Delhi",
		Destination: "Mumbai",
		Date:        "2025-03-01",
		Duration:    "2h",
		Class:       class,
		Price:       priceOf(price),
		Username:    "alice",
	}
}

func mustUpsert(t *testing.T, s *BookingService, p auth.Principal, ticket, price string, class domain.FareClass) {
	t.Helper()
	_, err := s.UpsertBooking(context.Background(), p, UpsertInput{TicketID: ticket, Fields: fields(price, class)})
	require.NoError(t, err)
}

func mustBooking(t *testing.T, store repository.Store, ticket string) *domain.Booking {
	t.Helper()
	b, err := store.BookingByTicket(context.Background(), ticket)
	require.NoError(t, err)
	return b
}

func mustPayments(t *testing.T, store repository.Store, ticket string) []domain.Payment {
	t.Helper()
	payments, err := store.PaymentsByTicket(context.Background(), ticket)
	require.NoError(t, err)
	return payments
}

// faultyStore wraps a store and lets tests intercept transaction writes.
type faultyStore struct {
	repository.Store
	wrap func(repository.Tx) repository.Tx
}

func (f *faultyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return f.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, f.wrap(tx))
	})
}

// staleReadTx pretends the ticket does not exist yet, as a concurrent
// transaction that inserted it has not committed when the lookup ran.
type staleReadTx struct {
	repository.Tx
	hide bool
}

func (t *staleReadTx) BookingByTicketForUpdate(ctx context.Context, ticketID string) (*domain.Booking, error) {
	if t.hide {
		return nil, &domain.NotFoundError{Resource: "booking", Key: ticketID}
	}
	return t.Tx.BookingByTicketForUpdate(ctx, ticketID)
}

type failingPaymentTx struct {
	repository.Tx
	err error
}

func (t *failingPaymentTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	return t.err
}
