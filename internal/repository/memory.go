package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/idgen"
	"github.com/shopspring/decimal"
)

// Memory keeps every table in process memory. Transactions are serialized
// behind one mutex and run on a copy of the state that replaces the live
// state only on commit.
type Memory struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

type memState struct {
	nextID   int64
	bookings map[string]domain.Booking
	payments []domain.Payment
	flights  map[string]domain.Flight
	users    map[string]domain.User
}

func NewMemory() *Memory {
	return &Memory{
		state: &memState{
			bookings: make(map[string]domain.Booking),
			flights:  make(map[string]domain.Flight),
			users:    make(map[string]domain.User),
		},
		now: time.Now,
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:   s.nextID,
		bookings: make(map[string]domain.Booking, len(s.bookings)),
		payments: append([]domain.Payment(nil), s.payments...),
		flights:  make(map[string]domain.Flight, len(s.flights)),
		users:    make(map[string]domain.User, len(s.users)),
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.flights {
		c.flights[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "begin tx", Err: err}
	}
	work := m.state.clone()
	if err := fn(ctx, &memTx{state: work, now: m.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "commit tx", Err: err}
	}
	m.state = work
	return nil
}

func (m *Memory) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return m.bookings(func(domain.Booking) bool { return true }), nil
}

func (m *Memory) ListBookingsByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return m.bookings(func(b domain.Booking) bool { return b.UserID == userID }), nil
}

func (m *Memory) BookingByTicket(ctx context.Context, ticketID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.state.bookings[ticketID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "booking", Key: ticketID}
	}
	return &b, nil
}

func (m *Memory) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	return m.payments(func(domain.Payment) bool { return true }), nil
}

func (m *Memory) PaymentsByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	return m.payments(func(p domain.Payment) bool { return p.UserID == userID }), nil
}

func (m *Memory) PaymentsByTicket(ctx context.Context, ticketID string) ([]domain.Payment, error) {
	return m.payments(func(p domain.Payment) bool { return p.TicketID == ticketID }), nil
}

func (m *Memory) bookings(keep func(domain.Booking) bool) []domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Booking, 0, len(m.state.bookings))
	for _, b := range m.state.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) payments(keep func(domain.Payment) bool) []domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Payment, 0, len(m.state.payments))
	for _, p := range m.state.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

type memTx struct {
	state *memState
	now   func() time.Time
}

func (t *memTx) BookingByTicketForUpdate(ctx context.Context, ticketID string) (*domain.Booking, error) {
	b, ok := t.state.bookings[ticketID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "booking", Key: ticketID}
	}
	return &b, nil
}

func (t *memTx) BookingByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	for _, b := range t.state.bookings {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "booking", Key: strconv.FormatInt(id, 10)}
}

func (t *memTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	if _, ok := t.state.bookings[b.TicketID]; ok {
		return &uniqueError{table: "bookings", key: b.TicketID}
	}
	t.state.nextID++
	now := t.now()
	b.ID = t.state.nextID
	b.CreatedAt = now
	b.UpdatedAt = now
	t.state.bookings[b.TicketID] = *b
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	cur, ok := t.state.bookings[b.TicketID]
	if !ok {
		return &domain.NotFoundError{Resource: "booking", Key: b.TicketID}
	}
	b.ID = cur.ID
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = t.now()
	t.state.bookings[b.TicketID] = *b
	return nil
}

func (t *memTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	if _, ok := t.state.bookings[p.TicketID]; !ok {
		return &domain.StorageError{Op: "insert payment", Err: fmt.Errorf("ticket %s does not exist", p.TicketID)}
	}
	for _, existing := range t.state.payments {
		if existing.PaymentID == p.PaymentID {
			return &uniqueError{table: "payments", key: p.PaymentID}
		}
	}
	p.Kind = paymentKind(p.Kind)
	p.CreatedAt = t.now()
	t.state.payments = append(t.state.payments, *p)
	return nil
}

func (t *memTx) ClampNegativePayments(ctx context.Context) (int64, error) {
	var n int64
	for i := range t.state.payments {
		if t.state.payments[i].Clampable() {
			t.state.payments[i].Amount = decimal.Zero
			n++
		}
	}
	return n, nil
}

func (t *memTx) ClampNegativePrices(ctx context.Context) (int64, error) {
	var n int64
	for k, b := range t.state.bookings {
		if b.Price.IsNegative() {
			b.Price = decimal.Zero
			b.UpdatedAt = t.now()
			t.state.bookings[k] = b
			n++
		}
	}
	return n, nil
}

func (t *memTx) DeleteAllBookings(ctx context.Context) (int64, error) {
	n := int64(len(t.state.bookings))
	t.state.bookings = make(map[string]domain.Booking)
	t.state.payments = nil
	return n, nil
}

func (t *memTx) DeleteAllPayments(ctx context.Context) (int64, error) {
	n := int64(len(t.state.payments))
	t.state.payments = nil
	return n, nil
}

// uniqueError mirrors a constraint violation of the relational schema.
type uniqueError struct {
	table string
	key   string
}

func (e *uniqueError) Error() string {
	return fmt.Sprintf("duplicate key %s in %s", e.key, e.table)
}

func (e *uniqueError) Is(target error) bool { return target == domain.ErrConflict }

// Flights

func (m *Memory) Flights() FlightRepository { return memFlights{m} }

type memFlights struct{ m *Memory }

func (r memFlights) List(ctx context.Context) ([]domain.Flight, error) {
	return r.Search(ctx, FlightQuery{})
}

func (r memFlights) GetByID(ctx context.Context, flightID string) (*domain.Flight, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.state.flights[flightID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "flight", Key: flightID}
	}
	return &f, nil
}

func (r memFlights) Search(ctx context.Context, q FlightQuery) ([]domain.Flight, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]domain.Flight, 0, len(r.m.state.flights))
	for _, f := range r.m.state.flights {
		if q.Source != "" && !strings.EqualFold(f.Source, q.Source) {
			continue
		}
		if q.Destination != "" && !strings.EqualFold(f.Destination, q.Destination) {
			continue
		}
		if q.Date != "" && f.Date != q.Date {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].FlightID < out[j].FlightID
	})
	return out, nil
}

func (r memFlights) Create(ctx context.Context, f *domain.Flight) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.flights[f.FlightID]; ok {
		return &uniqueError{table: "flights", key: f.FlightID}
	}
	f.CreatedAt = r.m.now()
	r.m.state.flights[f.FlightID] = *f
	return nil
}

// Users

func (m *Memory) Users() UserRepository { return memUsers{m} }

type memUsers struct{ m *Memory }

func (r memUsers) LastUserID(ctx context.Context) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	last := ""
	for id := range r.m.state.users {
		if !idgen.IsUserID(id) {
			continue
		}
		if len(id) > len(last) || (len(id) == len(last) && id > last) {
			last = id
		}
	}
	return last, nil
}

func (r memUsers) Create(ctx context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.users[u.UserID]; ok {
		return ErrUserIDTaken
	}
	for _, existing := range r.m.state.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return &uniqueError{table: "users", key: u.Username}
		}
	}
	u.CreatedAt = r.m.now()
	r.m.state.users[u.UserID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.state.users[userID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "user", Key: userID}
	}
	return &u, nil
}

func (r memUsers) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.state.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return &u, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "user", Key: login}
}

func (r memUsers) List(ctx context.Context) ([]domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]domain.User, 0, len(r.m.state.users))
	for _, u := range r.m.state.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].UserID) != len(out[j].UserID) {
			return len(out[i].UserID) < len(out[j].UserID)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r memUsers) Delete(ctx context.Context, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	st := r.m.state
	if _, ok := st.users[userID]; !ok {
		return &domain.NotFoundError{Resource: "user", Key: userID}
	}
	removed := make(map[string]bool)
	for k, b := range st.bookings {
		if b.UserID == userID {
			removed[k] = true
			delete(st.bookings, k)
		}
	}
	kept := st.payments[:0]
	for _, p := range st.payments {
		if !removed[p.TicketID] && p.UserID != userID {
			kept = append(kept, p)
		}
	}
	st.payments = kept
	delete(st.users, userID)
	return nil
}

var (
	_ Store            = (*Memory)(nil)
	_ Tx               = (*memTx)(nil)
	_ FlightRepository = memFlights{}
	_ UserRepository   = memUsers{}
)
