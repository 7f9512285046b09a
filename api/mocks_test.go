package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/darshanhv296/Flight-Management-System/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) UpsertBooking(ctx context.Context, p auth.Principal, in booking.UpsertInput) (*booking.UpsertResult, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.UpsertResult), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, p auth.Principal, in booking.CancelInput) (*booking.CancelResult, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *MockBookingUseCase) RecordPayment(ctx context.Context, p auth.Principal, in booking.PaymentInput) (*booking.PaymentResult, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.PaymentResult), args.Error(1)
}

func (m *MockBookingUseCase) Sanitize(ctx context.Context, p auth.Principal) (*booking.SanitizeResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.SanitizeResult), args.Error(1)
}

func (m *MockBookingUseCase) DeleteAllBookings(ctx context.Context, p auth.Principal) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingUseCase) ClearPayments(ctx context.Context, p auth.Principal) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, p auth.Principal) ([]domain.Booking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, p auth.Principal, ticketID string) (*domain.Booking, error) {
	args := m.Called(ctx, p, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListPayments(ctx context.Context, p auth.Principal) ([]domain.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockBookingUseCase) ListUserPayments(ctx context.Context, p auth.Principal, userID string) ([]domain.Payment, error) {
	args := m.Called(ctx, p, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockBookingUseCase) TicketPayments(ctx context.Context, p auth.Principal, ticketID string) ([]domain.Payment, error) {
	args := m.Called(ctx, p, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Search(ctx context.Context, q repository.FlightQuery) ([]domain.Flight, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Add(ctx context.Context, p auth.Principal, f domain.Flight) (*domain.Flight, error) {
	args := m.Called(ctx, p, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

// MockUserUseCase is a mock implementation of users.UserUseCase
type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) Register(ctx context.Context, in users.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) Login(ctx context.Context, login, password string) (*users.LoginResult, error) {
	args := m.Called(ctx, login, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.LoginResult), args.Error(1)
}

func (m *MockUserUseCase) List(ctx context.Context, p auth.Principal) ([]domain.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUseCase) Delete(ctx context.Context, p auth.Principal, userID string) error {
	args := m.Called(ctx, p, userID)
	return args.Error(0)
}

var (
	admin = auth.Admin("A1")
	alice = auth.User("U001")
	guest = auth.Anonymous
)

// newTestContext builds a gin context whose request carries p and an optional JSON body.
func newTestContext(method, target string, body interface{}, p auth.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		payload, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req.WithContext(auth.WithPrincipal(req.Context(), p))
	return c, w
}

func decodeError(w *httptest.ResponseRecorder) errorResponse {
	var resp errorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}
