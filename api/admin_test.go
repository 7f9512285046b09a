package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminHandler_sanitize(t *testing.T) {
	bookings := &MockBookingUseCase{}
	handler := NewAdminHandler(bookings, &MockUserUseCase{})

	c, w := newTestContext(http.MethodPost, "/api/admin/sanitize-payments", nil, admin)
	bookings.On("Sanitize", mock.Anything, admin).Return(&booking.SanitizeResult{PaymentsFixed: 3, BookingsFixed: 1}, nil)

	handler.sanitize(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp sanitizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.PaymentsFixed)
	assert.Equal(t, int64(1), resp.BookingsFixed)
}

func TestAdminHandler_sanitize_forbidden(t *testing.T) {
	bookings := &MockBookingUseCase{}
	handler := NewAdminHandler(bookings, &MockUserUseCase{})

	c, w := newTestContext(http.MethodPost, "/api/admin/sanitize-payments", nil, alice)
	bookings.On("Sanitize", mock.Anything, alice).Return(nil, domain.ErrForbidden)

	handler.sanitize(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandler_deleteBookingsAndClearPayments(t *testing.T) {
	bookings := &MockBookingUseCase{}
	handler := NewAdminHandler(bookings, &MockUserUseCase{})

	bookings.On("DeleteAllBookings", mock.Anything, admin).Return(int64(4), nil)
	bookings.On("ClearPayments", mock.Anything, admin).Return(int64(7), nil)

	c, w := newTestContext(http.MethodDelete, "/api/admin/bookings", nil, admin)
	handler.deleteBookings(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":4}`, w.Body.String())

	c, w = newTestContext(http.MethodPost, "/api/admin/clear-payments", nil, admin)
	handler.clearPayments(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":7}`, w.Body.String())

	bookings.AssertExpectations(t)
}

func TestAdminHandler_users(t *testing.T) {
	usersService := &MockUserUseCase{}
	handler := NewAdminHandler(&MockBookingUseCase{}, usersService)

	usersService.On("List", mock.Anything, admin).Return([]domain.User{
		{UserID: "U001", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser, PasswordHash: "secret-hash"},
	}, nil)
	usersService.On("Delete", mock.Anything, admin, "U001").Return(nil)
	usersService.On("Delete", mock.Anything, admin, "U404").Return(&domain.NotFoundError{Resource: "user", Key: "U404"})

	c, w := newTestContext(http.MethodGet, "/api/admin/users", nil, admin)
	handler.listUsers(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")

	c, w = newTestContext(http.MethodDelete, "/api/admin/users/U001", nil, admin)
	c.Params = gin.Params{{Key: "userId", Value: "U001"}}
	handler.deleteUser(c)
	assert.Equal(t, http.StatusNoContent, w.Code)

	c, w = newTestContext(http.MethodDelete, "/api/admin/users/U404", nil, admin)
	c.Params = gin.Params{{Key: "userId", Value: "U404"}}
	handler.deleteUser(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	usersService.AssertExpectations(t)
}
