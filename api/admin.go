package api

import (
	"net/http"

	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/darshanhv296/Flight-Management-System/internal/service/users"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves ledger maintenance and account administration.
// Every route requires an admin session; the services enforce it.
type AdminHandler struct {
	bookings booking.BookingUseCase
	users    users.UserUseCase
}

type sanitizeResponse struct {
	PaymentsFixed int64 `json:"payments_fixed"`
	BookingsFixed int64 `json:"bookings_fixed"`
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

func NewAdminHandler(bookings booking.BookingUseCase, users users.UserUseCase) *AdminHandler {
	return &AdminHandler{bookings: bookings, users: users}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/sanitize-payments", h.sanitize)
	router.DELETE("/bookings", h.deleteBookings)
	router.POST("/clear-payments", h.clearPayments)
	router.GET("/users", h.listUsers)
	router.DELETE("/users/:userId", h.deleteUser)
}

func (h *AdminHandler) sanitize(c *gin.Context) {
	res, err := h.bookings.Sanitize(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sanitizeResponse{PaymentsFixed: res.PaymentsFixed, BookingsFixed: res.BookingsFixed})
}

func (h *AdminHandler) deleteBookings(c *gin.Context) {
	n, err := h.bookings.DeleteAllBookings(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func (h *AdminHandler) clearPayments(c *gin.Context) {
	n, err := h.bookings.ClearPayments(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	resp := make([]userResponse, 0, len(list))
	for i := range list {
		resp = append(resp, newUserResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), principal(c), c.Param("userId")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
	c.Writer.WriteHeaderNow()
}
