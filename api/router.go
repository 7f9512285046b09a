package api

import (
	"context"
	"net/http"

	"github.com/darshanhv296/Flight-Management-System/internal/service/booking"
	"github.com/darshanhv296/Flight-Management-System/internal/service/flights"
	"github.com/darshanhv296/Flight-Management-System/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	Bookings booking.BookingUseCase
	Flights  flights.FlightUseCase
	Users    users.UserUseCase
	Sessions SessionParser
	// Idempotency may be nil, which disables Idempotency-Key replay.
	Idempotency    IdempotencyStore
	AllowedOrigins []string
	Log            logrus.FieldLogger
	// Health reports readiness of the backing store. Nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestID(),
		Logger(deps.Log),
		Metrics(),
		CORS(deps.AllowedOrigins),
	)

	router.GET("/healthz", healthz(deps.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var idempotency gin.HandlerFunc
	if deps.Idempotency != nil {
		idempotency = Idempotency(deps.Idempotency, deps.Log)
	}

	apiGroup := router.Group("/api", Authenticate(deps.Sessions))
	NewBookingHandler(deps.Bookings).Register(apiGroup.Group("/bookings"))
	NewPaymentHandler(deps.Bookings, idempotency).Register(apiGroup.Group("/payments"))
	NewAdminHandler(deps.Bookings, deps.Users).Register(apiGroup.Group("/admin"))
	NewFlightHandler(deps.Flights).Register(apiGroup.Group("/flights"))
	NewUserHandler(deps.Users).Register(apiGroup.Group("/users"))

	return router
}

func healthz(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
