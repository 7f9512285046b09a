package api

import (
	"encoding/json"
	"net/http"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/darshanhv296/Flight-Management-System/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type flightSearchRequest struct {
	Source      string `json:"source" form:"source"`
	Destination string `json:"destination" form:"destination"`
	Date        string `json:"date" form:"date"`
}

type addFlightRequest struct {
	FlightID    string          `json:"flight_id"`
	FlightName  string          `json:"flight_name"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Price       json.RawMessage `json:"price"`
	Date        string          `json:"date"`
	Duration    string          `json:"duration"`
	AircraftID  string          `json:"aircraft_id"`
}

type flightResponse struct {
	FlightID    string          `json:"flight_id"`
	FlightName  string          `json:"flight_name"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Price       decimal.Decimal `json:"price"`
	Date        string          `json:"date"`
	Duration    string          `json:"duration"`
	AircraftID  string          `json:"aircraft_id,omitempty"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.add)
	router.GET("/search", h.search)
	router.POST("/search", h.search)
	router.GET("/:id", h.get)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	respondFlights(c, list, err)
}

// search reads the query string on GET and a JSON body on POST.
func (h *FlightHandler) search(c *gin.Context) {
	var req flightSearchRequest
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	list, err := h.service.Search(c.Request.Context(), repository.FlightQuery{
		Source:      req.Source,
		Destination: req.Destination,
		Date:        req.Date,
	})
	respondFlights(c, list, err)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(flight))
}

func (h *FlightHandler) add(c *gin.Context) {
	var req addFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if price == nil {
		RespondDomainError(c, domain.Missing("price"))
		return
	}

	flight, err := h.service.Add(c.Request.Context(), principal(c), domain.Flight{
		FlightID:    req.FlightID,
		FlightName:  req.FlightName,
		Source:      req.Source,
		Destination: req.Destination,
		Price:       *price,
		Date:        req.Date,
		Duration:    req.Duration,
		AircraftID:  req.AircraftID,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newFlightResponse(flight))
}

func respondFlights(c *gin.Context, list []domain.Flight, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	resp := make([]flightResponse, 0, len(list))
	for i := range list {
		resp = append(resp, newFlightResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func newFlightResponse(f *domain.Flight) flightResponse {
	return flightResponse{
		FlightID:    f.FlightID,
		FlightName:  f.FlightName,
		Source:      f.Source,
		Destination: f.Destination,
		Price:       f.Price,
		Date:        f.Date,
		Duration:    f.Duration,
		AircraftID:  f.AircraftID,
	}
}
