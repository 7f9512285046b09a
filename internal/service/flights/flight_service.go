package flights

import (
	"context"
	"strings"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, flightID string) (*domain.Flight, error)
	Search(ctx context.Context, q repository.FlightQuery) ([]domain.Flight, error)
	Add(ctx context.Context, p auth.Principal, f domain.Flight) (*domain.Flight, error)
}

// FlightCache holds the full catalogue. A nil slice from GetFlights is a miss.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
	log   logrus.FieldLogger
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, log logrus.FieldLogger) *FlightService {
	return &FlightService{repo: repo, cache: cache, log: log.WithField("component", "flight_service")}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.WithError(err).Warn("flights cache read failed")
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.WithError(err).Warn("flights cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, flightID string) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(flightID))
}

func (s *FlightService) Search(ctx context.Context, q repository.FlightQuery) ([]domain.Flight, error) {
	q.Source = strings.TrimSpace(q.Source)
	q.Destination = strings.TrimSpace(q.Destination)
	q.Date = strings.TrimSpace(q.Date)
	return s.repo.Search(ctx, q)
}

// Add registers a flight and drops the cached catalogue.
func (s *FlightService) Add(ctx context.Context, p auth.Principal, f domain.Flight) (*domain.Flight, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	f.FlightID = strings.TrimSpace(f.FlightID)
	switch {
	case f.FlightID == "":
		return nil, domain.Missing("flight_id")
	case strings.TrimSpace(f.Source) == "":
		return nil, domain.Missing("source")
	case strings.TrimSpace(f.Destination) == "":
		return nil, domain.Missing("destination")
	case f.Price.IsNegative():
		return nil, domain.Invalid("price", "must not be negative")
	}

	if err := s.repo.Create(ctx, &f); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.WithError(err).Warn("flights cache invalidation failed")
		}
	}
	s.log.WithField("flight_id", f.FlightID).Info("flight added")
	return &f, nil
}

var _ FlightUseCase = (*FlightService)(nil)
