package flights

import (
	"context"
	"errors"
	"testing"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, flightID string) (*domain.Flight, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, q repository.FlightQuery) ([]domain.Flight, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newService(repo repository.FlightRepository, cache FlightCache) *FlightService {
	logger, _ := test.NewNullLogger()
	return NewFlightService(repo, cache, logger)
}

var catalogue = []domain.Flight{
	{
		FlightID:    "AI101",
		FlightName:  "Air India 101",
		Source:      "Delhi",
		Destination: "Mumbai",
		Price:       decimal.NewFromInt(4500),
		Date:        "2025-03-01",
		Duration:    "2h 10m",
		AircraftID:  "A320-1",
	},
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := newService(mockRepo, mockCache)
	ctx := context.Background()

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx).Return(catalogue, nil).Once()
	mockCache.On("SetFlights", ctx, catalogue).Return(nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, catalogue, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := newService(mockRepo, mockCache)
	ctx := context.Background()

	mockCache.On("GetFlights", ctx).Return(catalogue, nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, catalogue, result)
	mockRepo.AssertNotCalled(t, "List")
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_List_CacheErrorFallsBack(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := newService(mockRepo, mockCache)
	ctx := context.Background()

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), errors.New("redis down")).Once()
	mockRepo.On("List", ctx).Return(catalogue, nil).Once()
	mockCache.On("SetFlights", ctx, catalogue).Return(errors.New("redis down")).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, catalogue, result)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_NoCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := newService(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(catalogue, nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, catalogue, result)
}

func TestFlightService_List_RepositoryError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := newService(mockRepo, mockCache)
	ctx := context.Background()
	storageErr := &domain.StorageError{Op: "list flights", Err: errors.New("timeout")}

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx).Return(([]domain.Flight)(nil), storageErr).Once()

	_, err := service.List(ctx)

	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_GetByID(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := newService(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, "AI101").Return(&catalogue[0], nil).Once()
	mockRepo.On("GetByID", ctx, "XX").Return(nil, &domain.NotFoundError{Resource: "flight", Key: "XX"}).Once()

	f, err := service.GetByID(ctx, " AI101 ")
	assert.NoError(t, err)
	assert.Equal(t, "AI101", f.FlightID)

	_, err = service.GetByID(ctx, "XX")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFlightService_Search_TrimsQuery(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := newService(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("Search", ctx, repository.FlightQuery{Source: "Delhi", Destination: "Mumbai"}).Return(catalogue, nil).Once()

	result, err := service.Search(ctx, repository.FlightQuery{Source: " Delhi", Destination: "Mumbai "})
	assert.NoError(t, err)
	assert.Len(t, result, 1)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Add(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := newService(mockRepo, mockCache)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.MatchedBy(func(f *domain.Flight) bool { return f.FlightID == "AI202" })).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()

	f, err := service.Add(ctx, auth.Admin(""), domain.Flight{FlightID: " AI202 ", Source: "Pune", Destination: "Goa", Price: decimal.NewFromInt(3000)})

	assert.NoError(t, err)
	assert.Equal(t, "AI202", f.FlightID)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_Add_Rejects(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := newService(mockRepo, nil)
	ctx := context.Background()
	valid := domain.Flight{FlightID: "AI202", Source: "Pune", Destination: "Goa", Price: decimal.NewFromInt(1)}

	_, err := service.Add(ctx, auth.User("U001"), valid)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	negative := valid
	negative.Price = decimal.NewFromInt(-1)
	_, err = service.Add(ctx, auth.Admin(""), negative)
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	noSource := valid
	noSource.Source = ""
	_, err = service.Add(ctx, auth.Admin(""), noSource)
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	mockRepo.On("Create", ctx, mock.Anything).Return(domain.ErrConflict).Once()
	_, err = service.Add(ctx, auth.Admin(""), valid)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
