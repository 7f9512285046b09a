package booking

import (
	"context"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/idgen"
	"github.com/darshanhv296/Flight-Management-System/internal/kafka"
	"github.com/darshanhv296/Flight-Management-System/internal/metrics"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultAdminReason = "Cancelled by admin"
	defaultUserReason  = "cancelled by user"
)

type BookingUseCase interface {
	UpsertBooking(ctx context.Context, p auth.Principal, in UpsertInput) (*UpsertResult, error)
	CancelBooking(ctx context.Context, p auth.Principal, in CancelInput) (*CancelResult, error)
	RecordPayment(ctx context.Context, p auth.Principal, in PaymentInput) (*PaymentResult, error)

	Sanitize(ctx context.Context, p auth.Principal) (*SanitizeResult, error)
	DeleteAllBookings(ctx context.Context, p auth.Principal) (int64, error)
	ClearPayments(ctx context.Context, p auth.Principal) (int64, error)

	ListBookings(ctx context.Context, p auth.Principal) ([]domain.Booking, error)
	GetBooking(ctx context.Context, p auth.Principal, ticketID string) (*domain.Booking, error)
	ListPayments(ctx context.Context, p auth.Principal) ([]domain.Payment, error)
	ListUserPayments(ctx context.Context, p auth.Principal, userID string) ([]domain.Payment, error)
	TicketPayments(ctx context.Context, p auth.Principal, ticketID string) ([]domain.Payment, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type IDGenerator interface {
	NewTicketID() string
	NewPaymentID() string
}

type BookingService struct {
	store              repository.Store
	producer           Producer
	ids                IDGenerator
	log                logrus.FieldLogger
	now                func() time.Time
	bookingTopic       string
	notificationsTopic string
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLogger(log logrus.FieldLogger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func WithIDGenerator(ids IDGenerator) BookingServiceOption {
	return func(s *BookingService) {
		s.ids = ids
	}
}

func NewBookingService(store repository.Store, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		store: store,
		ids:   idgen.New(),
		log:   logrus.StandardLogger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	service.log = service.log.WithField("component", "booking_service")
	return service
}

func (s *BookingService) observe(op string, start time.Time, err *error) {
	metrics.BookingOperations.WithLabelValues(op, metrics.Outcome(*err)).Inc()
	metrics.BookingOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func defaultReason(role domain.Role) string {
	if role == domain.RoleAdmin {
		return defaultAdminReason
	}
	return defaultUserReason
}

// markCancelled flips a booking into the terminal state and keeps both reason
// columns in sync.
func markCancelled(b *domain.Booking, label string) {
	b.Status = domain.BookingStatusCancelled
	b.Cancelled = true
	b.Reason = label
	b.CancelReason = label
}

func (s *BookingService) newPayment(b *domain.Booking, amount decimal.Decimal, method domain.PaymentMethod, kind domain.PaymentKind) *domain.Payment {
	return &domain.Payment{
		PaymentID: s.ids.NewPaymentID(),
		TicketID:  b.TicketID,
		UserID:    b.UserID,
		FlightID:  b.FlightID,
		Amount:    amount,
		Method:    method,
		Kind:      kind,
		Status:    domain.PaymentStatusSuccess,
	}
}

// publish runs after commit. Failures are logged and never undo the transaction.
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, amount decimal.Decimal) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		TicketID:   b.TicketID,
		UserID:     b.UserID,
		Status:     string(b.Status),
		Amount:     amount,
		Reason:     b.DisplayReason(),
		OccurredAt: s.now().UTC(),
	}
	for _, topic := range []string{s.bookingTopic, s.notificationsTopic} {
		if topic == "" {
			continue
		}
		if err := s.producer.Publish(ctx, topic, b.TicketID, event); err != nil {
			metrics.EventsPublishFailed.WithLabelValues(topic).Inc()
			s.log.WithError(err).WithFields(logrus.Fields{
				"ticket_id": b.TicketID,
				"topic":     topic,
				"event":     eventType,
			}).Warn("failed to publish booking event")
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
