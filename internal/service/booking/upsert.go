package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/kafka"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// A lost insert race is retried once as an update.
const maxUpsertAttempts = 2

// BookingFields is the caller-editable content of a booking.
type BookingFields struct {
	FlightID    string
	FlightName  string
	Source      string
	Destination string
	Date        string
	Duration    string
	Class       domain.FareClass
	// Price is required; nil means the caller did not send one.
	Price     *decimal.Decimal
	Username  string
	Cancelled bool
	Reason    string
}

func (f BookingFields) validate() error {
	if strings.TrimSpace(f.FlightID) == "" {
		return domain.Missing("flight_id")
	}
	if f.Price == nil {
		return domain.Missing("price")
	}
	if f.Price.IsNegative() {
		return domain.Invalid("price", "must not be negative")
	}
	return nil
}

func (f BookingFields) itinerary() domain.Itinerary {
	class := f.Class
	if class == "" {
		class = domain.FareClassEconomy
	}
	var price decimal.Decimal
	if f.Price != nil {
		price = *f.Price
	}
	return domain.Itinerary{
		FlightID:    strings.TrimSpace(f.FlightID),
		FlightName:  f.FlightName,
		Source:      f.Source,
		Destination: f.Destination,
		Date:        f.Date,
		Duration:    f.Duration,
		Class:       class,
		Price:       price,
		Username:    f.Username,
	}
}

type UpsertInput struct {
	// TicketID is generated when empty.
	TicketID string
	// OwnerID names the owner of a new booking when the session carries no booking identity.
	OwnerID string
	Fields  BookingFields
}

type UpsertResult struct {
	TicketID string
	UserID   string
	Created  bool
	Status   domain.BookingStatus
}

func (s *BookingService) UpsertBooking(ctx context.Context, p auth.Principal, in UpsertInput) (res *UpsertResult, err error) {
	defer s.observe("upsert", time.Now(), &err)

	if err := p.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if err := in.Fields.validate(); err != nil {
		return nil, err
	}

	ticketID := strings.TrimSpace(in.TicketID)
	if ticketID == "" {
		ticketID = s.ids.NewTicketID()
	}
	log := s.log.WithFields(logrus.Fields{"ticket_id": ticketID, "role": p.Kind.String()})

	var (
		saved  *domain.Booking
		cancel *CancelResult
	)
	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		saved, cancel, res, err = s.upsertOnce(ctx, p, ticketID, in)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			break
		}
		log.WithField("attempt", attempt).Warn("lost insert race on ticket")
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"user_id": saved.UserID, "created": res.Created}).Info("booking saved")
	s.publish(ctx, kafka.EventBookingSaved, saved, saved.Price)
	if cancel != nil {
		s.reportCancelled(ctx, p, saved, cancel)
	}
	return res, nil
}

// upsertOnce inserts or updates the booking in one transaction. A cancelled
// flag on a live booking settles it exactly like CancelBooking. Ownership is
// fixed at insert.
func (s *BookingService) upsertOnce(ctx context.Context, p auth.Principal, ticketID string, in UpsertInput) (*domain.Booking, *CancelResult, *UpsertResult, error) {
	var (
		saved   *domain.Booking
		cancel  *CancelResult
		created bool
	)
	fields := in.Fields
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.BookingByTicketForUpdate(ctx, ticketID)
		if errors.Is(err, domain.ErrNotFound) {
			owner, err := p.ResolveOwner(in.OwnerID)
			if err != nil {
				return err
			}
			b := &domain.Booking{
				TicketID:  ticketID,
				UserID:    owner,
				Itinerary: fields.itinerary(),
				Status:    domain.BookingStatusConfirmed,
			}
			if err := tx.InsertBooking(ctx, b); err != nil {
				return err
			}
			if fields.Cancelled {
				if cancel, err = s.settleCancel(ctx, tx, p, b, fields.Reason, nil); err != nil {
					return err
				}
			}
			saved, created = b, true
			return nil
		}
		if err != nil {
			return err
		}

		if err := p.Authorize(existing.UserID); err != nil {
			return err
		}
		settled := existing.Price
		existing.Itinerary = fields.itinerary()
		switch {
		case existing.Cancelled || existing.Status == domain.BookingStatusCancelled:
			// Sticky. The settled price stays.
			existing.Price = settled
			if label := strings.TrimSpace(fields.Reason); fields.Cancelled && label != "" {
				markCancelled(existing, label)
			}
			existing.Status = domain.BookingStatusCancelled
			existing.Cancelled = true
		case fields.Cancelled:
			if cancel, err = s.settleCancel(ctx, tx, p, existing, fields.Reason, nil); err != nil {
				return err
			}
			saved = existing
			return nil
		}
		if err := tx.UpdateBooking(ctx, existing); err != nil {
			return err
		}
		saved = existing
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return saved, cancel, &UpsertResult{TicketID: saved.TicketID, UserID: saved.UserID, Created: created, Status: saved.Status}, nil
}

func reasonOrDefault(reason string, role domain.Role) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return defaultReason(role)
}
