package booking

import (
	"context"
	"strings"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/sirupsen/logrus"
)

type SanitizeResult struct {
	PaymentsFixed int64
	BookingsFixed int64
}

// Sanitize clamps negative payment amounts and booking prices to zero.
func (s *BookingService) Sanitize(ctx context.Context, p auth.Principal) (res *SanitizeResult, err error) {
	defer s.observe("sanitize", time.Now(), &err)

	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	res = &SanitizeResult{}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if res.PaymentsFixed, err = tx.ClampNegativePayments(ctx); err != nil {
			return err
		}
		res.BookingsFixed, err = tx.ClampNegativePrices(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"payments_fixed": res.PaymentsFixed,
		"bookings_fixed": res.BookingsFixed,
	}).Info("ledger sanitized")
	return res, nil
}

// DeleteAllBookings removes every booking. Their payments go with them.
func (s *BookingService) DeleteAllBookings(ctx context.Context, p auth.Principal) (n int64, err error) {
	defer s.observe("delete_all_bookings", time.Now(), &err)

	if err := p.RequireAdmin(); err != nil {
		return 0, err
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		n, err = tx.DeleteAllBookings(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.WithField("deleted", n).Warn("all bookings deleted")
	return n, nil
}

func (s *BookingService) ClearPayments(ctx context.Context, p auth.Principal) (n int64, err error) {
	defer s.observe("clear_payments", time.Now(), &err)

	if err := p.RequireAdmin(); err != nil {
		return 0, err
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		n, err = tx.DeleteAllPayments(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.WithField("deleted", n).Warn("all payments cleared")
	return n, nil
}

// ListBookings returns every booking to admins and the caller's own to users.
func (s *BookingService) ListBookings(ctx context.Context, p auth.Principal) ([]domain.Booking, error) {
	if err := p.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		return s.store.ListBookings(ctx)
	}
	return s.store.ListBookingsByUser(ctx, p.UserID)
}

func (s *BookingService) GetBooking(ctx context.Context, p auth.Principal, ticketID string) (*domain.Booking, error) {
	if err := p.RequireAuthenticated(); err != nil {
		return nil, err
	}
	b, err := s.store.BookingByTicket(ctx, strings.TrimSpace(ticketID))
	if err != nil {
		return nil, err
	}
	if err := p.Authorize(b.UserID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingService) ListPayments(ctx context.Context, p auth.Principal) ([]domain.Payment, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx)
}

func (s *BookingService) ListUserPayments(ctx context.Context, p auth.Principal, userID string) ([]domain.Payment, error) {
	if err := p.Authorize(userID); err != nil {
		return nil, err
	}
	return s.store.PaymentsByUser(ctx, userID)
}

func (s *BookingService) TicketPayments(ctx context.Context, p auth.Principal, ticketID string) ([]domain.Payment, error) {
	if _, err := s.GetBooking(ctx, p, ticketID); err != nil {
		return nil, err
	}
	return s.store.PaymentsByTicket(ctx, strings.TrimSpace(ticketID))
}
