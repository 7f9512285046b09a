package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/kafka"
	"github.com/darshanhv296/Flight-Management-System/internal/metrics"
	"github.com/darshanhv296/Flight-Management-System/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ParsePaymentMethod matches the known methods case-insensitively.
func ParsePaymentMethod(raw string) (domain.PaymentMethod, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.Missing("method")
	}
	for _, m := range []domain.PaymentMethod{
		domain.PaymentMethodUPI,
		domain.PaymentMethodCash,
		domain.PaymentMethodCard,
		domain.PaymentMethodNetBanking,
	} {
		if strings.EqualFold(raw, string(m)) {
			return m, nil
		}
	}
	return "", domain.Invalid("method", "must be one of UPI, Cash, Card, NetBanking")
}

type PaymentInput struct {
	TicketID string
	// Amount is the raw caller value; non-numeric and negative values count as zero.
	Amount  string
	Method  string
	OwnerID string
	// Cancel settles and cancels the booking along with the payment.
	Cancel bool
	// Details creates the booking when the ticket is unknown.
	Details *BookingFields
}

type PaymentResult struct {
	// PaymentID is empty when the effective amount was zero and no row was written.
	PaymentID string
	TicketID  string
	Amount    decimal.Decimal
	Status    domain.BookingStatus
	Created   bool
}

func (s *BookingService) RecordPayment(ctx context.Context, p auth.Principal, in PaymentInput) (res *PaymentResult, err error) {
	defer s.observe("record_payment", time.Now(), &err)

	if err := p.RequireAuthenticated(); err != nil {
		return nil, err
	}
	ticketID := strings.TrimSpace(in.TicketID)
	if ticketID == "" {
		return nil, domain.Missing("ticket_id")
	}
	if strings.TrimSpace(in.Amount) == "" {
		return nil, domain.Missing("amount")
	}
	method, err := ParsePaymentMethod(in.Method)
	if err != nil {
		return nil, err
	}
	effective := nonNegative(ParseAmount(in.Amount))

	var (
		paid    *domain.Booking
		created bool
		payment *domain.Payment
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.BookingByTicketForUpdate(ctx, ticketID)
		if errors.Is(err, domain.ErrNotFound) {
			if b, err = s.createForPayment(ctx, tx, p, ticketID, in, effective); err != nil {
				return err
			}
			created = true
		} else if err != nil {
			return err
		}

		if err := p.Authorize(b.UserID); err != nil {
			return err
		}
		if b.Cancelled || b.Status == domain.BookingStatusCancelled {
			return fmt.Errorf("pay for %s: %w", b.TicketID, domain.ErrAlreadyCancelled)
		}

		if in.Cancel {
			b.Price = Settle(p.Role(), b.Price, effective).Price
			markCancelled(b, defaultReason(p.Role()))
		} else {
			b.Status = domain.BookingStatusPaid
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}

		if effective.IsPositive() {
			payment = s.newPayment(b, effective, method, domain.PaymentKindPayment)
			if err := tx.InsertPayment(ctx, payment); err != nil {
				return err
			}
		}
		paid = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &PaymentResult{TicketID: paid.TicketID, Amount: effective, Status: paid.Status, Created: created}
	if payment != nil {
		res.PaymentID = payment.PaymentID
		metrics.PaymentsRecorded.WithLabelValues(string(method)).Inc()
	}
	s.log.WithFields(logrus.Fields{
		"ticket_id":  paid.TicketID,
		"user_id":    paid.UserID,
		"role":       p.Kind.String(),
		"amount":     effective.String(),
		"payment_id": res.PaymentID,
		"status":     string(paid.Status),
	}).Info("payment recorded")

	s.publish(ctx, kafka.EventPaymentRecorded, paid, effective)
	return res, nil
}

// createForPayment inserts the booking a payment refers to. The price falls
// back to the paid amount when the details carry none.
func (s *BookingService) createForPayment(ctx context.Context, tx repository.Tx, p auth.Principal, ticketID string, in PaymentInput, effective decimal.Decimal) (*domain.Booking, error) {
	if in.Details == nil {
		return nil, fmt.Errorf("pay for %s: %w", ticketID, domain.ErrBookingRequired)
	}
	owner, err := p.ResolveOwner(in.OwnerID)
	if err != nil {
		return nil, err
	}
	fields := *in.Details
	fields.Cancelled = false
	if fields.Price == nil {
		fields.Price = &effective
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}

	b := &domain.Booking{
		TicketID:  ticketID,
		UserID:    owner,
		Itinerary: fields.itinerary(),
		Status:    domain.BookingStatusConfirmed,
	}
	if err := tx.InsertBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
