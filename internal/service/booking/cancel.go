package booking

import (
	"context"
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

// BookingRef addresses a booking by ticket id or, when TicketID is empty, by internal id.
type BookingRef struct {
	TicketID string
	ID       int64
}

func (r BookingRef) String() string {
	if r.TicketID != "" {
		return r.TicketID
	}
	return fmt.Sprintf("#%d", r.ID)
}

func (r BookingRef) lock(ctx context.Context, tx repository.Tx) (*domain.Booking, error) {
	if r.TicketID != "" {
		return tx.BookingByTicketForUpdate(ctx, r.TicketID)
	}
	return tx.BookingByIDForUpdate(ctx, r.ID)
}

type CancelInput struct {
	Ref    BookingRef
	Reason string
	// Amount is an admin surcharge. Ignored for users.
	Amount *decimal.Decimal
}

type CancelResult struct {
	TicketID string
	// Refund is zero for admin cancellations.
	Refund decimal.Decimal
	// Charge is the admin surcharge that was recorded, if any.
	Charge decimal.Decimal
	Reason string
	Price  decimal.Decimal
}

func (s *BookingService) CancelBooking(ctx context.Context, p auth.Principal, in CancelInput) (res *CancelResult, err error) {
	defer s.observe("cancel", time.Now(), &err)

	if err := p.RequireAuthenticated(); err != nil {
		return nil, err
	}
	in.Ref.TicketID = strings.TrimSpace(in.Ref.TicketID)
	if in.Ref.TicketID == "" && in.Ref.ID <= 0 {
		return nil, domain.Missing("ticket_id")
	}

	var cancelled *domain.Booking
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := in.Ref.lock(ctx, tx)
		if err != nil {
			return err
		}
		if err := p.Authorize(b.UserID); err != nil {
			return err
		}
		if b.Cancelled || b.Status == domain.BookingStatusCancelled {
			return fmt.Errorf("cancel %s: %w", b.TicketID, domain.ErrAlreadyCancelled)
		}
		if res, err = s.settleCancel(ctx, tx, p, b, in.Reason, in.Amount); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reportCancelled(ctx, p, cancelled, res)
	return res, nil
}

// settleCancel cancels a live booking already locked by tx and appends its
// ledger entry. Users are refunded; admins may add a surcharge.
func (s *BookingService) settleCancel(ctx context.Context, tx repository.Tx, p auth.Principal, b *domain.Booking, reason string, surcharge *decimal.Decimal) (*CancelResult, error) {
	label := reasonOrDefault(reason, p.Role())
	markCancelled(b, label)

	res := &CancelResult{TicketID: b.TicketID, Reason: label, Refund: decimal.Zero, Charge: decimal.Zero}
	var (
		settlement Settlement
		kind       domain.PaymentKind
	)
	if p.IsAdmin() {
		amount := decimal.Zero
		if surcharge != nil {
			amount = *surcharge
		}
		settlement = Settle(domain.RoleAdmin, b.Price, amount)
		res.Charge = settlement.Entry
		kind = domain.PaymentKindCharge
	} else {
		res.Refund = Refund(b.Price, b.Class)
		settlement = Settle(domain.RoleUser, b.Price, res.Refund)
		kind = domain.PaymentKindRefund
	}
	b.Price = settlement.Price
	res.Price = b.Price

	if err := tx.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}
	if !settlement.Entry.IsZero() {
		if err := tx.InsertPayment(ctx, s.newPayment(b, settlement.Entry, domain.PaymentMethodCard, kind)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// reportCancelled runs after a cancellation commits.
func (s *BookingService) reportCancelled(ctx context.Context, p auth.Principal, b *domain.Booking, res *CancelResult) {
	if res.Refund.IsPositive() {
		metrics.RefundedAmount.Add(res.Refund.InexactFloat64())
	}
	s.log.WithFields(logrus.Fields{
		"ticket_id": res.TicketID,
		"user_id":   b.UserID,
		"role":      p.Kind.String(),
		"refund":    res.Refund.String(),
		"charge":    res.Charge.String(),
	}).Info("booking cancelled")

	amount := res.Refund.Neg()
	if p.IsAdmin() {
		amount = res.Charge
	}
	s.publish(ctx, kafka.EventBookingCancelled, b, amount)
}
