// Package notify tells users about changes to their bookings.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/darshanhv296/Flight-Management-System/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type UserLookup interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
}

// Message is what would be handed to a mail gateway.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. The default sender only logs them.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Notifier struct {
	users  UserLookup
	sender Sender
	log    logrus.FieldLogger
}

func NewNotifier(users UserLookup, sender Sender, log logrus.FieldLogger) *Notifier {
	log = log.WithField("component", "notifier")
	if sender == nil {
		sender = LogSender{log: log}
	}
	return &Notifier{users: users, sender: sender, log: log}
}

// Notify addresses the booking owner. Events for unknown users are dropped.
func (n *Notifier) Notify(ctx context.Context, event kafka.BookingEvent) error {
	user, err := n.users.GetByID(ctx, event.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		n.log.WithFields(logrus.Fields{"user_id": event.UserID, "ticket_id": event.TicketID}).Warn("no recipient for event")
		return nil
	}
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Compose(event, user.Email))
}

// Handle is a kafka consumer handler. Undecodable messages are skipped.
func (n *Notifier) Handle(ctx context.Context, msg kafkago.Message) error {
	event, err := kafka.DecodeEvent(msg)
	if err != nil {
		n.log.WithError(err).Warn("skipping malformed event")
		return nil
	}
	return n.Notify(ctx, event)
}

func Compose(event kafka.BookingEvent, to string) Message {
	msg := Message{To: to}
	switch event.Type {
	case kafka.EventBookingCancelled:
		msg.Subject = fmt.Sprintf("Booking %s cancelled", event.TicketID)
		msg.Body = fmt.Sprintf("Your booking %s was cancelled (%s).", event.TicketID, event.Reason)
		if event.Amount.IsNegative() {
			msg.Body += fmt.Sprintf(" A refund of %s has been issued.", event.Amount.Neg().StringFixed(2))
		} else if event.Amount.IsPositive() {
			msg.Body += fmt.Sprintf(" A cancellation charge of %s was recorded.", event.Amount.StringFixed(2))
		}
	case kafka.EventPaymentRecorded:
		msg.Subject = fmt.Sprintf("Payment received for %s", event.TicketID)
		msg.Body = fmt.Sprintf("We recorded a payment of %s for booking %s. Status: %s.", event.Amount.StringFixed(2), event.TicketID, event.Status)
	default:
		msg.Subject = fmt.Sprintf("Booking %s updated", event.TicketID)
		msg.Body = fmt.Sprintf("Your booking %s is now %s.", event.TicketID, event.Status)
	}
	return msg
}

type LogSender struct {
	log logrus.FieldLogger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	s.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("notification sent")
	return nil
}
