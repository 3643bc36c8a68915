package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/chachabrian/hotelbook-backend/internal/providers/notify"
	"github.com/sirupsen/logrus"
)

type Contact struct {
	Email string
	Phone string
}

type Receipt struct {
	Channel   notify.Kind `json:"channel"`
	Provider  string      `json:"provider"`
	Recipient string      `json:"recipient"`
	MessageID string      `json:"messageId,omitempty"`
}

const defaultSendTimeout = 30 * time.Second

// NotificationService sends the booking summary over email or SMS.
type NotificationService struct {
	store   BookingStore
	email   notify.Channel
	sms     notify.Channel
	timeout time.Duration
	log     *logrus.Logger
}

// NewNotificationService bounds every channel send by timeout, or by a default when it is not positive.
func NewNotificationService(store BookingStore, email, sms notify.Channel, timeout time.Duration, log *logrus.Logger) *NotificationService {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &NotificationService{store: store, email: email, sms: sms, timeout: timeout, log: log}
}

// Notify sends the summary for bookingID. An email in c wins over a phone; with
// neither, the contact stored on the booking is used. Status is never changed here.
func (s *NotificationService) Notify(ctx context.Context, bookingID string, c Contact) (Receipt, error) {
	b, err := s.store.ByID(ctx, bookingID)
	if err != nil {
		return Receipt{}, err
	}

	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	supplied := c.Email != "" || c.Phone != ""
	if !supplied {
		c = Contact{Email: b.PayerEmail, Phone: b.PayerPhone}
	}

	var (
		channel notify.Channel
		msg     notify.Message
		kind    notify.Kind
	)
	switch {
	case c.Email != "":
		addr, err := mail.ParseAddress(c.Email)
		if err != nil {
			return Receipt{}, fmt.Errorf("%w: email address is invalid", apperr.ErrValidation)
		}
		c.Email, c.Phone = addr.Address, ""
		kind, channel, msg = notify.KindEmail, s.email, notify.RenderEmail(b, addr.Address)
	case c.Phone != "":
		kind, channel, msg = notify.KindSMS, s.sms, notify.RenderSMS(b, c.Phone)
	default:
		return Receipt{}, fmt.Errorf("%w: email or phone is required", apperr.ErrValidation)
	}
	if channel == nil {
		return Receipt{}, fmt.Errorf("%w: no %s channel configured", apperr.ErrDelivery, kind)
	}

	log := s.log.WithFields(logrus.Fields{"bookingId": b.ID, "channel": kind, "provider": channel.Provider()})
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	messageID, err := channel.Send(sendCtx, msg)
	cancel()
	if err != nil {
		log.WithError(err).Error("notification delivery failed")
		return Receipt{}, fmt.Errorf("%w: %s: %w", apperr.ErrDelivery, channel.Provider(), err)
	}
	log.WithField("messageId", messageID).Info("notification sent")

	if supplied && contactChanged(b, c) {
		if err := s.store.UpdateContact(ctx, b.ID, c.Email, c.Phone); err != nil {
			log.WithError(err).Warn("failed to persist contact")
		}
	}

	return Receipt{Channel: kind, Provider: channel.Provider(), Recipient: msg.To, MessageID: messageID}, nil
}

func contactChanged(b *models.Booking, c Contact) bool {
	return (c.Email != "" && c.Email != b.PayerEmail) || (c.Phone != "" && c.Phone != b.PayerPhone)
}
