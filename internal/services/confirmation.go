package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/chachabrian/hotelbook-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type EventKind string

const (
	EventApproved EventKind = "approved"
	EventDenied   EventKind = "denied"
	EventIgnored  EventKind = "ignored"
)

// PaymentEvent is a webhook delivery reduced to what the booking lifecycle needs.
type PaymentEvent struct {
	Kind      EventKind
	Type      string
	BookingID string
	EventID   string
	Amount    *decimal.Decimal
}

type paypalAmount struct {
	Value string `json:"value"`
}

type paypalResource struct {
	ID            string       `json:"id"`
	CustomID      string       `json:"custom_id"`
	Amount        paypalAmount `json:"amount"`
	PurchaseUnits []struct {
		ReferenceID string       `json:"reference_id"`
		CustomID    string       `json:"custom_id"`
		Amount      paypalAmount `json:"amount"`
	} `json:"purchase_units"`
}

type webhookPayload struct {
	// direct form
	BookingID string          `json:"bookingId"`
	EventID   string          `json:"eventId"`
	Total     json.RawMessage `json:"amount"`

	// PayPal event form
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  *paypalResource `json:"resource"`
}

var paypalEventKinds = map[string]EventKind{
	"CHECKOUT.ORDER.APPROVED":   EventApproved,
	"CHECKOUT.ORDER.COMPLETED":  EventApproved,
	"PAYMENT.CAPTURE.COMPLETED": EventApproved,
	"PAYMENT.CAPTURE.DENIED":    EventDenied,
	"CHECKOUT.ORDER.VOIDED":     EventDenied,
}

// ParsePaymentEvent accepts either {"bookingId": ...} or a PayPal webhook event.
// PayPal events carry the booking id in custom_id, falling back to reference_id.
func ParsePaymentEvent(body []byte) (PaymentEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: body must be a JSON object", apperr.ErrValidation)
	}

	if p.EventType == "" {
		ev := PaymentEvent{Kind: EventApproved, BookingID: strings.TrimSpace(p.BookingID), EventID: p.EventID}
		if ev.BookingID == "" {
			return PaymentEvent{}, fmt.Errorf("%w: bookingId is required", apperr.ErrValidation)
		}
		if len(p.Total) > 0 && string(p.Total) != "null" {
			amt, err := decimal.NewFromString(strings.Trim(string(p.Total), `"`))
			if err != nil {
				return PaymentEvent{}, fmt.Errorf("%w: amount must be a number", apperr.ErrValidation)
			}
			ev.Amount = &amt
		}
		return ev, nil
	}

	kind, ok := paypalEventKinds[p.EventType]
	if !ok {
		return PaymentEvent{Kind: EventIgnored, Type: p.EventType, EventID: p.ID}, nil
	}
	if p.Resource == nil {
		return PaymentEvent{}, fmt.Errorf("%w: event has no resource", apperr.ErrValidation)
	}

	ev := PaymentEvent{Kind: kind, Type: p.EventType, EventID: p.ID}
	value := p.Resource.Amount.Value
	ev.BookingID = p.Resource.CustomID
	if len(p.Resource.PurchaseUnits) > 0 {
		pu := p.Resource.PurchaseUnits[0]
		if ev.BookingID == "" {
			ev.BookingID = pu.CustomID
		}
		if ev.BookingID == "" {
			ev.BookingID = pu.ReferenceID
		}
		if value == "" {
			value = pu.Amount.Value
		}
	}
	if ev.BookingID == "" {
		return PaymentEvent{}, fmt.Errorf("%w: event does not reference a booking", apperr.ErrValidation)
	}
	if value != "" {
		amt, err := decimal.NewFromString(value)
		if err != nil {
			return PaymentEvent{}, fmt.Errorf("%w: amount must be a number", apperr.ErrValidation)
		}
		ev.Amount = &amt
	}
	return ev, nil
}

// ConfirmationService applies payment provider events to bookings.
type ConfirmationService struct {
	store     BookingStore
	publisher StatusPublisher
	provider  string
	log       *logrus.Logger
}

func NewConfirmationService(store BookingStore, publisher StatusPublisher, provider string, log *logrus.Logger) *ConfirmationService {
	return &ConfirmationService{store: store, publisher: publisherOrNoop(publisher), provider: provider, log: log}
}

// Apply moves the booking according to ev and returns its resulting state.
// Ignored events return nil without touching the store.
func (s *ConfirmationService) Apply(ctx context.Context, ev PaymentEvent) (*models.Booking, error) {
	switch ev.Kind {
	case EventApproved:
		return s.Confirm(ctx, ev)
	case EventDenied:
		return s.deny(ctx, ev)
	default:
		s.log.WithFields(logrus.Fields{"eventId": ev.EventID, "eventType": ev.Type}).Info("ignoring payment event")
		return nil, nil
	}
}

// Confirm transitions a pending booking to confirmed. Repeating it is a no-op.
func (s *ConfirmationService) Confirm(ctx context.Context, ev PaymentEvent) (*models.Booking, error) {
	if strings.TrimSpace(ev.BookingID) == "" {
		return nil, fmt.Errorf("%w: bookingId is required", apperr.ErrValidation)
	}

	b, changed, err := s.store.Confirm(ctx, repository.ConfirmInput{
		BookingID: ev.BookingID,
		EventID:   ev.EventID,
		Provider:  s.provider,
		Amount:    ev.Amount,
	})
	log := s.log.WithFields(logrus.Fields{"bookingId": ev.BookingID, "eventId": ev.EventID})
	if err != nil {
		log.WithError(err).Warn("booking confirmation rejected")
		return nil, err
	}
	if changed {
		log.Info("booking confirmed")
		s.publisher.Publish(ctx, StatusUpdate{BookingID: b.ID, Status: b.Status, At: time.Now().UTC()})
	} else {
		log.WithField("status", b.Status).Debug("confirmation already applied")
	}
	return b, nil
}

// deny moves the booking to failed. A redelivered or repeated denial returns the
// failed booking without publishing again.
func (s *ConfirmationService) deny(ctx context.Context, ev PaymentEvent) (*models.Booking, error) {
	reason := "payment denied by provider"
	if ev.Type != "" {
		reason = "payment provider event " + ev.Type
	}
	b, changed, err := s.store.Fail(ctx, repository.FailInput{
		BookingID: ev.BookingID,
		EventID:   ev.EventID,
		Provider:  s.provider,
		Reason:    reason,
	})
	log := s.log.WithFields(logrus.Fields{"bookingId": ev.BookingID, "eventId": ev.EventID, "eventType": ev.Type})
	if err != nil {
		log.WithError(err).Warn("payment denial rejected")
		return nil, err
	}
	if !changed {
		log.Debug("denial already applied")
		return b, nil
	}
	log.Warn("booking payment denied")
	s.publisher.Publish(ctx, StatusUpdate{BookingID: b.ID, Status: b.Status, Reason: b.FailureReason, At: time.Now().UTC()})
	return b, nil
}
