package services

import (
	"context"
	"time"

	"github.com/chachabrian/hotelbook-backend/internal/models"
)

// StatusUpdate is emitted whenever a booking changes status.
type StatusUpdate struct {
	BookingID string               `json:"bookingId"`
	Status    models.BookingStatus `json:"status"`
	Reason    string               `json:"reason,omitempty"`
	At        time.Time            `json:"at"`
}

// StatusPublisher fans a status update out to whoever is watching the booking.
// Publishing is best effort and never affects the stored status.
type StatusPublisher interface {
	Publish(ctx context.Context, update StatusUpdate)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, StatusUpdate) {}

func publisherOrNoop(p StatusPublisher) StatusPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
