package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/middleware"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/chachabrian/hotelbook-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PaymentEventApplier interface {
	Apply(ctx context.Context, ev services.PaymentEvent) (*models.Booking, error)
}

// PaymentWebhook applies a verified payment provider event to its booking.
func PaymentWebhook(svc PaymentEventApplier, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if raw, ok := c.Get(middleware.RawBodyKey); ok {
			body, _ = raw.([]byte)
		} else {
			var err error
			if body, err = io.ReadAll(c.Request.Body); err != nil {
				respondError(c, log, fmt.Errorf("%w: unreadable body", apperr.ErrValidation))
				return
			}
		}

		ev, err := services.ParsePaymentEvent(body)
		if err != nil {
			respondError(c, log, err)
			return
		}
		if ev.Kind == services.EventIgnored {
			c.JSON(200, gin.H{"status": "ignored", "eventType": ev.Type})
			return
		}

		b, err := svc.Apply(c.Request.Context(), ev)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(200, gin.H{"bookingId": b.ID, "status": b.Status})
	}
}
