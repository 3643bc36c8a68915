package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Notify(ctx context.Context, bookingID string, c services.Contact) (services.Receipt, error)
}

// NotifyBooking sends the booking summary to the given email or phone.
func NotifyBooking(svc Notifier, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email string `json:"email"`
			Phone string `json:"phone"`
		}
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, log, fmt.Errorf("%w: body must be a JSON object", apperr.ErrValidation))
			return
		}

		rec, err := svc.Notify(c.Request.Context(), c.Param("bookingId"), services.Contact{Email: input.Email, Phone: input.Phone})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(200, gin.H{
			"message":   "Notification sent",
			"channel":   rec.Channel,
			"provider":  rec.Provider,
			"recipient": rec.Recipient,
			"messageId": rec.MessageID,
		})
	}
}
