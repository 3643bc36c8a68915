package handlers

import (
	"fmt"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func paymentLanding(svc BookingService, log *logrus.Logger, message func(*models.Booking) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("bookingId")
		if id == "" {
			respondError(c, log, fmt.Errorf("%w: bookingId is required", apperr.ErrValidation))
			return
		}
		b, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(200, gin.H{
			"bookingId": b.ID,
			"status":    b.Status,
			"message":   message(b),
		})
	}
}

// PaymentSuccess is where the payer lands after approving at the provider.
func PaymentSuccess(svc BookingService, log *logrus.Logger) gin.HandlerFunc {
	return paymentLanding(svc, log, func(b *models.Booking) string {
		if b.Status == models.BookingStatusConfirmed {
			return "Payment received, your booking is confirmed"
		}
		return "Payment approved, waiting for confirmation"
	})
}

// PaymentCancel is where the payer lands after abandoning the payment.
func PaymentCancel(svc BookingService, log *logrus.Logger) gin.HandlerFunc {
	return paymentLanding(svc, log, func(*models.Booking) string {
		return "Payment was cancelled"
	})
}
