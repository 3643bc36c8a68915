package handlers

import (
	"github.com/chachabrian/hotelbook-backend/internal/middleware"
	"github.com/chachabrian/hotelbook-backend/internal/providers/inventory"
	"github.com/chachabrian/hotelbook-backend/internal/services"
	"github.com/chachabrian/hotelbook-backend/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Inventory     inventory.Gateway
	Bookings      BookingService
	Confirmations PaymentEventApplier
	Notifier      Notifier
	Verifier      webhook.Verifier
	Hub           *services.Hub
	Checks        map[string]HealthCheck
	Log           *logrus.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", Health(d.Checks))
	r.GET("/hotels", ListHotels(d.Inventory, d.Log))

	bookings := r.Group("/bookings")
	{
		bookings.POST("", CreateBooking(d.Bookings, d.Log))
		bookings.GET("/:id", GetBooking(d.Bookings, d.Log))
		if d.Hub != nil {
			bookings.GET("/:id/ws", BookingStatusStream(d.Bookings, d.Hub, d.Log))
		}
	}

	r.POST("/payments/webhook/paypal", middleware.WebhookSignature(d.Verifier, d.Log), PaymentWebhook(d.Confirmations, d.Log))
	r.POST("/notify/:bookingId", NotifyBooking(d.Notifier, d.Log))

	payment := r.Group("/payment")
	{
		payment.GET("/success", PaymentSuccess(d.Bookings, d.Log))
		payment.GET("/cancel", PaymentCancel(d.Bookings, d.Log))
	}
}
