package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/chachabrian/hotelbook-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingService interface {
	CreateBooking(ctx context.Context, in services.CreateBookingInput) (services.CreateBookingResult, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
}

type createBookingRequest struct {
	HotelName string          `json:"hotelName"`
	Total     json.RawMessage `json:"total"`
	Checkin   string          `json:"checkin"`
	Checkout  string          `json:"checkout"`
	Guests    *int            `json:"guests"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
}

// rawTotal accepts the total as a JSON number or a string; anything else is
// passed through so validation rejects it.
func rawTotal(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

// CreateBooking stores a pending booking and returns the payer approval URL.
func CreateBooking(svc BookingService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input createBookingRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, log, fmt.Errorf("%w: %s", apperr.ErrValidation, "body must be a JSON object with hotelName and total"))
			return
		}

		in := services.CreateBookingInput{
			HotelName: input.HotelName,
			Total:     rawTotal(input.Total),
			Checkin:   input.Checkin,
			Checkout:  input.Checkout,
			Email:     input.Email,
			Phone:     input.Phone,
		}
		if input.Guests != nil {
			in.Guests = *input.Guests
		}

		res, err := svc.CreateBooking(c.Request.Context(), in)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(201, res)
	}
}

// GetBooking returns the stored booking.
func GetBooking(svc BookingService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(200, b)
	}
}

// BookingStatusStream upgrades to a websocket that receives the booking's status changes.
func BookingStatusStream(svc BookingService, hub *services.Hub, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		services.HandleWebSocket(hub, c.Writer, c.Request, services.StatusUpdate{
			BookingID: b.ID,
			Status:    b.Status,
			Reason:    b.FailureReason,
			At:        b.UpdatedAt,
		})
	}
}
