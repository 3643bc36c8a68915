package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/chachabrian/hotelbook-backend/internal/providers/payment"
	"github.com/chachabrian/hotelbook-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BookingStore is the persistence the booking services depend on.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	ByID(ctx context.Context, id string) (*models.Booking, error)
	Confirm(ctx context.Context, in repository.ConfirmInput) (*models.Booking, bool, error)
	Fail(ctx context.Context, in repository.FailInput) (*models.Booking, bool, error)
	MarkFailed(ctx context.Context, id, reason string) error
	SetPaymentOrder(ctx context.Context, id, orderID string) error
	UpdateContact(ctx context.Context, id, email, phone string) error
	FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// CreateBookingInput is the raw client request. Total stays a string so
// non-numeric input is rejected here rather than silently coerced.
type CreateBookingInput struct {
	HotelName string
	Total     string
	Checkin   string
	Checkout  string
	Guests    int
	Email     string
	Phone     string
}

type CreateBookingResult struct {
	BookingID  string `json:"bookingId"`
	ApproveURL string `json:"approveUrl"`
}

// BookingService creates bookings and starts their payment.
type BookingService struct {
	store     BookingStore
	payments  payment.Gateway
	publisher StatusPublisher
	baseURL   string
	log       *logrus.Logger
}

func NewBookingService(store BookingStore, payments payment.Gateway, publisher StatusPublisher, baseURL string, log *logrus.Logger) *BookingService {
	return &BookingService{
		store:     store,
		payments:  payments,
		publisher: publisherOrNoop(publisher),
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
	}
}

func validateCreate(in CreateBookingInput) (*models.Booking, error) {
	name := strings.TrimSpace(in.HotelName)
	if name == "" {
		return nil, fmt.Errorf("%w: hotelName is required", apperr.ErrValidation)
	}
	for field, v := range map[string]string{"hotelName": name, "checkin": in.Checkin, "checkout": in.Checkout} {
		if strings.ContainsFunc(v, unicode.IsControl) {
			return nil, fmt.Errorf("%w: %s contains control characters", apperr.ErrValidation, field)
		}
	}
	raw := strings.TrimSpace(in.Total)
	if raw == "" {
		return nil, fmt.Errorf("%w: total is required", apperr.ErrValidation)
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: total must be a number", apperr.ErrValidation)
	}
	total = total.Round(2)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: total must be greater than zero", apperr.ErrValidation)
	}

	b := &models.Booking{
		HotelName:   name,
		Checkin:     orDefault(in.Checkin),
		Checkout:    orDefault(in.Checkout),
		Guests:      in.Guests,
		TotalAmount: total,
		PayerEmail:  strings.TrimSpace(in.Email),
		PayerPhone:  strings.TrimSpace(in.Phone),
	}
	if b.Guests <= 0 {
		b.Guests = 1
	}
	return b, nil
}

func orDefault(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return models.DefaultDate
	}
	return s
}

// CreateBooking persists a pending booking and then requests a payment order for it.
// If the payment call fails the booking is moved to failed and the error is returned.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (CreateBookingResult, error) {
	b, err := validateCreate(in)
	if err != nil {
		return CreateBookingResult{}, err
	}

	if err := s.store.Create(ctx, b); err != nil {
		return CreateBookingResult{}, err
	}
	log := s.log.WithFields(logrus.Fields{"bookingId": b.ID, "hotel": b.HotelName, "total": b.TotalAmount.StringFixed(2)})
	log.Info("booking created")

	res, err := s.payments.CreatePaymentIntent(ctx, payment.Intent{
		BookingID:   b.ID,
		Amount:      b.TotalAmount,
		Description: fmt.Sprintf("%s, %s to %s, %d guest(s)", b.HotelName, b.Checkin, b.Checkout, b.Guests),
		ReturnURL:   s.baseURL + "/payment/success",
		CancelURL:   s.baseURL + "/payment/cancel",
		PayerEmail:  b.PayerEmail,
	})
	if err != nil {
		log.WithError(err).Error("payment intent failed")
		s.fail(b.ID, failureReason(err))
		return CreateBookingResult{}, err
	}

	if err := s.store.SetPaymentOrder(ctx, b.ID, res.OrderID); err != nil {
		log.WithError(err).Warn("failed to record payment order id")
	}
	log.WithField("orderId", res.OrderID).Info("payment intent created")
	return CreateBookingResult{BookingID: b.ID, ApproveURL: res.ApproveURL}, nil
}

// fail records the failure on a fresh context so a cancelled request still leaves
// the booking in a terminal state.
func (s *BookingService) fail(id, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.MarkFailed(ctx, id, reason); err != nil {
		s.log.WithError(err).WithField("bookingId", id).Error("failed to mark booking failed")
		return
	}
	s.publisher.Publish(ctx, StatusUpdate{BookingID: id, Status: models.BookingStatusFailed, Reason: reason, At: time.Now().UTC()})
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrAuthentication):
		return "payment provider authentication failed"
	case errors.Is(err, apperr.ErrProviderResponse):
		return "payment provider rejected the order"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "payment request timed out"
	default:
		return "payment intent failed"
	}
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: booking id is required", apperr.ErrValidation)
	}
	return s.store.ByID(ctx, id)
}
