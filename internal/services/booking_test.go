package services

import (
	"context"
	"testing"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/chachabrian/hotelbook-backend/internal/providers/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_PersistsPendingBeforePayment(t *testing.T) {
	store := newTestStore(t)
	gw := &mockGateway{}
	svc := NewBookingService(store, gw, nil, "https://book.test/", quietLogger())
	ctx := context.Background()

	gw.On("CreatePaymentIntent", mock.Anything, mock.AnythingOfType("payment.Intent")).
		Run(func(args mock.Arguments) {
			in := args.Get(1).(payment.Intent)
			b, err := store.ByID(ctx, in.BookingID)
			require.NoError(t, err)
			assert.Equal(t, models.BookingStatusPending, b.Status)
			assert.True(t, b.TotalAmount.Equal(in.Amount))
			assert.Equal(t, "250.50", in.Amount.StringFixed(2))
			assert.Equal(t, "https://book.test/payment/success", in.ReturnURL)
			assert.Equal(t, "https://book.test/payment/cancel", in.CancelURL)
			assert.Equal(t, "guest@example.com", in.PayerEmail)
		}).
		Return(payment.Result{OrderID: "ORDER-9", ApproveURL: "https://paypal.test/approve?token=ORDER-9"}, nil).Once()

	res, err := svc.CreateBooking(ctx, CreateBookingInput{
		HotelName: "Hotel Mara",
		Total:     "250.5",
		Email:     "guest@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.BookingID)
	assert.Equal(t, "https://paypal.test/approve?token=ORDER-9", res.ApproveURL)
	gw.AssertExpectations(t)

	b, err := store.ByID(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, "ORDER-9", b.PaymentOrderID)
	assert.Equal(t, models.DefaultDate, b.Checkin)
	assert.Equal(t, models.DefaultDate, b.Checkout)
	assert.Equal(t, 1, b.Guests)
}

func TestCreateBooking_RejectsInvalidInput(t *testing.T) {
	cases := map[string]CreateBookingInput{
		"non numeric total":    {HotelName: "Hotel Mara", Total: "abc"},
		"missing hotel":        {Total: "100"},
		"blank hotel":          {HotelName: "   ", Total: "100"},
		"missing total":        {HotelName: "Hotel Mara"},
		"zero total":           {HotelName: "Hotel Mara", Total: "0"},
		"negative total":       {HotelName: "Hotel Mara", Total: "-5"},
		"rounds to zero":       {HotelName: "Hotel Mara", Total: "0.001"},
		"header in hotel name": {HotelName: "Hilton\r\nBcc: x@y.example", Total: "100"},
		"control in checkin":   {HotelName: "Hotel Mara", Total: "100", Checkin: "2026-01-01\n"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			store := newTestStore(t)
			gw := &mockGateway{}
			svc := NewBookingService(store, gw, nil, "https://book.test", quietLogger())

			_, err := svc.CreateBooking(context.Background(), in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			gw.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)

			n, err := store.FailStalePending(context.Background(), farFuture, "sweep")
			require.NoError(t, err)
			assert.Zero(t, n, "no booking row may be written")
		})
	}
}

func TestCreateBooking_PaymentFailureMarksFailed(t *testing.T) {
	for name, perr := range map[string]error{
		"authentication":  apperr.ErrAuthentication,
		"no approve link": apperr.ErrProviderResponse,
	} {
		t.Run(name, func(t *testing.T) {
			store := newTestStore(t)
			gw := &mockGateway{}
			pub := &recordingPublisher{}
			svc := NewBookingService(store, gw, pub, "https://book.test", quietLogger())

			var bookingID string
			gw.On("CreatePaymentIntent", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { bookingID = args.Get(1).(payment.Intent).BookingID }).
				Return(payment.Result{}, perr).Once()

			res, err := svc.CreateBooking(context.Background(), CreateBookingInput{HotelName: "Hotel Mara", Total: "99.99", Guests: 3})
			assert.ErrorIs(t, err, perr)
			assert.Empty(t, res.BookingID)
			assert.Empty(t, res.ApproveURL)

			b, err := store.ByID(context.Background(), bookingID)
			require.NoError(t, err)
			assert.Equal(t, models.BookingStatusFailed, b.Status)
			assert.NotEmpty(t, b.FailureReason)
			assert.Equal(t, 3, b.Guests)

			updates := pub.all()
			require.Len(t, updates, 1)
			assert.Equal(t, models.BookingStatusFailed, updates[0].Status)
		})
	}
}

func TestBookingService_Get(t *testing.T) {
	store := newTestStore(t)
	svc := NewBookingService(store, &mockGateway{}, nil, "", quietLogger())
	b := seedBooking(t, store, "80")

	got, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.HotelName, got.HotelName)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
