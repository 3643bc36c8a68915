package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/database"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (*BookingRepo, *gorm.DB) {
	t.Helper()
	dsn := "file:" + gofakeit.UUID() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return NewBookingRepo(db), db
}

func newBooking() *models.Booking {
	return &models.Booking{
		HotelName:   gofakeit.Company() + " Hotel",
		Checkin:     "2026-11-01",
		Checkout:    "2026-11-04",
		Guests:      2,
		TotalAmount: decimal.RequireFromString("120.50"),
		PayerEmail:  gofakeit.Email(),
	}
}

func TestBookingRepo_CreateAlwaysPending(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	b := newBooking()
	b.Status = models.BookingStatusConfirmed
	require.NoError(t, repo.Create(ctx, b))
	assert.NotEmpty(t, b.ID)

	got, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, got.Status)
	assert.Equal(t, b.HotelName, got.HotelName)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("120.5")))
	assert.Nil(t, got.ConfirmedAt)
}

func TestBookingRepo_ByIDNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.ByID(context.Background(), gofakeit.UUID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBookingRepo_ConfirmIsIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	require.NoError(t, repo.Create(ctx, b))

	got, changed, err := repo.Confirm(ctx, ConfirmInput{BookingID: b.ID})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedAt)

	got, changed, err = repo.Confirm(ctx, ConfirmInput{BookingID: b.ID})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)

	stored, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)
}

func TestBookingRepo_ConfirmUnknownCreatesNothing(t *testing.T) {
	repo, db := newTestRepo(t)

	_, _, err := repo.Confirm(context.Background(), ConfirmInput{BookingID: "missing", EventID: "WH-1"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var bookings, events int64
	require.NoError(t, db.Model(&models.Booking{}).Count(&bookings).Error)
	require.NoError(t, db.Model(&models.WebhookEvent{}).Count(&events).Error)
	assert.Zero(t, bookings)
	assert.Zero(t, events)
}

func TestBookingRepo_ConfirmRecordsEventOnce(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	require.NoError(t, repo.Create(ctx, b))

	in := ConfirmInput{BookingID: b.ID, EventID: "WH-" + gofakeit.UUID(), Provider: "paypal"}
	_, changed, err := repo.Confirm(ctx, in)
	require.NoError(t, err)
	assert.True(t, changed)

	_, changed, err = repo.Confirm(ctx, in)
	require.NoError(t, err)
	assert.False(t, changed)

	var events int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).Where("booking_id = ?", b.ID).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestBookingRepo_ConfirmChecksAmount(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	require.NoError(t, repo.Create(ctx, b))

	wrong := decimal.RequireFromString("99.99")
	_, _, err := repo.Confirm(ctx, ConfirmInput{BookingID: b.ID, Amount: &wrong})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	stored, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)

	right := decimal.RequireFromString("120.50")
	got, changed, err := repo.Confirm(ctx, ConfirmInput{BookingID: b.ID, Amount: &right})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
}

func TestBookingRepo_FailedNeverConfirms(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.MarkFailed(ctx, b.ID, "payment provider error"))

	_, _, err := repo.Confirm(ctx, ConfirmInput{BookingID: b.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusFailed, stored.Status)
	assert.Equal(t, "payment provider error", stored.FailureReason)
}

func TestBookingRepo_MarkFailedLeavesConfirmedAlone(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	require.NoError(t, repo.Create(ctx, b))
	_, _, err := repo.Confirm(ctx, ConfirmInput{BookingID: b.ID})
	require.NoError(t, err)

	err = repo.MarkFailed(ctx, b.ID, "late failure")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

	assert.ErrorIs(t, repo.MarkFailed(ctx, "missing", "x"), apperr.ErrNotFound)
}

func TestBookingRepo_ContactAndPaymentOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	b.PayerEmail = ""
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.SetPaymentOrder(ctx, b.ID, "ORDER-1"))
	require.NoError(t, repo.UpdateContact(ctx, b.ID, "", "+15550001111"))
	require.NoError(t, repo.UpdateContact(ctx, b.ID, "guest@example.com", ""))

	stored, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", stored.PaymentOrderID)
	assert.Equal(t, "+15550001111", stored.PayerPhone)
	assert.Equal(t, "guest@example.com", stored.PayerEmail)

	assert.ErrorIs(t, repo.SetPaymentOrder(ctx, "missing", "ORDER-2"), apperr.ErrNotFound)
}

func TestBookingRepo_FailStalePending(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	stale := newBooking()
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-3*time.Hour)).Error)

	fresh := newBooking()
	require.NoError(t, repo.Create(ctx, fresh))

	confirmed := newBooking()
	require.NoError(t, repo.Create(ctx, confirmed))
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", confirmed.ID).
		Update("created_at", time.Now().Add(-3*time.Hour)).Error)
	_, _, err := repo.Confirm(ctx, ConfirmInput{BookingID: confirmed.ID})
	require.NoError(t, err)

	n, err := repo.FailStalePending(ctx, time.Now().Add(-time.Hour), "expired")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.ByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusFailed, got.Status)

	got, err = repo.ByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, got.Status)

	got, err = repo.ByID(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
}

func TestBookingRepo_FailIsIdempotent(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	require.NoError(t, repo.Create(ctx, b))

	in := FailInput{BookingID: b.ID, EventID: "WH-denied-1", Provider: "paypal", Reason: "payment denied"}
	got, changed, err := repo.Fail(ctx, in)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.BookingStatusFailed, got.Status)
	assert.Equal(t, "payment denied", got.FailureReason)

	got, changed, err = repo.Fail(ctx, in)
	require.NoError(t, err)
	assert.False(t, changed, "redelivered event")
	assert.Equal(t, models.BookingStatusFailed, got.Status)

	_, changed, err = repo.Fail(ctx, FailInput{BookingID: b.ID, EventID: "WH-voided-2", Provider: "paypal", Reason: "voided"})
	require.NoError(t, err)
	assert.False(t, changed, "already failed")

	var events int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).Where("booking_id = ?", b.ID).Count(&events).Error)
	assert.Equal(t, int64(2), events)

	stored, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "payment denied", stored.FailureReason)
}

func TestBookingRepo_FailRejectsConfirmed(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	b := newBooking()
	require.NoError(t, repo.Create(ctx, b))
	_, _, err := repo.Confirm(ctx, ConfirmInput{BookingID: b.ID})
	require.NoError(t, err)

	_, _, err = repo.Fail(ctx, FailInput{BookingID: b.ID, EventID: "WH-late", Reason: "denied"})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, _, err = repo.Fail(ctx, FailInput{BookingID: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "Hôt", truncate("Hôtel", 3))
	assert.Equal(t, "東京", truncate("東京ホテル", 2))
	assert.Equal(t, "short", truncate("short", 10))
}
