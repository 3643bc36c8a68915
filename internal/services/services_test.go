package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/chachabrian/hotelbook-backend/internal/database"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/chachabrian/hotelbook-backend/internal/providers/notify"
	"github.com/chachabrian/hotelbook-backend/internal/providers/payment"
	"github.com/chachabrian/hotelbook-backend/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var farFuture = time.Now().AddDate(100, 0, 0)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestStore(t *testing.T) *repository.BookingRepo {
	t.Helper()
	dsn := "file:" + gofakeit.UUID() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.RunMigrations(db))
	return repository.NewBookingRepo(db)
}

func seedBooking(t *testing.T, store BookingStore, total string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		HotelName:   gofakeit.Company() + " Hotel",
		Checkin:     "2026-12-01",
		Checkout:    "2026-12-05",
		Guests:      2,
		TotalAmount: decimal.RequireFromString(total),
	}
	require.NoError(t, store.Create(context.Background(), b))
	return b
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, in payment.Intent) (payment.Result, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(payment.Result), args.Error(1)
}

type mockChannel struct {
	mock.Mock
	kind     notify.Kind
	provider string
}

func (m *mockChannel) Kind() notify.Kind { return m.kind }
func (m *mockChannel) Provider() string  { return m.provider }

func (m *mockChannel) Send(ctx context.Context, msg notify.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []StatusUpdate
}

func (p *recordingPublisher) Publish(_ context.Context, u StatusUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *recordingPublisher) all() []StatusUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]StatusUpdate(nil), p.updates...)
}
