package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func upstreamHotels(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		h := map[string]any{
			"hotel_id":       i,
			"hotel_name":     fmt.Sprintf("Hotel %02d", i),
			"description":    fmt.Sprintf("<p>Room <b>%d</b> &amp; breakfast</p>", i),
			"main_photo_url": fmt.Sprintf("https://img.example.com/%d/main.jpg", i),
			"thumbnail_url":  fmt.Sprintf("https://img.example.com/%d/thumb.jpg", i),
			"city":           "Nairobi",
			"review_score":   8.5,
			"price":          99.9,
			"currency":       "USD",
		}
		if i%2 == 1 {
			h["main_photo_url"] = ""
		}
		out = append(out, h)
	}
	return out
}

func newCatalogServer(t *testing.T, hotels []map[string]any, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		assert.Equal(t, "/hotels", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"result": hotels})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHotelAPI_ListHotelsSecondPage(t *testing.T) {
	srv := newCatalogServer(t, upstreamHotels(25), nil)
	api := NewHotelAPI(srv.URL, "key-123", time.Second, quietLogger())

	page, err := api.ListHotels(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 25, page.Total)
	require.Len(t, page.Items, 10)
	for i, item := range page.Items {
		assert.Equal(t, fmt.Sprintf("Hotel %02d", i+10), item.Name)
		assert.Equal(t, fmt.Sprint(i+10), item.ID)
	}
}

func TestHotelAPI_Normalizes(t *testing.T) {
	srv := newCatalogServer(t, upstreamHotels(2), nil)
	api := NewHotelAPI(srv.URL, "key-123", time.Second, quietLogger())

	page, err := api.ListHotels(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	assert.Equal(t, "Room 0 & breakfast", page.Items[0].Description)
	assert.Equal(t, "https://img.example.com/0/main.jpg", page.Items[0].Image)
	assert.Equal(t, "https://img.example.com/1/thumb.jpg", page.Items[1].Image)
	assert.Equal(t, 8.5, page.Items[0].Rating)
	assert.Equal(t, "USD", page.Items[0].Currency)
}

func TestHotelAPI_PageBeyondEnd(t *testing.T) {
	srv := newCatalogServer(t, upstreamHotels(5), nil)
	api := NewHotelAPI(srv.URL, "key-123", time.Second, quietLogger())

	page, err := api.ListHotels(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestHotelAPI_InvalidPagingSkipsUpstream(t *testing.T) {
	var calls int32
	srv := newCatalogServer(t, upstreamHotels(5), &calls)
	api := NewHotelAPI(srv.URL, "key-123", time.Second, quietLogger())

	_, err := api.ListHotels(context.Background(), 0, 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = api.ListHotels(context.Background(), 1, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestHotelAPI_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(upstreamHotels(3))
	}))
	defer srv.Close()

	api := NewHotelAPI(srv.URL, "", time.Second, quietLogger(), WithRetryInterval(time.Millisecond))
	page, err := api.ListHotels(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHotelAPI_UnavailableAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := NewHotelAPI(srv.URL, "", time.Second, quietLogger(), WithRetryInterval(time.Millisecond))
	_, err := api.ListHotels(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Equal(t, int32(maxFetchAttempts), atomic.LoadInt32(&calls))
}

func TestHotelAPI_ParseFailureIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"result": "nope"`))
	}))
	defer srv.Close()

	api := NewHotelAPI(srv.URL, "", time.Second, quietLogger(), WithRetryInterval(time.Millisecond))
	_, err := api.ListHotels(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHotelAPI_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	api := NewHotelAPI(srv.URL, "", 20*time.Millisecond, quietLogger(), WithRetryInterval(time.Millisecond))
	start := time.Now()
	_, err := api.ListHotels(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
