package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/sirupsen/logrus"
)

const maxFetchAttempts = 3

// HotelAPI reads the catalog from a hotel search API that returns its whole result
// set in one response. Pagination happens locally.
type HotelAPI struct {
	http    *http.Client
	base    string
	apiKey  string
	log     *logrus.Logger
	backoff time.Duration
}

type Option func(*HotelAPI)

// WithRetryInterval sets the initial backoff between fetch attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(h *HotelAPI) { h.backoff = d }
}

func NewHotelAPI(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger, opts ...Option) *HotelAPI {
	h := &HotelAPI{
		http:    &http.Client{Timeout: timeout},
		base:    strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		log:     log,
		backoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type upstreamHotel struct {
	ID          flexString  `json:"hotel_id"`
	Name        string      `json:"hotel_name"`
	Description string      `json:"description"`
	MainPhoto   string      `json:"main_photo_url"`
	Thumbnail   string      `json:"thumbnail_url"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	Country     string      `json:"country"`
	Rating      json.Number `json:"review_score"`
	Price       json.Number `json:"price"`
	Currency    string      `json:"currency"`
}

type upstreamResponse struct {
	Result []upstreamHotel `json:"result"`
	Data   []upstreamHotel `json:"data"`
}

func (h *HotelAPI) ListHotels(ctx context.Context, page, limit int) (Page, error) {
	if _, err := Paginate(nil, page, limit); err != nil {
		return Page{}, err
	}

	raw, err := h.fetch(ctx)
	if err != nil {
		h.log.WithError(err).Warn("inventory fetch failed")
		return Page{}, fmt.Errorf("%w: %w", apperr.ErrUnavailable, err)
	}

	all := make([]Listing, 0, len(raw))
	for _, r := range raw {
		all = append(all, normalize(r))
	}
	return Paginate(all, page, limit)
}

func (h *HotelAPI) fetch(ctx context.Context) ([]upstreamHotel, error) {
	var out []upstreamHotel

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = h.backoff
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, maxFetchAttempts-1), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		hotels, err := h.fetchOnce(ctx)
		if err != nil {
			h.log.WithFields(logrus.Fields{"attempt": attempt}).WithError(err).Debug("inventory attempt failed")
			return err
		}
		out = hotels
		return nil
	}, retry)
	return out, err
}

func (h *HotelAPI) fetchOnce(ctx context.Context) ([]upstreamHotel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+"/hotels", nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("X-API-Key", h.apiKey)
	}

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("inventory http %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, backoff.Permanent(fmt.Errorf("inventory http %d", resp.StatusCode))
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var hotels []upstreamHotel
		if err := json.Unmarshal(body, &hotels); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("parse inventory: %w", err))
		}
		return hotels, nil
	}

	var parsed upstreamResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse inventory: %w", err))
	}
	if parsed.Result != nil {
		return parsed.Result, nil
	}
	return parsed.Data, nil
}

func normalize(r upstreamHotel) Listing {
	image := r.MainPhoto
	if strings.TrimSpace(image) == "" {
		image = r.Thumbnail
	}
	rating, _ := r.Rating.Float64()
	price, _ := r.Price.Float64()
	return Listing{
		ID:          string(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Description: StripMarkup(r.Description),
		Image:       image,
		Address:     r.Address,
		City:        r.City,
		Country:     r.Country,
		Rating:      rating,
		Price:       price,
		Currency:    r.Currency,
	}
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}
