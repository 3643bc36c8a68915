package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/config"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// tokenSkew is subtracted from expires_in so a cached token is never used right at expiry.
const tokenSkew = 60 * time.Second

var requestIDNamespace = uuid.MustParse("6f1c3a52-5c1e-4c8e-9a43-2f0b8f6d7e10")

type PayPal struct {
	http      *http.Client
	base      string
	clientID  string
	secret    string
	currency  string
	webhookID string
	tokens    TokenCache
	log       *logrus.Logger
}

func NewPayPal(cfg config.PayPalConfig, timeout time.Duration, tokens TokenCache, log *logrus.Logger) *PayPal {
	if tokens == nil {
		tokens = NewMemoryTokenCache()
	}
	return &PayPal{
		http:      &http.Client{Timeout: timeout},
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:  cfg.ClientID,
		secret:    cfg.ClientSecret,
		currency:  strings.ToUpper(cfg.Currency),
		webhookID: cfg.WebhookID,
		tokens:    tokens,
		log:       log,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	if tok, ok := p.tokens.Get(ctx, p.clientID); ok {
		return tok, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrAuthentication, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.clientID, p.secret)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %w", apperr.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var tr tokenResponse
	_ = json.Unmarshal(body, &tr)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || tr.AccessToken == "" {
		p.log.WithFields(logrus.Fields{"status": resp.StatusCode}).Warn("paypal token request returned no access token")
		return "", fmt.Errorf("%w: token http %d", apperr.ErrAuthentication, resp.StatusCode)
	}

	if tr.ExpiresIn > 0 {
		p.tokens.Set(ctx, p.clientID, tr.AccessToken, time.Duration(tr.ExpiresIn)*time.Second-tokenSkew)
	}
	return tr.AccessToken, nil
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string      `json:"reference_id"`
	CustomID    string      `json:"custom_id"`
	Description string      `json:"description,omitempty"`
	Amount      orderAmount `json:"amount"`
}

type applicationContext struct {
	ReturnURL          string `json:"return_url"`
	CancelURL          string `json:"cancel_url"`
	UserAction         string `json:"user_action"`
	ShippingPreference string `json:"shipping_preference"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type orderLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type orderResponse struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Links  []orderLink `json:"links"`
}

// CreatePaymentIntent creates a CAPTURE order for the booking. The order call is sent
// once with a request id derived from the booking id so PayPal deduplicates it.
func (p *PayPal) CreatePaymentIntent(ctx context.Context, in Intent) (Result, error) {
	if in.BookingID == "" || !in.Amount.IsPositive() {
		return Result{}, fmt.Errorf("payment intent needs a booking id and a positive amount: %w", apperr.ErrValidation)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return Result{}, err
	}

	returnURL, err := withQuery(in.ReturnURL, map[string]string{"bookingId": in.BookingID, "email": in.PayerEmail})
	if err != nil {
		return Result{}, fmt.Errorf("build return url: %w", err)
	}
	cancelURL, err := withQuery(in.CancelURL, map[string]string{"bookingId": in.BookingID})
	if err != nil {
		return Result{}, fmt.Errorf("build cancel url: %w", err)
	}

	payload := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: in.BookingID,
			CustomID:    in.BookingID,
			Description: truncate(in.Description, 127),
			Amount: orderAmount{
				CurrencyCode: p.currency,
				Value:        in.Amount.StringFixed(2),
			},
		}},
		ApplicationContext: applicationContext{
			ReturnURL:          returnURL,
			CancelURL:          cancelURL,
			UserAction:         "PAY_NOW",
			ShippingPreference: "NO_SHIPPING",
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/v2/checkout/orders", bytes.NewReader(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("PayPal-Request-Id", RequestID(in.BookingID))

	resp, err := p.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: order request: %w", apperr.ErrProviderResponse, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		p.tokens.Delete(ctx, p.clientID)
		return Result{}, fmt.Errorf("%w: order http 401", apperr.ErrAuthentication)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.WithFields(logrus.Fields{
			"bookingId": in.BookingID,
			"status":    resp.StatusCode,
			"body":      truncate(string(body), 512),
		}).Error("paypal order creation failed")
		return Result{}, fmt.Errorf("%w: order http %d", apperr.ErrProviderResponse, resp.StatusCode)
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return Result{}, fmt.Errorf("%w: parse order: %w", apperr.ErrProviderResponse, err)
	}
	for _, l := range order.Links {
		if l.Rel == "approve" && l.Href != "" {
			p.log.WithFields(logrus.Fields{"bookingId": in.BookingID, "orderId": order.ID}).Info("paypal order created")
			return Result{OrderID: order.ID, ApproveURL: l.Href}, nil
		}
	}
	return Result{}, fmt.Errorf("%w: order %s has no approve link", apperr.ErrProviderResponse, order.ID)
}

// RequestID is the idempotency key sent with the order for bookingID.
func RequestID(bookingID string) string {
	return uuid.NewSHA1(requestIDNamespace, []byte(bookingID)).String()
}

func withQuery(raw string, params map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
