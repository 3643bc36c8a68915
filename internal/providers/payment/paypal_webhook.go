package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/sirupsen/logrus"
)

var transmissionHeaders = []string{
	"PAYPAL-AUTH-ALGO",
	"PAYPAL-CERT-URL",
	"PAYPAL-TRANSMISSION-ID",
	"PAYPAL-TRANSMISSION-SIG",
	"PAYPAL-TRANSMISSION-TIME",
}

type verifySignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

// Verify asks PayPal whether the transmission headers match the delivered body.
// A rejected or incomplete signature is ErrSignature; failing to reach PayPal is not.
func (p *PayPal) Verify(ctx context.Context, header http.Header, body []byte) error {
	for _, h := range transmissionHeaders {
		if header.Get(h) == "" {
			return fmt.Errorf("%w: missing %s", apperr.ErrSignature, h)
		}
	}
	if !json.Valid(body) {
		return fmt.Errorf("%w: body is not json", apperr.ErrSignature)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}

	b, err := json.Marshal(verifySignatureRequest{
		AuthAlgo:         header.Get("PAYPAL-AUTH-ALGO"),
		CertURL:          header.Get("PAYPAL-CERT-URL"),
		TransmissionID:   header.Get("PAYPAL-TRANSMISSION-ID"),
		TransmissionSig:  header.Get("PAYPAL-TRANSMISSION-SIG"),
		TransmissionTime: header.Get("PAYPAL-TRANSMISSION-TIME"),
		WebhookID:        p.webhookID,
		WebhookEvent:     body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/v1/notifications/verify-webhook-signature", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: verify signature: %w", apperr.ErrProviderResponse, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: verify signature http %d", apperr.ErrProviderResponse, resp.StatusCode)
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: parse verification: %w", apperr.ErrProviderResponse, err)
	}
	if out.VerificationStatus != "SUCCESS" {
		p.log.WithFields(logrus.Fields{
			"transmissionId": header.Get("PAYPAL-TRANSMISSION-ID"),
			"status":         out.VerificationStatus,
		}).Warn("paypal rejected webhook signature")
		return fmt.Errorf("%w: paypal status %s", apperr.ErrSignature, out.VerificationStatus)
	}
	return nil
}
