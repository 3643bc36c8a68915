package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type SendGridChannel struct {
	http   *http.Client
	base   string
	apiKey string
	from   string
}

func NewSendGrid(baseURL, apiKey, from string, timeout time.Duration) *SendGridChannel {
	return &SendGridChannel{
		http:   &http.Client{Timeout: timeout},
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		from:   from,
	}
}

func (c *SendGridChannel) Kind() Kind       { return KindEmail }
func (c *SendGridChannel) Provider() string { return "sendgrid" }

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridMail struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendGridAddress   `json:"from"`
	Subject string            `json:"subject"`
	Content []sendGridContent `json:"content"`
}

func (c *SendGridChannel) Send(ctx context.Context, msg Message) (string, error) {
	var mail sendGridMail
	mail.Personalizations = append(mail.Personalizations, struct {
		To []sendGridAddress `json:"to"`
	}{To: []sendGridAddress{{Email: msg.To}}})
	mail.From = sendGridAddress{Email: c.from, Name: companyName}
	mail.Subject = msg.Subject
	mail.Content = []sendGridContent{
		{Type: "text/plain", Value: msg.Text},
		{Type: "text/html", Value: msg.HTML},
	}

	b, err := json.Marshal(mail)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v3/mail/send", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid: status code %d", resp.StatusCode)
	}
	return resp.Header.Get("X-Message-Id"), nil
}
