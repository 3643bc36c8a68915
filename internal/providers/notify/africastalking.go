package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type AfricasTalkingChannel struct {
	http     *http.Client
	base     string
	username string
	apiKey   string
	sender   string
}

func NewAfricasTalking(baseURL, username, apiKey, sender string, timeout time.Duration) *AfricasTalkingChannel {
	return &AfricasTalkingChannel{
		http:     &http.Client{Timeout: timeout},
		base:     strings.TrimRight(baseURL, "/"),
		username: username,
		apiKey:   apiKey,
		sender:   sender,
	}
}

func (c *AfricasTalkingChannel) Kind() Kind       { return KindSMS }
func (c *AfricasTalkingChannel) Provider() string { return "africastalking" }

type atResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

func (c *AfricasTalkingChannel) Send(ctx context.Context, msg Message) (string, error) {
	if c.username == "" {
		return "", fmt.Errorf("africa's talking username not set")
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("africa's talking API key not set")
	}

	data := url.Values{}
	data.Set("username", c.username)
	data.Set("to", msg.To)
	data.Set("message", msg.Text)
	if c.sender != "" {
		data.Set("from", c.sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/version1/messaging", strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apiKey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to send SMS: status code %d", resp.StatusCode)
	}

	var out atResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse SMS response: %w", err)
	}
	if len(out.SMSMessageData.Recipients) == 0 {
		return "", fmt.Errorf("sms rejected: %s", out.SMSMessageData.Message)
	}
	r := out.SMSMessageData.Recipients[0]
	// 100-102 are the queued/sent/processed codes.
	if r.StatusCode < 100 || r.StatusCode > 102 {
		return "", fmt.Errorf("sms to %s rejected: %s", r.Number, r.Status)
	}
	return r.MessageID, nil
}
