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

type TwilioChannel struct {
	http       *http.Client
	base       string
	accountSID string
	authToken  string
	from       string
}

func NewTwilio(baseURL, accountSID, authToken, from string, timeout time.Duration) *TwilioChannel {
	return &TwilioChannel{
		http:       &http.Client{Timeout: timeout},
		base:       strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

func (c *TwilioChannel) Kind() Kind       { return KindSMS }
func (c *TwilioChannel) Provider() string { return "twilio" }

func (c *TwilioChannel) Send(ctx context.Context, msg Message) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", fmt.Errorf("twilio: credentials not set")
	}

	data := url.Values{}
	data.Set("To", msg.To)
	data.Set("From", c.from)
	data.Set("Body", msg.Text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.base, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		SID     string `json:"sid"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("twilio: status code %d: %s", resp.StatusCode, out.Message)
	}
	return out.SID, nil
}
