package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/chachabrian/hotelbook-backend/internal/config"
)

type Kind string

const (
	KindEmail Kind = "email"
	KindSMS   Kind = "sms"
)

// Message is a rendered notification. Email channels use Subject, HTML and Text;
// SMS channels send Text only.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Channel delivers a message through one provider and returns the provider's message id.
type Channel interface {
	Kind() Kind
	Provider() string
	Send(ctx context.Context, msg Message) (string, error)
}

const (
	sendGridBaseURL       = "https://api.sendgrid.com"
	twilioBaseURL         = "https://api.twilio.com"
	africasTalkingBaseURL = "https://api.africastalking.com"
)

// NewChannels builds the configured email and SMS channels. Either may be nil when
// its provider is not configured.
func NewChannels(cfg *config.Config, timeout time.Duration) (email Channel, sms Channel, err error) {
	switch cfg.Email.Provider {
	case "":
	case "smtp":
		email = NewSMTP(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.From, timeout)
	case "ses":
		email, err = NewSES(cfg.Email.AWSRegion, cfg.Email.AWSAccessKey, cfg.Email.AWSSecretKey, cfg.Email.From, timeout)
		if err != nil {
			return nil, nil, err
		}
	case "sendgrid":
		email = NewSendGrid(sendGridBaseURL, cfg.Email.SendGridAPIKey, cfg.Email.From, timeout)
	default:
		return nil, nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}

	switch cfg.SMS.Provider {
	case "":
	case "twilio":
		sms = NewTwilio(twilioBaseURL, cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken, cfg.SMS.TwilioFrom, timeout)
	case "africastalking":
		sms = NewAfricasTalking(africasTalkingBaseURL, cfg.SMS.ATUsername, cfg.SMS.ATAPIKey, cfg.SMS.ATSender, timeout)
	default:
		return nil, nil, fmt.Errorf("unknown sms provider %q", cfg.SMS.Provider)
	}
	return email, sms, nil
}
