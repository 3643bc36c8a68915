package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port       string        `envconfig:"PORT" default:"8080"`
	BaseURL    string        `envconfig:"BASE_URL" default:"http://localhost:8080"`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string        `envconfig:"LOG_FORMAT" default:"json"`
	PendingTTL time.Duration `envconfig:"PENDING_TTL" default:"1h"`

	DB       DBConfig
	RedisURL string `envconfig:"REDIS_URL"`

	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
	Inventory       InventoryConfig
	PayPal          PayPalConfig
	Webhook         WebhookConfig
	Email           EmailConfig
	SMS             SMSConfig
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"hotelbook"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type InventoryConfig struct {
	BaseURL string `envconfig:"INVENTORY_BASE_URL" default:"https://hotels.example-api.com/v1"`
	APIKey  string `envconfig:"INVENTORY_API_KEY"`
}

type PayPalConfig struct {
	BaseURL      string `envconfig:"PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`
	WebhookID    string `envconfig:"PAYPAL_WEBHOOK_ID"`
	Currency     string `envconfig:"PAYMENT_CURRENCY" default:"USD"`
}

type WebhookConfig struct {
	// Verifier is one of hmac, jwt, paypal, none.
	Verifier string `envconfig:"WEBHOOK_VERIFIER" default:"hmac"`
	Secret   string `envconfig:"WEBHOOK_SECRET"`
}

type EmailConfig struct {
	// Provider is one of smtp, ses, sendgrid; empty disables email.
	Provider       string `envconfig:"EMAIL_PROVIDER"`
	From           string `envconfig:"EMAIL_FROM"`
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser       string `envconfig:"SMTP_USER"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	AWSRegion      string `envconfig:"AWS_REGION"`
	AWSAccessKey   string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

type SMSConfig struct {
	// Provider is one of twilio, africastalking; empty disables SMS.
	Provider         string `envconfig:"SMS_PROVIDER"`
	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `envconfig:"TWILIO_FROM"`
	ATUsername       string `envconfig:"AT_USERNAME"`
	ATAPIKey         string `envconfig:"AT_API_KEY"`
	ATSender         string `envconfig:"AT_SENDER"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.Webhook.Verifier = strings.ToLower(strings.TrimSpace(c.Webhook.Verifier))
	c.Email.Provider = strings.ToLower(strings.TrimSpace(c.Email.Provider))
	c.SMS.Provider = strings.ToLower(strings.TrimSpace(c.SMS.Provider))

	switch c.Webhook.Verifier {
	case "hmac", "jwt":
		if c.Webhook.Secret == "" {
			return fmt.Errorf("WEBHOOK_SECRET is required for %s webhook verification", c.Webhook.Verifier)
		}
	case "paypal":
		if c.PayPal.WebhookID == "" {
			return fmt.Errorf("PAYPAL_WEBHOOK_ID is required for paypal webhook verification")
		}
	case "none":
	default:
		return fmt.Errorf("unknown WEBHOOK_VERIFIER %q", c.Webhook.Verifier)
	}

	switch c.Email.Provider {
	case "", "smtp", "ses", "sendgrid":
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}
	switch c.SMS.Provider {
	case "", "twilio", "africastalking":
	default:
		return fmt.Errorf("unknown SMS_PROVIDER %q", c.SMS.Provider)
	}
	if c.PendingTTL <= 0 {
		return fmt.Errorf("PENDING_TTL must be positive")
	}
	return nil
}
