package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

type SESChannel struct {
	client sesiface.SESAPI
	from   string
}

// NewSES builds an SES client. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func NewSES(region, accessKey, secretKey, from string, timeout time.Duration) (*SESChannel, error) {
	cfg := &aws.Config{
		Region:     aws.String(region),
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewSESWithClient(ses.New(sess), from), nil
}

func NewSESWithClient(client sesiface.SESAPI, from string) *SESChannel {
	return &SESChannel{client: client, from: from}
}

func (c *SESChannel) Kind() Kind       { return KindEmail }
func (c *SESChannel) Provider() string { return "ses" }

func (c *SESChannel) Send(ctx context.Context, msg Message) (string, error) {
	out, err := c.client.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source:      aws.String(fmt.Sprintf("%s <%s>", companyName, c.from)),
		Destination: &ses.Destination{ToAddresses: []*string{aws.String(msg.To)}},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.Subject)},
			Body: &ses.Body{
				Html: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.HTML)},
				Text: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.Text)},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses: %w", err)
	}
	return aws.StringValue(out.MessageId), nil
}
