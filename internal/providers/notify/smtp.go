package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type deliverFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPChannel struct {
	host     string
	port     string
	user     string
	password string
	from     string
	timeout  time.Duration
	deliver  deliverFunc
}

func NewSMTP(host, port, user, password, from string, timeout time.Duration) *SMTPChannel {
	c := &SMTPChannel{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		timeout:  timeout,
	}
	c.deliver = c.sendMail
	return c
}

func (c *SMTPChannel) Kind() Kind       { return KindEmail }
func (c *SMTPChannel) Provider() string { return "smtp" }

// headerValue keeps a value on a single header line and encodes non-ASCII text.
func headerValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
	return mime.QEncoding.Encode("UTF-8", s)
}

func (c *SMTPChannel) Send(ctx context.Context, msg Message) (string, error) {
	if c.from == "" || c.host == "" || c.port == "" {
		return "", fmt.Errorf("smtp: email configuration not set")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	domain := c.host
	if at := strings.LastIndex(c.from, "@"); at >= 0 {
		domain = c.from[at+1:]
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)

	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", companyName, c.from)},
		{"To", headerValue(msg.To)},
		{"Subject", headerValue(msg.Subject)},
		{"Message-ID", messageID},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)

	var auth smtp.Auth
	if c.user != "" {
		auth = smtp.PlainAuth("", c.user, c.password, c.host)
	}
	if err := c.deliver(ctx, net.JoinHostPort(c.host, c.port), auth, c.from, []string{msg.To}, []byte(b.String())); err != nil {
		return "", fmt.Errorf("smtp: %w", err)
	}
	return messageID, nil
}

// sendMail is smtp.SendMail with every network step bounded by ctx and the channel timeout.
func (c *SMTPChannel) sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	// Unblock reads and writes as soon as ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, c.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: c.host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
