// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var (
	ErrAPIKeyEmpty = errors.New("mail: sendgrid api key is empty")
	ErrFromEmpty   = errors.New("mail: from address is empty")
	ErrToEmpty     = errors.New("mail: to address is empty")
)

// Sender delivers one plain-text message.
type Sender interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements Sender with the SendGrid v3 API.
type SendGridClient struct {
	apiKey   string
	fromName string
	log      *zap.Logger
}

func NewSendGridClient(apiKey, fromName string, log *zap.Logger) *SendGridClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &SendGridClient{apiKey: apiKey, fromName: fromName, log: log}
}

var _ Sender = (*SendGridClient)(nil)

func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return ErrAPIKeyEmpty
	}
	if from == "" {
		return ErrFromEmpty
	}
	if to == "" {
		return ErrToEmpty
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	resp, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.log.Warn("sendgrid rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body),
		)
		return fmt.Errorf("mail: sendgrid send failed: status=%d", resp.StatusCode)
	}

	c.log.Info("mail sent",
		zap.Int("status", resp.StatusCode),
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
