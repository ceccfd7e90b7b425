package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailClient abstracts the actual delivery mechanism so handlers and the
// worker do not care whether mail goes through SendGrid or just the log.
type EmailClient interface {
	Send(ctx context.Context, from, fromName, to, subject, body string) error
}

type SendGridClient struct {
	apiKey string
}

func NewSendGridClient(apiKey string) *SendGridClient {
	return &SendGridClient{apiKey: apiKey}
}

func (c *SendGridClient) Send(ctx context.Context, from, fromName, to, subject, body string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(fromName, from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	client := sendgrid.NewSendClient(c.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}
	return nil
}

// LogClient writes mails to the log instead of sending them. Default in
// development and in tests.
type LogClient struct{}

func (LogClient) Send(ctx context.Context, from, fromName, to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("email (log only)")
	log.Debug().Str("body", body).Msg("email body")
	return nil
}
