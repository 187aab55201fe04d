// AngelaMos | 2026
// sendgrid.go

package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/carterperez-dev/citylistings/internal/config"
)

type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridSender(cfg config.MailConfig) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGrid.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.From),
	}
}

func (s *SendGridSender) Send(ctx context.Context, email Email) error {
	msg := sgmail.NewSingleEmail(
		s.from,
		email.Subject,
		sgmail.NewEmail("", email.To),
		email.TextBody,
		email.HTMLBody,
	)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("send via sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send via sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}
