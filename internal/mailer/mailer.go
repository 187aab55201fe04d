// AngelaMos | 2026
// mailer.go

// Package mailer delivers transactional email through SMTP, SendGrid or the
// process log.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/citylistings/internal/config"
)

type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Sender interface {
	Send(ctx context.Context, email Email) error
}

func New(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg)
	case "sendgrid":
		return NewSendGridSender(cfg), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// LogSender writes messages to the log instead of delivering them. Used in
// development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email Email) error {
	s.logger.InfoContext(ctx, "email not delivered (log provider)",
		"to", email.To,
		"subject", email.Subject,
		"body", email.TextBody,
	)
	return nil
}
