// Package mail delivers verification codes through MailerSend.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailersend/mailersend-go"
)

const sendTimeout = 5 * time.Second

// Sender sends transactional mail through the MailerSend API. It satisfies
// application.EmailSender.
type Sender struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewSender constructs a MailerSend backed sender.
func NewSender(apiKey, fromName, fromEmail string, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		client:    mailersend.NewMailersend(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// Send delivers a plain text message to a single recipient.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("mail sender not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	message := s.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: s.fromName, Email: s.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject(subject)
	message.SetText(body)

	res, err := s.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.InfoContext(ctx, "email sent", "to", to, "message_id", res.Header.Get("X-Message-Id"))
	return nil
}

// LogSender writes messages to the log instead of delivering them. It stands
// in for the MailerSend sender when no API key is configured, which keeps
// local development working without a mail account.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a log backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the message instead of delivering it.
func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email delivery skipped, no mail provider configured",
		"to", to, "subject", subject, "body", body)
	return nil
}
