// Package email sends transactional mail. A nil-safe no-op sender is used
// when SMTP is not configured.
package email

import (
	"context"
	"fmt"

	"fieldcrm_backend/platform/config"
	"fieldcrm_backend/platform/logger"

	"github.com/wneessen/go-mail"
)

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewSender returns an SMTP sender when email is enabled, otherwise a no-op.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		return &noopSender{}
	}
	return &smtpSender{cfg: cfg, log: log}
}

type noopSender struct{}

func (n *noopSender) Send(_ context.Context, _, _, _ string) error {
	return nil
}

type smtpSender struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("email from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("email to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.cfg.GetSMTPHost(),
		mail.WithPort(s.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.GetSMTPUsername()),
		mail.WithPassword(s.cfg.GetSMTPPassword()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
