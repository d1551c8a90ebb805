package mail

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/pkg/config"
)

// Mailer delivers club mail. Delivery is best-effort throughout the
// codebase: callers log failures and move on, they never fail the
// surrounding request over a lost email.
type Mailer interface {
	SendInvite(to, code, redeemURL string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSMTPMailer constructs a mailer from config.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendInvite emails a redemption link for an invite code.
func (m *SMTPMailer) SendInvite(to, code, redeemURL string) error {
	if !m.cfg.Enabled {
		m.logger.Debug("mail disabled, skipping invite", zap.String("to", to))
		return nil
	}

	link := fmt.Sprintf("%s?code=%s", redeemURL, code)
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: You're invited to the film club\r\n\r\n"+
		"Join us: %s\r\n\r\nThe code expires, so don't sit on it.\r\n", m.cfg.From, to, link)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("send invite mail: %w", err)
	}
	return nil
}
