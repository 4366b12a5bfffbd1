package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/fixtrack/fixtrack-api/pkg/config"
)

// Mailer sends a single outbound message. Delivery is best-effort; callers
// must never treat a send failure as fatal.
type Mailer interface {
	Send(recipient, subject, body string) error
}

// SMTPMailer delivers messages over plain SMTP.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTP constructs an SMTP mailer from config.
func NewSMTP(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: auth,
	}
}

// Send delivers one message.
func (m *SMTPMailer) Send(recipient, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}

// LogMailer records messages through the logger instead of sending them.
// Used in development when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLog constructs a log-only mailer.
func NewLog(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(recipient, subject, body string) error {
	m.logger.Sugar().Infow("email (log only)", "to", recipient, "subject", subject, "body", body)
	return nil
}

// FromConfig picks SMTP delivery when a host is configured, logging otherwise.
func FromConfig(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if cfg.Host == "" {
		return NewLog(logger)
	}
	return NewSMTP(cfg)
}
