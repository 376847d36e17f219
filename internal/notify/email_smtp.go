package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/wolfman30/salestracker/pkg/logging"
)

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// InsecureSkipVerify accepts self-signed relay certificates.
	InsecureSkipVerify bool
}

type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends emails through an SMTP relay. Port 465 uses implicit TLS.
type SMTPSender struct {
	dialer   smtpDialer
	from     string
	fromName string
	logger   *logging.Logger
}

// NewSMTPSender returns nil unless host, username and password are all set.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host}
	}
	return &SMTPSender{dialer: d, from: cfg.From, fromName: cfg.FromName, logger: logger}
}

// Send delivers msg. gomail has no context support; ctx is only checked
// before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.dialer == nil {
		return fmt.Errorf("notify: smtp not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.from, s.fromName))
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", textOrSubject(msg))
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("smtp send failed", "error", err, "recipients", len(msg.To))
		return fmt.Errorf("notify: smtp send failed: %w", err)
	}
	s.logger.Info("email sent via smtp", "recipients", len(msg.To), "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*SMTPSender)(nil)
