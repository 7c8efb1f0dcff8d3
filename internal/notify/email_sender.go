// Package notify emails price-change alerts.
package notify

import (
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/amcodin/SmartScraper/internal/config"
	"github.com/amcodin/SmartScraper/internal/logging"
)

// EmailConfig holds SMTP configuration for sending emails.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmail    string
	Enabled    bool
}

// EmailConfigFromEnv reads SMTP_* variables. Email is enabled only when
// server, user, password and recipient are all set.
func EmailConfigFromEnv() EmailConfig {
	cfg := EmailConfig{
		SMTPServer: config.String("SMTP_SERVER", ""),
		SMTPPort:   config.Int("SMTP_PORT", 587),
		SMTPUser:   config.String("SMTP_USER", ""),
		SMTPPass:   config.String("SMTP_PASS", ""),
		ToEmail:    config.String("SMTP_TO", ""),
	}
	cfg.FromEmail = config.String("SMTP_FROM", cfg.SMTPUser)
	cfg.Enabled = cfg.SMTPServer != "" && cfg.SMTPUser != "" && cfg.SMTPPass != "" && cfg.ToEmail != ""
	return cfg
}

// RenderedMessage is a ready-to-send email.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers messages via SMTP.
type EmailSender struct {
	cfg EmailConfig
}

// NewEmailSender creates a sender with the given SMTP configuration.
func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

// Send delivers an email with HTML body and plain text fallback.
func (s *EmailSender) Send(msg *RenderedMessage) error {
	if !s.cfg.Enabled {
		return nil
	}

	m := buildMessage(s.cfg, msg)
	dialer := gomail.NewDialer(s.cfg.SMTPServer, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second

	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s (subject %q): %w", s.cfg.ToEmail, msg.Subject, err)
	}

	logging.Infof("[notify] email sent: %s", msg.Subject)
	return nil
}

func buildMessage(cfg EmailConfig, msg *RenderedMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.FromEmail)
	m.SetHeader("To", cfg.ToEmail)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}
	return m
}
