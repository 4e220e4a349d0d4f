package services

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/buildhive/buildhive-backend/internal/config"
)

// Mailer sends transactional email over SMTP. Optional: when unconfigured it
// stays nil and callers skip sending with a warning instead of failing the
// request.
type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	if cfg.SMTPHost == "" {
		return nil, errors.New("smtp host not configured")
	}
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", cfg.SMTPPort, err)
	}

	return &Mailer{
		dialer:      gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPassword),
		from:        cfg.SMTPFrom,
		frontendURL: cfg.FrontendURL,
	}, nil
}

// SendVerificationEmail sends the one-time verification link. Plain text
// only; no templating.
func (m *Mailer) SendVerificationEmail(to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, token)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your BuildHive account")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nWelcome to BuildHive! Please verify your email address by opening the link below:\n\n%s\n\nIf you did not create an account, you can ignore this email.\n",
		name, link,
	))

	return m.dialer.DialAndSend(msg)
}
