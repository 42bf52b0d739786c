// Package mail delivers transactional email over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/inkforge/inkforge-backend/pkg/config"
)

// Sender delivers one-time codes to users.
type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
}

type smtpSender struct {
	client *gomail.Client
	from   string
}

// NewSender builds an SMTP-backed Sender from configuration.
func NewSender(cfg config.SMTPConfig) (Sender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("building smtp client: %w", err)
	}

	return &smtpSender{client: client, from: cfg.DefaultFrom}, nil
}

func (s *smtpSender) SendOTP(ctx context.Context, to, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject("Your verification code")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Your verification code is %s. It expires in 10 minutes.\n\nIf you did not request this code, ignore this message.\n", code))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending otp mail: %w", err)
	}
	return nil
}
