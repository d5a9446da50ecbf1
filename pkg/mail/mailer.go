// Package mail delivers transactional email. In development the SMTP
// transport can be disabled, in which case messages are logged instead.
package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

var log = internal.GetLogger()

var _ models.Mailer = &SMTPMailer{}

type SMTPMailer struct {
	cfg    *config.Config
	client *gomail.Client
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	mailer := &SMTPMailer{cfg: cfg}
	if !cfg.Mail.Enabled {
		log.Warn("mail delivery is disabled; outgoing messages will be logged only")
		return mailer, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Mail.Port),
	}
	if cfg.Mail.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Mail.Username),
			gomail.WithPassword(cfg.Mail.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Mail.Host, opts...)
	if err != nil {
		return nil, err
	}
	mailer.client = client

	return mailer, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.client == nil {
		log.Infof("mail disabled; would send to %s: %s", to, subject)
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.Mail.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	return m.client.DialAndSendWithContext(ctx, msg)
}
