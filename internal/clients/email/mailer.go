package email

import (
	"context"
	"time"

	"github.com/maxaizer/jobalert/internal/config"
	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
)

const sslPort = 465

type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends plain-text messages through an authenticated SMTP server.
type Mailer struct {
	client dialer
	from   string
}

func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	options := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Port == sslPort {
		options = append(options, mail.WithSSL())
	} else {
		options = append(options, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create smtp client")
	}

	return &Mailer{client: client, from: cfg.From()}, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := m.newMessage(to, subject, body)
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) newMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, errors.Wrapf(err, "invalid sender %q", m.from)
	}
	if err := msg.To(to); err != nil {
		return nil, errors.Wrapf(err, "invalid recipient %q", to)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
