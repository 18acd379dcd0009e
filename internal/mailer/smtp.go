package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/sudeepta/portfolio/internal/apperror"
)

// SMTPConfig configures SMTPTransport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPTransport sends messages through an authenticated SMTP relay with
// mandatory STARTTLS. A new connection is dialed for every message.
type SMTPTransport struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPTransport creates an SMTPTransport. Missing credentials are not
// an error here: Send reports them, so the server can start without mail
// configured.
func NewSMTPTransport(cfg SMTPConfig, logger *slog.Logger) *SMTPTransport {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPTransport{cfg: cfg, logger: logger}
}

// checkConfig reports the first missing setting needed to send msg.
func (t *SMTPTransport) checkConfig(msg Message) error {
	switch {
	case t.cfg.Host == "":
		return apperror.ConfigMissing("SMTP_HOST")
	case t.cfg.Username == "":
		return apperror.ConfigMissing("EMAIL_USER")
	case t.cfg.Password == "":
		return apperror.ConfigMissing("EMAIL_PASSWORD")
	case msg.To == "":
		return apperror.ConfigMissing("EMAIL_TO")
	}
	return nil
}

// Send makes one delivery attempt. Configuration problems come back as
// apperror.ErrConfigMissing without any network activity; everything that
// goes wrong after that is apperror.ErrTransport.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := t.checkConfig(msg); err != nil {
		return err
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return apperror.InvalidInput("from", fmt.Sprintf("invalid sender address: %v", err))
	}
	if err := m.To(msg.To); err != nil {
		return apperror.InvalidInput("to", fmt.Sprintf("invalid recipient address: %v", err))
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return apperror.InvalidInput("email", fmt.Sprintf("invalid reply-to address: %v", err))
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	client, err := mail.NewClient(t.cfg.Host,
		mail.WithPort(t.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(t.cfg.Username),
		mail.WithPassword(t.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(t.cfg.Timeout),
	)
	if err != nil {
		return apperror.TransportFailure("creating smtp client", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return apperror.TransportFailure("sending email", err)
	}

	t.logger.Debug("email handed to smtp relay",
		slog.String("host", t.cfg.Host),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
