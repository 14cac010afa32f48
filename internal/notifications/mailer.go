package notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"muster/internal/config"

	"github.com/wneessen/go-mail"
)

// Mail templates.
const (
	TemplateCharterSubmitted = "charter_submitted"
	TemplateCharterApproved  = "charter_approved"
	TemplateCharterRejected  = "charter_rejected"
)

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// MailData is the data every charter mail template renders.
type MailData struct {
	Name        string
	CharterName string
	LeagueName  string
	ActiveFrom  *time.Time
	URL         string
	Sender      string
}

// Message is one outgoing mail.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	Template  string
	Data      MailData
}

// Mailer sends mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func lookup(name string) (*template.Template, error) {
	tpl := templates.Lookup(name + ".txt")
	if tpl == nil {
		return nil, fmt.Errorf("unknown mail template %q", name)
	}
	return tpl, nil
}

// Render executes the message template into a plain text body.
func Render(msg Message) (string, error) {
	tpl, err := lookup(msg.Template)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, msg.Data); err != nil {
		return "", fmt.Errorf("render %s: %w", msg.Template, err)
	}
	return buf.String(), nil
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTPMailer builds an SMTPMailer from the SMTP_* settings.
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	if cfg.SMTPTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.MailFromAddress, fromName: cfg.MailFromName}, nil
}

// Send renders msg and delivers it.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.ToAddress, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	tpl, err := lookup(msg.Template)
	if err != nil {
		return nil, err
	}

	mm := mail.NewMsg()
	if err := mm.FromFormat(m.fromName, m.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := mm.AddToFormat(msg.ToName, msg.ToAddress); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	mm.Subject(msg.Subject)
	if err := mm.SetBodyTextTemplate(tpl, msg.Data); err != nil {
		return nil, fmt.Errorf("render %s: %w", msg.Template, err)
	}
	return mm, nil
}

// LogMailer writes mail to the log instead of sending it.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer returns a LogMailer writing to logger.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	body, err := Render(msg)
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "mail",
		"to", msg.ToAddress,
		"subject", msg.Subject,
		"template", msg.Template,
		"body", body,
	)
	return nil
}

// NewMailer picks the mailer for the configured MAIL_DRIVER.
func NewMailer(cfg *config.Config, logger *slog.Logger) (Mailer, error) {
	if cfg.MailDriver == config.MailDriverSMTP {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger), nil
}
