package utils

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Email is a rendered message ready for a transport.
type Email struct {
	To        []string
	CC        []string
	Subject   string
	PlainText string
	HTML      string
}

// Mailer is the outbound mail capability.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	sandbox   bool
}

func NewSendgridMailer(apiKey, fromName, fromEmail string, sandbox bool) *SendgridMailer {
	return &SendgridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
		sandbox:   sandbox,
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg Email) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients for %q", msg.Subject)
	}
	resp, err := m.client.SendWithContext(ctx, m.build(msg))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: sendgrid status %d: %s", ErrTransportFailure, resp.StatusCode, resp.Body)
	}
	return nil
}

func (m *SendgridMailer) build(msg Email) *mail.SGMailV3 {
	v3 := mail.NewV3Mail()
	v3.SetFrom(mail.NewEmail(m.fromName, m.fromEmail))
	v3.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, addr := range msg.To {
		p.AddTos(mail.NewEmail("", addr))
	}
	for _, addr := range msg.CC {
		p.AddCCs(mail.NewEmail("", addr))
	}
	v3.AddPersonalizations(p)
	v3.AddContent(
		mail.NewContent("text/plain", msg.PlainText),
		mail.NewContent("text/html", msg.HTML),
	)

	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		v3.MailSettings = ms
	}
	return v3
}
