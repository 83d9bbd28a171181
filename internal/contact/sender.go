package contact

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"strings"

	"github.com/resend/resend-go/v2"

	"ieeesou/pkg/logger"
)

// Message is what a visitor submits through the contact form.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"message"`
}

const maxBody = 5000

// Validate trims the message and returns field -> problem, nil when valid.
func (m *Message) Validate() map[string]string {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Body = strings.TrimSpace(m.Body)

	errs := map[string]string{}
	if m.Name == "" {
		errs["name"] = "Please enter your name."
	}
	if m.Email == "" {
		errs["email"] = "Please enter your email."
	} else if _, err := mail.ParseAddress(m.Email); err != nil {
		errs["email"] = "Please enter a valid email address."
	}
	if m.Subject == "" {
		errs["subject"] = "Please enter a subject."
	}
	if m.Body == "" {
		errs["message"] = "Please enter a message."
	} else if len(m.Body) > maxBody {
		errs["message"] = fmt.Sprintf("Messages are limited to %d characters.", maxBody)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// HTML is the escaped email body delivered to the branch inbox.
func (m Message) HTML() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>From:</strong> %s &lt;%s&gt;</p>", html.EscapeString(m.Name), html.EscapeString(m.Email))
	fmt.Fprintf(&b, "<p><strong>Subject:</strong> %s</p>", html.EscapeString(m.Subject))
	b.WriteString("<p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(m.Body), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}

// Sender relays contact messages to the branch inbox.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// ResendSender delivers through the Resend API. Replies go to the visitor.
type ResendSender struct {
	client *resend.Client
	from   string
	to     []string
}

func NewResendSender(apiKey, from string, to []string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from, to: to}
}

func (s *ResendSender) Send(ctx context.Context, m Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      s.to,
		Subject: "[Website] " + m.Subject,
		Html:    m.HTML(),
		ReplyTo: m.Email,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	logger.Sugar.Infow("Contact message relayed", "message_id", sent.Id, "subject", m.Subject)
	return nil
}

// NoopSender only logs. It is used when no Resend API key is configured.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, m Message) error {
	logger.Sugar.Infow("Contact message not relayed, no mail provider configured", "from", m.Email, "subject", m.Subject)
	return nil
}
