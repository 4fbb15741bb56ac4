package auth

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"sync"

	"github.com/gofiber/template/django/v3"
)

//go:embed templates/*.html
var mailTemplatesFS embed.FS

var (
	mailEngine     *django.Engine
	mailEngineOnce sync.Once
	mailEngineErr  error
)

func renderMailTemplate(name string, binding map[string]any) (string, error) {
	mailEngineOnce.Do(func() {
		mailEngine = django.NewFileSystem(http.FS(mailTemplatesFS), ".html")
		mailEngineErr = mailEngine.Load()
	})

	if mailEngineErr != nil {
		return "", mailEngineErr
	}

	var buf bytes.Buffer
	if err := mailEngine.Render(&buf, name, binding); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// VerificationLink builds the verification URL a registration email points
// to. The token rides as a query parameter so mail clients keep it intact.
func VerificationLink(siteURL, token string) string {
	base := strings.TrimRight(siteURL, "/")
	return base + "/auth/verify-email?token=" + url.QueryEscape(token)
}

// NewVerificationMail renders the verification email for a pending
// registration.
func NewVerificationMail(user *User, verifyURL string) (MailMessage, error) {
	html, err := renderMailTemplate("templates/verification_email", map[string]any{
		"username":   user.Username,
		"verify_url": verifyURL,
	})
	if err != nil {
		return MailMessage{}, err
	}

	return MailMessage{
		To:      user.Email,
		Subject: "Verify your email address",
		Text:    "Please verify your email by clicking: " + verifyURL,
		HTML:    html,
	}, nil
}

var _ Mailer = &SMTPMailer{}

// SMTPMailer delivers mail through a plain SMTP relay. It builds a
// multipart/alternative body when the message carries both text and HTML.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(addr, from string, auth smtp.Auth) *SMTPMailer {
	return &SMTPMailer{
		addr: addr,
		from: from,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg MailMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	body := buildMIMEMessage(m.from, msg)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{msg.To}, body); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}

	return nil
}

const mimeBoundary = "MAIL-BOUNDARY-9c4f1a"

func buildMIMEMessage(from string, msg MailMessage) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.Text)
		return []byte(b.String())
	}

	b.WriteString("Content-Type: multipart/alternative; boundary=\"" + mimeBoundary + "\"\r\n\r\n")

	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.Text + "\r\n")

	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML + "\r\n")

	b.WriteString("--" + mimeBoundary + "--\r\n")

	return []byte(b.String())
}

var _ Mailer = &LogMailer{}

// LogMailer prints outbound mail instead of delivering it. Meant for local
// development and tests.
type LogMailer struct {
	logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg MailMessage) error {
	m.logger.Info("====== SENDING EMAIL NOTIFICATION =======")
	m.logger.Info("to: %s", msg.To)
	m.logger.Info("subject: %s", msg.Subject)
	m.logger.Info("%s", msg.Text)
	return nil
}
