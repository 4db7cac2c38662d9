// Package mail renders and dispatches transactional email over SMTP.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/noah-isme/taskhive-api/pkg/config"
)

// Sender delivers a rendered message. Satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer builds verification and password-reset emails with deep links into
// the frontend. Delivery failures are returned to the caller; whether they
// are fatal is the caller's decision.
type Mailer struct {
	sender      Sender
	from        string
	frontendURL string
	logger      *zap.Logger
}

// New constructs a Mailer backed by an SMTP dialer.
func New(cfg config.SMTPConfig, frontendURL string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &Mailer{sender: dialer, from: cfg.From, frontendURL: frontendURL, logger: logger}
}

// NewWithSender constructs a Mailer with an explicit sender, used in tests.
func NewWithSender(sender Sender, from, frontendURL string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{sender: sender, from: from, frontendURL: frontendURL, logger: logger}
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<html>
<body style="font-family: sans-serif;">
  <h2>Confirm your email</h2>
  <p>Thanks for signing up. Click the link below to verify your address.</p>
  <p><a href="{{.Link}}">Verify email</a></p>
  <p>If you did not create an account, you can ignore this message.</p>
</body>
</html>`))

var resetPasswordTmpl = template.Must(template.New("reset").Parse(`<html>
<body style="font-family: sans-serif;">
  <h2>Reset your password</h2>
  <p>A password reset was requested for your account. The link below is valid
  for 30 minutes.</p>
  <p><a href="{{.Link}}">Reset password</a></p>
  <p>If you did not request a reset, you can ignore this message.</p>
</body>
</html>`))

// SendVerificationEmail mails the single-use verification link.
func (m *Mailer) SendVerificationEmail(email, token string) error {
	link := fmt.Sprintf("%s/verification?verificationToken=%s", m.frontendURL, token)
	return m.send(email, "Verify your email", verificationTmpl, link)
}

// SendResetPasswordEmail mails the signed reset-password link.
func (m *Mailer) SendResetPasswordEmail(email, token string) error {
	link := fmt.Sprintf("%s/auth/reset-password?resetToken=%s", m.frontendURL, token)
	return m.send(email, "Reset your password", resetPasswordTmpl, link)
}

func (m *Mailer) send(to, subject string, tmpl *template.Template, link string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return fmt.Errorf("render email body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Warn("email delivery failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}
