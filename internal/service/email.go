package service

import (
	"errors"
	"fmt"
	"net/smtp"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sushihost/backend/config"
	"github.com/sushihost/backend/internal/models"
)

// ErrEmailNotConfigured is returned when no SMTP host is set. Callers
// treat send failures as non-fatal and fall back to exposing the raw
// verification token.
var ErrEmailNotConfigured = errors.New("smtp not configured")

type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
	baseURL  string
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		fromName: cfg.EmailFromName,
		baseURL:  cfg.BaseURL,
	}
}

func (s *EmailService) Configured() bool { return s.host != "" }

func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.Configured() {
		log.WithFields(log.Fields{"to": to, "subject": subject}).Info("SMTP not configured, skipping email")
		return ErrEmailNotConfigured
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.from)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) SendVerificationEmail(user *models.User, token string) error {
	caser := cases.Title(language.English)
	subject := fmt.Sprintf("%s, verify your email - Sushi Host", caser.String(user.Username))
	verificationURL := fmt.Sprintf("%s/api/verify-email/%s", s.baseURL, token)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2>Welcome, %s!</h2>
	<p>Thanks for signing up. Please verify your email address to create and share event menus.</p>
	<p><a href="%s">Verify Email Address</a></p>
	<p style="color: #666; font-size: 12px;">This link expires in 24 hours. If you didn't sign up, you can ignore this email.</p>
</body>
</html>
`, user.Username, verificationURL)

	return s.SendEmail(user.Email, subject, body)
}

func (s *EmailService) SendWelcomeEmail(user *models.User) error {
	subject := "Welcome to Sushi Host!"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2>Hello %s!</h2>
	<p>Your email has been verified. You can now create shareable event menus.</p>
</body>
</html>
`, user.Username)

	return s.SendEmail(user.Email, subject, body)
}
