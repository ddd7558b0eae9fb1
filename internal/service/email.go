package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional mail through Resend. In development
// mode (or without an API key) it logs the message instead of sending.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	appURL    string
	appName   string
	isDev     bool
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		appURL:    appURL,
		appName:   appName,
		isDev:     isDev,
	}
}

// SendPasswordResetEmail mails the raw reset token embedded in a link.
// The token itself is never persisted in recoverable form.
func (s *EmailService) SendPasswordResetEmail(email, token, name string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(resetURL, name, s.appName)
	return s.send("password_reset", email, subject, body, resetURL)
}

// SendPasswordSetupEmail mails the verification token that leads a
// provisioned user to set their first password.
func (s *EmailService) SendPasswordSetupEmail(email, token, name string) error {
	setupURL := fmt.Sprintf("%s/setup-password?token=%s", s.appURL, token)
	subject, body := passwordSetupEmailTemplate(setupURL, name, s.appName)
	return s.send("password_setup", email, subject, body, setupURL)
}

// SendVerificationEmail mails an address-verification link for
// self-signup accounts.
func (s *EmailService) SendVerificationEmail(email, token, name string) error {
	verifyURL := fmt.Sprintf("%s/setup-password?token=%s", s.appURL, token)
	subject, body := verificationEmailTemplate(verifyURL, name, s.appName)
	return s.send("email_verify", email, subject, body, verifyURL)
}

func (s *EmailService) send(kind, to, subject, body, url string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject, "url", url)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}

func passwordResetEmailTemplate(url, name, appName string) (subject, body string) {
	subject = fmt.Sprintf("Reset your %s password", appName)
	body = fmt.Sprintf(`Hi %s,

We received a request to reset your %s password. Follow this link to
choose a new one:

%s

The link expires in 30 minutes. If you didn't request a reset, you can
ignore this email.`, name, appName, url)
	return subject, body
}

func passwordSetupEmailTemplate(url, name, appName string) (subject, body string) {
	subject = fmt.Sprintf("Set up your %s account", appName)
	body = fmt.Sprintf(`Hi %s,

An account has been created for you on %s. Follow this link to verify
your email address and choose a password:

%s`, name, appName, url)
	return subject, body
}

func verificationEmailTemplate(url, name, appName string) (subject, body string) {
	subject = fmt.Sprintf("Verify your %s email address", appName)
	body = fmt.Sprintf(`Hi %s,

Welcome to %s! Follow this link to verify your email address:

%s`, name, appName, url)
	return subject, body
}
