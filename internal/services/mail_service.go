package services

import (
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"

	"pocketbook/internal/config"
	"pocketbook/internal/logger"
)

// mailService sends account emails over SMTP. When mail is disabled the
// links are logged instead, so local setups can still finish the flows.
type mailService struct {
	cfg     config.MailConfig
	baseURL string
	send    func(m *gomail.Message) error
}

// NewMailService creates a Mailer from the mail settings. Links in the
// emails point at baseURL.
func NewMailService(cfg config.MailConfig, baseURL string) Mailer {
	s := &mailService{cfg: cfg, baseURL: baseURL}
	s.send = func(m *gomail.Message) error {
		return gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password).DialAndSend(m)
	}
	return s
}

// SendVerificationEmail sends the link that confirms the user's address.
func (s *mailService) SendVerificationEmail(to, name, token string) error {
	link := s.link("/verify-email", token)
	return s.deliver(to, "Confirm your email address", fmt.Sprintf(emailTemplate,
		name,
		"Thanks for signing up. Please confirm your email address to finish setting up your account.",
		link, "Confirm email",
		"This link expires in 24 hours.",
		link,
	))
}

// SendPasswordResetEmail sends the link that lets the user choose a new password.
func (s *mailService) SendPasswordResetEmail(to, name, token string) error {
	link := s.link("/reset-password", token)
	return s.deliver(to, "Reset your password", fmt.Sprintf(emailTemplate,
		name,
		"We received a request to reset your password. Use the button below to choose a new one.",
		link, "Reset password",
		"This link expires in 1 hour. If you did not ask for a reset, you can ignore this email.",
		link,
	))
}

func (s *mailService) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (s *mailService) deliver(to, subject, body string) error {
	if !s.cfg.Enabled {
		logger.Get().Infow("mail disabled, skipping delivery", "to", to, "subject", subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.From, "Pocketbook"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

const emailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: #2563eb; color: white; padding: 30px; text-align: center; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .btn { display: inline-block; background: #2563eb; color: white !important; text-decoration: none; padding: 14px 40px; border-radius: 8px; }
        .note { color: #856404; font-size: 14px; }
        .link { word-break: break-all; color: #2563eb; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Pocketbook</h1></div>
        <div class="content">
            <p>Hello <strong>%s</strong>,</p>
            <p>%s</p>
            <p style="text-align: center;"><a href="%s" class="btn">%s</a></p>
            <p class="note">%s</p>
            <p>If the button does not work, copy this link into your browser:</p>
            <p class="link">%s</p>
        </div>
    </div>
</body>
</html>
`
