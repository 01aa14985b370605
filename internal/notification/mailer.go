package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/taskhive/taskhive-api/internal/config"
)

// InviteMailer delivers project invite emails. Delivery is best-effort:
// callers swallow and log failures, so an unreachable SMTP server never
// blocks invite creation.
type InviteMailer interface {
	SendInvite(recipientEmail, projectName, acceptURL string) error
}

// SMTPInviteMailer sends invite emails using an SMTP server.
type SMTPInviteMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPInviteMailer constructs a new SMTPInviteMailer from config.
func NewSMTPInviteMailer(cfg config.EmailConfig) (*SMTPInviteMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("smtp_host is required")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	return &SMTPInviteMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}, nil
}

// SendInvite dispatches an invitation email to a prospective collaborator.
func (m *SMTPInviteMailer) SendInvite(recipientEmail, projectName, acceptURL string) error {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		m.from, recipientEmail, "You are invited to collaborate")

	body := strings.Builder{}
	body.WriteString("Hello,\n\n")
	body.WriteString(fmt.Sprintf("You have been invited to collaborate on %q.\n", projectName))
	body.WriteString("Click the link below to accept the invitation:\n\n")
	body.WriteString(acceptURL + "\n\n")
	body.WriteString("This invite is valid for a limited time. If you did not expect this email, you can ignore it.\n\n")
	body.WriteString("Thanks,\nThe TaskHive Team\n")

	message := []byte(headers + body.String())

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if strings.TrimSpace(m.username) != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{recipientEmail}, message)
}

// LogInviteMailer is the development sink: it records the invite instead of
// sending it, so the flow works without SMTP credentials.
type LogInviteMailer struct {
	logger zerolog.Logger
}

func NewLogInviteMailer(logger zerolog.Logger) *LogInviteMailer {
	return &LogInviteMailer{
		logger: logger.With().Str("mailer", "log").Logger(),
	}
}

func (m *LogInviteMailer) SendInvite(recipientEmail, projectName, acceptURL string) error {
	m.logger.Info().
		Str("recipient", recipientEmail).
		Str("project", projectName).
		Str("accept_url", acceptURL).
		Msg("invite email suppressed (no SMTP configured)")
	return nil
}
