package mail

import (
	"fmt"

	domainMail "groona_alerts/internal/domain/mail"
	"groona_alerts/internal/infra/config"
)

// NewSender builds the sender for the configured provider.
func NewSender(cfg config.EmailConfig) (domainMail.Sender, error) {
	if err := cfg.RequireEmail(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "resend":
		return NewResendClient(cfg.ResendBaseURL, cfg.ResendAPIKey), nil
	case "smtp":
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
