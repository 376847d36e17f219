package bootstrap

import (
	"context"
	"fmt"

	appconfig "github.com/wolfman30/salestracker/internal/config"
	"github.com/wolfman30/salestracker/internal/notify"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// BuildEmailSender returns the transport selected by EMAIL_PROVIDER, or nil
// when it is not configured. A nil sender makes notifications log and skip.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || !cfg.EmailConfigured() {
		if cfg != nil {
			logger.Warn("email transport not configured; notifications disabled", "provider", cfg.EmailProvider)
		}
		return nil, nil
	}

	switch cfg.EmailProvider {
	case appconfig.EmailProviderSMTP:
		s := notify.NewSMTPSender(notify.SMTPConfig{
			Host:               cfg.SMTPHost,
			Port:               cfg.SMTPPort,
			Username:           cfg.SMTPUser,
			Password:           cfg.SMTPPass,
			From:               cfg.SMTPSender(),
			FromName:           cfg.EmailFromName,
			InsecureSkipVerify: cfg.SMTPIgnoreTLSErrors,
		}, logger)
		if s == nil {
			return nil, nil
		}
		return s, nil
	case appconfig.EmailProviderSendGrid:
		s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if s == nil {
			return nil, nil
		}
		return s, nil
	case appconfig.EmailProviderSES:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		s := notify.NewSESSender(NewSESClient(awsCfg, cfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if s == nil {
			return nil, nil
		}
		return s, nil
	case appconfig.EmailProviderStub:
		return notify.NewStubEmailSender(logger), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
}
