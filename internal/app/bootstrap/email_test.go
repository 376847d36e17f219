package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/salestracker/internal/config"
	"github.com/wolfman30/salestracker/internal/notify"
)

func TestBuildEmailSenderUnconfigured(t *testing.T) {
	sender, err := BuildEmailSender(context.Background(), &appconfig.Config{EmailProvider: appconfig.EmailProviderSMTP}, nil)
	require.NoError(t, err)
	assert.Nil(t, sender)

	sender, err = BuildEmailSender(context.Background(), &appconfig.Config{EmailProvider: "pigeon"}, nil)
	require.NoError(t, err)
	assert.Nil(t, sender)
}

func TestBuildEmailSenderProviders(t *testing.T) {
	ctx := context.Background()

	sender, err := BuildEmailSender(ctx, &appconfig.Config{
		EmailProvider: appconfig.EmailProviderSMTP,
		SMTPHost:      "smtp.example.tn",
		SMTPPort:      465,
		SMTPUser:      "crm@example.tn",
		SMTPPass:      "pw",
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.SMTPSender{}, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{
		EmailProvider:     appconfig.EmailProviderSendGrid,
		SendGridAPIKey:    "SG.key",
		SendGridFromEmail: "crm@example.tn",
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.SendGridSender{}, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{
		EmailProvider:      appconfig.EmailProviderSES,
		SESFromEmail:       "crm@example.tn",
		AWSRegion:          "eu-west-3",
		AWSAccessKeyID:     "AKIATEST",
		AWSSecretAccessKey: "secret",
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.SESSender{}, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: appconfig.EmailProviderStub}, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.StubEmailSender{}, sender)
}

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	awsCfg, err := LoadAWSConfig(context.Background(), &appconfig.Config{
		AWSRegion:          "eu-west-3",
		AWSAccessKeyID:     "AKIATEST",
		AWSSecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-3", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIATEST", creds.AccessKeyID)
}
