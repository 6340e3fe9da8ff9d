package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for Slack notification configuration
type Slack struct {
	botToken      string
	channelID     string
	signingSecret string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting approval requests)",
			Category:    "Slack",
			Sources:     cli.EnvVars("WARDEN_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel for approval and notification messages",
			Category:    "Slack",
			Sources:     cli.EnvVars("WARDEN_SLACK_CHANNEL_ID"),
			Destination: &x.channelID,
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for interaction webhook verification)",
			Category:    "Slack",
			Sources:     cli.EnvVars("WARDEN_SLACK_SIGNING_SECRET"),
			Destination: &x.signingSecret,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
		slog.Int("signing-secret.len", len(x.signingSecret)),
	)
}

// IsConfigured checks if Slack notification is enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// IsWebhookConfigured checks if the interaction webhook can be enabled
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// ChannelID returns the notification channel
func (x *Slack) ChannelID() string {
	return x.channelID
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// Configure creates the Slack service when configured
func (x *Slack) Configure() (slack.Service, error) {
	if x.botToken == "" {
		return nil, nil
	}
	if x.channelID == "" {
		return nil, goerr.New("slack-channel-id is required when slack-bot-token is set")
	}

	return slack.New(x.botToken)
}
