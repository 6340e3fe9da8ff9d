package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// client implements Service interface
type client struct {
	api *slack.Client
}

// New creates a new Slack service with the provided bot token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	return &client{
		api: slack.New(token),
	}, nil
}

func (c *client) PostApprovalRequest(ctx context.Context, channelID string, req *ApprovalRequest) (string, error) {
	blocks := buildApprovalBlocks(req)

	_, ts, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallbackText(req), false),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post approval request",
			goerr.V("channel_id", channelID), goerr.V("log_id", req.LogID))
	}

	return ts, nil
}

func (c *client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post message", goerr.V("channel_id", channelID))
	}

	return ts, nil
}

func (c *client) UpdateApprovalResult(ctx context.Context, channelID, ts string, req *ApprovalRequest, result string) error {
	blocks := buildResolvedBlocks(req, result)

	_, _, _, err := c.api.UpdateMessageContext(ctx, channelID, ts,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallbackText(req), false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update approval message",
			goerr.V("channel_id", channelID), goerr.V("ts", ts))
	}

	return nil
}
