package adapter

import (
	"context"
	"strings"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/slack-go/slack"
)

// SlackAdapter posts batch and report notices to an incoming webhook.
type SlackAdapter struct {
	webhookURL string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewSlackAdapter(webhookURL string) *SlackAdapter {
	return &SlackAdapter{webhookURL: strings.TrimSpace(webhookURL), post: slack.PostWebhookContext}
}

func (s *SlackAdapter) Name() string {
	return "slack"
}

// Send posts content; sessionID is ignored because the webhook fixes the channel.
func (s *SlackAdapter) Send(ctx context.Context, sessionID string, content string) error {
	if s.webhookURL == "" {
		return jarvisErrors.InvalidInput("slack.webhook_url is empty")
	}
	msg := &slack.WebhookMessage{
		Text: content,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, content, false, false), nil, nil),
		}},
	}
	if err := s.post(ctx, s.webhookURL, msg); err != nil {
		return jarvisErrors.External("slack webhook", err)
	}
	return nil
}

func (s *SlackAdapter) Health(ctx context.Context) error {
	if s.webhookURL == "" {
		return jarvisErrors.InvalidInput("slack.webhook_url is empty")
	}
	return nil
}
