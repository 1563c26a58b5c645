package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/harunnryd/jarvis/internal/config"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuntimeManager_Outputs(t *testing.T) {
	cfg := &config.Config{}
	cfg.Slack.WebhookURL = "https://hooks.slack.test/T000/B000/XXX"
	cfg.Telegram.Enabled = true
	cfg.Telegram.BotToken = "123:abc"

	m, err := NewRuntimeManager(cfg, &fakeResponder{}, RuntimeAdapterOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{NoticeLog, "slack", "telegram"}, m.OutputNames())
	assert.Equal(t, "slack", m.NoticeChannel())
	assert.NotNil(t, m.Output("slack"))
	assert.Nil(t, m.Output("email"))
}

func TestNewRuntimeManager_NoticesDefaultToLog(t *testing.T) {
	m, err := NewRuntimeManager(&config.Config{}, &fakeResponder{}, RuntimeAdapterOptions{})
	require.NoError(t, err)

	assert.Equal(t, NoticeLog, m.NoticeChannel())
	assert.NoError(t, m.Send(context.Background(), "scheduler:stats", "stats: 3 processed"))
}

func TestRuntimeManager_SendFallsBackToLog(t *testing.T) {
	cfg := &config.Config{}
	cfg.Slack.WebhookURL = "https://hooks.slack.test/T000/B000/XXX"
	m, err := NewRuntimeManager(cfg, &fakeResponder{}, RuntimeAdapterOptions{})
	require.NoError(t, err)

	var posted []string
	sl := m.Output("slack").(*SlackAdapter)
	sl.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		posted = append(posted, msg.Text)
		return nil
	}
	require.NoError(t, m.Send(context.Background(), "scheduler:report", "report sent"))
	assert.Equal(t, []string{"report sent"}, posted)

	sl.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		return errors.New("410 gone")
	}
	err = m.Send(context.Background(), "scheduler:report", "report sent")
	assert.ErrorContains(t, err, "410 gone")
}

func TestNewRuntimeManager_TelegramNeedsToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Telegram.Enabled = true

	_, err := NewRuntimeManager(cfg, &fakeResponder{}, RuntimeAdapterOptions{})
	assert.ErrorContains(t, err, "telegram.bot_token")
}

func TestNewRuntimeManager_BadDedupTTL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Telegram.Enabled = true
	cfg.Telegram.BotToken = "123:abc"
	cfg.Telegram.DedupTTL = "soon"

	_, err := NewRuntimeManager(cfg, &fakeResponder{}, RuntimeAdapterOptions{})
	assert.ErrorContains(t, err, "dedup_ttl")
}

func TestRuntimeManager_StopBeforeStart(t *testing.T) {
	m, err := NewRuntimeManager(&config.Config{}, &fakeResponder{}, RuntimeAdapterOptions{})
	require.NoError(t, err)
	assert.NoError(t, m.Stop(context.Background()))
	assert.NoError(t, m.Health(context.Background()))
}

func TestRuntimeManager_HealthReportsEveryFailure(t *testing.T) {
	cfg := &config.Config{}
	cfg.Slack.WebhookURL = "https://hooks.slack.test/T000/B000/XXX"
	cfg.Telegram.Enabled = true
	cfg.Telegram.BotToken = "123:abc"
	m, err := NewRuntimeManager(cfg, &fakeResponder{}, RuntimeAdapterOptions{})
	require.NoError(t, err)

	m.Output("slack").(*SlackAdapter).webhookURL = ""

	err = m.Health(context.Background())
	assert.ErrorContains(t, err, "telegram")
	assert.ErrorContains(t, err, "slack")
}
