package adapter

import (
	"context"
	"errors"
	"testing"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackAdapter_Send(t *testing.T) {
	a := NewSlackAdapter(" https://hooks.slack.test/T/B/X ")
	var gotURL string
	var got *slack.WebhookMessage
	a.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		gotURL, got = url, msg
		return nil
	}

	require.NoError(t, a.Send(context.Background(), "", "*stats fill* updated 3 rows"))
	assert.Equal(t, "https://hooks.slack.test/T/B/X", gotURL)
	assert.Equal(t, "*stats fill* updated 3 rows", got.Text)
	require.NotNil(t, got.Blocks)
	assert.Len(t, got.Blocks.BlockSet, 1)
	assert.NoError(t, a.Health(context.Background()))
}

func TestSlackAdapter_Errors(t *testing.T) {
	empty := NewSlackAdapter("")
	assert.True(t, jarvisErrors.IsCategory(empty.Send(context.Background(), "", "x"), jarvisErrors.ErrInvalidInput))
	assert.Error(t, empty.Health(context.Background()))

	a := NewSlackAdapter("https://hooks.slack.test/T/B/X")
	a.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		return errors.New("slack down")
	}
	err := a.Send(context.Background(), "", "x")
	assert.True(t, jarvisErrors.IsCategory(err, jarvisErrors.ErrExternalService))
}
