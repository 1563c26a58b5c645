package session

import (
	"context"
	"testing"
	"time"

	"github.com/harunnryd/jarvis/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginSerialisesTurns(t *testing.T) {
	s := New("cli")

	release, err := s.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	again, err := s.Begin(context.Background())
	require.NoError(t, err)
	again()
}

func TestHistoryLimitAndMessages(t *testing.T) {
	s := New("cli", WithHistoryLimit(2))
	s.Append(
		Turn{Role: RoleUser, Content: "hi"},
		Turn{Role: RoleModel, Content: "hello"},
		Turn{Role: RoleUser, Content: "ate oatmeal", Image: &contract.Image{MIMEType: "image/jpeg", Data: []byte{1}}},
	)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, contract.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, contract.RoleUser, msgs[1].Role)
	assert.NotNil(t, msgs[1].Image)
}

func TestTranscriptRestoresHistory(t *testing.T) {
	tr, err := NewTranscript(t.TempDir(), 0)
	require.NoError(t, err)

	first := New("tg:42", WithTranscript(tr))
	first.Append(Turn{Role: RoleUser, Content: "bench 60x10"}, Turn{Role: RoleModel, Content: "Logged."})

	restored := New("tg:42", WithTranscript(tr))
	history := restored.History()
	require.Len(t, history, 2)
	assert.Equal(t, "bench 60x10", history[0].Content)
	assert.Equal(t, RoleModel, history[1].Role)

	require.NoError(t, restored.Reset())
	assert.Empty(t, New("tg:42", WithTranscript(tr)).History())
}

func TestManagerReusesSessions(t *testing.T) {
	m := NewManager(nil, 10)
	assert.Same(t, m.Get("a"), m.Get("a"))
	assert.NotSame(t, m.Get("a"), m.Get("b"))
}
