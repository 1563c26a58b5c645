package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullAdapter(t *testing.T) {
	assert.Equal(t, "null", NewNullAdapter("").Name())

	a := NewNullAdapter("scheduler")
	assert.Equal(t, "scheduler", a.Name())
	assert.NoError(t, a.Send(context.Background(), "stats", "filled 4 rows"))
	assert.NoError(t, a.Health(context.Background()))
}
