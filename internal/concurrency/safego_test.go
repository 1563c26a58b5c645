package concurrency

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGroupRecoversPanics(t *testing.T) {
	var ran atomic.Int32
	var panicked []string

	g := &Group{OnPanic: func(name string, r interface{}) {
		panicked = append(panicked, name)
	}}
	g.Go("ok", func() { ran.Add(1) })
	g.Wait()
	g.Go("boom", func() { panic("bad update") })
	g.Wait()

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, []string{"boom"}, panicked)
}
