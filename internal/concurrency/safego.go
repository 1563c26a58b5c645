package concurrency

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Group runs goroutines that cannot take the process down: a panic is
// logged with its stack and reported to OnPanic.
type Group struct {
	OnPanic func(name string, recovered interface{})
	wg      sync.WaitGroup
}

// Go starts fn under recovery. name identifies the work in logs.
func (g *Group) Go(name string, fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic recovered", "work", name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
				if g.OnPanic != nil {
					g.OnPanic(name, r)
				}
			}
		}()
		fn()
	}()
}

// Wait blocks until every started goroutine has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
