package sheet

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// fileLock serialises workbook writers across processes (the chat REPL and
// the daemon may share one workbook).
type fileLock struct {
	lock     *flock.Flock
	retry    time.Duration
	maxRetry int
}

func newFileLock(path string, retry time.Duration, maxRetry int) *fileLock {
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	if maxRetry <= 0 {
		maxRetry = 100
	}
	return &fileLock{lock: flock.New(path + ".lock"), retry: retry, maxRetry: maxRetry}
}

func (fl *fileLock) acquire(ctx context.Context) error {
	for i := 0; i < fl.maxRetry; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("lock acquisition cancelled: %w", err)
		}

		locked, err := fl.lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to attempt lock: %w", err)
		}
		if locked {
			return nil
		}

		if i < fl.maxRetry-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("lock acquisition cancelled: %w", ctx.Err())
			case <-time.After(fl.retry):
			}
		}
	}

	return fmt.Errorf("workbook %s is locked by another process", fl.lock.Path())
}

func (fl *fileLock) release() error {
	return fl.lock.Unlock()
}
