package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// Poll calls refresh on a fixed interval until ctx is canceled or the
// returned stop function is called. A refresh reporting a disposed node
// stops the loop; other errors are the task's own state (stored on the
// node) and polling continues. stop is idempotent and safe to hand to
// Scope.OnCleanup.
//
//	task := reactive.NewTask(fetchQuotes)
//	stop := source.Poll(ctx, 30*time.Second, task.Refresh)
//	scope.OnCleanup(stop)
func Poll(ctx context.Context, every time.Duration, refresh func() error) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() { close(done) })
	}

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if err := refresh(); errors.Is(err, reactive.ErrDisposed) {
					return
				}
			}
		}
	}()

	return stop
}
