// Package loop provides the single-goroutine event loop that owns one game
// session. Player input, frame ticks and clock ticks are all executed on the
// loop goroutine, so the engine never sees concurrent calls.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned when work is submitted to a stopped loop
var ErrStopped = errors.New("loop stopped")

const queueSize = 64

// Loop serialises callbacks onto one goroutine
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
	timers   sync.WaitGroup
}

// New creates a loop. Call Start or Run to begin processing.
func New(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start runs the loop on a new goroutine
func (l *Loop) Start(ctx context.Context) {
	go l.Run(ctx)
}

// Run processes callbacks until ctx is cancelled or Stop is called
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Stop terminates the loop and every timer registered on it. Pending
// callbacks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Wait blocks until every timer goroutine has exited
func (l *Loop) Wait() {
	l.timers.Wait()
}

// Done is closed once the loop has stopped
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn without waiting for it to run. It reports false if the
// loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule calls fn on the loop every interval with the elapsed time since
// the previous call. After cancel returns, fn is never invoked again, even
// for ticks that were already queued.
func (l *Loop) Schedule(interval time.Duration, fn func(dt time.Duration)) (cancel func()) {
	var cancelled atomic.Bool
	stop := make(chan struct{})
	var once sync.Once

	l.timers.Add(1)
	go func() {
		defer l.timers.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				dt := now.Sub(last)
				last = now
				ok := l.Post(func() {
					if cancelled.Load() {
						return
					}
					fn(dt)
				})
				if !ok {
					return
				}
			case <-stop:
				return
			case <-l.done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			cancelled.Store(true)
			close(stop)
		})
	}
}
