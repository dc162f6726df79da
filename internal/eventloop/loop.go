// Package eventloop provides a single-goroutine cooperative scheduler.
//
// Every callback handed to a Loop runs on the loop goroutine and runs to
// completion before the next one starts, so state owned by the callbacks
// needs no locking. Blocking work (device requests) is started with Go: it
// runs on its own goroutine and its continuation is posted back onto the loop.
package eventloop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

const queueSize = 256

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was still active.
	Stop() bool
}

// Scheduler is the subset of the loop that controllers depend on.
type Scheduler interface {
	Post(fn func())
	Go(work func(ctx context.Context) func())
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Loop is the production Scheduler.
type Loop struct {
	queue  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a loop. Nothing executes until Run is called.
func New(logger *slog.Logger) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		queue:  make(chan func(), queueSize),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Run executes posted callbacks until ctx is cancelled or Stop is called.
// In-flight work started with Go sees its context cancelled on return.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return nil
	}
	defer l.cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ctx.Done():
			return nil
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

// Stop ends Run and cancels outstanding work.
func (l *Loop) Stop() {
	l.cancel()
}

// Wait blocks until every goroutine started by Go has returned.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Post queues fn for execution on the loop. Posts after Stop are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.ctx.Done():
	}
}

// Go runs work off the loop and posts the continuation it returns, if any.
func (l *Loop) Go(work func(ctx context.Context) func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if cont := work(l.ctx); cont != nil {
			l.Post(cont)
		}
	}()
}

// AfterFunc posts fn once after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	tm := time.AfterFunc(d, func() {
		l.Post(func() {
			// Stop may have raced the timer firing.
			if t.stopped.Swap(true) {
				return
			}
			fn()
		})
	})
	t.stop = func() { tm.Stop() }
	return t
}

// Every posts fn every d until the returned timer is stopped.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	done := make(chan struct{})
	ticker := time.NewTicker(d)
	t.stop = func() { close(done) }

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-l.ctx.Done():
				return
			case <-ticker.C:
				l.Post(func() {
					if t.stopped.Load() {
						return
					}
					fn()
				})
			}
		}
	}()
	return t
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Event loop callback panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

type loopTimer struct {
	stopped atomic.Bool
	stop    func()
}

func (t *loopTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.stop()
	return true
}
