// Package testutil provides a deterministic eventloop.Scheduler for tests.
package testutil

import (
	"context"
	"time"

	"github.com/saniflush/camconsole/internal/eventloop"
)

// Manual runs posted callbacks and async work inline and only fires timers
// when Advance moves its virtual clock past their due time.
type Manual struct {
	now    time.Duration
	timers []*manualTimer
	ctx    context.Context
}

var _ eventloop.Scheduler = (*Manual)(nil)

// NewManual returns a scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{ctx: context.Background()}
}

type manualTimer struct {
	due    time.Duration
	period time.Duration
	fn     func()
	active bool
}

func (t *manualTimer) Stop() bool {
	was := t.active
	t.active = false
	return was
}

// Post runs fn immediately.
func (m *Manual) Post(fn func()) { fn() }

// Go runs work and its continuation immediately.
func (m *Manual) Go(work func(ctx context.Context) func()) {
	if cont := work(m.ctx); cont != nil {
		cont()
	}
}

// AfterFunc registers a one-shot timer.
func (m *Manual) AfterFunc(d time.Duration, fn func()) eventloop.Timer {
	t := &manualTimer{due: m.now + d, fn: fn, active: true}
	m.timers = append(m.timers, t)
	return t
}

// Every registers a repeating timer.
func (m *Manual) Every(d time.Duration, fn func()) eventloop.Timer {
	t := &manualTimer{due: m.now + d, period: d, fn: fn, active: true}
	m.timers = append(m.timers, t)
	return t
}

// Now returns the virtual clock.
func (m *Manual) Now() time.Duration { return m.now }

// Active counts timers that have not fired (one-shot) or been stopped.
func (m *Manual) Active() int {
	n := 0
	for _, t := range m.timers {
		if t.active {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing due timers in order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			next.active = false
		}
		next.fn()
	}
	m.now = target
}

func (m *Manual) nextDue(limit time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range m.timers {
		if !t.active || t.due > limit {
			continue
		}
		if next == nil || t.due < next.due {
			next = t
		}
	}
	return next
}
