package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DelayedTask runs fn once a quiet period of delay has passed since the last
// Arm call. Re-arming restarts the full delay; a burst of Arm calls yields a
// single run.
type DelayedTask struct {
	name   string
	delay  time.Duration
	fn     func(context.Context)
	logger *zap.Logger

	mu     sync.Mutex
	ctx    context.Context
	timer  *time.Timer
	gen    uint64
	closed bool
}

// NewDelayedTask builds a task bound to ctx; fn receives ctx when it fires.
func NewDelayedTask(ctx context.Context, name string, delay time.Duration, fn func(context.Context), logger *zap.Logger) *DelayedTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &DelayedTask{name: name, delay: delay, fn: fn, logger: logger, ctx: ctx}
}

// Arm schedules fn after the configured delay, replacing any pending run.
func (t *DelayedTask) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.delay, func() { t.fire(gen) })
	t.logger.Debug("delayed task armed", zap.String("task", t.name), zap.Duration("delay", t.delay))
}

// Cancel drops a pending run. It reports whether one was pending.
func (t *DelayedTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

// Pending reports whether a run is scheduled.
func (t *DelayedTask) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Close cancels any pending run and rejects further Arm calls.
func (t *DelayedTask) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.closed = true
}

func (t *DelayedTask) cancelLocked() bool {
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	return true
}

func (t *DelayedTask) fire(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen || t.ctx.Err() != nil {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	ctx := t.ctx
	t.mu.Unlock()

	t.fn(ctx)
}
