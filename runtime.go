// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"context"
	"fmt"
	goruntime "runtime"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Runtime is a cooperative scheduler plus an asynchronous I/O driver,
// driven by a single goroutine.
//
// Only Trigger, Wake, Stop, ID and Ticks may be called from other
// goroutines. Everything else, including Spawn, belongs to the goroutine
// running the loop (or to setup code before Run).
type Runtime struct {
	table   table
	driver  Driver
	log     *zap.Logger
	current *Task
	id      Serial
	lockOS  bool

	// isolated runtimes are unreachable from other goroutines, so parked
	// tasks with no I/O in flight can never be woken.
	isolated bool

	_       [atomix.CacheLineSize]byte
	running atomix.Uint32
	active  atomix.Uint32
	ticks   atomix.Uint64
}

// New creates a runtime.
func New(opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		driver: cfg.driver,
		id:     nextSerial(),
		lockOS: cfg.lockOSThread,
	}
	rt.log = cfg.logger.With(zap.Uint32("runtime", rt.id))
	rt.table.init(rt, cfg.capacity)
	rt.running.Store(1)
	return rt, nil
}

// ID returns the runtime's serial number.
func (rt *Runtime) ID() Serial {
	return rt.id
}

// Ticks returns the number of loop iterations started so far.
func (rt *Runtime) Ticks() uint64 {
	return rt.ticks.Load()
}

// Len returns the number of live tasks.
func (rt *Runtime) Len() int {
	return rt.table.live
}

// Current returns the task being resumed, or nil outside a resumption.
func (rt *Runtime) Current() *Task {
	return rt.current
}

// Spawn adds f as a runnable task and returns its index.
func (rt *Runtime) Spawn(f Frame) (int, error) {
	t, err := rt.table.spawn(f)
	if err != nil {
		return -1, err
	}
	return t.index, nil
}

// Go spawns fn as a coroutine task.
func (rt *Runtime) Go(fn func(*Task) error) (int, error) {
	return rt.Spawn(NewCoroFrame(fn))
}

// SpawnExpr spawns an Expr-world program. The returned frame exposes the
// program's result once the task is done.
func SpawnExpr[R any](rt *Runtime, program kont.Expr[R]) (*ExprFrame[R], error) {
	f := NewExprFrame(program)
	if _, err := rt.Spawn(f); err != nil {
		return nil, err
	}
	return f, nil
}

// SpawnEff spawns a Cont-world program.
func SpawnEff[R any](rt *Runtime, program kont.Eff[R]) (*ExprFrame[R], error) {
	return SpawnExpr(rt, kont.Reify(program))
}

// Trigger sets the trigger flag of the task at index and wakes the loop.
// Safe to call from any goroutine. Out-of-range indices are ignored.
func (rt *Runtime) Trigger(index int) {
	if rt.table.trigger(index) {
		rt.Wake()
	}
}

// Wake interrupts a blocking reap so the loop re-checks its state.
// Safe to call from any goroutine.
func (rt *Runtime) Wake() {
	if err := rt.driver.Wake(); err != nil {
		rt.log.Warn("wake failed", zap.Error(err))
	}
}

// Stop asks the loop to return at the next iteration boundary. A Stop
// before Run makes that Run return without ticking.
// Safe to call from any goroutine.
func (rt *Runtime) Stop() {
	rt.running.Store(0)
	rt.Wake()
}

// Run drives the runtime until no tasks remain, Stop is called, no task can
// make progress, or ctx is done. Failures of the loop itself (driver
// errors, context cancellation) are returned; failing tasks are logged and
// released without ending the loop.
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.active.CompareAndSwap(0, 1) {
		return ErrRunning
	}
	defer rt.active.Store(0)
	if rt.lockOS {
		goruntime.LockOSThread()
		defer goruntime.UnlockOSThread()
	}

	defer rt.running.Store(1)
	if rt.running.Load() == 0 {
		rt.log.Debug("runtime stopped before start", zap.Int("tasks", rt.table.live))
		return nil
	}
	rt.log.Debug("runtime started", zap.Int("tasks", rt.table.live))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rt.ticks.Add(1)
		if err := rt.compute(); err != nil {
			return err
		}
		if rt.running.Load() == 0 || rt.table.live == 0 {
			rt.log.Debug("runtime stopped", zap.Int("tasks", rt.table.live))
			return nil
		}
		pending := rt.table.triggered()
		block := rt.table.runnable == 0 && !pending
		if block && rt.isolated && rt.table.waitIO == 0 {
			rt.log.Warn("runtime stalled", zap.Int("tasks", rt.table.live))
			return nil
		}
		woke, err := rt.poll(ctx, block)
		if err != nil {
			return err
		}
		if rt.table.runnable == 0 && !woke && !pending {
			rt.log.Warn("runtime stalled", zap.Int("tasks", rt.table.live))
			return nil
		}
	}
}

// compute resumes every task that was dirty when the tick began. Tasks made
// dirty during the tick, including those promoted by a trigger, are left
// for the next tick.
func (rt *Runtime) compute() error {
	tb := &rt.table
	for n := tb.dirty.Len(); n > 0; n-- {
		i := tb.dirty.PopFront()
		if i < 0 || i >= len(tb.tasks) {
			return fmt.Errorf("corun: dirty index %d: %w", i, ErrIndex)
		}
		t := &tb.tasks[i]
		t.queued = false
		switch t.state {
		case StateRunnable:
			rt.resume(t)
		case StateWaitForTrigger:
			if tb.takeTrigger(i) {
				t.setState(StateRunnable)
			}
			tb.enqueue(t)
		case StateWaitForIO, StateDead:
		default:
			return fmt.Errorf("corun: task %d in state %d: %w", i, t.state, ErrIndex)
		}
	}
	return nil
}

// resume proceeds t's frame once and settles the outcome.
func (rt *Runtime) resume(t *Task) {
	rt.current = t
	t.frame.Proceed(t)
	rt.current = nil

	switch t.frame.Status() {
	case StatusDone:
		rt.destroy(t)
		if rt.table.live == 0 {
			rt.running.Store(0)
		}
	case StatusErrored:
		rt.log.Warn("task failed", zap.Int("task", t.index), zap.Error(t.frame.Err()))
		rt.destroy(t)
	default:
		if t.state != StateWaitForIO {
			rt.table.enqueue(t)
		}
	}
}

// destroy frees t's slot and frame. A release failure is logged only.
func (rt *Runtime) destroy(t *Task) {
	f := t.frame
	index := t.index
	rt.table.release(t)
	if err := releaseFrame(f); err != nil {
		rt.log.Error("task release failed", zap.Int("task", index), zap.Error(err))
	}
}

// poll runs the I/O phase. The reap blocks only when no task is runnable
// and no parked task has a trigger waiting to be observed.
func (rt *Runtime) poll(ctx context.Context, block bool) (woke bool, err error) {
	if err := rt.driver.Submit(); err != nil {
		return false, fmt.Errorf("corun: submit: %w", err)
	}
	err = rt.driver.Reap(ctx, block, func(c Completion) {
		if c.Wake() {
			woke = true
			return
		}
		t := rt.table.get(c.Index)
		if t == nil || t.state != StateWaitForIO {
			rt.log.Debug("stale completion", zap.Int("task", c.Index))
			return
		}
		t.result = c.Result
		t.ioReady = true
		t.setState(StateRunnable)
		rt.table.enqueue(t)
	})
	if err != nil {
		return woke, fmt.Errorf("corun: reap: %w", err)
	}
	return woke, nil
}

// Close releases every remaining task and closes the driver.
// It fails with ErrRunning while Run is active.
func (rt *Runtime) Close() error {
	if rt.active.Load() != 0 {
		return ErrRunning
	}
	var errs error
	for i := range rt.table.tasks {
		t := &rt.table.tasks[i]
		if t.state == StateDead {
			continue
		}
		f := t.frame
		rt.table.release(t)
		errs = multierr.Append(errs, releaseFrame(f))
	}
	rt.table.dirty.Clear()
	for i := range rt.table.tasks {
		rt.table.tasks[i].queued = false
	}
	return multierr.Append(errs, rt.driver.Close())
}
