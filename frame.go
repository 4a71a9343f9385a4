// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"github.com/webriots/coro"
)

// Status is the observable outcome of a Frame after Proceed.
type Status uint8

const (
	// StatusRunning frames have more work to do.
	StatusRunning Status = iota
	// StatusDone frames completed normally.
	StatusDone
	// StatusErrored frames failed; Err reports why.
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Frame is a resumable computation driven by a Runtime.
//
// Proceed runs the computation until it suspends or completes. Before
// returning with StatusRunning, the computation has put the task in the
// state describing what it awaits. The runtime inspects nothing else.
type Frame interface {
	Proceed(t *Task)
	Status() Status
	Err() error
	Release() error
}

// releaseFrame releases f, turning a panic into an error.
func releaseFrame(f Frame) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("corun: frame release panicked: %v", p)
		}
	}()
	return f.Release()
}

// ExprFrame steps a kont program one effect at a time.
// Effects are dispatched against the running task; an effect that would
// block leaves the suspension in place and is dispatched again on the next
// resumption.
type ExprFrame[R any] struct {
	expr    kont.Expr[R]
	susp    *kont.Suspension[R]
	result  R
	err     error
	status  Status
	started bool
}

// NewExprFrame wraps an Expr-world program.
func NewExprFrame[R any](e kont.Expr[R]) *ExprFrame[R] {
	return &ExprFrame[R]{expr: e}
}

// NewEffFrame wraps a Cont-world program.
func NewEffFrame[R any](e kont.Eff[R]) *ExprFrame[R] {
	return NewExprFrame(kont.Reify(e))
}

// Proceed implements Frame.
func (f *ExprFrame[R]) Proceed(t *Task) {
	if f.status != StatusRunning {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			// The suspension may be half resumed; drop it without discarding.
			f.susp = nil
			f.fail(&PanicError{Value: p, Task: t.index})
		}
	}()
	if !f.started {
		f.started = true
		f.result, f.susp = Step(f.expr)
		f.expr = kont.Expr[R]{}
	}
	for f.susp != nil {
		var err error
		f.result, f.susp, err = Advance(t, f.susp)
		if err == nil {
			continue
		}
		if iox.IsWouldBlock(err) {
			return
		}
		f.fail(err)
		return
	}
	f.status = StatusDone
}

func (f *ExprFrame[R]) fail(err error) {
	if f.susp != nil {
		f.susp.Discard()
		f.susp = nil
	}
	f.status = StatusErrored
	f.err = err
}

// Status implements Frame.
func (f *ExprFrame[R]) Status() Status {
	return f.status
}

// Err implements Frame.
func (f *ExprFrame[R]) Err() error {
	return f.err
}

// Result returns the program's result once Status is StatusDone.
func (f *ExprFrame[R]) Result() R {
	return f.result
}

// Release implements Frame. A pending suspension is discarded.
func (f *ExprFrame[R]) Release() error {
	if f.susp != nil {
		f.susp.Discard()
		f.susp = nil
	}
	return nil
}

// CoroFrame runs an imperative function as a stackful coroutine. Blocking
// task methods inside fn suspend the coroutine and return control to the
// runtime.
type CoroFrame struct {
	fn      func(*Task) error
	resume  func(struct{}) (struct{}, bool)
	cancel  func()
	suspend func() struct{}
	task    *Task
	err     error
	status  Status
}

// NewCoroFrame wraps fn. fn starts on the first Proceed.
func NewCoroFrame(fn func(*Task) error) *CoroFrame {
	f := &CoroFrame{fn: fn}
	f.resume, f.cancel = coro.New(
		func(_ func(struct{}) struct{}, suspend func() struct{}) (z struct{}) {
			f.suspend = suspend
			f.err = f.fn(f.task)
			return
		},
	)
	return f
}

func (f *CoroFrame) pause() {
	f.suspend()
}

// Proceed implements Frame.
func (f *CoroFrame) Proceed(t *Task) {
	if f.status != StatusRunning {
		return
	}
	f.task = t
	t.suspend = f.pause
	defer func() {
		t.suspend = nil
		if p := recover(); p != nil {
			f.status = StatusErrored
			f.err = &PanicError{Value: p, Task: t.index}
		}
	}()
	if _, alive := f.resume(struct{}{}); alive {
		return
	}
	if f.err != nil {
		f.status = StatusErrored
		return
	}
	f.status = StatusDone
}

// Status implements Frame.
func (f *CoroFrame) Status() Status {
	return f.status
}

// Err implements Frame.
func (f *CoroFrame) Err() error {
	return f.err
}

// Release implements Frame. A suspended coroutine is cancelled.
func (f *CoroFrame) Release() error {
	if f.cancel == nil {
		return errors.New("corun: coroutine frame released twice")
	}
	cancel := f.cancel
	f.cancel = nil
	f.resume = nil
	cancel()
	return nil
}
