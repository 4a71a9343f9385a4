// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"errors"
	"fmt"

	"code.hybscloud.com/kont"
)

var (
	// ErrClosed is returned by channel operations once either side has shut
	// the channel down. It is the only error a channel operation surfaces.
	ErrClosed = errors.New("corun: channel closed")

	// ErrTableFull is returned by Spawn when every task slot is in use.
	ErrTableFull = errors.New("corun: task table full")

	// ErrRunning is returned by Run when the runtime loop is already active,
	// and by Close when called while it is.
	ErrRunning = errors.New("corun: runtime already running")

	// ErrIndex reports a task index that does not name a live task.
	ErrIndex = errors.New("corun: invalid task index")

	// ErrStalled is returned by Exec when the runtime stopped before the
	// program finished.
	ErrStalled = errors.New("corun: program stalled")
)

// errorDispatcher is the structural interface of kont's error effects
// (Throw, Catch) instantiated with E = error.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}

// dispatchError runs an error effect. A Throw ends the program: the thrown
// error is returned and the caller discards the suspension.
func dispatchError(eop errorDispatcher) (kont.Resumed, error) {
	var ctx kont.ErrorContext[error]
	v, _ := eop.DispatchError(&ctx)
	if ctx.HasErr {
		if ctx.Err == nil {
			return nil, errors.New("corun: task threw a nil error")
		}
		return nil, ctx.Err
	}
	return v, nil
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Task  int
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("corun: task %d panicked: %v", e.Task, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
