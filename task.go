// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/iox"
)

// State is the scheduling state of a task.
type State uint8

const (
	// StateRunnable tasks are resumed once per tick.
	StateRunnable State = iota
	// StateWaitForTrigger tasks become runnable after their trigger flag is set.
	StateWaitForTrigger
	// StateWaitForIO tasks become runnable when their I/O completion is reaped.
	StateWaitForIO
	// StateDead marks a free slot.
	StateDead
)

func (s State) String() string {
	switch s {
	case StateRunnable:
		return "runnable"
	case StateWaitForTrigger:
		return "wait-trigger"
	case StateWaitForIO:
		return "wait-io"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Task is a unit of work owned by one Runtime. A *Task is handed to its
// frame on every resumption and is only valid on the owning runtime's
// goroutine.
type Task struct {
	rt     *Runtime
	frame  Frame
	index  int
	state  State
	queued bool

	result  Result
	ioReady bool
	yielded bool
	parked  bool

	// suspend is set by CoroFrame for the duration of a resumption.
	suspend func()
}

// Index returns the task's slot index, stable for its lifetime.
func (t *Task) Index() int {
	return t.index
}

// Runtime returns the runtime owning t.
func (t *Task) Runtime() *Runtime {
	return t.rt
}

// State returns the task's scheduling state.
func (t *Task) State() State {
	return t.state
}

// setState moves t to s, keeping the table's runnable and wait-io counts.
func (t *Task) setState(s State) {
	tb := &t.rt.table
	switch t.state {
	case StateRunnable:
		tb.runnable--
	case StateWaitForIO:
		tb.waitIO--
	}
	switch s {
	case StateRunnable:
		tb.runnable++
	case StateWaitForIO:
		tb.waitIO++
	}
	t.state = s
}

// yieldNow leaves t runnable so the operation is retried next tick.
func (t *Task) yieldNow() error {
	t.setState(StateRunnable)
	return iox.ErrWouldBlock
}

// park makes t wait for its trigger flag.
func (t *Task) park() error {
	t.setState(StateWaitForTrigger)
	return iox.ErrWouldBlock
}

// await queues fn on the runtime's driver and makes t wait for its completion.
func (t *Task) await(fn IOFunc) error {
	t.rt.driver.Queue(t.index, fn)
	t.setState(StateWaitForIO)
	return iox.ErrWouldBlock
}

// takeResult returns the last reaped I/O result.
func (t *Task) takeResult() Result {
	r := t.result
	t.result = Result{}
	t.ioReady = false
	return r
}

// block hands control back to the runtime. It is the single suspension
// point of coroutine tasks; the caller has already set the task's state.
func (t *Task) block() {
	if t.suspend == nil {
		panic("corun: blocking call outside a coroutine task")
	}
	t.suspend()
}

// Yield suspends t until the next tick.
func (t *Task) Yield() {
	_ = t.yieldNow()
	t.block()
}

// Park suspends t until its trigger flag is set by Runtime.Trigger. The task
// resumes no earlier than the tick after the one observing the trigger.
func (t *Task) Park() {
	_ = t.park()
	t.block()
}

// IO runs fn on the runtime's driver and suspends t until it completes.
func (t *Task) IO(fn IOFunc) Result {
	_ = t.await(fn)
	t.block()
	return t.takeResult()
}
