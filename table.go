// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/atomix"
	"github.com/gammazero/deque"
)

// table holds a runtime's tasks in fixed slots. Only the trigger flags may
// be touched from other goroutines; they are allocated once and never move.
type table struct {
	tasks    []Task
	free     []int
	triggers []atomix.Uint32
	dirty    deque.Deque[int]
	live     int
	runnable int
	waitIO   int
}

func (tb *table) init(rt *Runtime, capacity int) {
	tb.tasks = make([]Task, capacity)
	tb.triggers = make([]atomix.Uint32, capacity)
	tb.free = make([]int, 0, capacity)
	for i := capacity - 1; i >= 0; i-- {
		tb.tasks[i] = Task{rt: rt, index: i, state: StateDead}
		tb.free = append(tb.free, i)
	}
}

// spawn places f in a free slot as a runnable, dirty task.
func (tb *table) spawn(f Frame) (*Task, error) {
	n := len(tb.free)
	if n == 0 {
		return nil, ErrTableFull
	}
	i := tb.free[n-1]
	tb.free = tb.free[:n-1]

	t := &tb.tasks[i]
	queued := t.queued
	*t = Task{rt: t.rt, index: i, state: StateDead, frame: f, queued: queued}
	tb.triggers[i].Store(0)
	t.setState(StateRunnable)
	tb.enqueue(t)
	tb.live++
	return t, nil
}

// get returns the live task at i, or nil.
func (tb *table) get(i int) *Task {
	if i < 0 || i >= len(tb.tasks) {
		return nil
	}
	t := &tb.tasks[i]
	if t.state == StateDead {
		return nil
	}
	return t
}

// release returns t's slot to the free list. A pending dirty entry for the
// slot is skipped when popped.
func (tb *table) release(t *Task) {
	t.setState(StateDead)
	t.frame = nil
	t.suspend = nil
	tb.free = append(tb.free, t.index)
	tb.live--
}

// enqueue marks t dirty unless it already is.
func (tb *table) enqueue(t *Task) {
	if t.queued {
		return
	}
	t.queued = true
	tb.dirty.PushBack(t.index)
}

// trigger sets the flag for slot i. Safe from any goroutine.
func (tb *table) trigger(i int) bool {
	if i < 0 || i >= len(tb.triggers) {
		return false
	}
	tb.triggers[i].Store(1)
	return true
}

// takeTrigger clears and reports the flag for slot i.
func (tb *table) takeTrigger(i int) bool {
	if tb.triggers[i].Load() == 0 {
		return false
	}
	return tb.triggers[i].CompareAndSwap(1, 0)
}

// triggered reports whether a parked task has its trigger flag set.
func (tb *table) triggered() bool {
	for k := 0; k < tb.dirty.Len(); k++ {
		i := tb.dirty.At(k)
		if tb.tasks[i].state == StateWaitForTrigger && tb.triggers[i].Load() != 0 {
			return true
		}
	}
	return false
}
