// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"os"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"
)

// ChanState is the lifecycle state of a Chan. It only moves forward.
type ChanState uint32

const (
	// ChanStarting channels are waiting for both sides to attach.
	ChanStarting ChanState = iota
	// ChanRunning channels have both sides attached.
	ChanRunning
	// ChanClosed channels are torn down. The state is terminal.
	ChanClosed
)

func (s ChanState) String() string {
	switch s {
	case ChanStarting:
		return "starting"
	case ChanRunning:
		return "running"
	case ChanClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Control word layout. State, attachment and both open flags share one
// word so that teardown is a single compare-and-swap.
const (
	ctlState        = 0x3
	ctlProdAttached = 1 << 2
	ctlConsAttached = 1 << 3
	ctlProdOpen     = 1 << 4
	ctlConsOpen     = 1 << 5
)

// endpoint holds the fields written by one side: the attached runtime
// (identity only) and the index of that side's waiting task, plus one.
// The wait record is consumed by the first signal reading it.
type endpoint struct {
	rt   atomic.Pointer[Runtime]
	wait atomix.Uint32
}

// Chan is a bounded single-producer single-consumer channel. The producer
// and consumer may run on different runtimes.
//
// Push and pop on a ring with room touch nothing but the ring. A full or
// empty ring records the waiting task and triggers the peer's runtime.
type Chan[T any] struct {
	_    [atomix.CacheLineSize]byte
	ctl  atomix.Uint32Padded
	prod endpoint
	_    [atomix.CacheLineSize - unsafe.Sizeof(endpoint{})]byte
	cons endpoint
	_    [atomix.CacheLineSize - unsafe.Sizeof(endpoint{})]byte
	ring atomic.Pointer[ring[T]]
	cap  int
}

// NewChan creates a channel holding at most capacity values.
// The capacity is fixed for the channel's lifetime.
func NewChan[T any](capacity int) *Chan[T] {
	if capacity <= 0 {
		panic("corun: channel capacity must be positive")
	}
	c := &Chan[T]{cap: capacity}
	c.ring.Store(newRing[T](capacity))
	return c
}

// State returns the channel's lifecycle state.
//
// Closing one side of a running channel leaves it ChanRunning so that the
// consumer can drain what was buffered; only Release, or a close before
// both sides attached, moves it to ChanClosed.
func (c *Chan[T]) State() ChanState {
	return ChanState(c.ctl.Load() & ctlState)
}

// Cap returns the channel's capacity.
func (c *Chan[T]) Cap() int {
	return c.cap
}

// Len returns the number of buffered values. Zero once torn down.
func (c *Chan[T]) Len() int {
	r := c.ring.Load()
	if r == nil {
		return 0
	}
	return r.len()
}

// Producer attaches rt as the producing side.
// A second producer attach terminates the process.
func (c *Chan[T]) Producer(rt *Runtime) *Sender[T] {
	c.attach(&c.prod, rt, ctlProdAttached|ctlProdOpen, ctlConsAttached, "producer")
	return &Sender[T]{ch: c, rt: rt}
}

// Consumer attaches rt as the consuming side.
// A second consumer attach terminates the process.
func (c *Chan[T]) Consumer(rt *Runtime) *Receiver[T] {
	c.attach(&c.cons, rt, ctlConsAttached|ctlConsOpen, ctlProdAttached, "consumer")
	return &Receiver[T]{ch: c, rt: rt}
}

func (c *Chan[T]) attach(ep *endpoint, rt *Runtime, set, peer uint32, role string) {
	if rt == nil {
		panic("corun: attach with nil runtime")
	}
	if !ep.rt.CompareAndSwap(nil, rt) {
		misuse(role, rt)
	}
	for {
		w := c.ctl.Load()
		nw := w | set
		if ChanState(w&ctlState) == ChanStarting && w&peer != 0 {
			nw = nw&^ctlState | uint32(ChanRunning)
		}
		if c.ctl.CompareAndSwap(w, nw) {
			return
		}
	}
}

// misuse terminates the process on a second attach of one side.
func misuse(role string, rt *Runtime) {
	Logger().Fatal("corun: channel "+role+" attached twice", zap.Uint32("runtime", rt.id))
	// Reached only when the logger's fatal hook returns.
	os.Exit(1)
}

// signal takes the task recorded by ep and triggers it on ep's runtime.
// No-op when that side has no waiting task recorded.
func (c *Chan[T]) signal(ep *endpoint) {
	w := ep.wait.Swap(0)
	if w == 0 {
		return
	}
	if rt := ep.rt.Load(); rt != nil {
		rt.Trigger(int(w - 1))
	}
}

// trySend pushes v or records why t must wait.
// Returns nil, ErrClosed, or iox.ErrWouldBlock with t's state set.
func (c *Chan[T]) trySend(t *Task, v T) error {
	for {
		w := c.ctl.Load()
		switch ChanState(w & ctlState) {
		case ChanStarting:
			return t.yieldNow()
		case ChanClosed:
			return ErrClosed
		}
		if w&ctlConsOpen == 0 || w&ctlProdOpen == 0 {
			return ErrClosed
		}
		r := c.ring.Load()
		if r == nil {
			return ErrClosed
		}
		if r.push(v) {
			return nil
		}

		self := uint32(t.index) + 1
		c.prod.wait.Store(self)
		c.signal(&c.cons)
		// The consumer may have drained or closed between the failed push
		// and the record above without seeing it.
		w = c.ctl.Load()
		if ChanState(w&ctlState) != ChanRunning || w&ctlConsOpen == 0 || !r.full() {
			c.prod.wait.CompareAndSwap(self, 0)
			continue
		}
		return t.park()
	}
}

// tryRecv pops a value or records why t must wait.
// Returns ErrClosed once the producer has closed and the ring is drained.
func (c *Chan[T]) tryRecv(t *Task) (T, error) {
	var zero T
	for {
		w := c.ctl.Load()
		switch ChanState(w & ctlState) {
		case ChanStarting:
			return zero, t.yieldNow()
		case ChanClosed:
			return zero, ErrClosed
		}
		if w&ctlConsOpen == 0 {
			return zero, ErrClosed
		}
		r := c.ring.Load()
		if r == nil {
			return zero, ErrClosed
		}
		if v, ok := r.pop(); ok {
			return v, nil
		}
		// Values pushed before the producer closed were visible to pop.
		if w&ctlProdOpen == 0 {
			return zero, ErrClosed
		}

		self := uint32(t.index) + 1
		c.cons.wait.Store(self)
		c.signal(&c.prod)
		w = c.ctl.Load()
		if ChanState(w&ctlState) != ChanRunning || w&ctlProdOpen == 0 || w&ctlConsOpen == 0 || r.len() > 0 {
			c.cons.wait.CompareAndSwap(self, 0)
			continue
		}
		return zero, t.park()
	}
}

// close clears one side's open flag and triggers the peer so that a task
// parked on a full or empty ring observes the close. Closing before the
// peer attached closes the channel outright.
func (c *Chan[T]) close(open uint32, self, peer *endpoint) {
	self.wait.Store(0)
	for {
		w := c.ctl.Load()
		if w&open == 0 {
			return
		}
		nw := w &^ open
		free := false
		if ChanState(w&ctlState) == ChanStarting {
			nw = nw&^ctlState | uint32(ChanClosed)
			free = true
		}
		if c.ctl.CompareAndSwap(w, nw) {
			if free {
				c.ring.Store(nil)
			}
			c.signal(peer)
			return
		}
	}
}

// teardown clears both open flags and moves the channel to Closed in one
// compare-and-swap. Exactly one caller wins and drops the ring storage.
func (c *Chan[T]) teardown(self, peer *endpoint) bool {
	self.wait.Store(0)
	for {
		w := c.ctl.Load()
		if ChanState(w&ctlState) == ChanClosed {
			return false
		}
		nw := w&^(ctlState|ctlProdOpen|ctlConsOpen) | uint32(ChanClosed)
		if c.ctl.CompareAndSwap(w, nw) {
			c.ring.Store(nil)
			c.signal(peer)
			return true
		}
	}
}
