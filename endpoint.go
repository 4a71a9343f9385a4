// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/iox"
)

// Sender is the producing side of a Chan, bound to one runtime.
type Sender[T any] struct {
	ch *Chan[T]
	rt *Runtime
}

// Chan returns the channel s sends on.
func (s *Sender[T]) Chan() *Chan[T] {
	return s.ch
}

func (s *Sender[T]) check(t *Task) {
	if t.rt != s.rt {
		panic("corun: sender used from a task on another runtime")
	}
}

// TrySend pushes v without suspending.
// Returns nil, ErrClosed, or iox.ErrWouldBlock after putting t in the state
// it should wait in (runnable while the consumer has not attached, waiting
// for a trigger while the ring is full).
func (s *Sender[T]) TrySend(t *Task, v T) error {
	s.check(t)
	return s.ch.trySend(t, v)
}

// Send pushes v, suspending the coroutine task t while it cannot.
// Returns ErrClosed once either side has closed.
func (s *Sender[T]) Send(t *Task, v T) error {
	for {
		err := s.TrySend(t, v)
		if !iox.IsWouldBlock(err) {
			return err
		}
		t.block()
	}
}

// Close closes the producing side. The consumer drains buffered values and
// then observes ErrClosed. Safe to call more than once.
func (s *Sender[T]) Close() {
	s.ch.close(ctlProdOpen, &s.ch.prod, &s.ch.cons)
}

// Release tears the channel down. It reports whether this call dropped the
// ring storage; with both sides releasing concurrently exactly one does.
func (s *Sender[T]) Release() bool {
	return s.ch.teardown(&s.ch.prod, &s.ch.cons)
}

// Receiver is the consuming side of a Chan, bound to one runtime.
type Receiver[T any] struct {
	ch *Chan[T]
	rt *Runtime
}

// Chan returns the channel r receives from.
func (r *Receiver[T]) Chan() *Chan[T] {
	return r.ch
}

func (r *Receiver[T]) check(t *Task) {
	if t.rt != r.rt {
		panic("corun: receiver used from a task on another runtime")
	}
}

// TryRecv pops a value without suspending.
// Returns the value, ErrClosed, or iox.ErrWouldBlock after putting t in the
// state it should wait in.
func (r *Receiver[T]) TryRecv(t *Task) (T, error) {
	r.check(t)
	return r.ch.tryRecv(t)
}

// Recv pops a value, suspending the coroutine task t while the ring is
// empty. Returns ErrClosed once the producer has closed and every buffered
// value was received, or once the channel is torn down.
func (r *Receiver[T]) Recv(t *Task) (T, error) {
	for {
		v, err := r.TryRecv(t)
		if !iox.IsWouldBlock(err) {
			return v, err
		}
		t.block()
	}
}

// Close closes the consuming side. A producer parked on a full ring
// observes ErrClosed. Safe to call more than once.
func (r *Receiver[T]) Close() {
	r.ch.close(ctlConsOpen, &r.ch.cons, &r.ch.prod)
}

// Release tears the channel down. See Sender.Release.
func (r *Receiver[T]) Release() bool {
	return r.ch.teardown(&r.ch.cons, &r.ch.prod)
}
