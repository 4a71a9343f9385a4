// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/kont"
)

// taskDispatcher is implemented by every effect a task program may perform.
// DispatchTask returns iox.ErrWouldBlock after putting t in the state it
// waits in; the same operation is dispatched again on the next resumption.
type taskDispatcher interface {
	DispatchTask(t *Task) (kont.Resumed, error)
}

// Pre-boxed resume values. Boxing a non-empty Either into kont.Resumed
// allocates otherwise.
var (
	sentOK     kont.Resumed = kont.Right[error](struct{}{})
	sentClosed kont.Resumed = kont.Left[error, struct{}](ErrClosed)
)

// Send is the effect operation for pushing Value on Tx.
// It resumes with Right on success and Left(ErrClosed) once the channel is
// closed.
type Send[T any] struct {
	kont.Phantom[kont.Either[error, struct{}]]
	Tx    *Sender[T]
	Value T
}

// DispatchTask handles Send on the running task.
func (s Send[T]) DispatchTask(t *Task) (kont.Resumed, error) {
	err := s.Tx.TrySend(t, s.Value)
	switch err {
	case nil:
		return sentOK, nil
	case ErrClosed:
		return sentClosed, nil
	}
	return nil, err
}

// Recv is the effect operation for popping a value from Rx.
// It resumes with Right(v), or Left(ErrClosed) once the producer has closed
// and the ring is drained.
type Recv[T any] struct {
	kont.Phantom[kont.Either[error, T]]
	Rx *Receiver[T]
}

// DispatchTask handles Recv on the running task.
func (r Recv[T]) DispatchTask(t *Task) (kont.Resumed, error) {
	v, err := r.Rx.TryRecv(t)
	switch err {
	case nil:
		return kont.Right[error](v), nil
	case ErrClosed:
		return kont.Left[error, T](ErrClosed), nil
	}
	return nil, err
}

// Closer is either side of a channel.
type Closer interface {
	Close()
}

// Close is the effect operation for closing one side of a channel.
// Never blocks.
type Close struct {
	kont.Phantom[struct{}]
	End Closer
}

// DispatchTask handles Close.
func (c Close) DispatchTask(*Task) (kont.Resumed, error) {
	c.End.Close()
	return struct{}{}, nil
}

// Yield is the effect operation for giving up the rest of the tick.
type Yield struct {
	kont.Phantom[struct{}]
}

// DispatchTask handles Yield. The first dispatch suspends; the redispatch
// on the next tick resumes the program.
func (Yield) DispatchTask(t *Task) (kont.Resumed, error) {
	if t.yielded {
		t.yielded = false
		return struct{}{}, nil
	}
	t.yielded = true
	return nil, t.yieldNow()
}

// Park is the effect operation for waiting on the task's trigger flag.
type Park struct {
	kont.Phantom[struct{}]
}

// DispatchTask handles Park.
func (Park) DispatchTask(t *Task) (kont.Resumed, error) {
	if t.parked {
		t.parked = false
		return struct{}{}, nil
	}
	t.parked = true
	return nil, t.park()
}

// Await is the effect operation for running Fn on the runtime's I/O
// driver. It resumes with the completion's Result.
type Await struct {
	kont.Phantom[Result]
	Fn IOFunc
}

// DispatchTask handles Await.
func (a Await) DispatchTask(t *Task) (kont.Resumed, error) {
	if t.ioReady {
		return t.takeResult(), nil
	}
	return nil, t.await(a.Fn)
}

// Pre-allocated erased operations for the field-less effects.
var (
	exprYield kont.Erased = Yield{}
	exprPark  kont.Erased = Park{}
)
