// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/kont"
)

// SendBind sends v on tx and passes the outcome (nil or ErrClosed) to f.
// Fuses Perform(Send[T]{...}) + Bind.
func SendBind[T, B any](tx *Sender[T], v T, f func(error) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Send[T]{Tx: tx, Value: v}), func(e kont.Either[error, struct{}]) kont.Eff[B] {
		err, _ := e.GetLeft()
		return f(err)
	})
}

// SendThen sends v on tx and then continues with next.
// A closed channel throws ErrClosed.
func SendThen[T, B any](tx *Sender[T], v T, next kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Send[T]{Tx: tx, Value: v}), func(e kont.Either[error, struct{}]) kont.Eff[B] {
		if err, ok := e.GetLeft(); ok {
			return kont.ThrowError[error, B](err)
		}
		return next
	})
}

// RecvBind receives a value from rx and passes it to f.
// A closed and drained channel throws ErrClosed.
func RecvBind[T, B any](rx *Receiver[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Recv[T]{Rx: rx}), func(e kont.Either[error, T]) kont.Eff[B] {
		if err, ok := e.GetLeft(); ok {
			return kont.ThrowError[error, B](err)
		}
		v, _ := e.GetRight()
		return f(v)
	})
}

// RecvOr receives a value from rx and passes it to f, or continues with
// closed once the channel is closed and drained.
func RecvOr[T, B any](rx *Receiver[T], f func(T) kont.Eff[B], closed func() kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Recv[T]{Rx: rx}), func(e kont.Either[error, T]) kont.Eff[B] {
		if v, ok := e.GetRight(); ok {
			return f(v)
		}
		return closed()
	})
}

// CloseDone closes end and returns a.
// Fuses Perform(Close{...}) + Then + Pure.
func CloseDone[A any](end Closer, a A) kont.Eff[A] {
	return kont.Then(kont.Perform(Close{End: end}), kont.Pure(a))
}

// YieldThen gives up the rest of the tick and continues with next.
func YieldThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Yield{}), next)
}

// ParkThen waits for the task's trigger and continues with next.
func ParkThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Park{}), next)
}

// AwaitBind runs fn on the I/O driver and passes its result to f.
func AwaitBind[B any](fn IOFunc, f func(Result) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Await{Fn: fn}), f)
}
