// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/kont"
)

var exprReturnFrame kont.Frame = kont.ReturnFrame{}

// identityResume is the identity resume function for EffectFrame construction.
func identityResume(v kont.Erased) kont.Erased { return v }

func exprSuspend[B any](op kont.Erased, next kont.Frame) kont.Expr[B] {
	ef := kont.AcquireEffectFrame()
	ef.Operation = op
	ef.Resume = identityResume
	ef.Next = next
	return kont.ExprSuspend[B](ef)
}

func thenFrame[B any](next kont.Expr[B]) kont.Frame {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	return tf
}

func sendBindUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(error) kont.Expr[B])
	err, _ := current.(kont.Either[error, struct{}]).GetLeft()
	result := f(err)
	return kont.Erased(result.Value), result.Frame
}

// ExprSendBind sends v on tx and passes the outcome (nil or ErrClosed) to f.
// Fuses ExprPerform(Send[T]{...}) + ExprBind.
func ExprSendBind[T, B any](tx *Sender[T], v T, f func(error) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = sendBindUnwind[B]
	return exprSuspend[B](Send[T]{Tx: tx, Value: v}, bf)
}

func sendThenUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	var result kont.Expr[B]
	if err, ok := current.(kont.Either[error, struct{}]).GetLeft(); ok {
		result = kont.ExprThrowError[error, B](err)
	} else {
		result = data.(kont.Expr[B])
	}
	return kont.Erased(result.Value), result.Frame
}

// ExprSendThen sends v on tx and then continues with next.
// A closed channel throws ErrClosed.
func ExprSendThen[T, B any](tx *Sender[T], v T, next kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = next
	bf.Unwind = sendThenUnwind[B]
	return exprSuspend[B](Send[T]{Tx: tx, Value: v}, bf)
}

func recvBindUnwind[T, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	e := current.(kont.Either[error, T])
	var result kont.Expr[B]
	if v, ok := e.GetRight(); ok {
		result = data.(func(T) kont.Expr[B])(v)
	} else {
		err, _ := e.GetLeft()
		result = kont.ExprThrowError[error, B](err)
	}
	return kont.Erased(result.Value), result.Frame
}

// ExprRecvBind receives a value from rx and passes it to f.
// A closed and drained channel throws ErrClosed.
func ExprRecvBind[T, B any](rx *Receiver[T], f func(T) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = recvBindUnwind[T, B]
	return exprSuspend[B](Recv[T]{Rx: rx}, bf)
}

func recvOrUnwind[T, B any](data, data2, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	var result kont.Expr[B]
	if v, ok := current.(kont.Either[error, T]).GetRight(); ok {
		result = data.(func(T) kont.Expr[B])(v)
	} else {
		result = data2.(func() kont.Expr[B])()
	}
	return kont.Erased(result.Value), result.Frame
}

// ExprRecvOr receives a value from rx and passes it to f, or continues with
// closed once the channel is closed and drained.
func ExprRecvOr[T, B any](rx *Receiver[T], f func(T) kont.Expr[B], closed func() kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Data2 = closed
	bf.Unwind = recvOrUnwind[T, B]
	return exprSuspend[B](Recv[T]{Rx: rx}, bf)
}

// ExprCloseDone closes end and returns a.
// Fuses ExprPerform(Close{...}) + ExprThen + ExprReturn.
func ExprCloseDone[A any](end Closer, a A) kont.Expr[A] {
	return exprSuspend[A](Close{End: end}, thenFrame(kont.ExprReturn(a)))
}

// ExprYieldThen gives up the rest of the tick and continues with next.
func ExprYieldThen[B any](next kont.Expr[B]) kont.Expr[B] {
	return exprSuspend[B](exprYield, thenFrame(next))
}

// ExprParkThen waits for the task's trigger and continues with next.
func ExprParkThen[B any](next kont.Expr[B]) kont.Expr[B] {
	return exprSuspend[B](exprPark, thenFrame(next))
}

func awaitBindUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	result := data.(func(Result) kont.Expr[B])(current.(Result))
	return kont.Erased(result.Value), result.Frame
}

// ExprAwaitBind runs fn on the I/O driver and passes its result to f.
func ExprAwaitBind[B any](fn IOFunc, f func(Result) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = awaitBindUnwind[B]
	return exprSuspend[B](Await{Fn: fn}, bf)
}
