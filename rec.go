// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/kont"
)

// Loop repeats step until it returns Right (Cont-world).
// Left carries the state into the next iteration. Steps run through
// ExprLoop, so iterations that perform no effect do not grow the stack.
//
// A pump moving n values from rx to tx:
//
//	corun.Loop(0, func(i int) kont.Eff[kont.Either[int, int]] {
//		return corun.RecvOr(rx, func(v T) kont.Eff[kont.Either[int, int]] {
//			return corun.SendThen(tx, v, kont.Pure(kont.Left[int, int](i+1)))
//		}, func() kont.Eff[kont.Either[int, int]] {
//			return kont.Pure(kont.Right[int](i))
//		})
//	})
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Reflect(ExprLoop(initial, func(s S) kont.Expr[kont.Either[S, A]] {
		return kont.Reify(step(s))
	}))
}

func loopUnwind[S, A any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	step := data.(func(S) kont.Expr[kont.Either[S, A]])
	e := current.(kont.Either[S, A])
	if next, ok := e.GetLeft(); ok {
		result := ExprLoop(next, step)
		return kont.Erased(result.Value), result.Frame
	}
	a, _ := e.GetRight()
	return kont.Erased(a), exprReturnFrame
}

// ExprLoop repeats step until it returns Right (Expr-world).
// Iterations that complete without performing an effect are unrolled
// without allocating frames.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	for {
		m := step(initial)
		if _, ok := m.Frame.(kont.ReturnFrame); !ok {
			uf := kont.AcquireUnwindFrame()
			uf.Data1 = step
			uf.Unwind = loopUnwind[S, A]
			var zero A
			return kont.Expr[A]{Value: zero, Frame: kont.ChainFrames(m.Frame, uf)}
		}
		next, ok := m.Value.GetLeft()
		if !ok {
			a, _ := m.Value.GetRight()
			return kont.ExprReturn(a)
		}
		initial = next
	}
}
