// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"code.hybscloud.com/kont"
)

// Step evaluates a task program until the first effect suspension.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](program kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(program)
}

// Advance dispatches the suspended operation against t.
//
// On success (nil error), the suspension is consumed and the program
// advances to the next effect or completion.
// On iox.ErrWouldBlock, the operation has recorded what t awaits; the
// suspension is unconsumed and is retried on the task's next resumption.
// A thrown error (kont error effects with E = error) discards the
// suspension and is returned as is.
func Advance[R any](t *Task, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	var zero R
	switch op := susp.Op().(type) {
	case taskDispatcher:
		v, err := op.DispatchTask(t)
		if err != nil {
			return zero, susp, err
		}
		result, next := susp.Resume(v)
		return result, next, nil
	case errorDispatcher:
		v, err := dispatchError(op)
		if err != nil {
			susp.Discard()
			return zero, nil, err
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	panic("corun: unhandled effect in Advance")
}
