// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"context"

	"code.hybscloud.com/kont"
	"go.uber.org/multierr"
)

// Exec runs a Cont-world program as the only task of a new runtime and
// returns its result. The runtime is closed before Exec returns.
func Exec[R any](ctx context.Context, program kont.Eff[R], opts ...Option) (R, error) {
	return ExecExpr(ctx, kont.Reify(program), opts...)
}

// ExecExpr runs an Expr-world program as the only task of a new runtime.
// A failing program returns its error: a thrown error, a *PanicError, or
// ErrStalled when it parked with nothing left to trigger it. The runtime is
// private to the call, so a park with no I/O in flight is reported as
// stalled without waiting on the driver.
func ExecExpr[R any](ctx context.Context, program kont.Expr[R], opts ...Option) (r R, err error) {
	rt, err := New(opts...)
	if err != nil {
		return r, err
	}
	defer func() {
		err = multierr.Append(err, rt.Close())
	}()
	rt.isolated = true
	f, err := SpawnExpr(rt, program)
	if err != nil {
		return r, err
	}
	if err = rt.Run(ctx); err != nil {
		return r, err
	}
	switch f.Status() {
	case StatusDone:
		return f.Result(), nil
	case StatusErrored:
		return r, f.Err()
	}
	return r, ErrStalled
}
