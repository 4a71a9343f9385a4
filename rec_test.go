// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun_test

import (
	"context"
	"testing"

	"code.hybscloud.com/corun"
	"code.hybscloud.com/kont"
)

func TestExprLoopPure(t *testing.T) {
	result := kont.RunPure(corun.ExprLoop(0, func(i int) kont.Expr[kont.Either[int, string]] {
		if i < 5 {
			return kont.ExprReturn(kont.Left[int, string](i + 1))
		}
		return kont.ExprReturn(kont.Right[int]("done"))
	}))
	if result != "done" {
		t.Fatalf("got %q, want %q", result, "done")
	}
}

func TestExprLoopDeep(t *testing.T) {
	// Effects in every iteration chain frames instead of recursing.
	const n = 10000
	result, err := corun.ExecExpr(context.Background(), corun.ExprLoop(0, func(i int) kont.Expr[kont.Either[int, int]] {
		if i == n {
			return kont.ExprReturn(kont.Right[int](i))
		}
		return corun.ExprAwaitBind(nil, func(corun.Result) kont.Expr[kont.Either[int, int]] {
			return kont.ExprReturn(kont.Left[int, int](i + 1))
		})
	}), corun.WithDriver(&instantDriver{}))
	if err != nil {
		t.Fatal(err)
	}
	if result != n {
		t.Fatalf("got %d, want %d", result, n)
	}
}

func TestLoopCounter(t *testing.T) {
	result, err := corun.Exec(context.Background(), corun.Loop(0, func(acc int) kont.Eff[kont.Either[int, int]] {
		if acc >= 10 {
			return kont.Pure(kont.Right[int](acc))
		}
		return corun.YieldThen(kont.Pure(kont.Left[int, int](acc + 1)))
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result != 10 {
		t.Fatalf("got %d, want 10", result)
	}
}

// instantDriver completes every queued operation on the next reap without
// running it.
type instantDriver struct {
	stubDriver
}

func (d *instantDriver) Queue(index int, _ corun.IOFunc) {
	d.complete(index, 0, nil)
}

func TestLoopPureIterationsRunFlat(t *testing.T) {
	const n = 1 << 20
	result, err := corun.Exec(context.Background(), corun.Loop(0, func(i int) kont.Eff[kont.Either[int, int]] {
		if i == n {
			return kont.Pure(kont.Right[int](i))
		}
		return kont.Pure(kont.Left[int, int](i + 1))
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result != n {
		t.Fatalf("got %d, want %d", result, n)
	}
}
