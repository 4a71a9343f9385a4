// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"testing/quick"

	"code.hybscloud.com/corun"
	"code.hybscloud.com/kont"
)

// TestPropertyChanFIFO checks that for any payload and capacity the channel
// delivers every value exactly once, in order, and then reports closed.
func TestPropertyChanFIFO(t *testing.T) {
	propertyFIFO := func(payload []int, capacity uint8) bool {
		rt, err := corun.New(corun.WithCapacity(2))
		if err != nil {
			return false
		}
		defer rt.Close()
		ch := corun.NewChan[int](int(capacity%8) + 1)
		tx, rx := ch.Producer(rt), ch.Consumer(rt)

		if _, err := rt.Go(func(task *corun.Task) error {
			defer tx.Close()
			for _, v := range payload {
				if err := tx.Send(task, v); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return false
		}
		received := make([]int, 0, len(payload))
		var end error
		if _, err := rt.Go(func(task *corun.Task) error {
			for {
				v, err := rx.Recv(task)
				if err != nil {
					end = err
					return nil
				}
				received = append(received, v)
			}
		}); err != nil {
			return false
		}
		if err := rt.Run(context.Background()); err != nil {
			return false
		}
		if !errors.Is(end, corun.ErrClosed) {
			return false
		}
		if len(payload) == 0 {
			return len(received) == 0
		}
		return reflect.DeepEqual(payload, received)
	}

	if err := quick.Check(propertyFIFO, nil); err != nil {
		t.Fatal(err)
	}
}

// TestPropertyExprLoopSum checks that an effectful Expr loop over a
// channel computes the same sum as a plain loop.
func TestPropertyExprLoopSum(t *testing.T) {
	propertySum := func(payload []int16) bool {
		rt, err := corun.New()
		if err != nil {
			return false
		}
		defer rt.Close()
		ch := corun.NewChan[int16](4)
		tx, rx := ch.Producer(rt), ch.Consumer(rt)

		producer := corun.ExprLoop(payload, func(rest []int16) kont.Expr[kont.Either[[]int16, struct{}]] {
			if len(rest) == 0 {
				return corun.ExprCloseDone(tx, kont.Right[[]int16](struct{}{}))
			}
			return corun.ExprSendThen(tx, rest[0], kont.ExprReturn(kont.Left[[]int16, struct{}](rest[1:])))
		})
		consumer := corun.ExprLoop(0, func(sum int) kont.Expr[kont.Either[int, int]] {
			return corun.ExprRecvOr(rx,
				func(v int16) kont.Expr[kont.Either[int, int]] {
					return kont.ExprReturn(kont.Left[int, int](sum + int(v)))
				},
				func() kont.Expr[kont.Either[int, int]] {
					return kont.ExprReturn(kont.Right[int](sum))
				},
			)
		})
		if _, err := corun.SpawnExpr(rt, producer); err != nil {
			return false
		}
		f, err := corun.SpawnExpr(rt, consumer)
		if err != nil {
			return false
		}
		if err := rt.Run(context.Background()); err != nil {
			return false
		}
		want := 0
		for _, v := range payload {
			want += int(v)
		}
		return f.Status() == corun.StatusDone && f.Result() == want
	}

	if err := quick.Check(propertySum, nil); err != nil {
		t.Fatal(err)
	}
}
