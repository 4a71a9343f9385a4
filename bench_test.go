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

// BenchmarkSpawnRun measures spawning and finishing one Expr task.
func BenchmarkSpawnRun(b *testing.B) {
	rt := newRuntime(b)
	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := corun.SpawnExpr(rt, kont.ExprReturn(1)); err != nil {
			b.Fatal(err)
		}
		if err := rt.Run(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkYieldTick measures one tick of a yielding Expr task.
func BenchmarkYieldTick(b *testing.B) {
	rt := newRuntime(b)
	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := corun.SpawnExpr(rt, corun.ExprYieldThen(kont.ExprReturn(1))); err != nil {
			b.Fatal(err)
		}
		if err := rt.Run(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkChanSameRuntime measures moving values between two coroutine
// tasks on one runtime.
func BenchmarkChanSameRuntime(b *testing.B) {
	rt := newRuntime(b)
	ch := corun.NewChan[int](64)
	tx, rx := ch.Producer(rt), ch.Consumer(rt)
	n := b.N
	b.ReportAllocs()
	b.ResetTimer()
	if _, err := rt.Go(func(task *corun.Task) error {
		defer tx.Close()
		for i := range n {
			if err := tx.Send(task, i); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		b.Fatal(err)
	}
	if _, err := rt.Go(func(task *corun.Task) error {
		for {
			if _, err := rx.Recv(task); err != nil {
				return nil
			}
		}
	}); err != nil {
		b.Fatal(err)
	}
	run(b, rt)
}

// BenchmarkChanCrossRuntime measures moving values between two runtimes.
func BenchmarkChanCrossRuntime(b *testing.B) {
	skipRace(b)
	prod := newRuntime(b)
	cons := newRuntime(b)
	ch := corun.NewChan[int](256)
	tx, rx := ch.Producer(prod), ch.Consumer(cons)
	n := b.N
	b.ReportAllocs()
	b.ResetTimer()
	if _, err := prod.Go(func(task *corun.Task) error {
		defer tx.Close()
		for i := range n {
			if err := tx.Send(task, i); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		b.Fatal(err)
	}
	if _, err := cons.Go(func(task *corun.Task) error {
		for {
			if _, err := rx.Recv(task); err != nil {
				return nil
			}
		}
	}); err != nil {
		b.Fatal(err)
	}
	if err := corun.RunAll(context.Background(), prod, cons); err != nil {
		b.Fatal(err)
	}
}
