// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package corun provides a cooperative, single-threaded-per-runtime task
// runtime with integrated asynchronous I/O, and a lock-free single-producer
// single-consumer channel that connects tasks living on different runtimes.
//
// # Architecture
//
//   - Runtime: one per goroutine (optionally pinned to its OS thread). Each tick
//     resumes the dirty tasks once, then submits and reaps asynchronous I/O.
//     [Runtime.Trigger], [Runtime.Wake] and [Runtime.Stop] are the only methods
//     safe to call from another goroutine.
//   - Frames: a task's computation is a [Frame]. [ExprFrame] steps a
//     [code.hybscloud.com/kont] program one effect at a time; [CoroFrame] runs an
//     imperative function as a stackful coroutine.
//   - Driver: asynchronous I/O goes through a [Driver]. [NewLoopback] runs
//     [IOFunc] operations on a bounded worker pool.
//   - Channel: [Chan] binds one [Sender] and one [Receiver] over a bounded
//     [code.hybscloud.com/lfq] SPSC ring. The steady state touches no shared
//     state beyond the ring; only a full or empty ring records the waiting task
//     and triggers the peer's runtime.
//
// # Suspension
//
// A task suspends only inside channel operations (waiting for the peer to
// attach, or on a full/empty ring), explicit yields, parks, and I/O awaits.
// Every suspension records what the task awaits and returns
// [code.hybscloud.com/iox.ErrWouldBlock] to the frame, which hands control
// back to the runtime.
//
// # Example
//
//	prod, _ := corun.New()
//	cons, _ := corun.New()
//	ch := corun.NewChan[int](8)
//	tx, rx := ch.Producer(prod), ch.Consumer(cons)
//	prod.Go(func(t *corun.Task) error {
//		defer tx.Close()
//		for i := range 100 {
//			if err := tx.Send(t, i); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
//	cons.Go(func(t *corun.Task) error {
//		for {
//			v, err := rx.Recv(t)
//			if errors.Is(err, corun.ErrClosed) {
//				return nil
//			}
//			use(v)
//		}
//	})
//	_ = corun.RunAll(context.Background(), prod, cons)
package corun
