// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/gammazero/deque"
	"golang.org/x/sync/errgroup"
)

// WakeIndex is the task index carried by a synthetic wake completion.
// A wake names no task; it only makes the runtime re-check its state.
const WakeIndex = -1

// IOFunc is an asynchronous I/O operation. It runs off the runtime's
// goroutine. Returning iox.ErrWouldBlock asks the driver to retry later.
type IOFunc func(ctx context.Context) (int, error)

// Result is the outcome of an IOFunc.
type Result struct {
	N   int
	Err error
}

// Completion pairs a Result with the index of the task that issued it.
type Completion struct {
	Index  int
	Result Result
}

// Wake reports whether c is a synthetic wake completion.
func (c Completion) Wake() bool {
	return c.Index == WakeIndex
}

// Driver is the asynchronous I/O backend of a Runtime.
//
// Queue, Submit, Reap and Close are called only from the runtime's goroutine.
// Wake may be called from any goroutine; concurrent wakes may coalesce into a
// single wake completion.
type Driver interface {
	// Queue records an operation issued by the task at index.
	Queue(index int, fn IOFunc)
	// Submit flushes queued operations to the backend.
	Submit() error
	// Reap delivers ready completions to fn. With block set, it waits until
	// at least one completion (or a wake) is ready or ctx is done.
	Reap(ctx context.Context, block bool, fn func(Completion)) error
	// Wake makes a pending or future Reap deliver a wake completion.
	Wake() error
	// Close stops the backend and waits for in-flight operations.
	Close() error
}

type pendingOp struct {
	index int
	fn    IOFunc
}

// Loopback is an in-process Driver. Operations run on a bounded pool of
// goroutines; completions and wakes are delivered over channels.
type Loopback struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	queued deque.Deque[pendingOp]
	done   chan Completion
	wake   chan struct{}
	closed atomix.Uint32
}

// NewLoopback creates a Loopback driver running at most concurrency
// operations at once.
func NewLoopback(concurrency int) *Loopback {
	if concurrency <= 0 {
		concurrency = DefaultIOConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	return &Loopback{
		ctx:    ctx,
		cancel: cancel,
		group:  g,
		done:   make(chan Completion, concurrency),
		wake:   make(chan struct{}, 1),
	}
}

// Queue records fn for the next Submit.
func (d *Loopback) Queue(index int, fn IOFunc) {
	d.queued.PushBack(pendingOp{index: index, fn: fn})
}

// Submit starts as many queued operations as the pool admits. Operations
// that do not fit stay queued for the next Submit, in order.
func (d *Loopback) Submit() error {
	for d.queued.Len() > 0 {
		op := d.queued.Front()
		if !d.group.TryGo(func() error { return d.exec(op) }) {
			return nil
		}
		d.queued.PopFront()
	}
	return nil
}

// exec runs op, retrying with adaptive backoff while it would block.
// A completion nobody reaps is dropped once the driver is closed.
func (d *Loopback) exec(op pendingOp) error {
	var bo iox.Backoff
	for {
		n, err := op.fn(d.ctx)
		if iox.IsWouldBlock(err) && d.ctx.Err() == nil {
			bo.Wait()
			continue
		}
		select {
		case d.done <- Completion{Index: op.index, Result: Result{N: n, Err: err}}:
		case <-d.ctx.Done():
		}
		return nil
	}
}

// Reap delivers completions to fn.
func (d *Loopback) Reap(ctx context.Context, block bool, fn func(Completion)) error {
	if block {
		select {
		case c := <-d.done:
			fn(c)
		case <-d.wake:
			fn(Completion{Index: WakeIndex})
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for {
		select {
		case c := <-d.done:
			fn(c)
		case <-d.wake:
			fn(Completion{Index: WakeIndex})
		default:
			return nil
		}
	}
}

// Wake is safe to call from any goroutine.
func (d *Loopback) Wake() error {
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close cancels in-flight operations and waits for their workers.
// Queued operations that never started are dropped.
func (d *Loopback) Close() error {
	if !d.closed.CompareAndSwap(0, 1) {
		return nil
	}
	d.cancel()
	d.queued.Clear()
	return d.group.Wait()
}
