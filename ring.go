// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"math/bits"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// ring is a bounded SPSC buffer of exactly cap values.
//
// The lfq queue is sized to the next power of two; the occupancy counter
// enforces the requested capacity. The producer increments the counter
// before enqueueing and the consumer decrements it after dequeueing, so
// the counter never reads below the true occupancy.
type ring[T any] struct {
	q   lfq.SPSC[T]
	n   atomix.Uint32
	cap uint32
}

func newRing[T any](capacity int) *ring[T] {
	r := &ring[T]{cap: uint32(capacity)}
	r.q.Init(ringSize(capacity))
	return r
}

// ringSize returns the lfq queue size backing capacity.
func ringSize(capacity int) int {
	if capacity <= 2 {
		return 2
	}
	return 1 << bits.Len(uint(capacity-1))
}

// push enqueues v. Producer only. Reports false when the ring is full.
func (r *ring[T]) push(v T) bool {
	if r.n.Load() >= r.cap {
		return false
	}
	r.n.Add(1)
	if err := r.q.Enqueue(&v); err != nil {
		r.n.Add(^uint32(0))
		return false
	}
	return true
}

// pop dequeues a value. Consumer only. Reports false when the ring is empty.
func (r *ring[T]) pop() (T, bool) {
	v, err := r.q.Dequeue()
	if err != nil {
		var zero T
		return zero, false
	}
	r.n.Add(^uint32(0))
	return v, true
}

func (r *ring[T]) len() int {
	return int(r.n.Load())
}

func (r *ring[T]) full() bool {
	return r.n.Load() >= r.cap
}
